package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the root of all postgres-backed repositories. Individual
// repositories share the pool, or a transaction when one is active.
type Repository struct {
	pool         *pgxpool.Pool
	tx           pgx.Tx
	queryTimeout time.Duration
}

func NewRepository(pool *pgxpool.Pool, queryTimeout time.Duration) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	if queryTimeout <= 0 {
		queryTimeout = 5 * time.Second
	}
	return &Repository{pool: pool, queryTimeout: queryTimeout}, nil
}

func (r *Repository) Places() *PlaceRepository {
	return &PlaceRepository{pool: r.pool, tx: r.tx, queryTimeout: r.queryTimeout}
}

func (r *Repository) Search() *SearchRepository {
	return &SearchRepository{pool: r.pool, tx: r.tx, queryTimeout: r.queryTimeout}
}

func (r *Repository) Keywords() *KeywordRepository {
	return &KeywordRepository{pool: r.pool, tx: r.tx, queryTimeout: r.queryTimeout}
}

func (r *Repository) Users() *UserRepository {
	return &UserRepository{pool: r.pool, tx: r.tx, queryTimeout: r.queryTimeout}
}

// WithTx runs fn against a transactional copy of the repository root.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, *Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &Repository{pool: r.pool, tx: tx, queryTimeout: r.queryTimeout}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PlaceRepository struct {
	pool         *pgxpool.Pool
	tx           pgx.Tx
	queryTimeout time.Duration
}

type SearchRepository struct {
	pool         *pgxpool.Pool
	tx           pgx.Tx
	queryTimeout time.Duration
}

type KeywordRepository struct {
	pool         *pgxpool.Pool
	tx           pgx.Tx
	queryTimeout time.Duration
}

type UserRepository struct {
	pool         *pgxpool.Pool
	tx           pgx.Tx
	queryTimeout time.Duration
}

func (r *PlaceRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *SearchRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *KeywordRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *UserRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}
