package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/placedir/server/internal/domain/users"
	"github.com/placedir/server/internal/metrics"
)

func (r *UserRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.queryTimeout)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (user *users.User, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("get_user_by_email", start, err) }()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var u users.User
	err = r.queryer().QueryRow(ctx, `
SELECT id, ulid, email, password_hash, display_name, role, created_at, updated_at
FROM users
WHERE email = $1
`, email).Scan(&u.ID, &u.ULID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, users.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

var _ users.Repository = (*UserRepository)(nil)
