package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/placedir/server/internal/domain/places"
	"github.com/placedir/server/internal/metrics"
)

func (r *KeywordRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.queryTimeout)
}

func (r *KeywordRepository) List(ctx context.Context) (keywords []places.Keyword, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("list_keywords", start, err) }()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.queryer().Query(ctx, `SELECT id, name FROM keywords ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var keyword places.Keyword
		if err = rows.Scan(&keyword.ID, &keyword.Name); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		keywords = append(keywords, keyword)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return keywords, nil
}

// SetPlaceKeywords replaces the association set for one place. Unknown
// keyword ids fail the whole call via the foreign key, nothing partial.
func (r *KeywordRepository) SetPlaceKeywords(ctx context.Context, placeID int64, keywordIDs []int64) (err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("set_place_keywords", start, err) }()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	run := func(q queryer) error {
		if _, err := q.Exec(ctx, `DELETE FROM place_keywords WHERE place_id = $1`, placeID); err != nil {
			return fmt.Errorf("clear place keywords: %w", err)
		}
		if len(keywordIDs) == 0 {
			return nil
		}
		if _, err := q.Exec(ctx, `
INSERT INTO place_keywords (place_id, keyword_id)
SELECT $1, unnest($2::bigint[])
ON CONFLICT DO NOTHING
`, placeID, keywordIDs); err != nil {
			return fmt.Errorf("insert place keywords: %w", err)
		}
		return nil
	}

	if r.tx != nil {
		return run(r.tx)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err = run(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

var _ places.KeywordRepository = (*KeywordRepository)(nil)
