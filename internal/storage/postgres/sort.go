package postgres

import (
	"fmt"
	"strconv"

	"github.com/placedir/server/internal/api/pagination"
	"github.com/placedir/server/internal/domain/places"
)

// sortStrategy bundles everything one sort key needs: the ORDER BY column,
// the seek-predicate builder, and the cursor-value extractor. DISTANCE has no
// entry because distance is computed, not stored; without geospatial
// parameters the engine falls back to plain id ordering.
type sortStrategy struct {
	column      string
	nullsLast   bool
	cursorValue func(item places.Result) string
	seekValue   func(cursor pagination.SearchCursor) (any, error)
}

var sortStrategies = map[places.SortBy]sortStrategy{
	places.SortByRating: {
		column:    "p.rating_average",
		nullsLast: true,
		cursorValue: func(item places.Result) string {
			return strconv.FormatFloat(item.RatingAverage, 'f', -1, 64)
		},
		seekValue: func(cursor pagination.SearchCursor) (any, error) {
			return cursor.FloatValue()
		},
	},
	places.SortByReviewCount: {
		column: "p.review_count",
		cursorValue: func(item places.Result) string {
			return strconv.FormatInt(int64(item.ReviewCount), 10)
		},
		seekValue: func(cursor pagination.SearchCursor) (any, error) {
			return cursor.IntValue()
		},
	},
	places.SortByCreatedAt: {
		// Cursors carry epoch seconds, so comparisons must use the same
		// second precision or the pivot row would reappear on the next page.
		column: "date_trunc('second', p.created_at)",
		cursorValue: func(item places.Result) string {
			return strconv.FormatInt(item.CreatedAt.Unix(), 10)
		},
		seekValue: func(cursor pagination.SearchCursor) (any, error) {
			return cursor.TimeValue()
		},
	},
	places.SortByPlaceName: {
		column: "p.name",
		cursorValue: func(item places.Result) string {
			return item.Name
		},
		seekValue: func(cursor pagination.SearchCursor) (any, error) {
			return cursor.LastValue, nil
		},
	},
}

// orderBy returns the full ORDER BY expression. id ASC is always the final
// key, regardless of the primary direction, so the total order is stable.
func (s sortStrategy) orderBy(direction places.SortDirection) string {
	clause := fmt.Sprintf("%s %s", s.column, direction)
	if s.nullsLast && direction == places.SortAsc {
		clause += " NULLS LAST"
	}
	return clause + ", p.id ASC"
}

// appendSeek adds the keyset predicate for resuming after the cursor row:
// ascending:  (F > v) OR (F = v AND id > lastId)
// descending: (F < v) OR (F = v AND id > lastId)
// The id tie-break stays ascending in both directions.
func (s sortStrategy) appendSeek(b *whereBuilder, cursor pagination.SearchCursor, direction places.SortDirection) error {
	value, err := s.seekValue(cursor)
	if err != nil {
		return err
	}
	op := ">"
	if direction == places.SortDesc {
		op = "<"
	}
	b.where(
		fmt.Sprintf("(%s %s ? OR (%s = ? AND p.id > ?))", s.column, op, s.column),
		value, value, cursor.LastID,
	)
	return nil
}
