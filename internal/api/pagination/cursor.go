package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrCursorMismatch means the token decoded cleanly but was minted under a
	// different sort order or direction than the current request.
	ErrCursorMismatch = errors.New("cursor does not match requested sort order")
)

const cursorVersion = "v1"

// SearchCursor pins the seek position of a paginated place search: the last
// row's id plus the last value of the primary sort field. The id is always the
// final tie-breaker because no other column is unique and totally ordered.
type SearchCursor struct {
	SortBy    string
	Direction string
	LastID    int64
	LastValue string
}

// EncodeSearchCursor encodes base64(v1:<sort>:<dir>:<lastID>:<lastValue>).
// The sort value goes last so PLACE_NAME values containing ':' survive.
func EncodeSearchCursor(sortBy, direction string, lastID int64, lastValue string) string {
	value := fmt.Sprintf("%s:%s:%s:%d:%s", cursorVersion, strings.ToUpper(sortBy), strings.ToUpper(direction), lastID, lastValue)
	return base64.RawURLEncoding.EncodeToString([]byte(value))
}

// DecodeSearchCursor validates structure only. Callers reject sort mismatches
// via Matches so that "malformed token" and "token from another sort order"
// stay distinguishable.
func DecodeSearchCursor(cursor string) (SearchCursor, error) {
	cursor = strings.TrimSpace(cursor)
	if cursor == "" {
		return SearchCursor{}, ErrInvalidCursor
	}
	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return SearchCursor{}, ErrInvalidCursor
	}
	parts := strings.SplitN(string(decoded), ":", 5)
	if len(parts) != 5 {
		return SearchCursor{}, ErrInvalidCursor
	}
	if parts[0] != cursorVersion {
		return SearchCursor{}, ErrInvalidCursor
	}
	if strings.TrimSpace(parts[1]) == "" || strings.TrimSpace(parts[2]) == "" {
		return SearchCursor{}, ErrInvalidCursor
	}
	lastID, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil || lastID <= 0 {
		return SearchCursor{}, ErrInvalidCursor
	}
	return SearchCursor{
		SortBy:    strings.ToUpper(parts[1]),
		Direction: strings.ToUpper(parts[2]),
		LastID:    lastID,
		LastValue: parts[4],
	}, nil
}

// Matches reports whether the cursor was minted for the given sort order.
func (c SearchCursor) Matches(sortBy, direction string) error {
	if !strings.EqualFold(c.SortBy, sortBy) || !strings.EqualFold(c.Direction, direction) {
		return ErrCursorMismatch
	}
	return nil
}

// FloatValue parses the sort value for numeric sort fields (RATING).
func (c SearchCursor) FloatValue() (float64, error) {
	value, err := strconv.ParseFloat(c.LastValue, 64)
	if err != nil {
		return 0, ErrInvalidCursor
	}
	return value, nil
}

// IntValue parses the sort value for integer sort fields (REVIEW_COUNT).
func (c SearchCursor) IntValue() (int64, error) {
	value, err := strconv.ParseInt(c.LastValue, 10, 64)
	if err != nil {
		return 0, ErrInvalidCursor
	}
	return value, nil
}

// TimeValue parses the sort value for timestamp sort fields (CREATED_AT),
// encoded as epoch seconds.
func (c SearchCursor) TimeValue() (time.Time, error) {
	seconds, err := strconv.ParseInt(c.LastValue, 10, 64)
	if err != nil {
		return time.Time{}, ErrInvalidCursor
	}
	return time.Unix(seconds, 0).UTC(), nil
}
