package ids

import (
	"crypto/rand"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ulidRegex = regexp.MustCompile(`(?i)^[0-9A-HJKMNP-TV-Z]{26}$`)

	ErrInvalidULID = errors.New("invalid ULID")
)

// NewULID mints a new ULID for public place identifiers.
func NewULID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ValidateULID checks the 26-character Crockford base32 shape.
func ValidateULID(value string) error {
	if !ulidRegex.MatchString(strings.TrimSpace(value)) {
		return ErrInvalidULID
	}
	return nil
}

// Normalize upper-cases and trims a ULID for storage and comparison.
func Normalize(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}
