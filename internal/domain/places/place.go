package places

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound  = errors.New("place not found")
	ErrForbidden = errors.New("not the owner of this place")
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

func ParseApprovalStatus(value string) (ApprovalStatus, error) {
	switch status := ApprovalStatus(strings.ToUpper(strings.TrimSpace(value))); status {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return status, nil
	}
	return "", fmt.Errorf("unknown approval status %q", value)
}

type RegistrationStatus string

const (
	Registered   RegistrationStatus = "REGISTERED"
	Unregistered RegistrationStatus = "UNREGISTERED"
)

func ParseRegistrationStatus(value string) (RegistrationStatus, error) {
	switch status := RegistrationStatus(strings.ToUpper(strings.TrimSpace(value))); status {
	case Registered, Unregistered:
		return status, nil
	}
	return "", fmt.Errorf("unknown registration status %q", value)
}

type SortBy string

const (
	SortByDistance    SortBy = "DISTANCE"
	SortByRating      SortBy = "RATING"
	SortByReviewCount SortBy = "REVIEW_COUNT"
	SortByCreatedAt   SortBy = "CREATED_AT"
	SortByPlaceName   SortBy = "PLACE_NAME"
)

// ParseSortBy maps an empty value to the DISTANCE default.
func ParseSortBy(value string) (SortBy, error) {
	if strings.TrimSpace(value) == "" {
		return SortByDistance, nil
	}
	switch sort := SortBy(strings.ToUpper(strings.TrimSpace(value))); sort {
	case SortByDistance, SortByRating, SortByReviewCount, SortByCreatedAt, SortByPlaceName:
		return sort, nil
	}
	return "", fmt.Errorf("unknown sort field %q", value)
}

type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

func ParseSortDirection(value string) (SortDirection, error) {
	if strings.TrimSpace(value) == "" {
		return SortAsc, nil
	}
	switch dir := SortDirection(strings.ToUpper(strings.TrimSpace(value))); dir {
	case SortAsc, SortDesc:
		return dir, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", value)
}

// Place is the venue aggregate. The search engine reads a denormalized
// projection of it; the write side maintains it through explicit, ordered
// repository calls (no cascade semantics).
type Place struct {
	ID                 int64
	ULID               string
	OwnerID            string
	Name               string
	Description        string
	Category           string
	PlaceType          string
	IsActive           bool
	ApprovalStatus     ApprovalStatus
	RegistrationStatus RegistrationStatus
	RatingAverage      float64
	ReviewCount        int
	Location           Location
	Contact            Contact
	Parking            Parking
	Images             []Image
	Keywords           []Keyword
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time
}

// Location keeps the WGS84 point alongside denormalized lat/lng scalars so
// both the geography index and plain column access stay cheap.
type Location struct {
	Province      string
	City          string
	District      string
	FullAddress   string
	AddressDetail string
	PostalCode    string
	Latitude      float64
	Longitude     float64
}

type Contact struct {
	Phone   string
	Email   string
	Website string
}

type Parking struct {
	Available bool
	Type      string
}

type Image struct {
	ID        int64
	URL       string
	SortOrder int
}

type Keyword struct {
	ID   int64
	Name string
}

// Space is a bookable sub-resource of a place (a room, hall, or studio floor).
// Search results carry space counts and ids as the "related" enrichment.
type Space struct {
	ID      int64
	PlaceID int64
	Name    string
}

// Result is one denormalized search hit. Distance is set only on geospatial
// searches.
type Result struct {
	ID                 int64
	ULID               string
	Name               string
	Description        string
	Category           string
	PlaceType          string
	RatingAverage      float64
	ReviewCount        int
	IsActive           bool
	ApprovalStatus     ApprovalStatus
	RegistrationStatus RegistrationStatus
	FullAddress        string
	Latitude           float64
	Longitude          float64
	ParkingAvailable   bool
	ParkingType        string
	Contact            string
	ThumbnailURL       string
	Keywords           []string
	RelatedCount       int
	RelatedIDs         []int64
	Distance           *float64
	CreatedAt          time.Time
}

// SearchResult is a single page as produced by the storage layer.
type SearchResult struct {
	Items      []Result
	HasNext    bool
	NextCursor string
}

// Metadata echoes the request shape back to the caller together with timing.
type Metadata struct {
	SearchTimeMillis int64
	SortBy           SortBy
	SortDirection    SortDirection
	CenterLat        *float64
	CenterLng        *float64
	RadiusMeters     int
}

// SearchResponse is the public search payload assembled by the orchestrator.
type SearchResponse struct {
	Items      []Result
	HasNext    bool
	NextCursor string
	Count      int
	Metadata   Metadata
}
