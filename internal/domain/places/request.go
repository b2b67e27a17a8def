package places

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 20
	MinPageSize     = 1
	MaxPageSize     = 100

	DefaultRadiusMeters = 5000
	MinRadiusMeters     = 100
	MaxRadiusMeters     = 50000

	MaxKeywordIDs = 20
)

type FilterError struct {
	Field   string
	Message string
}

func (e FilterError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// SearchRequest carries every discovery filter plus sort and pagination
// state. Zero values mean "not filtered" except for the baseline fields
// (IsActive, ApprovalStatus) which Normalize defaults.
type SearchRequest struct {
	Keyword    string
	Name       string
	Category   string
	PlaceType  string
	KeywordIDs []int64

	ParkingAvailable *bool

	Latitude     *float64
	Longitude    *float64
	RadiusMeters int

	Province string
	City     string
	District string

	// RegistrationStatus empty means no filtering: both registered and
	// unregistered places are returned.
	RegistrationStatus string

	// Baseline filters, always applied.
	IsActive       bool
	ApprovalStatus ApprovalStatus

	SortBy        SortBy
	SortDirection SortDirection
	Cursor        string
	Size          int
}

// Geospatial reports whether the request carries a complete center point.
func (r SearchRequest) Geospatial() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Normalize applies defaults, clamps bounded fields, and rejects malformed
// enum values. Out-of-range size and radius are clamped rather than rejected.
func (r *SearchRequest) Normalize() error {
	r.Keyword = strings.TrimSpace(r.Keyword)
	r.Name = strings.TrimSpace(r.Name)
	r.Category = strings.TrimSpace(r.Category)
	r.PlaceType = strings.TrimSpace(r.PlaceType)
	r.Province = strings.TrimSpace(r.Province)
	r.City = strings.TrimSpace(r.City)
	r.District = strings.TrimSpace(r.District)
	r.Cursor = strings.TrimSpace(r.Cursor)

	if (r.Latitude == nil) != (r.Longitude == nil) {
		return FilterError{Field: "latitude,longitude", Message: "latitude and longitude are required together"}
	}
	if r.Latitude != nil {
		if *r.Latitude < -90 || *r.Latitude > 90 {
			return FilterError{Field: "latitude", Message: "must be between -90 and 90"}
		}
		if *r.Longitude < -180 || *r.Longitude > 180 {
			return FilterError{Field: "longitude", Message: "must be between -180 and 180"}
		}
	}

	if r.RadiusMeters == 0 {
		r.RadiusMeters = DefaultRadiusMeters
	}
	if r.RadiusMeters < MinRadiusMeters {
		r.RadiusMeters = MinRadiusMeters
	}
	if r.RadiusMeters > MaxRadiusMeters {
		r.RadiusMeters = MaxRadiusMeters
	}

	if r.Size == 0 {
		r.Size = DefaultPageSize
	}
	if r.Size < MinPageSize {
		r.Size = MinPageSize
	}
	if r.Size > MaxPageSize {
		r.Size = MaxPageSize
	}

	if len(r.KeywordIDs) > MaxKeywordIDs {
		return FilterError{Field: "keywordIds", Message: fmt.Sprintf("at most %d keyword ids", MaxKeywordIDs)}
	}

	sortBy, err := ParseSortBy(string(r.SortBy))
	if err != nil {
		return FilterError{Field: "sortBy", Message: err.Error()}
	}
	r.SortBy = sortBy

	direction, err := ParseSortDirection(string(r.SortDirection))
	if err != nil {
		return FilterError{Field: "sortDirection", Message: err.Error()}
	}
	r.SortDirection = direction

	if r.RegistrationStatus != "" {
		status, err := ParseRegistrationStatus(r.RegistrationStatus)
		if err != nil {
			return FilterError{Field: "registrationStatus", Message: err.Error()}
		}
		r.RegistrationStatus = string(status)
	}

	if r.ApprovalStatus == "" {
		r.ApprovalStatus = ApprovalApproved
	} else {
		status, err := ParseApprovalStatus(string(r.ApprovalStatus))
		if err != nil {
			return FilterError{Field: "approvalStatus", Message: err.Error()}
		}
		r.ApprovalStatus = status
	}

	return nil
}

// ParseSearchRequest builds a normalized SearchRequest from query parameters.
func ParseSearchRequest(values url.Values) (SearchRequest, error) {
	req := SearchRequest{
		Keyword:            values.Get("keyword"),
		Name:               values.Get("placeName"),
		Category:           values.Get("category"),
		PlaceType:          values.Get("placeType"),
		Province:           values.Get("province"),
		City:               values.Get("city"),
		District:           values.Get("district"),
		RegistrationStatus: strings.TrimSpace(values.Get("registrationStatus")),
		SortBy:             SortBy(values.Get("sortBy")),
		SortDirection:      SortDirection(values.Get("sortDirection")),
		Cursor:             values.Get("cursor"),
		IsActive:           true,
	}

	if raw := strings.TrimSpace(values.Get("isActive")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return req, FilterError{Field: "isActive", Message: "must be a boolean"}
		}
		req.IsActive = active
	}
	if raw := strings.TrimSpace(values.Get("approvalStatus")); raw != "" {
		req.ApprovalStatus = ApprovalStatus(raw)
	}

	if raw := strings.TrimSpace(values.Get("parkingAvailable")); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			return req, FilterError{Field: "parkingAvailable", Message: "must be a boolean"}
		}
		req.ParkingAvailable = &available
	}

	if raw := strings.TrimSpace(values.Get("size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return req, FilterError{Field: "size", Message: "must be a number"}
		}
		req.Size = size
	}
	if raw := strings.TrimSpace(values.Get("radius")); raw != "" {
		radius, err := strconv.Atoi(raw)
		if err != nil {
			return req, FilterError{Field: "radius", Message: "must be a number"}
		}
		req.RadiusMeters = radius
	}

	if raw := strings.TrimSpace(values.Get("latitude")); raw != "" {
		lat, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, FilterError{Field: "latitude", Message: "must be a valid number"}
		}
		req.Latitude = &lat
	}
	if raw := strings.TrimSpace(values.Get("longitude")); raw != "" {
		lng, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, FilterError{Field: "longitude", Message: "must be a valid number"}
		}
		req.Longitude = &lng
	}

	if raw := strings.TrimSpace(values.Get("keywordIds")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return req, FilterError{Field: "keywordIds", Message: "must be a comma-separated list of positive integers"}
			}
			req.KeywordIDs = append(req.KeywordIDs, id)
		}
	}

	if err := req.Normalize(); err != nil {
		return req, err
	}
	return req, nil
}
