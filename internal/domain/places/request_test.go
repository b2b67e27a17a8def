package places

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	req := SearchRequest{}
	require.NoError(t, req.Normalize())

	require.Equal(t, DefaultPageSize, req.Size)
	require.Equal(t, DefaultRadiusMeters, req.RadiusMeters)
	require.Equal(t, SortByDistance, req.SortBy)
	require.Equal(t, SortAsc, req.SortDirection)
	require.Equal(t, ApprovalApproved, req.ApprovalStatus)
}

func TestNormalizeClampsSize(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, DefaultPageSize},
		{-5, MinPageSize},
		{1, 1},
		{100, 100},
		{500, MaxPageSize},
	}
	for _, tc := range cases {
		req := SearchRequest{Size: tc.in}
		require.NoError(t, req.Normalize())
		require.Equal(t, tc.want, req.Size, "size %d", tc.in)
	}
}

func TestNormalizeClampsRadius(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, DefaultRadiusMeters},
		{50, MinRadiusMeters},
		{100, 100},
		{50000, 50000},
		{99999, MaxRadiusMeters},
	}
	for _, tc := range cases {
		req := SearchRequest{RadiusMeters: tc.in}
		require.NoError(t, req.Normalize())
		require.Equal(t, tc.want, req.RadiusMeters, "radius %d", tc.in)
	}
}

func TestNormalizeRequiresCompleteCenter(t *testing.T) {
	lat := 37.5665
	req := SearchRequest{Latitude: &lat}
	err := req.Normalize()

	var filterErr FilterError
	require.ErrorAs(t, err, &filterErr)
	require.Equal(t, "latitude,longitude", filterErr.Field)
}

func TestNormalizeRejectsOutOfRangeCoordinates(t *testing.T) {
	lat, lng := 91.0, 127.0
	req := SearchRequest{Latitude: &lat, Longitude: &lng}
	var filterErr FilterError
	require.ErrorAs(t, req.Normalize(), &filterErr)
	require.Equal(t, "latitude", filterErr.Field)

	lat, lng = 37.5, -181.0
	req = SearchRequest{Latitude: &lat, Longitude: &lng}
	require.ErrorAs(t, req.Normalize(), &filterErr)
	require.Equal(t, "longitude", filterErr.Field)
}

func TestNormalizeRejectsUnknownEnums(t *testing.T) {
	req := SearchRequest{SortBy: "SHOE_SIZE"}
	var filterErr FilterError
	require.ErrorAs(t, req.Normalize(), &filterErr)
	require.Equal(t, "sortBy", filterErr.Field)

	req = SearchRequest{SortDirection: "SIDEWAYS"}
	require.ErrorAs(t, req.Normalize(), &filterErr)
	require.Equal(t, "sortDirection", filterErr.Field)

	req = SearchRequest{RegistrationStatus: "MAYBE"}
	require.ErrorAs(t, req.Normalize(), &filterErr)
	require.Equal(t, "registrationStatus", filterErr.Field)

	req = SearchRequest{ApprovalStatus: "HALF"}
	require.ErrorAs(t, req.Normalize(), &filterErr)
	require.Equal(t, "approvalStatus", filterErr.Field)
}

func TestNormalizeLowercaseEnumsAccepted(t *testing.T) {
	req := SearchRequest{SortBy: "rating", SortDirection: "desc", RegistrationStatus: "registered"}
	require.NoError(t, req.Normalize())
	require.Equal(t, SortByRating, req.SortBy)
	require.Equal(t, SortDesc, req.SortDirection)
	require.Equal(t, string(Registered), req.RegistrationStatus)
}

func TestNormalizeKeywordIDLimit(t *testing.T) {
	ids := make([]int64, MaxKeywordIDs+1)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	req := SearchRequest{KeywordIDs: ids}
	var filterErr FilterError
	require.ErrorAs(t, req.Normalize(), &filterErr)
	require.Equal(t, "keywordIds", filterErr.Field)
}

func TestParseSearchRequestQueryParams(t *testing.T) {
	values := url.Values{}
	values.Set("keyword", " jazz ")
	values.Set("placeName", "Blue Note")
	values.Set("category", "LIVE_MUSIC")
	values.Set("sortBy", "REVIEW_COUNT")
	values.Set("sortDirection", "DESC")
	values.Set("size", "30")
	values.Set("parkingAvailable", "true")
	values.Set("keywordIds", "1, 2,3")

	req, err := ParseSearchRequest(values)
	require.NoError(t, err)
	require.Equal(t, "jazz", req.Keyword)
	require.Equal(t, "Blue Note", req.Name)
	require.Equal(t, "LIVE_MUSIC", req.Category)
	require.Equal(t, SortByReviewCount, req.SortBy)
	require.Equal(t, SortDesc, req.SortDirection)
	require.Equal(t, 30, req.Size)
	require.NotNil(t, req.ParkingAvailable)
	require.True(t, *req.ParkingAvailable)
	require.Equal(t, []int64{1, 2, 3}, req.KeywordIDs)
	require.True(t, req.IsActive)
}

func TestParseSearchRequestGeospatial(t *testing.T) {
	values := url.Values{}
	values.Set("latitude", "37.5665")
	values.Set("longitude", "126.9780")
	values.Set("radius", "250")

	req, err := ParseSearchRequest(values)
	require.NoError(t, err)
	require.True(t, req.Geospatial())
	require.Equal(t, 37.5665, *req.Latitude)
	require.Equal(t, 126.9780, *req.Longitude)
	require.Equal(t, 250, req.RadiusMeters)
}

func TestParseSearchRequestRejectsMalformedValues(t *testing.T) {
	cases := []struct {
		param string
		value string
		field string
	}{
		{"size", "twenty", "size"},
		{"radius", "wide", "radius"},
		{"latitude", "north", "latitude"},
		{"longitude", "east", "longitude"},
		{"isActive", "yep", "isActive"},
		{"parkingAvailable", "sure", "parkingAvailable"},
		{"keywordIds", "1,two", "keywordIds"},
		{"keywordIds", "0", "keywordIds"},
	}
	for _, tc := range cases {
		values := url.Values{}
		values.Set(tc.param, tc.value)
		_, err := ParseSearchRequest(values)
		var filterErr FilterError
		require.ErrorAs(t, err, &filterErr, "%s=%s", tc.param, tc.value)
		require.Equal(t, tc.field, filterErr.Field)
	}
}
