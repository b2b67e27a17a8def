package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/placedir/server/internal/domain/places"
)

type captureSearchRepo struct {
	last   *places.SearchRequest
	result places.SearchResult
}

func (c *captureSearchRepo) Search(_ context.Context, req places.SearchRequest) (places.SearchResult, error) {
	c.last = &req
	return c.result, nil
}

func (c *captureSearchRepo) SearchNearby(_ context.Context, req places.SearchRequest) (places.SearchResult, error) {
	c.last = &req
	return c.result, nil
}

func (c *captureSearchRepo) Count(_ context.Context, req places.SearchRequest) (int64, error) {
	c.last = &req
	return 0, nil
}

type noopRepo struct{}

func (noopRepo) Create(context.Context, *places.Place) error { return nil }
func (noopRepo) GetByULID(context.Context, string) (*places.Place, error) {
	return nil, places.ErrNotFound
}
func (noopRepo) Update(context.Context, *places.Place) error                  { return nil }
func (noopRepo) SetApproval(context.Context, int64, places.ApprovalStatus) error { return nil }
func (noopRepo) SetActive(context.Context, int64, bool) error                 { return nil }
func (noopRepo) SoftDelete(context.Context, int64) error                      { return nil }
func (noopRepo) ReplaceImages(context.Context, int64, []string) error         { return nil }

type noopKeywords struct{}

func (noopKeywords) List(context.Context) ([]places.Keyword, error)       { return nil, nil }
func (noopKeywords) SetPlaceKeywords(context.Context, int64, []int64) error { return nil }

func newSearchHandler(repo *captureSearchRepo) *SearchHandler {
	service := places.NewService(noopRepo{}, repo, noopKeywords{}, places.ServiceOptions{})
	return NewSearchHandler(service, "test")
}

func TestSearchPostBody(t *testing.T) {
	repo := &captureSearchRepo{}
	handler := newSearchHandler(repo)

	body := `{"keyword":"jazz","sortBy":"RATING","sortDirection":"DESC","size":5,"keywordIds":[1,2]}`
	r := httptest.NewRequest("POST", "/api/v1/places/search", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.Search(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, repo.last)
	require.Equal(t, "jazz", repo.last.Keyword)
	require.Equal(t, places.SortByRating, repo.last.SortBy)
	require.Equal(t, places.SortDesc, repo.last.SortDirection)
	require.Equal(t, 5, repo.last.Size)
	require.Equal(t, []int64{1, 2}, repo.last.KeywordIDs)
	require.True(t, repo.last.IsActive)
}

func TestSearchPostRejectsUnknownFields(t *testing.T) {
	handler := newSearchHandler(&captureSearchRepo{})

	r := httptest.NewRequest("POST", "/api/v1/places/search", strings.NewReader(`{"bogus":true}`))
	w := httptest.NewRecorder()
	handler.Search(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestSearchGetValidationErrorShape(t *testing.T) {
	handler := newSearchHandler(&captureSearchRepo{})

	r := httptest.NewRequest("GET", "/api/v1/places/search?size=abc", nil)
	w := httptest.NewRecorder()
	handler.Search(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var p struct {
		Type   string         `json:"type"`
		Errors map[string]any `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	require.Contains(t, p.Type, "validation-error")
	require.Equal(t, "must be a number", p.Errors["size"])
}

func TestSearchResponseIncludesDistance(t *testing.T) {
	distance := 123.4
	repo := &captureSearchRepo{result: places.SearchResult{
		Items: []places.Result{{ULID: "01HZXW3YJ4N5Q6R7S8T9V0AB1C", Name: "Pier Hall", Distance: &distance}},
	}}
	handler := newSearchHandler(repo)

	r := httptest.NewRequest("GET", "/api/v1/places/search/location?latitude=37.5&longitude=127.0", nil)
	w := httptest.NewRecorder()
	handler.Location(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Items []struct {
			ID       string   `json:"id"`
			Distance *float64 `json:"distance"`
		} `json:"items"`
		Metadata struct {
			CenterLat      *float64 `json:"centerLat"`
			RadiusInMeters int      `json:"radiusInMeters"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	require.NotNil(t, body.Items[0].Distance)
	require.Equal(t, 123.4, *body.Items[0].Distance)
	require.NotNil(t, body.Metadata.CenterLat)
	require.Equal(t, places.DefaultRadiusMeters, body.Metadata.RadiusInMeters)
}

func TestLocationRequiresCoordinates(t *testing.T) {
	handler := newSearchHandler(&captureSearchRepo{})

	r := httptest.NewRequest("GET", "/api/v1/places/search/location", nil)
	w := httptest.NewRecorder()
	handler.Location(w, r)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegionRequiresRegionField(t *testing.T) {
	handler := newSearchHandler(&captureSearchRepo{})

	r := httptest.NewRequest("GET", "/api/v1/places/search/region", nil)
	w := httptest.NewRecorder()
	handler.Region(w, r)
	require.Equal(t, http.StatusBadRequest, w.Code)

	repo := &captureSearchRepo{}
	handler = newSearchHandler(repo)
	r = httptest.NewRequest("GET", "/api/v1/places/search/region?province=Seoul", nil)
	w = httptest.NewRecorder()
	handler.Region(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Seoul", repo.last.Province)
}
