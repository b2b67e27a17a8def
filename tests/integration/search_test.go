package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

type searchResponse struct {
	Items []struct {
		ID            string   `json:"id"`
		PlaceName     string   `json:"placeName"`
		RatingAverage float64  `json:"ratingAverage"`
		Distance      *float64 `json:"distance"`
	} `json:"items"`
	HasNext    bool   `json:"hasNext"`
	NextCursor string `json:"nextCursor"`
	Count      int    `json:"count"`
}

func (env *testEnv) search(t *testing.T, path string) searchResponse {
	t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body searchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestSearchKeysetPagination(t *testing.T) {
	env := setupTestEnv(t)

	ratings := []float64{4.9, 4.7, 4.5, 4.3, 4.1}
	for i, rating := range ratings {
		env.seed(t, seedPlace{
			Name:     fmt.Sprintf("Hall %d", i),
			Category: "HALL",
			Rating:   rating,
			Reviews:  10 * (i + 1),
			Latitude: 37.55, Longitude: 126.99,
			Province: "Seoul", City: "Jung-gu",
		})
	}

	page1 := env.search(t, "/api/v1/places/search?sortBy=RATING&sortDirection=DESC&size=2")
	require.Len(t, page1.Items, 2)
	require.True(t, page1.HasNext)
	require.NotEmpty(t, page1.NextCursor)
	require.Equal(t, 4.9, page1.Items[0].RatingAverage)
	require.Equal(t, 4.7, page1.Items[1].RatingAverage)

	page2 := env.search(t, "/api/v1/places/search?sortBy=RATING&sortDirection=DESC&size=2&cursor="+url.QueryEscape(page1.NextCursor))
	require.Len(t, page2.Items, 2)
	require.Equal(t, 4.5, page2.Items[0].RatingAverage)
	require.Equal(t, 4.3, page2.Items[1].RatingAverage)

	seen := map[string]bool{}
	for _, item := range append(page1.Items, page2.Items...) {
		require.False(t, seen[item.ID], "place %s appeared on both pages", item.ID)
		seen[item.ID] = true
	}

	page3 := env.search(t, "/api/v1/places/search?sortBy=RATING&sortDirection=DESC&size=2&cursor="+url.QueryEscape(page2.NextCursor))
	require.Len(t, page3.Items, 1)
	require.False(t, page3.HasNext)
	require.Empty(t, page3.NextCursor)
}

func TestSearchCursorSortMismatch(t *testing.T) {
	env := setupTestEnv(t)
	env.seed(t, seedPlace{Name: "First", Rating: 4.5, Latitude: 37.5, Longitude: 127.0, Province: "Seoul"})
	env.seed(t, seedPlace{Name: "Second", Rating: 4.0, Latitude: 37.5, Longitude: 127.0, Province: "Seoul"})

	first := env.search(t, "/api/v1/places/search?sortBy=RATING&sortDirection=DESC&size=1")
	require.Len(t, first.Items, 1)
	require.NotEmpty(t, first.NextCursor)

	// A cursor minted under one sort cannot be replayed under another.
	resp, err := http.Get(env.Server.URL + "/api/v1/places/search?sortBy=REVIEW_COUNT&cursor=" + url.QueryEscape(first.NextCursor))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLocationSearchOrdersByDistance(t *testing.T) {
	env := setupTestEnv(t)

	// City Hall, roughly 330m and 1.1km away respectively.
	near := env.seed(t, seedPlace{Name: "Near Venue", Rating: 3.0, Latitude: 37.5690, Longitude: 126.9780, Province: "Seoul"})
	far := env.seed(t, seedPlace{Name: "Far Venue", Rating: 5.0, Latitude: 37.5760, Longitude: 126.9850, Province: "Seoul"})
	env.seed(t, seedPlace{Name: "Another City", Rating: 4.0, Latitude: 35.1796, Longitude: 129.0756, Province: "Busan"})

	body := env.search(t, "/api/v1/places/search/location?latitude=37.5663&longitude=126.9779&radius=3000")
	require.Len(t, body.Items, 2)
	require.Equal(t, near, body.Items[0].ID)
	require.Equal(t, far, body.Items[1].ID)
	require.NotNil(t, body.Items[0].Distance)
	require.NotNil(t, body.Items[1].Distance)
	require.Less(t, *body.Items[0].Distance, *body.Items[1].Distance)
	require.Less(t, *body.Items[1].Distance, 3000.0)
}

func TestRegionSearchAndCount(t *testing.T) {
	env := setupTestEnv(t)

	env.seed(t, seedPlace{Name: "Seoul Hall", Rating: 4.0, Latitude: 37.5, Longitude: 127.0, Province: "Seoul", City: "Gangnam-gu"})
	env.seed(t, seedPlace{Name: "Busan Hall", Rating: 4.0, Latitude: 35.1, Longitude: 129.0, Province: "Busan", City: "Haeundae-gu"})

	region := env.search(t, "/api/v1/places/search/region?province=Seoul")
	require.Len(t, region.Items, 1)
	require.Equal(t, "Seoul Hall", region.Items[0].PlaceName)

	resp, err := http.Get(env.Server.URL + "/api/v1/places/search/count?province=Busan")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var count struct {
		Count int64 `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&count))
	require.Equal(t, int64(1), count.Count)
}

func TestSearchExcludesUnapprovedAndInactive(t *testing.T) {
	env := setupTestEnv(t)

	env.seed(t, seedPlace{Name: "Visible", Rating: 4.0, Latitude: 37.5, Longitude: 127.0, Province: "Seoul"})
	pendingULID := env.seed(t, seedPlace{Name: "Pending", Rating: 4.0, Latitude: 37.5, Longitude: 127.0, Province: "Seoul"})
	_, err := env.Pool.Exec(env.Context, `UPDATE places SET approval_status = 'PENDING' WHERE ulid = $1`, pendingULID)
	require.NoError(t, err)

	body := env.search(t, "/api/v1/places/search")
	require.Len(t, body.Items, 1)
	require.Equal(t, "Visible", body.Items[0].PlaceName)
}
