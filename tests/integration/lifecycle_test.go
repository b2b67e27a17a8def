package integration

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/placedir/server/internal/auth"
	"github.com/placedir/server/internal/domain/ids"
)

func (env *testEnv) seedUser(t *testing.T, email, password, role string) string {
	t.Helper()

	ulid, err := ids.NewULID()
	require.NoError(t, err)
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	_, err = env.Pool.Exec(env.Context, `
INSERT INTO users (ulid, email, password_hash, display_name, role)
VALUES ($1, $2, $3, $4, $5)
`, ulid, email, hash, "Test User", role)
	require.NoError(t, err)
	return ulid
}

func (env *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()

	resp, err := http.Post(env.Server.URL+"/api/v1/auth/login", "application/json",
		strings.NewReader(`{"email":"`+email+`","password":"`+password+`"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

func (env *testEnv) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, env.Server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// The full place lifecycle: owner registers, the place stays out of public
// search until an admin approves it, then it becomes discoverable.
func TestPlaceLifecycle(t *testing.T) {
	env := setupTestEnv(t)

	env.seedUser(t, "owner@example.com", "owner-password", auth.RoleUser)
	env.seedUser(t, "admin@example.com", "admin-password", auth.RoleAdmin)
	ownerToken := env.login(t, "owner@example.com", "owner-password")
	adminToken := env.login(t, "admin@example.com", "admin-password")

	createResp := env.do(t, "POST", "/api/v1/places", ownerToken, `{
		"name": "Harbor Loft",
		"description": "A loft with a view",
		"category": "STUDIO",
		"location": {"province": "Seoul", "city": "Mapo-gu", "fullAddress": "1 Harbor Way", "latitude": 37.55, "longitude": 126.92}
	}`)
	defer func() { _ = createResp.Body.Close() }()
	require.Equal(t, http.StatusCreated, createResp.StatusCode)

	var created struct {
		ID             string `json:"id"`
		ApprovalStatus string `json:"approvalStatus"`
	}
	require.NoError(t, json.NewDecoder(createResp.Body).Decode(&created))
	require.Equal(t, "PENDING", created.ApprovalStatus)

	// Pending places are invisible to search.
	before := env.search(t, "/api/v1/places/search")
	require.Empty(t, before.Items)

	approveResp := env.do(t, "POST", "/api/v1/admin/places/"+created.ID+"/approve", adminToken, "")
	_ = approveResp.Body.Close()
	require.Equal(t, http.StatusNoContent, approveResp.StatusCode)

	after := env.search(t, "/api/v1/places/search")
	require.Len(t, after.Items, 1)
	require.Equal(t, created.ID, after.Items[0].ID)

	// Owners cannot approve.
	otherResp := env.do(t, "POST", "/api/v1/admin/places/"+created.ID+"/reject", ownerToken, "")
	_ = otherResp.Body.Close()
	require.Equal(t, http.StatusForbidden, otherResp.StatusCode)
}
