package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionHandler(t *testing.T) {
	handler := VersionHandler("1.2.3", "abc123", "2026-08-01T00:00:00Z")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/version", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "1.2.3", body["version"])
	require.Equal(t, "abc123", body["git_commit"])
	require.NotEmpty(t, body["go_version"])
}

func TestVersionHandlerDefaults(t *testing.T) {
	handler := VersionHandler("", "", "")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/version", nil))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "dev", body["version"])
	require.Equal(t, "unknown", body["git_commit"])
}
