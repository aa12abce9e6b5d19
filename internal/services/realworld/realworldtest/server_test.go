package realworldtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/realworld-e2e/internal/models"
)

func TestServer_CORSPreflight(t *testing.T) {
	s := New()

	req := httptest.NewRequest(http.MethodOptions, "/api/articles", nil)
	req.Header.Set("Origin", "http://localhost:4100")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 0, s.Requests("OPTIONS /api/articles"), "Preflight should not reach the API routes")
}

func TestServer_CountsRequestsByRoute(t *testing.T) {
	s := New(WithUser(models.Credentials{Email: "a@example.com", Username: "alice", Password: "pw"}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tags", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var env models.TagsEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	assert.Equal(t, 2, s.Requests("GET /api/tags"))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
