package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"social/internal/config"
	"social/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
	mr     *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	rdb, mr := testutil.NewRedis(t)
	cfg := &config.Config{
		Env:          "test",
		Port:         "0",
		JWTSecret:    "test-secret-with-enough-length-0123456789",
		JWTIssuer:    "social-api",
		JWTAudience:  "social-clients",
		FeatureFlags: "post_cache=on,beta_feed=staff",
		MessageOrder: config.MessageOrderAsc,
		MediaDir:     t.TempDir(),
	}

	s, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	return &testEnv{server: s, app: s.App(), db: db, mr: mr}
}

// do sends a JSON request and decodes the JSON response into out when given.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// login creates a user through testutil and returns an access token for it.
func (e *testEnv) login(t *testing.T, username string, staff bool) (uint, string) {
	t.Helper()
	u := testutil.CreateUser(t, e.db, username, staff)
	var pair map[string]string
	status := e.do(t, http.MethodPost, "/api/v1/token", "", fiber.Map{
		"username": username,
		"password": testutil.Password,
	}, &pair)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, pair["access"])
	return u.ID, pair["access"]
}

func TestHealthEndpoints(t *testing.T) {
	e := newTestEnv(t)

	var live map[string]interface{}
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/health/live", "", nil, &live))
	assert.Equal(t, "up", live["status"])

	var ready map[string]interface{}
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/health/ready", "", nil, &ready))
	assert.Equal(t, "healthy", ready["status"])

	e.mr.Close()
	assert.Equal(t, http.StatusServiceUnavailable, e.do(t, http.MethodGet, "/health/ready", "", nil, &ready))
	checks := ready["checks"].(map[string]interface{})
	assert.Equal(t, "unhealthy", checks["redis"])
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	resp, err := e.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newTestEnv(t)

	for _, path := range []string{"/api/v1/posts", "/api/v1/chats", "/api/v1/profiles/me", "/api/v1/feature-flags"} {
		var body map[string]interface{}
		assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, path, "", nil, &body), path)
		assert.Equal(t, "UNAUTHORIZED", body["code"], path)
	}

	var body map[string]interface{}
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/api/v1/posts", "not-a-jwt", nil, &body))
}

func TestFeatureFlagsEvaluatedPerActor(t *testing.T) {
	e := newTestEnv(t)
	_, alice := e.login(t, "alice", false)
	_, staff := e.login(t, "moderator", true)

	var resp struct {
		Flags     []string        `json:"flags"`
		Evaluated map[string]bool `json:"evaluated"`
	}
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/v1/feature-flags", alice, nil, &resp))
	assert.ElementsMatch(t, []string{"post_cache", "beta_feed"}, resp.Flags)
	assert.True(t, resp.Evaluated["post_cache"])
	assert.False(t, resp.Evaluated["beta_feed"])

	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/v1/feature-flags", staff, nil, &resp))
	assert.True(t, resp.Evaluated["beta_feed"])
}

type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

func (r rawResponse) decode(out interface{}) error {
	return json.Unmarshal(r.body, out)
}

// raw sends an arbitrary body with the given content type.
func (e *testEnv) raw(t *testing.T, method, path, contentType string, body []byte) rawResponse {
	t.Helper()
	return e.rawWithToken(t, method, path, "", contentType, body)
}

func (e *testEnv) rawWithToken(t *testing.T, method, path, token, contentType string, body []byte) rawResponse {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return rawResponse{status: resp.StatusCode, header: resp.Header, body: data}
}
