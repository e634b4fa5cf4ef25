package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/cpassist-go/auth"
	"github.com/user/cpassist-go/config"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		DB: &config.PoolConfig{},
		Auth: &config.AuthConfig{
			JWTSecret:            "test-secret",
			AccessTokenDuration:  time.Minute,
			RefreshTokenDuration: time.Hour,
		},
		AI:         &config.AIConfig{BaseURL: "http://localhost:0", Model: "gemini-1.5-pro"},
		Codeforces: &config.CodeforcesConfig{BaseURL: "http://localhost:0"},
		Realtime: &config.RealtimeConfig{
			UpdateInterval:       time.Minute,
			ReconnectInterval:    time.Second,
			MaxReconnectAttempts: 1,
		},
		Server: &config.ServerConfig{Port: "0"},
	}
}

// newTestApp wires the full router with no database behind it. Requests that
// get past the middleware and touch storage fail, which is enough to tell
// "rejected at the door" apart from "reached the handler".
func newTestApp(t *testing.T) *httptest.Server {
	t.Helper()
	a := newApp(testConfig(), nil, zap.NewNop().Sugar())
	srv := httptest.NewServer(a.router)
	t.Cleanup(srv.Close)
	return srv
}

func signToken(t *testing.T, secret, tokenType string) string {
	t.Helper()
	claims := &auth.CustomClaims{
		UserID:    1,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "cpassist",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, bearer string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestAPIRoutesRequireAccessToken(t *testing.T) {
	srv := newTestApp(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/ai/debug"},
		{http.MethodPost, "/api/ai/explain"},
		{http.MethodGet, "/api/codeforces/search?handle=tourist"},
		{http.MethodPost, "/api/codeforces-profiles"},
		{http.MethodGet, "/api/codeforces-profiles/user/1"},
		{http.MethodPost, "/api/problem-recommendations/generate"},
		{http.MethodGet, "/api/problem-recommendations/user/1"},
		{http.MethodDelete, "/api/study-routines/1"},
		{http.MethodGet, "/api/learning-resources"},
		{http.MethodGet, "/users/me"},
	}
	for _, route := range routes {
		resp := doRequest(t, srv, route.method, route.path, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", route.method, route.path)
	}

	// A refresh token is not an access token.
	refresh := signToken(t, "test-secret", "refresh")
	resp := doRequest(t, srv, http.MethodGet, "/api/learning-resources", refresh)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Neither is a token signed with the wrong secret.
	forged := signToken(t, "other-secret", "access")
	resp = doRequest(t, srv, http.MethodGet, "/api/learning-resources", forged)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPIRoutesAcceptAccessToken(t *testing.T) {
	srv := newTestApp(t)

	// A valid token gets past the middleware; with no database wired the
	// handler then fails, which is anything but a 401.
	token := signToken(t, "test-secret", "access")
	resp := doRequest(t, srv, http.MethodGet, "/api/learning-resources", token)
	assert.NotEqual(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestAuthAndWebsocketRoutesSkipJWT(t *testing.T) {
	srv := newTestApp(t)

	// Token endpoints must be reachable without a token.
	resp := doRequest(t, srv, http.MethodPost, "/auth/login", "")
	assert.NotEqual(t, http.StatusUnauthorized, resp.StatusCode)

	// The websocket endpoint stays open; a plain GET fails the upgrade
	// handshake, not authentication.
	resp = doRequest(t, srv, http.MethodGet, "/ws", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
