package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "cpassist")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "cpassist")
	t.Setenv("JWT_SECRET", "jwt-secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, 10, cfg.DB.MaxSize)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, "https://codeforces.com/api", cfg.Codeforces.BaseURL)
	assert.Equal(t, "gemini-1.5-pro", cfg.AI.Model)
	assert.Empty(t, cfg.AI.APIKey)
	assert.Equal(t, 15*time.Second, cfg.Realtime.UpdateInterval)
	assert.Equal(t, 2*time.Second, cfg.Realtime.ReconnectInterval)
	assert.Equal(t, 5, cfg.Realtime.MaxReconnectAttempts)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("CF_UPDATE_INTERVAL", "30s")
	t.Setenv("WS_MAX_RECONNECT_ATTEMPTS", "10")
	t.Setenv("GEMINI_API_KEY", "abc123")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 30*time.Second, cfg.Realtime.UpdateInterval)
	assert.Equal(t, 10, cfg.Realtime.MaxReconnectAttempts)
	assert.Equal(t, "abc123", cfg.AI.APIKey)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoadConfigCollectsAllErrors(t *testing.T) {
	// Only one of the four required variables is present, and one optional
	// variable is malformed. Every problem must appear in the single error.
	t.Setenv("DB_USER", "cpassist")
	t.Setenv("DB_PORT", "not-a-number")
	for _, key := range []string{"DB_PASSWORD", "DB_NAME", "JWT_SECRET"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
	assert.Contains(t, err.Error(), "DB_NAME")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "DB_PORT")
}

func TestLoadConfigRejectsBadDurations(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CF_UPDATE_INTERVAL", "soon")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CF_UPDATE_INTERVAL")
}
