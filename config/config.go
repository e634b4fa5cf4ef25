// Package config provides configuration management for the CP Assistant backend.
// It handles loading and validation of configuration values from environment
// variables, with support for required variables, default values, and
// collective error reporting: every problem found while loading is gathered
// and returned as one error, so a misconfigured deployment fails with a full
// list instead of one variable at a time.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// PoolConfig represents configuration for the PostgreSQL connection pool.
type PoolConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxSize  int
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	JWTSecret            string        // Secret key for signing JWTs
	AccessTokenDuration  time.Duration // Duration for access tokens
	RefreshTokenDuration time.Duration // Duration for refresh tokens
}

// AIConfig holds configuration for the external text-generation service.
//
// APIKey is deliberately optional at startup: a missing key is not a boot
// failure. Each generation call reports it as an upstream-service error
// instead, so the rest of the application keeps working without AI features.
type AIConfig struct {
	APIKey  string // Gemini API key; may be empty
	BaseURL string // Generation API base URL
	Model   string // Model identifier
}

// CodeforcesConfig holds configuration for the external profile source.
type CodeforcesConfig struct {
	BaseURL string // Codeforces API base URL
}

// RealtimeConfig holds configuration for the WebSocket subsystem: the
// profile-update scheduler on the server side and the reconnect policy used
// by the Go connection manager.
type RealtimeConfig struct {
	UpdateInterval       time.Duration // How often tracked profiles are refreshed
	ReconnectInterval    time.Duration // Delay between client reconnect attempts
	MaxReconnectAttempts int           // Reconnect attempts before giving up
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port string // Port for the HTTP server
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	DB         *PoolConfig
	Auth       *AuthConfig
	AI         *AIConfig
	Codeforces *CodeforcesConfig
	Realtime   *RealtimeConfig
	Server     *ServerConfig
}

// getRequiredEnv reads a required environment variable, appending to the
// collected errors when it is absent.
func getRequiredEnv(key string, errors *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		*errors = append(*errors, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// getOptionalEnv reads an optional environment variable with a default.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getOptionalEnvInt reads an optional integer variable. The default is used
// when the variable is unset; a parse failure is collected as an error.
func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// getOptionalEnvDuration reads an optional duration variable, parsed with
// time.ParseDuration ("15s", "2m", ...).
func getOptionalEnvDuration(key string, defaultValue time.Duration, errors *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueDuration
}

// LoadConfig creates and returns an AppConfig by reading and validating
// environment variables. It collects all errors encountered during loading
// and returns a single aggregated error if any exist.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	// Database configuration.
	dbUser := getRequiredEnv("DB_USER", &errors)
	dbPassword := getRequiredEnv("DB_PASSWORD", &errors)
	dbName := getRequiredEnv("DB_NAME", &errors)
	dbHost := getOptionalEnv("DB_HOST", "localhost")
	dbPort := getOptionalEnvInt("DB_PORT", 5432, &errors)
	poolSize := getOptionalEnvInt("DB_POOL_SIZE", 10, &errors)
	if poolSize < 1 {
		errors = append(errors, fmt.Sprintf("DB_POOL_SIZE must be at least 1, got %d", poolSize))
		poolSize = 1
	}

	dbConfig := &PoolConfig{
		Host:     dbHost,
		Port:     dbPort,
		User:     dbUser,
		Password: dbPassword,
		DBName:   dbName,
		MaxSize:  poolSize,
	}

	// Auth configuration.
	authConfig := &AuthConfig{
		JWTSecret:            getRequiredEnv("JWT_SECRET", &errors),
		AccessTokenDuration:  getOptionalEnvDuration("JWT_ACCESS_TOKEN_DURATION", 15*time.Minute, &errors),
		RefreshTokenDuration: getOptionalEnvDuration("JWT_REFRESH_TOKEN_DURATION", 168*time.Hour, &errors),
	}

	// Generation service configuration. The key is optional; see AIConfig.
	aiConfig := &AIConfig{
		APIKey:  getOptionalEnv("GEMINI_API_KEY", ""),
		BaseURL: getOptionalEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		Model:   getOptionalEnv("GEMINI_MODEL", "gemini-1.5-pro"),
	}

	// Profile source configuration.
	cfConfig := &CodeforcesConfig{
		BaseURL: getOptionalEnv("CODEFORCES_BASE_URL", "https://codeforces.com/api"),
	}

	// Realtime configuration. The 15s refresh interval and the 2s/5-attempt
	// reconnect policy are the reference defaults, overridable per deployment.
	realtimeConfig := &RealtimeConfig{
		UpdateInterval:       getOptionalEnvDuration("CF_UPDATE_INTERVAL", 15*time.Second, &errors),
		ReconnectInterval:    getOptionalEnvDuration("WS_RECONNECT_INTERVAL", 2*time.Second, &errors),
		MaxReconnectAttempts: getOptionalEnvInt("WS_MAX_RECONNECT_ATTEMPTS", 5, &errors),
	}
	if realtimeConfig.UpdateInterval <= 0 {
		errors = append(errors, fmt.Sprintf("CF_UPDATE_INTERVAL must be positive, got %s", realtimeConfig.UpdateInterval))
	}

	serverConfig := &ServerConfig{
		Port: getOptionalEnv("PORT", "8080"),
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return &AppConfig{
		DB:         dbConfig,
		Auth:       authConfig,
		AI:         aiConfig,
		Codeforces: cfConfig,
		Realtime:   realtimeConfig,
		Server:     serverConfig,
	}, nil
}
