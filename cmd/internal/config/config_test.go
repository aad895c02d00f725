package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		val, ok := vars[key]
		return val, ok
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{"JWT_HMAC_SECRET": "dev"}))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "sharenotes.db", cfg.DBPath)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, time.Second, cfg.EditorDebounce)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"GO_ENV":                "production",
		"PORT":                  "8080",
		"COGNITO_USER_POOL_ID":  "pool",
		"COGNITO_APP_CLIENT_ID": "client",
		"STORE_TIMEOUT":         "750ms",
		"EDITOR_DEBOUNCE":       "2s",
		"LOG_LEVEL":             "debug",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 750*time.Millisecond, cfg.StoreTimeout)
	assert.Equal(t, 2*time.Second, cfg.EditorDebounce)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestFromEnv_ReportsEveryProblem(t *testing.T) {
	_, err := FromEnv(env(map[string]string{
		"PORT":          "seventy",
		"STORE_TIMEOUT": "soon",
	}))
	require.Error(t, err)

	assert.Contains(t, err.Error(), "parsing PORT")
	assert.Contains(t, err.Error(), "parsing STORE_TIMEOUT")
	assert.Contains(t, err.Error(), "CognitoUserPoolID")
}

func TestFromEnv_RejectsDevSecretInProduction(t *testing.T) {
	_, err := FromEnv(env(map[string]string{
		"GO_ENV":                "production",
		"JWT_HMAC_SECRET":       "dev",
		"COGNITO_USER_POOL_ID":  "pool",
		"COGNITO_APP_CLIENT_ID": "client",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_HMAC_SECRET")
}
