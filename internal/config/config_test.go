package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	unset(t, "ENV", "PORT", "APP_URL", "OPENROUTER_BASE_URL", "COMPLETION_TIMEOUT",
		"CHAT_OVERLAP_POLICY", "CONTEXT_WINDOW_MESSAGES", "FRONTEND_CALLBACK_URL")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:3000", cfg.AppURL)
	assert.Equal(t, "http://localhost:3000/auth/callback", cfg.FrontendCallbackURL)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.OpenRouter.BaseURL)
	assert.Equal(t, 120*time.Second, cfg.OpenRouter.Timeout)
	assert.Equal(t, OverlapReject, cfg.ChatOverlapPolicy)
	assert.Equal(t, 0, cfg.ContextWindowMessages)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ENV", "production")
	t.Setenv("APP_URL", "https://bolt.example.com/")
	t.Setenv("COMPLETION_TIMEOUT", "30s")
	t.Setenv("CHAT_OVERLAP_POLICY", "Queue")
	t.Setenv("CONTEXT_WINDOW_MESSAGES", "20")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "https://bolt.example.com", cfg.AppURL)
	assert.Equal(t, 30*time.Second, cfg.OpenRouter.Timeout)
	assert.Equal(t, OverlapQueue, cfg.ChatOverlapPolicy)
	assert.Equal(t, 20, cfg.ContextWindowMessages)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	t.Setenv("CHAT_OVERLAP_POLICY", "drop")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("CHAT_OVERLAP_POLICY", "reject")
	t.Setenv("CONTEXT_WINDOW_MESSAGES", "many")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("CONTEXT_WINDOW_MESSAGES", "0")
	t.Setenv("COMPLETION_TIMEOUT", "soon")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_MissingSecretPanics(t *testing.T) {
	unset(t, "JWT_SECRET")
	assert.Panics(t, func() { _, _ = Load() })
}

func TestParseOverlapPolicy(t *testing.T) {
	p, err := ParseOverlapPolicy("")
	require.NoError(t, err)
	assert.Equal(t, OverlapReject, p)

	p, err = ParseOverlapPolicy("coalesce")
	require.NoError(t, err)
	assert.Equal(t, OverlapCoalesce, p)
}

func TestLoadDatabaseURL(t *testing.T) {
	unset(t, "DATABASE_URL")
	_, err := LoadDatabaseURL()
	assert.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://bolt@localhost/bolt")
	url, err := LoadDatabaseURL()
	require.NoError(t, err)
	assert.Equal(t, "postgres://bolt@localhost/bolt", url)
}
