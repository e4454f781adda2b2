package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestScrub(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core))

	log.Info("login",
		"provider", "github",
		"access_token", "abc",
		"Authorization", "Bearer xyz",
		"raw", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig",
	)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "github", fields["provider"])
		assert.Equal(t, redacted, fields["access_token"])
		assert.Equal(t, redacted, fields["Authorization"])
		assert.Equal(t, redacted, fields["raw"])
	}
}

func TestScrub_TokenCounts(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core))

	log.Info("chat turn completed",
		"total_tokens", 1234,
		"prompt_tokens", int64(1000),
		"refresh_tokens", "still-a-secret",
		"token", 42,
	)

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, int64(1234), fields["total_tokens"])
	assert.Equal(t, int64(1000), fields["prompt_tokens"])
	assert.Equal(t, redacted, fields["refresh_tokens"])
	assert.Equal(t, redacted, fields["token"])
}

func TestWith(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core)).With("workspace_id", "w1", "api_key", "k")

	log.Warn("slow")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "w1", fields["workspace_id"])
	assert.Equal(t, redacted, fields["api_key"])
}

func TestScrub_OddArgs(t *testing.T) {
	out := scrub([]any{"a", 1, "dangling"})
	assert.Equal(t, []any{"a", 1, "dangling"}, out)
}

func TestNew(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		l, err := New(env)
		assert.NoError(t, err)
		assert.NotNil(t, l)
	}
}
