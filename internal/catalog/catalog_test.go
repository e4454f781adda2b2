package catalog

import (
	"testing"

	"github.com/dimitrije/bolt-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin(t *testing.T) {
	c := Builtin()

	assert.Len(t, c.All(), 8)
	assert.Equal(t, "google/gemini-pro", c.Default())

	m, ok := c.Lookup("anthropic/claude-2")
	require.True(t, ok)
	assert.Equal(t, "Claude 2", m.Name)
	assert.Equal(t, 100000, m.MaxTokens)
	assert.Equal(t, 0.024, m.Pricing.Output)
}

func TestLookup_Unknown(t *testing.T) {
	_, ok := Builtin().Lookup("openai/gpt-99")
	assert.False(t, ok)
}

func TestResolveFor(t *testing.T) {
	c := Builtin()
	assert.Equal(t, "google/gemini-pro", c.ResolveFor(models.PurposeChat, ""))
	assert.Equal(t, "meta-llama/llama-2-70b-chat", c.ResolveFor(models.PurposeCode, ""))
	assert.Equal(t, "openai/gpt-3.5-turbo", c.ResolveFor(models.PurposeChat, "openai/gpt-3.5-turbo"))
	assert.Equal(t, "openai/gpt-3.5-turbo", c.ResolveFor(models.PurposeCode, "openai/gpt-3.5-turbo"))
}

func TestParse_CodeDefaultFallsBackToDefault(t *testing.T) {
	c, err := Parse([]byte("default: a\nmodels:\n  - id: a\n  - id: b\n"))
	require.NoError(t, err)
	assert.Equal(t, "a", c.DefaultFor(models.PurposeCode))

	c, err = Parse([]byte("default: a\ncode_default: b\nmodels:\n  - id: a\n  - id: b\n"))
	require.NoError(t, err)
	assert.Equal(t, "a", c.DefaultFor(models.PurposeChat))
	assert.Equal(t, "b", c.DefaultFor(models.PurposeCode))
}

func TestForPurpose_Code(t *testing.T) {
	ids := make([]string, 0)
	for _, m := range Builtin().ForPurpose(models.PurposeCode) {
		ids = append(ids, m.ID)
	}

	// llama-2 does not support JSON output, so it is filtered out.
	assert.Equal(t, []string{"openai/gpt-3.5-turbo", "google/gemini-pro"}, ids)
}

func TestForPurpose_Chat(t *testing.T) {
	assert.Len(t, Builtin().ForPurpose(models.PurposeChat), 8)
}

func TestAll_ReturnsCopy(t *testing.T) {
	c := Builtin()
	all := c.All()
	all[0].Name = "changed"

	m, _ := c.Lookup(all[0].ID)
	assert.NotEqual(t, "changed", m.Name)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("default: x\nmodels: []\n"))
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	_, err = Parse([]byte("default: missing\nmodels:\n  - id: a\n"))
	assert.ErrorIs(t, err, ErrUnknownDefault)

	_, err = Parse([]byte("default: a\ncode_default: missing\nmodels:\n  - id: a\n"))
	assert.ErrorIs(t, err, ErrUnknownDefault)

	_, err = Parse([]byte("default: a\nmodels:\n  - id: a\n  - id: a\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("::not yaml"))
	assert.Error(t, err)
}
