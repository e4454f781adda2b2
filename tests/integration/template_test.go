package integration

import (
	"context"
	"testing"

	"github.com/dimitrije/bolt-api/internal/catalog"
	"github.com/dimitrije/bolt-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateService_Integration_SeedAndSearch(t *testing.T) {
	tdb, _ := setupTest(t)
	svc := services.NewTemplateService(tdb.DB)
	ctx := context.Background()

	builtin := catalog.BuiltinTemplates()
	require.NotEmpty(t, builtin)

	n, err := svc.Seed(ctx, builtin)
	require.NoError(t, err)
	assert.Equal(t, len(builtin), n)

	_, err = svc.Seed(ctx, builtin)
	require.NoError(t, err, "seeding is idempotent")

	all, err := svc.Search(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, len(builtin))

	first := builtin[0]
	byCategory, err := svc.Search(ctx, "", first.Category)
	require.NoError(t, err)
	require.NotEmpty(t, byCategory)
	for _, tmpl := range byCategory {
		assert.Equal(t, first.Category, tmpl.Category)
	}

	byName, err := svc.Search(ctx, first.Name, "")
	require.NoError(t, err)
	assert.NotEmpty(t, byName)

	found, err := svc.GetBySlug(ctx, first.Slug)
	require.NoError(t, err)
	assert.Equal(t, first.Prompt, found.Prompt)
	assert.ElementsMatch(t, first.Tags, found.Tags)

	_, err = svc.GetBySlug(ctx, "does-not-exist")
	assert.ErrorIs(t, err, services.ErrTemplateNotFound)

	tdb.Reset(t)
	all, err = svc.Search(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, all)
}
