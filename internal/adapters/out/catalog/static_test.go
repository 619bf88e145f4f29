package catalog_test

import (
	"context"
	"testing"

	"dispatch/internal/adapters/out/catalog"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_Location(t *testing.T) {
	fallback, err := kernel.NewLocation(2.333, 48.865)
	require.NoError(t, err)
	known, err := kernel.NewLocation(2.35, 48.85)
	require.NoError(t, err)
	c := catalog.NewStatic(fallback, map[string]kernel.Location{"resto1": known})

	got, err := c.Location(context.Background(), "resto1")
	require.NoError(t, err)
	assert.Equal(t, known, got)

	got, err = c.Location(context.Background(), "elsewhere")
	require.NoError(t, err)
	assert.Equal(t, fallback, got)
}
