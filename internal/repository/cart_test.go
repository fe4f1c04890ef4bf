package repository

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
)

func TestMemoryCartAddOrIncrement(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCartRepository()

	first, err := repo.AddOrIncrement(ctx, "s1", 3, 1)
	require.NoError(t, err)
	second, err := repo.AddOrIncrement(ctx, "s1", 3, 1)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Quantity)

	other, err := repo.AddOrIncrement(ctx, "s2", 3, 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	items, err := repo.ListBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestMemoryCartQuantityBounds(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCartRepository()

	_, err := repo.AddOrIncrement(ctx, "s1", 1, math.MaxInt64)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	item, err := repo.AddOrIncrement(ctx, "s1", 1, entity.MaxLineQuantity)
	require.NoError(t, err)
	_, err = repo.AddOrIncrement(ctx, "s1", 1, 1)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = repo.UpdateQuantity(ctx, item.ID, entity.MaxLineQuantity+1)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	items, _ := repo.ListBySession(ctx, "s1")
	require.Len(t, items, 1)
	assert.Equal(t, entity.MaxLineQuantity, items[0].Quantity)
}

func TestMemoryCartUpdateRemoveClear(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCartRepository()

	a, _ := repo.AddOrIncrement(ctx, "s1", 1, 1)
	b, _ := repo.AddOrIncrement(ctx, "s1", 2, 1)
	_, _ = repo.AddOrIncrement(ctx, "s2", 1, 4)

	updated, err := repo.UpdateQuantity(ctx, a.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)

	_, err = repo.UpdateQuantity(ctx, 999, 1)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	require.NoError(t, repo.Remove(ctx, b.ID))
	require.NoError(t, repo.Remove(ctx, b.ID), "removing twice is a no-op")

	// The removed line's slot is free again.
	again, _ := repo.AddOrIncrement(ctx, "s1", 2, 1)
	assert.Equal(t, 1, again.Quantity)

	require.NoError(t, repo.ClearSession(ctx, "s1"))
	require.NoError(t, repo.ClearSession(ctx, "s1"))
	items, _ := repo.ListBySession(ctx, "s1")
	assert.Empty(t, items)

	items, _ = repo.ListBySession(ctx, "s2")
	assert.Len(t, items, 1)
}
