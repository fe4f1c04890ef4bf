package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
)

func TestMemoryOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOrderRepository()

	created, err := repo.CreateOrder(ctx, &entity.Order{
		Status:      entity.OrderStatusPending,
		TotalAmount: 1470,
		Items: []entity.OrderItem{
			{ProductID: 1, Quantity: 1, Price: 600},
			{ProductID: 2, Quantity: 2, Price: 400},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	require.Len(t, created.Items, 2)
	assert.Equal(t, 1, created.Items[0].ID)
	assert.Equal(t, 2, created.Items[1].ID)
	assert.Equal(t, created.ID, created.Items[1].OrderID)

	found, err := repo.GetOrderByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Items, found.Items)

	next, err := repo.CreateOrder(ctx, &entity.Order{Items: []entity.OrderItem{{ProductID: 3, Quantity: 1}}})
	require.NoError(t, err)
	assert.Equal(t, 2, next.ID)
	assert.Equal(t, 3, next.Items[0].ID)
	assert.Equal(t, 2, repo.Count())

	require.NoError(t, repo.DeleteOrder(ctx, created.ID))
	_, err = repo.GetOrderByID(ctx, created.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
