package services

import (
	"context"
	"testing"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBikeService_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.bike(t, "KA01-RE-350", 800)
	got, err := f.bikes.GetBikeByID(ctx, "KA01-RE-350")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Classic 350", got.Model)
	assert.True(t, got.Available)

	_, err = f.bikes.CreateBike(ctx, &domain.Bike{BikeID: "KA01-RE-350", Model: "X", Type: "Y"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.bikes.CreateBike(ctx, &domain.Bike{BikeID: "KA02", Type: "Y"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.bikes.GetBikeByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBikeService_SetAvailabilityIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.bike(t, "KA01-RE-350", 800)

	// Warm the cache so the update must invalidate it.
	_, err := f.bikes.GetBikeByID(ctx, "KA01-RE-350")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		b, err := f.bikes.SetAvailability(ctx, "KA01-RE-350", false)
		require.NoError(t, err)
		assert.False(t, b.Available)
	}

	got, err := f.bikes.GetBikeByID(ctx, "KA01-RE-350")
	require.NoError(t, err)
	assert.False(t, got.Available)

	available, err := f.bikes.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Empty(t, available)

	all, err := f.bikes.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	once, err := f.bikes.SetAvailability(ctx, "KA01-RE-350", true)
	require.NoError(t, err)
	twice, err := f.bikes.SetAvailability(ctx, "KA01-RE-350", true)
	require.NoError(t, err)
	assert.Equal(t, once.Available, twice.Available)
	assert.Equal(t, once.ID, twice.ID)

	_, err = f.bikes.SetAvailability(ctx, "missing", true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBikeService_Inventory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.bike(t, "B1", 100)
	f.bike(t, "B2", 100)
	f.bike(t, "B3", 100)
	_, err := f.bikes.SetAvailability(ctx, "B2", false)
	require.NoError(t, err)

	inv, err := f.bikes.Inventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.BikeInventory{Total: 3, Available: 2, Rented: 1}, *inv)
}
