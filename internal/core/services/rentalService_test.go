package services

import (
	"context"
	"testing"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRentalDays(t *testing.T) {
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, RentalDays(start, start.Add(2*time.Hour)))
	assert.Equal(t, 1, RentalDays(start, start.Add(24*time.Hour)))
	assert.Equal(t, 2, RentalDays(start, start.Add(25*time.Hour)))
	assert.Equal(t, 3, RentalDays(start, start.Add(72*time.Hour)))
}

func TestRentalService_RentAndReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.user(t, "c@webike.test", domain.Customer)
	other := f.user(t, "o@webike.test", domain.Customer)
	bike := f.bike(t, "KA01-RE-350", 800)

	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	rental, err := f.rentals.Rent(ctx, customer.ID, bike.BikeID, start, start.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.RentalActive, rental.Status)
	assert.Equal(t, 1600.0, rental.TotalCost)
	assert.Equal(t, bike.ID, rental.BikeID)

	got, err := f.bikes.GetBikeByID(ctx, bike.BikeID)
	require.NoError(t, err)
	assert.False(t, got.Available)

	_, err = f.rentals.Rent(ctx, other.ID, bike.BikeID, start, start.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrConflict)

	returned, err := f.rentals.Return(ctx, rental.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.RentalCompleted, returned.Status)

	got, err = f.bikes.GetBikeByID(ctx, bike.BikeID)
	require.NoError(t, err)
	assert.True(t, got.Available)

	_, err = f.rentals.Return(ctx, rental.ID.String())
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRentalService_RentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.user(t, "c@webike.test", domain.Customer)
	bike := f.bike(t, "KA01-RE-350", 800)
	start := time.Now()

	_, err := f.rentals.Rent(ctx, customer.ID, bike.BikeID, start, start)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.rentals.Rent(ctx, customer.ID, "missing", start, start.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRentalService_HistoryAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.user(t, "c@webike.test", domain.Customer)
	b1 := f.bike(t, "B1", 100)
	b2 := f.bike(t, "B2", 200)

	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	f.rentals.now = fixedClock(now)

	overdue, err := f.rentals.Rent(ctx, customer.ID, b1.BikeID, now.Add(-72*time.Hour), now.Add(-24*time.Hour))
	require.NoError(t, err)
	_, err = f.rentals.Rent(ctx, customer.ID, b2.BikeID, now, now.Add(24*time.Hour))
	require.NoError(t, err)

	stats, err := f.rentals.Stats(ctx, customer.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStats{TotalRentals: 2, ActiveRentals: 2, OverdueRentals: 1}, *stats)

	_, err = f.rentals.Return(ctx, overdue.ID.String())
	require.NoError(t, err)

	stats, err = f.rentals.Stats(ctx, customer.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStats{TotalRentals: 2, ActiveRentals: 1, OverdueRentals: 0}, *stats)

	history, err := f.rentals.ListByUser(ctx, customer.ID.String())
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, h := range history {
		assert.Equal(t, "Royal Enfield Classic 350", h.VehicleName)
		assert.Equal(t, h.RentalEnd, h.DueDate)
	}
}
