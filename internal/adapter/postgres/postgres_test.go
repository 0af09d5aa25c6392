package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests need a disposable database; they are skipped unless TEST_POSTGRES_DSN is set.
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("Skipping postgres integration test - TEST_POSTGRES_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := Connect(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, RunMigrations(ctx, db))
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, repo *UserRepository, role domain.UserRole) *domain.User {
	t.Helper()
	id := uuid.New()
	user, err := repo.CreateUser(context.Background(), &domain.User{
		ID:           id,
		FirstName:    "Test",
		LastName:     string(role),
		Email:        id.String() + "@example.com",
		PasswordHash: "hash",
		Role:         role,
	})
	require.NoError(t, err)
	return user
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := setupDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := createUser(t, repo, domain.Customer)
	_, err := repo.CreateUser(ctx, &domain.User{
		ID:           uuid.New(),
		FirstName:    "Other",
		LastName:     "User",
		Email:        user.Email,
		PasswordHash: "hash",
		Role:         domain.Customer,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = repo.GetUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServiceRequestRepository_CompareAndSet(t *testing.T) {
	db := setupDB(t)
	users := NewUserRepository(db)
	repo := NewServiceRequestRepository(db)
	ctx := context.Background()

	customer := createUser(t, users, domain.Customer)
	mechanic := createUser(t, users, domain.Mechanic)

	req, err := repo.CreateServiceRequest(ctx, &domain.ServiceRequest{
		ID:              uuid.New(),
		RequestID:       "SR" + uuid.NewString()[:8],
		CustomerID:      customer.ID,
		VehicleType:     domain.VehicleBike,
		VehicleModel:    "Pulsar",
		VehicleNumber:   "KA01AB1234",
		ServiceType:     domain.ServiceRepair,
		Description:     "brakes squeal",
		CustomerAddress: "MG Road",
		CustomerPhone:   "9999999999",
		Status:          domain.StatusPending,
		Priority:        domain.PriorityMedium,
	})
	require.NoError(t, err)

	require.NoError(t, req.Assign(mechanic.ID, time.Now()))
	updated, err := repo.UpdateServiceRequest(ctx, req, domain.RequestState{Status: domain.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, updated.Status)
	require.NotNil(t, updated.AssignedMechanicID)
	assert.Equal(t, mechanic.ID, *updated.AssignedMechanicID)

	// A second writer still expecting pending loses.
	_, err = repo.UpdateServiceRequest(ctx, req, domain.RequestState{Status: domain.StatusPending})
	assert.ErrorIs(t, err, domain.ErrConflict)

	list, err := repo.ListServiceRequests(ctx, domain.ServiceRequestFilter{MechanicID: &mechanic.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, req.ID, list[0].ID)

	// Reassignment keeps the status; a writer still holding the first mechanic loses.
	stale := updated.State()
	other := createUser(t, users, domain.Mechanic)
	require.NoError(t, updated.Assign(other.ID, time.Now()))
	_, err = repo.UpdateServiceRequest(ctx, updated, stale)
	require.NoError(t, err)

	require.NoError(t, req.Apply(domain.StatusUpdate{Status: domain.StatusInProgress}, time.Now()))
	_, err = repo.UpdateServiceRequest(ctx, req, stale)
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, err := repo.GetServiceRequestByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, stored.Status)
	assert.Equal(t, other.ID, *stored.AssignedMechanicID)
}

func TestRentalRepository_ClaimAndRelease(t *testing.T) {
	db := setupDB(t)
	users := NewUserRepository(db)
	bikes := NewBikeRepository(db)
	rentals := NewRentalRepository(db)
	ctx := context.Background()

	customer := createUser(t, users, domain.Customer)
	bike, err := bikes.CreateBike(ctx, &domain.Bike{
		ID:        uuid.New(),
		BikeID:    "B-" + uuid.NewString()[:8],
		Model:     "Activa",
		Type:      "scooter",
		Price:     300,
		Available: true,
	})
	require.NoError(t, err)

	start := time.Now().UTC().Truncate(time.Second)
	newRental := func() *domain.Rental {
		return &domain.Rental{
			ID:          uuid.New(),
			CustomerID:  customer.ID,
			BikeID:      bike.ID,
			RentalStart: start,
			RentalEnd:   start.Add(48 * time.Hour),
			TotalCost:   600,
			Status:      domain.RentalActive,
		}
	}

	rental, err := rentals.CreateRental(ctx, newRental())
	require.NoError(t, err)

	_, err = rentals.CreateRental(ctx, newRental())
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, err := bikes.GetBikeByID(ctx, bike.ID)
	require.NoError(t, err)
	assert.False(t, stored.Available)

	_, err = rentals.CompleteRental(ctx, rental.ID, time.Now())
	require.NoError(t, err)

	stored, err = bikes.GetBikeByID(ctx, bike.ID)
	require.NoError(t, err)
	assert.True(t, stored.Available)

	stats, err := rentals.GetRentalStats(ctx, customer.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalRentals)
	assert.Equal(t, int64(0), stats.ActiveRentals)
}
