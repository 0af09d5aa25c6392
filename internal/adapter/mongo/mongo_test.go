package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/adapter/logger"
	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestUUIDRoundTrip(t *testing.T) {
	id := uuid.New()
	mechanic := uuid.New()
	in := domain.ServiceRequest{ID: id, AssignedMechanicID: &mechanic, Status: domain.StatusAssigned}

	data, err := bson.MarshalWithRegistry(newRegistry(), in)
	require.NoError(t, err)

	var raw bson.Raw = data
	subtype, bin := raw.Lookup("_id").Binary()
	assert.Equal(t, byte(0x04), subtype)
	assert.Equal(t, id[:], bin)

	var out domain.ServiceRequest
	require.NoError(t, bson.UnmarshalWithRegistry(newRegistry(), data, &out))
	assert.Equal(t, id, out.ID)
	require.NotNil(t, out.AssignedMechanicID)
	assert.Equal(t, mechanic, *out.AssignedMechanicID)
}

// Requires a running mongod; skipped unless TEST_MONGODB_URI is set.
func setupClient(t *testing.T) *Client {
	t.Helper()
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("Skipping MongoDB integration test - TEST_MONGODB_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := NewClient(ctx, uri, "webike_test_"+uuid.NewString()[:8], logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, client.EnsureIndexes(ctx))
	t.Cleanup(func() {
		client.Database.Drop(context.Background())
		client.Close(context.Background())
	})
	return client
}

func TestUserRepository_Integration(t *testing.T) {
	client := setupClient(t)
	repo := NewUserRepository(client.Database)
	ctx := context.Background()

	user := &domain.User{ID: uuid.New(), FirstName: "Asha", LastName: "Rao", Email: "asha@example.com", Role: domain.Mechanic}
	_, err := repo.CreateUser(ctx, user)
	require.NoError(t, err)

	_, err = repo.CreateUser(ctx, &domain.User{ID: uuid.New(), Email: "asha@example.com", Role: domain.Customer})
	assert.ErrorIs(t, err, domain.ErrConflict)

	mechanics, err := repo.GetUsersByRole(ctx, domain.Mechanic)
	require.NoError(t, err)
	require.Len(t, mechanics, 1)
	assert.Equal(t, user.ID, mechanics[0].ID)

	_, err = repo.GetUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServiceRequestRepository_Integration(t *testing.T) {
	client := setupClient(t)
	repo := NewServiceRequestRepository(client.Database)
	ctx := context.Background()

	req := &domain.ServiceRequest{
		ID:         uuid.New(),
		RequestID:  "SR1",
		CustomerID: uuid.New(),
		Status:     domain.StatusPending,
		Priority:   domain.PriorityHigh,
	}
	_, err := repo.CreateServiceRequest(ctx, req)
	require.NoError(t, err)

	require.NoError(t, req.Assign(uuid.New(), time.Now()))
	_, err = repo.UpdateServiceRequest(ctx, req, domain.RequestState{Status: domain.StatusPending})
	require.NoError(t, err)

	_, err = repo.UpdateServiceRequest(ctx, req, domain.RequestState{Status: domain.StatusPending})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Reassignment keeps the status; a writer holding the old mechanic still loses.
	stale := req.State()
	require.NoError(t, req.Assign(uuid.New(), time.Now()))
	_, err = repo.UpdateServiceRequest(ctx, req, stale)
	require.NoError(t, err)
	_, err = repo.UpdateServiceRequest(ctx, req, stale)
	assert.ErrorIs(t, err, domain.ErrConflict)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.StatusAssigned])
}

func TestRentalRepository_Integration(t *testing.T) {
	client := setupClient(t)
	bikes := NewBikeRepository(client.Database)
	rentals := NewRentalRepository(client.Database, logger.NewNopLogger())
	ctx := context.Background()

	bike, err := bikes.CreateBike(ctx, &domain.Bike{ID: uuid.New(), BikeID: "B-1", Model: "Classic 350", Type: "motorcycle", Price: 900, Available: true})
	require.NoError(t, err)

	start := time.Now().UTC()
	rental := &domain.Rental{ID: uuid.New(), CustomerID: uuid.New(), BikeID: bike.ID, RentalStart: start, RentalEnd: start.Add(24 * time.Hour), TotalCost: 900, Status: domain.RentalActive}
	_, err = rentals.CreateRental(ctx, rental)
	require.NoError(t, err)

	second := *rental
	second.ID = uuid.New()
	_, err = rentals.CreateRental(ctx, &second)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = rentals.CompleteRental(ctx, rental.ID, time.Now().UTC())
	require.NoError(t, err)

	_, err = rentals.CompleteRental(ctx, rental.ID, time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, err := bikes.GetBikeByBikeID(ctx, "B-1")
	require.NoError(t, err)
	assert.True(t, stored.Available)
}
