package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/adapter/logger"
	"github.com/sm8ta/webike_marketplace/internal/adapter/memory"
	"github.com/sm8ta/webike_marketplace/internal/adapter/prometheus"
	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeTokens struct{}

func (fakeTokens) CreateToken(user *domain.User) (string, error) {
	return "token-" + user.ID.String(), nil
}

func (fakeTokens) VerifyToken(token string) (*domain.TokenPayload, error) {
	id, err := uuid.Parse(token[len("token-"):])
	if err != nil {
		return nil, errors.New("bad token")
	}
	return &domain.TokenPayload{UserID: id}, nil
}

type fixture struct {
	store     *memory.Store
	cache     *memory.Cache
	storage   *memory.ObjectStorage
	auth      *AuthService
	users     *UserService
	bikes     *BikeService
	policy    *AssignmentPolicy
	requests  *ServiceRequestService
	rentals   *RentalService
	dashboard *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	cache := memory.NewCache()
	storage := memory.NewObjectStorage("http://files.test")
	log := logger.NewNopLogger()
	validate := validator.New()
	metrics := prometheus.NewPrometheusAdapterWithRegistry(prom.NewRegistry())

	f := &fixture{store: store, cache: cache, storage: storage}
	f.auth = NewAuthService(store, fakeTokens{}, log, validate)
	f.auth.hashCost = bcrypt.MinCost
	f.users = NewUserService(store, storage, log, validate, cache)
	f.users.hashCost = bcrypt.MinCost
	f.bikes = NewBikeService(store, log, validate, cache)
	f.policy = NewAssignmentPolicy(store, cache, log)
	f.requests = NewServiceRequestService(store, store, f.policy, log, validate, metrics)
	f.rentals = NewRentalService(store, store, log, validate, cache)
	f.dashboard = NewDashboardService(f.requests, f.rentals, f.bikes, log)
	return f
}

func (f *fixture) user(t *testing.T, email string, role domain.UserRole) *domain.User {
	t.Helper()

	u, err := f.store.CreateUser(context.Background(), &domain.User{
		ID:          uuid.New(),
		FirstName:   "Test",
		LastName:    string(role),
		Email:       email,
		PhoneNumber: "+91 90000 00000",
		Address:     "12 MG Road",
		City:        "Bengaluru",
		Role:        role,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) bike(t *testing.T, bikeID string, price float64) *domain.Bike {
	t.Helper()

	b, err := f.bikes.CreateBike(context.Background(), &domain.Bike{
		BikeID:    bikeID,
		Name:      "Royal Enfield",
		Model:     "Classic 350",
		Type:      "cruiser",
		Year:      2023,
		Price:     price,
		Available: true,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) request(t *testing.T, customer *domain.User) *domain.ServiceRequestView {
	t.Helper()

	v, err := f.requests.Create(context.Background(), customer.ID, domain.NewServiceRequest{
		VehicleType:   domain.VehicleBike,
		VehicleModel:  "Classic 350",
		VehicleNumber: "KA01AB1234",
		ServiceType:   domain.ServiceRepair,
		Description:   "Front brake squeals",
		Priority:      domain.PriorityHigh,
		EstimatedCost: 400,
	})
	require.NoError(t, err)
	return v
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
