package ports

import (
	"context"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/google/uuid"
)

type BikeRepository interface {
	CreateBike(ctx context.Context, bike *domain.Bike) (*domain.Bike, error)
	GetBikeByID(ctx context.Context, id uuid.UUID) (*domain.Bike, error)
	GetBikeByBikeID(ctx context.Context, bikeID string) (*domain.Bike, error)
	GetBikesByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Bike, error)
	ListBikes(ctx context.Context, availableOnly bool) ([]*domain.Bike, error)
	SetAvailability(ctx context.Context, bikeID string, available bool) (*domain.Bike, error)
}
