package ports

import (
	"context"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/google/uuid"
)

type RentalRepository interface {
	// CreateRental claims the bike (available -> unavailable) and stores the rental as one unit.
	// An unavailable bike yields domain.ErrConflict.
	CreateRental(ctx context.Context, rental *domain.Rental) (*domain.Rental, error)
	GetRentalByID(ctx context.Context, id uuid.UUID) (*domain.Rental, error)
	GetRentalsByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*domain.Rental, error)
	// CompleteRental closes an active rental and releases its bike.
	CompleteRental(ctx context.Context, id uuid.UUID, at time.Time) (*domain.Rental, error)
	GetRentalStats(ctx context.Context, customerID uuid.UUID, now time.Time) (*domain.RentalStats, error)
}
