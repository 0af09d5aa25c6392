package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"
	"github.com/sm8ta/webike_marketplace/internal/core/ports"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type RentalService struct {
	rentalRepo ports.RentalRepository
	bikeRepo   ports.BikeRepository
	logger     ports.LoggerPort
	validate   *validator.Validate
	cache      ports.CachePort
	now        func() time.Time
}

func NewRentalService(
	rentalRepo ports.RentalRepository,
	bikeRepo ports.BikeRepository,
	logger ports.LoggerPort,
	validate *validator.Validate,
	cache ports.CachePort,
) *RentalService {
	return &RentalService{
		rentalRepo: rentalRepo,
		bikeRepo:   bikeRepo,
		logger:     logger,
		validate:   validate,
		cache:      cache,
		now:        time.Now,
	}
}

// RentalDays is the billed length: started days, at least one.
func RentalDays(start, end time.Time) int {
	days := int(math.Ceil(end.Sub(start).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

// Rent claims an available bike for the customer.
func (s *RentalService) Rent(ctx context.Context, customerID uuid.UUID, bikeID string, start, end time.Time) (*domain.Rental, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("%w: rental end must be after start", domain.ErrValidation)
	}

	bike, err := s.bikeRepo.GetBikeByBikeID(ctx, bikeID)
	if err != nil {
		return nil, err
	}
	if !bike.Available {
		return nil, fmt.Errorf("%w: bike is not available", domain.ErrConflict)
	}

	now := s.now()
	rental := &domain.Rental{
		ID:          uuid.New(),
		CustomerID:  customerID,
		BikeID:      bike.ID,
		RentalStart: start,
		RentalEnd:   end,
		TotalCost:   bike.Price * float64(RentalDays(start, end)),
		Status:      domain.RentalActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.validate.Struct(rental); err != nil {
		return nil, validationError(err)
	}

	created, err := s.rentalRepo.CreateRental(ctx, rental)
	if err != nil {
		s.logger.Error("Failed to create rental", map[string]interface{}{
			"error":       err.Error(),
			"bike_id":     bikeID,
			"customer_id": customerID,
		})
		return nil, err
	}

	s.invalidateBike(bike.BikeID)

	s.logger.Info("Bike rented", map[string]interface{}{
		"rental_id":   created.ID,
		"bike_id":     bikeID,
		"customer_id": customerID,
		"total_cost":  created.TotalCost,
	})
	return created, nil
}

func (s *RentalService) GetRental(ctx context.Context, rentalID string) (*domain.Rental, error) {
	id, err := parseID("rental", rentalID)
	if err != nil {
		return nil, err
	}
	return s.rentalRepo.GetRentalByID(ctx, id)
}

// Return closes an active rental and makes the bike available again.
func (s *RentalService) Return(ctx context.Context, rentalID string) (*domain.Rental, error) {
	id, err := parseID("rental", rentalID)
	if err != nil {
		return nil, err
	}

	rental, err := s.rentalRepo.CompleteRental(ctx, id, s.now())
	if err != nil {
		s.logger.Error("Failed to return rental", map[string]interface{}{
			"error":     err.Error(),
			"rental_id": rentalID,
		})
		return nil, err
	}

	if bike, err := s.bikeRepo.GetBikeByID(ctx, rental.BikeID); err == nil {
		s.invalidateBike(bike.BikeID)
	}

	s.logger.Info("Rental returned", map[string]interface{}{
		"rental_id": rentalID,
	})
	return rental, nil
}

func (s *RentalService) ListByUser(ctx context.Context, userID string) ([]*domain.RentalSummary, error) {
	id, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}

	rentals, err := s.rentalRepo.GetRentalsByCustomerID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get rentals", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, err
	}

	bikeIDs := make([]uuid.UUID, 0, len(rentals))
	for _, r := range rentals {
		bikeIDs = append(bikeIDs, r.BikeID)
	}
	names := make(map[uuid.UUID]string)
	if len(bikeIDs) > 0 {
		bikes, err := s.bikeRepo.GetBikesByIDs(ctx, bikeIDs)
		if err != nil {
			s.logger.Warn("Failed to join bikes into rentals", map[string]interface{}{
				"error":   err.Error(),
				"user_id": userID,
			})
		}
		for _, b := range bikes {
			names[b.ID] = b.DisplayName()
		}
	}

	summaries := make([]*domain.RentalSummary, len(rentals))
	for i, r := range rentals {
		name, ok := names[r.BikeID]
		if !ok {
			name = "Unknown Vehicle"
		}
		summaries[i] = &domain.RentalSummary{
			ID:          r.ID,
			VehicleName: name,
			RentalStart: r.RentalStart,
			RentalEnd:   r.RentalEnd,
			TotalCost:   r.TotalCost,
			Status:      r.Status,
			DueDate:     r.RentalEnd,
		}
	}
	return summaries, nil
}

func (s *RentalService) Stats(ctx context.Context, userID string) (*domain.RentalStats, error) {
	id, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.rentalRepo.GetRentalStats(ctx, id, s.now())
	if err != nil {
		s.logger.Error("Failed to get rental stats", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, err
	}
	return stats, nil
}

func (s *RentalService) invalidateBike(bikeID string) {
	if err := s.cache.Delete(bikeCacheKey(bikeID)); err != nil {
		s.logger.Warn("Failed to invalidate bike cache", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
	}
}
