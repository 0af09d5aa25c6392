package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"
	"github.com/sm8ta/webike_marketplace/internal/core/ports"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const bikeCacheTTL = 15 * time.Minute

func bikeCacheKey(bikeID string) string {
	return fmt.Sprintf("bike:%s", bikeID)
}

type BikeService struct {
	bikeRepo ports.BikeRepository
	logger   ports.LoggerPort
	validate *validator.Validate
	cache    ports.CachePort
}

func NewBikeService(
	bikeRepo ports.BikeRepository,
	logger ports.LoggerPort,
	validate *validator.Validate,
	cache ports.CachePort,
) *BikeService {
	return &BikeService{
		bikeRepo: bikeRepo,
		logger:   logger,
		validate: validate,
		cache:    cache,
	}
}

func (s *BikeService) CreateBike(ctx context.Context, bike *domain.Bike) (*domain.Bike, error) {
	bike.BikeID = strings.TrimSpace(bike.BikeID)
	if err := s.validate.Struct(bike); err != nil {
		s.logger.Error("Bike validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, validationError(err)
	}

	existing, err := s.bikeRepo.GetBikeByBikeID(ctx, bike.BikeID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: bike with this ID already exists", domain.ErrConflict)
	}

	if bike.ID == uuid.Nil {
		bike.ID = uuid.New()
	}

	createdBike, err := s.bikeRepo.CreateBike(ctx, bike)
	if err != nil {
		s.logger.Error("Failed to create bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bike.BikeID,
		})
		return nil, err
	}

	s.logger.Info("Bike created successfully", map[string]interface{}{
		"bike_id": createdBike.BikeID,
	})

	return createdBike, nil
}

func (s *BikeService) GetBikeByID(ctx context.Context, bikeID string) (*domain.Bike, error) {
	cacheKey := bikeCacheKey(bikeID)
	cachedData, err := s.cache.Get(cacheKey)
	if err == nil {
		var cachedBike domain.Bike
		if err := json.Unmarshal(cachedData, &cachedBike); err == nil {
			s.logger.Debug("Bike found in cache", map[string]interface{}{
				"bike_id": bikeID,
			})
			return &cachedBike, nil
		}
	}

	bike, err := s.bikeRepo.GetBikeByBikeID(ctx, bikeID)
	if err != nil {
		s.logger.Error("Failed to get bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return nil, err
	}

	bikeData, err := json.Marshal(bike)
	if err != nil {
		s.logger.Warn("Failed to marshal bike for cache", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
	} else {
		if err := s.cache.Set(cacheKey, bikeData, bikeCacheTTL); err != nil {
			s.logger.Warn("Failed to cache bike", map[string]interface{}{
				"error":   err.Error(),
				"bike_id": bikeID,
			})
		}
	}

	return bike, nil
}

func (s *BikeService) ListAvailable(ctx context.Context) ([]*domain.Bike, error) {
	return s.list(ctx, true)
}

func (s *BikeService) ListAll(ctx context.Context) ([]*domain.Bike, error) {
	return s.list(ctx, false)
}

func (s *BikeService) list(ctx context.Context, availableOnly bool) ([]*domain.Bike, error) {
	bikes, err := s.bikeRepo.ListBikes(ctx, availableOnly)
	if err != nil {
		s.logger.Error("Failed to list bikes", map[string]interface{}{
			"error":          err.Error(),
			"available_only": availableOnly,
		})
		return nil, err
	}

	s.logger.Debug("Listed bikes", map[string]interface{}{
		"available_only": availableOnly,
		"bikes_count":    len(bikes),
	})
	return bikes, nil
}

// SetAvailability is idempotent: repeating a call leaves the same state.
func (s *BikeService) SetAvailability(ctx context.Context, bikeID string, available bool) (*domain.Bike, error) {
	bike, err := s.bikeRepo.SetAvailability(ctx, bikeID, available)
	if err != nil {
		s.logger.Error("Failed to update bike availability", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return nil, err
	}

	s.invalidate(bikeID)

	s.logger.Info("Bike availability updated", map[string]interface{}{
		"bike_id":   bikeID,
		"available": available,
	})
	return bike, nil
}

func (s *BikeService) Inventory(ctx context.Context) (*domain.BikeInventory, error) {
	bikes, err := s.bikeRepo.ListBikes(ctx, false)
	if err != nil {
		return nil, err
	}

	inv := &domain.BikeInventory{Total: len(bikes)}
	for _, b := range bikes {
		if b.Available {
			inv.Available++
		}
	}
	inv.Rented = inv.Total - inv.Available
	return inv, nil
}

func (s *BikeService) invalidate(bikeID string) {
	if err := s.cache.Delete(bikeCacheKey(bikeID)); err != nil {
		s.logger.Warn("Failed to invalidate bike cache", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
	}
}
