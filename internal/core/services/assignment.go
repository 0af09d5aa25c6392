package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"
	"github.com/sm8ta/webike_marketplace/internal/core/ports"

	"github.com/google/uuid"
)

const (
	mechanicsCacheKey = "mechanics:available"
	mechanicsCacheTTL = 5 * time.Minute
)

// AssignmentPolicy decides which identities may be bound to a service request.
// Assignment is operator-chosen; the policy only checks eligibility.
type AssignmentPolicy struct {
	userRepo ports.UserRepository
	cache    ports.CachePort
	logger   ports.LoggerPort
}

func NewAssignmentPolicy(userRepo ports.UserRepository, cache ports.CachePort, logger ports.LoggerPort) *AssignmentPolicy {
	return &AssignmentPolicy{
		userRepo: userRepo,
		cache:    cache,
		logger:   logger,
	}
}

// Eligible returns the mechanic or fails with ErrNotFound / ErrValidation.
func (p *AssignmentPolicy) Eligible(ctx context.Context, mechanicID uuid.UUID) (*domain.User, error) {
	mechanic, err := p.userRepo.GetUserByID(ctx, mechanicID)
	if err != nil {
		return nil, err
	}
	if mechanic.Role != domain.Mechanic {
		p.logger.Warn("Assignment to non-mechanic rejected", map[string]interface{}{
			"user_id": mechanicID,
			"role":    mechanic.Role,
		})
		return nil, fmt.Errorf("%w: invalid mechanic ID", domain.ErrValidation)
	}
	return mechanic, nil
}

func (p *AssignmentPolicy) AvailableMechanics(ctx context.Context) ([]*domain.PublicUser, error) {
	if data, err := p.cache.Get(mechanicsCacheKey); err == nil {
		var cached []*domain.PublicUser
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	mechanics, err := p.userRepo.GetUsersByRole(ctx, domain.Mechanic)
	if err != nil {
		p.logger.Error("Failed to list mechanics", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	result := make([]*domain.PublicUser, len(mechanics))
	for i, m := range mechanics {
		result[i] = m.Public()
	}

	if data, err := json.Marshal(result); err == nil {
		if err := p.cache.Set(mechanicsCacheKey, data, mechanicsCacheTTL); err != nil {
			p.logger.Warn("Failed to cache mechanics", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return result, nil
}
