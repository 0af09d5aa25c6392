package services

import (
	"context"
	"fmt"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"
	"github.com/sm8ta/webike_marketplace/internal/core/ports"
)

// DashboardService resolves the caller's role once and builds the matching view.
type DashboardService struct {
	requests *ServiceRequestService
	rentals  *RentalService
	bikes    *BikeService
	logger   ports.LoggerPort
}

func NewDashboardService(
	requests *ServiceRequestService,
	rentals *RentalService,
	bikes *BikeService,
	logger ports.LoggerPort,
) *DashboardService {
	return &DashboardService{
		requests: requests,
		rentals:  rentals,
		bikes:    bikes,
		logger:   logger,
	}
}

func (s *DashboardService) ForUser(ctx context.Context, user *domain.PublicUser) (domain.Dashboard, error) {
	switch user.Role {
	case domain.Customer:
		return s.customer(ctx, user)
	case domain.Mechanic:
		return s.mechanic(ctx, user)
	case domain.Admin:
		return s.admin(ctx)
	}
	return nil, fmt.Errorf("%w: unknown role %q", domain.ErrForbidden, user.Role)
}

func (s *DashboardService) customer(ctx context.Context, user *domain.PublicUser) (domain.Dashboard, error) {
	stats, err := s.rentals.Stats(ctx, user.ID.String())
	if err != nil {
		return nil, err
	}
	reqs, err := s.requests.ListByCustomer(ctx, user.ID.String())
	if err != nil {
		return nil, err
	}
	return domain.CustomerDashboard{Stats: *stats, Requests: reqs}, nil
}

func (s *DashboardService) mechanic(ctx context.Context, user *domain.PublicUser) (domain.Dashboard, error) {
	reqs, err := s.requests.ListByMechanic(ctx, user.ID.String(), "")
	if err != nil {
		return nil, err
	}

	dash := domain.MechanicDashboard{Open: []*domain.ServiceRequestView{}}
	for _, r := range reqs {
		switch r.Status {
		case domain.StatusAssigned, domain.StatusInProgress:
			dash.Open = append(dash.Open, r)
		case domain.StatusCompleted:
			dash.CompletedCount++
		}
	}
	return dash, nil
}

func (s *DashboardService) admin(ctx context.Context) (domain.Dashboard, error) {
	pending, err := s.requests.List(ctx, domain.StatusPending, "")
	if err != nil {
		return nil, err
	}
	counts, err := s.requests.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := s.bikes.Inventory(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Admin dashboard built", map[string]interface{}{
		"pending": len(pending),
	})
	return domain.AdminDashboard{Pending: pending, RequestsByState: counts, Inventory: *inv}, nil
}
