package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"
	"github.com/sm8ta/webike_marketplace/internal/core/ports"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const requestIDAttempts = 3

type ServiceRequestService struct {
	requestRepo ports.ServiceRequestRepository
	identities  ports.IdentityReader
	policy      *AssignmentPolicy
	logger      ports.LoggerPort
	validate    *validator.Validate
	metrics     ports.MetricsPort
	now         func() time.Time
}

func NewServiceRequestService(
	requestRepo ports.ServiceRequestRepository,
	identities ports.IdentityReader,
	policy *AssignmentPolicy,
	logger ports.LoggerPort,
	validate *validator.Validate,
	metrics ports.MetricsPort,
) *ServiceRequestService {
	return &ServiceRequestService{
		requestRepo: requestRepo,
		identities:  identities,
		policy:      policy,
		logger:      logger,
		validate:    validate,
		metrics:     metrics,
		now:         time.Now,
	}
}

// Create files a pending request for the customer. Address and phone are
// snapshotted from the profile when the caller leaves them empty.
func (s *ServiceRequestService) Create(ctx context.Context, customerID uuid.UUID, in domain.NewServiceRequest) (*domain.ServiceRequestView, error) {
	customer, err := s.identities.GetUserByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if in.CustomerAddress == "" {
		in.CustomerAddress = customer.Address
	}
	if in.CustomerPhone == "" {
		in.CustomerPhone = customer.PhoneNumber
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}

	now := s.now()
	req := &domain.ServiceRequest{
		ID:              uuid.New(),
		CustomerID:      customerID,
		VehicleType:     in.VehicleType,
		VehicleModel:    in.VehicleModel,
		VehicleNumber:   in.VehicleNumber,
		ServiceType:     in.ServiceType,
		Description:     in.Description,
		CustomerAddress: in.CustomerAddress,
		CustomerPhone:   in.CustomerPhone,
		Status:          domain.StatusPending,
		Priority:        in.Priority,
		EstimatedCost:   in.EstimatedCost,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.validate.Struct(req); err != nil {
		s.logger.Warn("Service request validation failed", map[string]interface{}{
			"error":       err.Error(),
			"customer_id": customerID,
		})
		return nil, validationError(err)
	}

	var created *domain.ServiceRequest
	for attempt := 1; attempt <= requestIDAttempts; attempt++ {
		req.RequestID = newRequestID(now)
		created, err = s.requestRepo.CreateServiceRequest(ctx, req)
		if err == nil || !errors.Is(err, domain.ErrConflict) {
			break
		}
		s.logger.Warn("Request ID collision, regenerating", map[string]interface{}{
			"request_id": req.RequestID,
			"attempt":    attempt,
		})
	}
	if err != nil {
		s.logger.Error("Failed to create service request", map[string]interface{}{
			"error":       err.Error(),
			"customer_id": customerID,
		})
		return nil, err
	}

	s.metrics.RecordTransition(domain.StatusPending)
	s.logger.Info("Service request created", map[string]interface{}{
		"id":          created.ID,
		"request_id":  created.RequestID,
		"customer_id": customerID,
		"priority":    created.Priority,
	})

	return &domain.ServiceRequestView{ServiceRequest: created, Customer: customer.Party()}, nil
}

func (s *ServiceRequestService) GetByID(ctx context.Context, requestID string) (*domain.ServiceRequestView, error) {
	id, err := parseID("service request", requestID)
	if err != nil {
		return nil, err
	}

	req, err := s.requestRepo.GetServiceRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}

	views := s.join(ctx, []*domain.ServiceRequest{req})
	return views[0], nil
}

func (s *ServiceRequestService) List(ctx context.Context, status domain.RequestStatus, priority domain.Priority) ([]*domain.ServiceRequestView, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	if priority != "" && !priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", domain.ErrValidation, priority)
	}
	return s.list(ctx, domain.ServiceRequestFilter{Status: status, Priority: priority})
}

func (s *ServiceRequestService) ListByMechanic(ctx context.Context, mechanicID string, status domain.RequestStatus) ([]*domain.ServiceRequestView, error) {
	id, err := parseID("mechanic", mechanicID)
	if err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	return s.list(ctx, domain.ServiceRequestFilter{Status: status, MechanicID: &id})
}

func (s *ServiceRequestService) ListByCustomer(ctx context.Context, customerID string) ([]*domain.ServiceRequestView, error) {
	id, err := parseID("customer", customerID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, domain.ServiceRequestFilter{CustomerID: &id})
}

func (s *ServiceRequestService) CountByStatus(ctx context.Context) (map[domain.RequestStatus]int, error) {
	return s.requestRepo.CountByStatus(ctx)
}

func (s *ServiceRequestService) list(ctx context.Context, filter domain.ServiceRequestFilter) ([]*domain.ServiceRequestView, error) {
	reqs, err := s.requestRepo.ListServiceRequests(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list service requests", map[string]interface{}{
			"error":  err.Error(),
			"status": filter.Status,
		})
		return nil, err
	}
	return s.join(ctx, reqs), nil
}

// Assign binds a mechanic to the request. The record is left unchanged when
// the mechanic is missing or not eligible.
func (s *ServiceRequestService) Assign(ctx context.Context, requestID, mechanicID string) (*domain.ServiceRequestView, error) {
	id, err := parseID("service request", requestID)
	if err != nil {
		return nil, err
	}
	mID, err := parseID("mechanic", mechanicID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid mechanic ID", domain.ErrValidation)
	}

	req, err := s.requestRepo.GetServiceRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}

	mechanic, err := s.policy.Eligible(ctx, mID)
	if err != nil {
		return nil, err
	}

	expected := req.State()
	if err := req.Assign(mechanic.ID, s.now()); err != nil {
		return nil, err
	}

	updated, err := s.requestRepo.UpdateServiceRequest(ctx, req, expected)
	if err != nil {
		s.logger.Error("Failed to assign service request", map[string]interface{}{
			"error":       err.Error(),
			"id":          requestID,
			"mechanic_id": mechanicID,
		})
		return nil, err
	}

	s.metrics.RecordTransition(domain.StatusAssigned)
	s.logger.Info("Service request assigned", map[string]interface{}{
		"id":          updated.ID,
		"mechanic_id": mechanic.ID,
	})

	return s.join(ctx, []*domain.ServiceRequest{updated})[0], nil
}

func (s *ServiceRequestService) UpdateStatus(ctx context.Context, requestID string, update domain.StatusUpdate) (*domain.ServiceRequestView, error) {
	id, err := parseID("service request", requestID)
	if err != nil {
		return nil, err
	}
	if update.ActualCost != nil && *update.ActualCost < 0 {
		return nil, fmt.Errorf("%w: actual cost must not be negative", domain.ErrValidation)
	}

	req, err := s.requestRepo.GetServiceRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}

	expected := req.State()
	if err := req.Apply(update, s.now()); err != nil {
		s.logger.Warn("Rejected status change", map[string]interface{}{
			"id":    requestID,
			"from":  expected.Status,
			"to":    update.Status,
			"error": err.Error(),
		})
		return nil, err
	}

	updated, err := s.requestRepo.UpdateServiceRequest(ctx, req, expected)
	if err != nil {
		s.logger.Error("Failed to update service request", map[string]interface{}{
			"error": err.Error(),
			"id":    requestID,
		})
		return nil, err
	}

	s.metrics.RecordTransition(updated.Status)
	s.logger.Info("Service request status updated", map[string]interface{}{
		"id":   updated.ID,
		"from": expected.Status,
		"to":   updated.Status,
	})

	return s.join(ctx, []*domain.ServiceRequest{updated})[0], nil
}

// join attaches customer and mechanic display fields. A failed identity lookup
// degrades to views without parties.
func (s *ServiceRequestService) join(ctx context.Context, reqs []*domain.ServiceRequest) []*domain.ServiceRequestView {
	views := make([]*domain.ServiceRequestView, len(reqs))
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0, len(reqs)*2)
	for i, r := range reqs {
		views[i] = &domain.ServiceRequestView{ServiceRequest: r}
		for _, id := range partyIDs(r) {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return views
	}

	users, err := s.identities.GetUsersByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to join identities into service requests", map[string]interface{}{
			"error": err.Error(),
		})
		return views
	}

	byID := make(map[uuid.UUID]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, v := range views {
		if u, ok := byID[v.CustomerID]; ok {
			v.Customer = u.Party()
		}
		if v.AssignedMechanicID != nil {
			if u, ok := byID[*v.AssignedMechanicID]; ok {
				v.Mechanic = u.Party()
			}
		}
	}
	return views
}

func partyIDs(r *domain.ServiceRequest) []uuid.UUID {
	if r.AssignedMechanicID == nil {
		return []uuid.UUID{r.CustomerID}
	}
	return []uuid.UUID{r.CustomerID, *r.AssignedMechanicID}
}

func newRequestID(at time.Time) string {
	return fmt.Sprintf("SR%d%03d", at.UnixMilli(), rand.IntN(1000))
}
