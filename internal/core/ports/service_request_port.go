package ports

import (
	"context"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/google/uuid"
)

type ServiceRequestRepository interface {
	CreateServiceRequest(ctx context.Context, req *domain.ServiceRequest) (*domain.ServiceRequest, error)
	GetServiceRequestByID(ctx context.Context, id uuid.UUID) (*domain.ServiceRequest, error)
	// ListServiceRequests returns matching records, newest first.
	ListServiceRequests(ctx context.Context, filter domain.ServiceRequestFilter) ([]*domain.ServiceRequest, error)
	// UpdateServiceRequest writes req only if the stored status and assigned mechanic still equal expected.
	// A changed status yields domain.ErrConflict.
	UpdateServiceRequest(ctx context.Context, req *domain.ServiceRequest, expected domain.RequestState) (*domain.ServiceRequest, error)
	CountByStatus(ctx context.Context) (map[domain.RequestStatus]int, error)
}
