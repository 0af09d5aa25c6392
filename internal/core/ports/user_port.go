package ports

import (
	"context"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/google/uuid"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error)
	GetUsersByRole(ctx context.Context, role domain.UserRole) ([]*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error)
}

// IdentityReader is the slice of the identity store the ledger joins through.
type IdentityReader interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error)
}
