package ports

import "github.com/sm8ta/webike_marketplace/internal/core/domain"

type TokenService interface {
	CreateToken(user *domain.User) (string, error)
	VerifyToken(token string) (*domain.TokenPayload, error)
}
