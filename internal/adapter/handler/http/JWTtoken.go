package http

import (
	"fmt"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"
	"github.com/sm8ta/webike_marketplace/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type JWTTokenService struct {
	secretKey []byte
	ttl       time.Duration
	logger    ports.LoggerPort
}

type tokenClaims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func NewJWTTokenService(secretKey string, ttl time.Duration, logger ports.LoggerPort) *JWTTokenService {
	return &JWTTokenService{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		logger:    logger,
	}
}

func (j *JWTTokenService) CreateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		ID:    user.ID.String(),
		Email: user.Email,
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secretKey)
	if err != nil {
		j.logger.Error("Failed to sign jwt", map[string]interface{}{
			"error":   err.Error(),
			"user_id": user.ID.String(),
			"method":  "CreateToken",
		})
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// проверка жвт
func (j *JWTTokenService) VerifyToken(token string) (*domain.TokenPayload, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return j.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		j.logger.Warn("Failed to parse jwt", map[string]interface{}{
			"error":  err.Error(),
			"method": "VerifyToken",
		})
		return nil, fmt.Errorf("%w: invalid or expired token", domain.ErrForbidden)
	}

	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id claim", domain.ErrForbidden)
	}

	role := domain.UserRole(claims.Role)
	if !role.Valid() {
		j.logger.Warn("Invalid role in token", map[string]interface{}{
			"role":   claims.Role,
			"method": "VerifyToken",
		})
		return nil, fmt.Errorf("%w: invalid role value", domain.ErrForbidden)
	}

	return &domain.TokenPayload{
		UserID: id,
		Email:  claims.Email,
		Role:   role,
	}, nil
}
