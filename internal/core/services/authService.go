package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"
	"github.com/sm8ta/webike_marketplace/internal/core/ports"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo ports.UserRepository
	tokens   ports.TokenService
	logger   ports.LoggerPort
	validate *validator.Validate
	hashCost int
}

func NewAuthService(
	userRepo ports.UserRepository,
	tokens ports.TokenService,
	logger ports.LoggerPort,
	validate *validator.Validate,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
		validate: validate,
		hashCost: bcrypt.DefaultCost,
	}
}

func (s *AuthService) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	reg.Email = normalizeEmail(reg.Email)
	if err := s.validate.Struct(reg); err != nil {
		s.logger.Warn("Registration validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, validationError(err)
	}

	// The unique index on email closes the race this check leaves open.
	existing, err := s.userRepo.GetUserByEmail(ctx, reg.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		s.logger.Warn("Registration with taken email", map[string]interface{}{
			"email": reg.Email,
		})
		return nil, fmt.Errorf("%w: user with this email already exists", domain.ErrConflict)
	}

	hash, err := hashPassword(reg.Password, s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:            uuid.New(),
		FirstName:     reg.FirstName,
		LastName:      reg.LastName,
		Email:         reg.Email,
		PasswordHash:  hash,
		PhoneNumber:   reg.PhoneNumber,
		AadhaarNumber: reg.AadhaarNumber,
		PANNumber:     reg.PANNumber,
		Address:       reg.Address,
		City:          reg.City,
		State:         reg.State,
		Role:          domain.Customer,
	}

	created, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		s.logger.Error("Failed to create user", map[string]interface{}{
			"error": err.Error(),
			"email": reg.Email,
		})
		return nil, err
	}

	token, err := s.tokens.CreateToken(created)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	s.logger.Info("User registered", map[string]interface{}{
		"user_id": created.ID,
	})

	return &domain.AuthResult{Token: token, User: created.Public()}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	email = normalizeEmail(email)

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	if !checkPassword(user.PasswordHash, password) {
		s.logger.Warn("Failed login attempt", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)
	}

	token, err := s.tokens.CreateToken(user)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	s.logger.Info("User logged in", map[string]interface{}{
		"user_id": user.ID,
	})

	return &domain.AuthResult{Token: token, User: user.Public()}, nil
}

// Authenticate resolves a bearer token to the identity it was issued for.
// A bad signature or expiry is ErrForbidden; a vanished identity is ErrNotFound.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.TokenPayload, *domain.PublicUser, error) {
	if token == "" {
		return nil, nil, fmt.Errorf("%w: access token required", domain.ErrUnauthorized)
	}

	payload, err := s.tokens.VerifyToken(token)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid or expired token", domain.ErrForbidden)
	}

	user, err := s.userRepo.GetUserByID(ctx, payload.UserID)
	if err != nil {
		return nil, nil, err
	}

	// Role changes take effect immediately, not at token expiry.
	payload.Role = user.Role
	return payload, user.Public(), nil
}

// EnsureAdmin creates the bootstrap admin when no identity holds the email yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if existing != nil {
		if existing.Role != domain.Admin {
			s.logger.Warn("Bootstrap admin email belongs to a non-admin", map[string]interface{}{
				"user_id": existing.ID,
				"role":    existing.Role,
			})
		}
		return nil
	}

	hash, err := hashPassword(password, s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := &domain.User{
		ID:           uuid.New(),
		FirstName:    "Admin",
		LastName:     "WeBike",
		Email:        email,
		PasswordHash: hash,
		Role:         domain.Admin,
	}
	if _, err := s.userRepo.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	s.logger.Info("Bootstrap admin created", map[string]interface{}{
		"user_id": admin.ID,
	})
	return nil
}
