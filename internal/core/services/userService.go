package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"
	"github.com/sm8ta/webike_marketplace/internal/core/ports"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const maxProfileImageSize = 5 << 20

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type UserService struct {
	userRepo ports.UserRepository
	storage  ports.ObjectStorage
	logger   ports.LoggerPort
	validate *validator.Validate
	cache    ports.CachePort
	hashCost int
}

func NewUserService(
	userRepo ports.UserRepository,
	storage ports.ObjectStorage,
	logger ports.LoggerPort,
	validate *validator.Validate,
	cache ports.CachePort,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		storage:  storage,
		logger:   logger,
		validate: validate,
		cache:    cache,
		hashCost: bcrypt.DefaultCost,
	}
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.PublicUser, error) {
	id, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get user", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, err
	}
	return user.Public(), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd domain.ProfileUpdate) (*domain.PublicUser, error) {
	if err := s.validate.Struct(upd); err != nil {
		return nil, validationError(err)
	}

	id, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	setIfPresent(&user.FirstName, upd.FirstName)
	setIfPresent(&user.LastName, upd.LastName)
	setIfPresent(&user.PhoneNumber, upd.PhoneNumber)
	setIfPresent(&user.Address, upd.Address)
	setIfPresent(&user.City, upd.City)
	setIfPresent(&user.State, upd.State)

	updated, err := s.userRepo.UpdateUser(ctx, user)
	if err != nil {
		s.logger.Error("Failed to update profile", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, err
	}

	s.invalidateMechanics(updated.Role)

	s.logger.Info("Profile updated", map[string]interface{}{
		"user_id": userID,
	})
	return updated.Public(), nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if len(next) < 6 || len(next) > 72 {
		return fmt.Errorf("%w: new password must be 6 to 72 characters", domain.ErrValidation)
	}

	id, err := parseID("user", userID)
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	if !checkPassword(user.PasswordHash, current) {
		s.logger.Warn("Password change with wrong current password", map[string]interface{}{
			"user_id": userID,
		})
		return fmt.Errorf("%w: current password is incorrect", domain.ErrBadRequest)
	}

	hash, err := hashPassword(next, s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash

	if _, err := s.userRepo.UpdateUser(ctx, user); err != nil {
		s.logger.Error("Failed to change password", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return err
	}

	s.logger.Info("Password changed", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

func (s *UserService) UploadProfileImage(ctx context.Context, userID string, r io.Reader, size int64, contentType string) (*domain.PublicUser, error) {
	if _, ok := allowedImageTypes[strings.ToLower(contentType)]; !ok {
		return nil, fmt.Errorf("%w: unsupported image type %q", domain.ErrValidation, contentType)
	}
	if size <= 0 || size > maxProfileImageSize {
		return nil, fmt.Errorf("%w: image must be between 1 byte and 5MB", domain.ErrValidation)
	}

	// The declared type comes from the client; the stored type is sniffed from the bytes.
	r, detected, err := sniffImage(r)
	if err != nil {
		return nil, err
	}
	ext, ok := allowedImageTypes[detected]
	if !ok || detected != strings.ToLower(contentType) {
		s.logger.Warn("Profile image content does not match its type", map[string]interface{}{
			"user_id":  userID,
			"declared": contentType,
			"detected": detected,
		})
		return nil, fmt.Errorf("%w: file content is %q, not %q", domain.ErrValidation, detected, contentType)
	}

	id, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := path.Join("profile-pictures", id.String()+ext)
	url, err := s.storage.Upload(ctx, key, r, size, detected)
	if err != nil {
		s.logger.Error("Failed to upload profile image", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, fmt.Errorf("upload profile image: %w", err)
	}

	user.ProfileImage = &url
	updated, err := s.userRepo.UpdateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Profile image uploaded", map[string]interface{}{
		"user_id": userID,
		"url":     url,
	})
	return updated.Public(), nil
}

func (s *UserService) SetRole(ctx context.Context, userID string, role domain.UserRole) (*domain.PublicUser, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	id, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := user.Role
	user.Role = role
	updated, err := s.userRepo.UpdateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	s.invalidateMechanics(previous)
	s.invalidateMechanics(role)

	s.logger.Info("User role changed", map[string]interface{}{
		"user_id": userID,
		"from":    previous,
		"to":      role,
	})
	return updated.Public(), nil
}

func (s *UserService) invalidateMechanics(role domain.UserRole) {
	if role != domain.Mechanic {
		return
	}
	if err := s.cache.Delete(mechanicsCacheKey); err != nil {
		s.logger.Warn("Failed to invalidate mechanics cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// sniffImage reads the head of r to detect its content type and returns a reader
// that still yields the whole stream.
func sniffImage(r io.Reader) (io.Reader, string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	head = head[:n]
	return io.MultiReader(bytes.NewReader(head), r), http.DetectContentType(head), nil
}

func setIfPresent(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
