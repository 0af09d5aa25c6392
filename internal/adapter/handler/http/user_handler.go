package http

import (
	"net/http"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"
	"github.com/sm8ta/webike_marketplace/internal/core/ports"
	"github.com/sm8ta/webike_marketplace/internal/core/services"

	"github.com/gin-gonic/gin"
)

const profileImageField = "profileImage"

type UserHandler struct {
	userService   *services.UserService
	rentalService *services.RentalService
	logger        ports.LoggerPort
	metrics       ports.MetricsPort
}

type UpdateProfileRequest struct {
	FirstName   string `json:"first_name,omitempty" example:"Ravi"`
	LastName    string `json:"last_name,omitempty" example:"Kumar"`
	PhoneNumber string `json:"phone_number,omitempty" example:"9876543210"`
	Address     string `json:"address,omitempty" example:"12 MG Road"`
	City        string `json:"city,omitempty" example:"Bengaluru"`
	State       string `json:"state,omitempty" example:"Karnataka"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required" example:"secret123"`
	NewPassword     string `json:"new_password" binding:"required,min=6" example:"secret456"`
}

type SetRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=customer mechanic admin" example:"mechanic"`
}

type RentalHistoryResponse struct {
	Rentals []*domain.RentalSummary `json:"rentals"`
	Count   int                     `json:"count"`
}

func NewUserHandler(
	userService *services.UserService,
	rentalService *services.RentalService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *UserHandler {
	return &UserHandler{
		userService:   userService,
		rentalService: rentalService,
		logger:        logger,
		metrics:       metrics,
	}
}

// selfOrAdmin writes 403 and returns false unless the caller owns :userId or is an admin.
func (h *UserHandler) selfOrAdmin(c *gin.Context, userID string) bool {
	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return false
	}
	if !isSelfOrAdmin(payload, userID) {
		h.logger.Warn("Access denied to user resource", map[string]interface{}{
			"requester_id": payload.UserID.String(),
			"user_id":      userID,
			"path":         c.FullPath(),
		})
		newErrorResponse(c, http.StatusForbidden, "Access denied")
		return false
	}
	return true
}

// @Summary Профиль пользователя
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param userId path string true "ID пользователя"
// @Success 200 {object} successResponse{data=domain.PublicUser} "Профиль"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 404 {object} errorResponse "Пользователь не найден"
// @Router /api/user/profile/{userId} [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID := c.Param("userId")
	if !h.selfOrAdmin(c, userID) {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.logger, "Failed to get profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	newSuccessResponse(c, http.StatusOK, "Success", user)
}

// @Summary История аренд
// @Description Аренды пользователя, новые первыми
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param userId path string true "ID пользователя"
// @Success 200 {object} successResponse{data=RentalHistoryResponse} "История аренд"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Router /api/user/rentals/{userId} [get]
func (h *UserHandler) GetRentals(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID := c.Param("userId")
	if !h.selfOrAdmin(c, userID) {
		return
	}

	rentals, err := h.rentalService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.logger, "Failed to get rentals", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	newSuccessResponse(c, http.StatusOK, "Success", RentalHistoryResponse{Rentals: rentals, Count: len(rentals)})
}

// @Summary Статистика аренд
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param userId path string true "ID пользователя"
// @Success 200 {object} successResponse{data=domain.RentalStats} "Статистика"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Router /api/user/stats/{userId} [get]
func (h *UserHandler) GetStats(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID := c.Param("userId")
	if !h.selfOrAdmin(c, userID) {
		return
	}

	stats, err := h.rentalService.Stats(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.logger, "Failed to get rental stats", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	newSuccessResponse(c, http.StatusOK, "Success", stats)
}

// @Summary Загрузить фото профиля
// @Description multipart поле profileImage, jpeg/png/webp/gif до 5MB
// @Tags users
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param userId path string true "ID пользователя"
// @Param profileImage formData file true "Изображение"
// @Success 200 {object} successResponse{data=domain.PublicUser} "Фото загружено"
// @Failure 400 {object} errorResponse "Неверный файл"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Router /api/user/upload-profile/{userId} [post]
func (h *UserHandler) UploadProfileImage(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID := c.Param("userId")
	if !h.selfOrAdmin(c, userID) {
		return
	}

	fileHeader, err := c.FormFile(profileImageField)
	if err != nil {
		h.logger.Warn("Profile image missing from form", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		newErrorResponse(c, http.StatusBadRequest, "No file uploaded")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		handleError(c, h.logger, "Failed to open uploaded file", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}
	defer file.Close()

	user, err := h.userService.UploadProfileImage(c.Request.Context(), userID, file, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		handleError(c, h.logger, "Failed to upload profile image", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	newSuccessResponse(c, http.StatusOK, "Profile picture uploaded successfully", user)
}

// @Summary Обновить профиль
// @Description Пустые поля не меняются
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param userId path string true "ID пользователя"
// @Param request body UpdateProfileRequest true "Поля профиля"
// @Success 200 {object} successResponse{data=domain.PublicUser} "Профиль обновлен"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Router /api/user/profile/{userId} [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID := c.Param("userId")
	if !h.selfOrAdmin(c, userID) {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed JSON parse in update profile", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, domain.ProfileUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
	})
	if err != nil {
		handleError(c, h.logger, "Failed to update profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	newSuccessResponse(c, http.StatusOK, "Profile updated successfully", user)
}

// @Summary Сменить пароль
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param userId path string true "ID пользователя"
// @Param request body ChangePasswordRequest true "Пароли"
// @Success 200 {object} successResponse "Пароль изменен"
// @Failure 400 {object} errorResponse "Неверный текущий пароль"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Router /api/user/change-password/{userId} [put]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID := c.Param("userId")
	if !h.selfOrAdmin(c, userID) {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed JSON parse in change password", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		handleError(c, h.logger, "Failed to change password", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	newSuccessResponse(c, http.StatusOK, "Password changed successfully", nil)
}

// @Summary Сменить роль
// @Description Только admin
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param userId path string true "ID пользователя"
// @Param request body SetRoleRequest true "Роль"
// @Success 200 {object} successResponse{data=domain.PublicUser} "Роль изменена"
// @Failure 400 {object} errorResponse "Неверная роль"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 404 {object} errorResponse "Пользователь не найден"
// @Router /api/user/role/{userId} [put]
func (h *UserHandler) SetRole(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID := c.Param("userId")

	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed JSON parse in set role", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	user, err := h.userService.SetRole(c.Request.Context(), userID, domain.UserRole(req.Role))
	if err != nil {
		handleError(c, h.logger, "Failed to set role", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	newSuccessResponse(c, http.StatusOK, "Role updated successfully", user)
}
