package http

import (
	"net/http"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"
	"github.com/sm8ta/webike_marketplace/internal/core/ports"
	"github.com/sm8ta/webike_marketplace/internal/core/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *services.AuthService
	logger      ports.LoggerPort
	metrics     ports.MetricsPort
}

type RegisterRequest struct {
	FirstName     string `json:"first_name" binding:"required" example:"Ravi"`
	LastName      string `json:"last_name" binding:"required" example:"Kumar"`
	Email         string `json:"email" binding:"required,email" example:"ravi@example.com"`
	Password      string `json:"password" binding:"required,min=6" example:"secret123"`
	PhoneNumber   string `json:"phone_number" example:"9876543210"`
	AadhaarNumber string `json:"aadhaar_number" example:"123412341234"`
	PANNumber     string `json:"pan_number" example:"ABCDE1234F"`
	Address       string `json:"address" example:"12 MG Road"`
	City          string `json:"city" example:"Bengaluru"`
	State         string `json:"state" example:"Karnataka"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"ravi@example.com"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

func NewAuthHandler(authService *services.AuthService, logger ports.LoggerPort, metrics ports.MetricsPort) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
		metrics:     metrics,
	}
}

// @Summary Регистрация
// @Description Создание нового пользователя с ролью customer
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Данные пользователя"
// @Success 201 {object} successResponse{data=domain.AuthResult} "Пользователь создан"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 409 {object} errorResponse "Email уже зарегистрирован"
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed JSON parse in register", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.Register(c.Request.Context(), domain.Registration{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Password:      req.Password,
		PhoneNumber:   req.PhoneNumber,
		AadhaarNumber: req.AadhaarNumber,
		PANNumber:     req.PANNumber,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
	})
	if err != nil {
		handleError(c, h.logger, "Failed to register user", err, nil)
		return
	}

	newSuccessResponse(c, http.StatusCreated, "User registered successfully", result)
}

// @Summary Вход
// @Description Аутентификация по email и паролю
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Учетные данные"
// @Success 200 {object} successResponse{data=domain.AuthResult} "Успешный вход"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 401 {object} errorResponse "Неверный email или пароль"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed JSON parse in login", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, h.logger, "Login failed", err, map[string]interface{}{
			"ip": c.ClientIP(),
		})
		return
	}

	newSuccessResponse(c, http.StatusOK, "Login successful", result)
}

// @Summary Текущий пользователь
// @Description Профиль владельца токена
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} successResponse{data=domain.PublicUser} "Профиль"
// @Failure 401 {object} errorResponse "Не авторизован"
// @Failure 403 {object} errorResponse "Токен недействителен"
// @Failure 404 {object} errorResponse "Пользователь не найден"
// @Router /api/auth/profile/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	user, exists := getAuthUser(c)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Success", user)
}
