package http

import (
	"net/http"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"
	"github.com/sm8ta/webike_marketplace/internal/core/ports"
	"github.com/sm8ta/webike_marketplace/internal/core/services"

	"github.com/gin-gonic/gin"
)

type RentalHandler struct {
	rentalService *services.RentalService
	logger        ports.LoggerPort
	metrics       ports.MetricsPort
}

type RentRequest struct {
	BikeID      string    `json:"bike_id" binding:"required" example:"KA01-RE-350"`
	RentalStart time.Time `json:"rental_start" binding:"required" example:"2026-01-10T09:00:00Z"`
	RentalEnd   time.Time `json:"rental_end" binding:"required" example:"2026-01-12T09:00:00Z"`
}

func NewRentalHandler(rentalService *services.RentalService, logger ports.LoggerPort, metrics ports.MetricsPort) *RentalHandler {
	return &RentalHandler{
		rentalService: rentalService,
		logger:        logger,
		metrics:       metrics,
	}
}

// @Summary Арендовать байк
// @Description Стоимость = цена за день * число дней (минимум 1)
// @Tags rentals
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body RentRequest true "Данные аренды"
// @Success 201 {object} successResponse{data=domain.Rental} "Аренда создана"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Failure 409 {object} errorResponse "Байк недоступен"
// @Router /api/rentals [post]
func (h *RentalHandler) Rent(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req RentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed JSON parse in rent", map[string]interface{}{
			"error":   err.Error(),
			"user_id": payload.UserID.String(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	rental, err := h.rentalService.Rent(c.Request.Context(), payload.UserID, req.BikeID, req.RentalStart, req.RentalEnd)
	if err != nil {
		handleError(c, h.logger, "Failed to rent bike", err, map[string]interface{}{
			"user_id": payload.UserID.String(),
			"bike_id": req.BikeID,
		})
		return
	}

	newSuccessResponse(c, http.StatusCreated, "Bike rented successfully", rental)
}

// @Summary Вернуть байк
// @Description Завершает активную аренду (владелец или admin)
// @Tags rentals
// @Security BearerAuth
// @Produce json
// @Param rentalId path string true "ID аренды"
// @Success 200 {object} successResponse{data=domain.Rental} "Аренда завершена"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 404 {object} errorResponse "Аренда не найдена"
// @Failure 409 {object} errorResponse "Аренда уже завершена"
// @Router /api/rentals/{rentalId}/return [patch]
func (h *RentalHandler) Return(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	rentalID := c.Param("rentalId")

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	rental, err := h.rentalService.GetRental(c.Request.Context(), rentalID)
	if err != nil {
		handleError(c, h.logger, "Failed to get rental", err, map[string]interface{}{
			"rental_id": rentalID,
		})
		return
	}
	if payload.Role != domain.Admin && rental.CustomerID != payload.UserID {
		h.logger.Warn("Access denied to rental", map[string]interface{}{
			"requester_id": payload.UserID.String(),
			"rental_id":    rentalID,
		})
		newErrorResponse(c, http.StatusForbidden, "Access denied")
		return
	}

	returned, err := h.rentalService.Return(c.Request.Context(), rentalID)
	if err != nil {
		handleError(c, h.logger, "Failed to return rental", err, map[string]interface{}{
			"rental_id": rentalID,
		})
		return
	}

	newSuccessResponse(c, http.StatusOK, "Rental completed", returned)
}
