package http

import (
	"net/http"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"
	"github.com/sm8ta/webike_marketplace/internal/core/ports"
	"github.com/sm8ta/webike_marketplace/internal/core/services"

	"github.com/gin-gonic/gin"
)

type BikeHandler struct {
	bikeService *services.BikeService
	logger      ports.LoggerPort
	metrics     ports.MetricsPort
}

type BikeRequest struct {
	BikeID      string  `json:"bike_id" binding:"required" example:"KA01-RE-350"`
	Name        string  `json:"name" example:"Royal Enfield"`
	Model       string  `json:"model" binding:"required" example:"Classic 350"`
	Type        string  `json:"type" binding:"required" example:"motorcycle"`
	Year        int     `json:"year" example:"2022"`
	Price       float64 `json:"price" binding:"gte=0" example:"1200"`
	Description string  `json:"description" example:"Well maintained, new tyres"`
	FuelType    string  `json:"fuel_type" example:"petrol"`
	Mileage     int     `json:"mileage" binding:"gte=0" example:"8500"`
	Available   *bool   `json:"available,omitempty" example:"true"`
}

type AvailabilityRequest struct {
	Available *bool `json:"available" binding:"required" example:"false"`
}

type BikeListResponse struct {
	Bikes []*domain.Bike `json:"bikes"`
	Count int            `json:"count"`
}

func NewBikeHandler(
	bikeService *services.BikeService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *BikeHandler {
	return &BikeHandler{
		bikeService: bikeService,
		logger:      logger,
		metrics:     metrics,
	}
}

// @Summary Создать байк
// @Description Добавление байка в каталог (только admin)
// @Tags bikes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body BikeRequest true "Данные байка"
// @Success 201 {object} successResponse{data=domain.Bike} "Байк создан"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 401 {object} errorResponse "Не авторизован"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 409 {object} errorResponse "Байк с таким ID уже существует"
// @Router /api/bikes [post]
func (h *BikeHandler) CreateBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		h.logger.Warn("Unauthorized access attempt to CreateBike", map[string]interface{}{
			"ip": c.ClientIP(),
		})
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req BikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed JSON parse in create bike", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	bike := &domain.Bike{
		BikeID:      req.BikeID,
		Name:        req.Name,
		Model:       req.Model,
		Type:        req.Type,
		Year:        req.Year,
		Price:       req.Price,
		Description: req.Description,
		FuelType:    req.FuelType,
		Mileage:     req.Mileage,
		Available:   available,
	}

	createdBike, err := h.bikeService.CreateBike(c.Request.Context(), bike)
	if err != nil {
		handleError(c, h.logger, "Failed to create bike", err, map[string]interface{}{
			"user_id": payload.UserID.String(),
		})
		return
	}

	newSuccessResponse(c, http.StatusCreated, "Bike created successfully", createdBike)
}

// @Summary Доступные байки
// @Description Список байков, доступных для аренды
// @Tags bikes
// @Produce json
// @Success 200 {object} successResponse{data=BikeListResponse} "Список байков"
// @Router /api/bikes/available [get]
func (h *BikeHandler) ListAvailable(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	bikes, err := h.bikeService.ListAvailable(c.Request.Context())
	if err != nil {
		handleError(c, h.logger, "Failed to list available bikes", err, nil)
		return
	}

	newSuccessResponse(c, http.StatusOK, "Success", BikeListResponse{Bikes: bikes, Count: len(bikes)})
}

// @Summary Все байки
// @Description Полный каталог, новые первыми (только admin)
// @Tags bikes
// @Security BearerAuth
// @Produce json
// @Success 200 {object} successResponse{data=BikeListResponse} "Список байков"
// @Failure 401 {object} errorResponse "Не авторизован"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Router /api/bikes [get]
func (h *BikeHandler) ListBikes(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	bikes, err := h.bikeService.ListAll(c.Request.Context())
	if err != nil {
		handleError(c, h.logger, "Failed to list bikes", err, nil)
		return
	}

	newSuccessResponse(c, http.StatusOK, "Success", BikeListResponse{Bikes: bikes, Count: len(bikes)})
}

// @Summary Получить байк
// @Description Получение байка по его bikeId
// @Tags bikes
// @Produce json
// @Param bikeId path string true "ID байка" example:"KA01-RE-350"
// @Success 200 {object} successResponse{data=domain.Bike} "Байк найден"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Router /api/bikes/{bikeId} [get]
func (h *BikeHandler) GetBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	bikeID := c.Param("bikeId")

	bike, err := h.bikeService.GetBikeByID(c.Request.Context(), bikeID)
	if err != nil {
		handleError(c, h.logger, "Failed to get bike", err, map[string]interface{}{
			"bike_id": bikeID,
		})
		return
	}

	newSuccessResponse(c, http.StatusOK, "Success", bike)
}

// @Summary Изменить доступность
// @Description Пометить байк доступным или недоступным (только admin)
// @Tags bikes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param bikeId path string true "ID байка"
// @Param request body AvailabilityRequest true "Доступность"
// @Success 200 {object} successResponse{data=domain.Bike} "Байк обновлен"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Router /api/bikes/{bikeId}/availability [put]
func (h *BikeHandler) UpdateAvailability(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	bikeID := c.Param("bikeId")

	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed JSON parse in update availability", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	bike, err := h.bikeService.SetAvailability(c.Request.Context(), bikeID, *req.Available)
	if err != nil {
		handleError(c, h.logger, "Failed to update bike availability", err, map[string]interface{}{
			"bike_id": bikeID,
		})
		return
	}

	newSuccessResponse(c, http.StatusOK, "Bike availability updated", bike)
}
