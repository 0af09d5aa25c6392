package http

import (
	"net/http"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"
	"github.com/sm8ta/webike_marketplace/internal/core/ports"
	"github.com/sm8ta/webike_marketplace/internal/core/services"

	"github.com/gin-gonic/gin"
)

type ServiceRequestHandler struct {
	requestService *services.ServiceRequestService
	policy         *services.AssignmentPolicy
	logger         ports.LoggerPort
	metrics        ports.MetricsPort
}

type ServiceRequestRequest struct {
	VehicleType     string  `json:"vehicle_type" binding:"required" example:"bike"`
	VehicleModel    string  `json:"vehicle_model" binding:"required" example:"Pulsar 150"`
	VehicleNumber   string  `json:"vehicle_number" binding:"required" example:"KA01AB1234"`
	ServiceType     string  `json:"service_type" binding:"required" example:"repair"`
	Description     string  `json:"description" binding:"required" example:"Front brake is weak"`
	CustomerAddress string  `json:"customer_address,omitempty" example:"12 MG Road, Bengaluru"`
	CustomerPhone   string  `json:"customer_phone,omitempty" example:"9876543210"`
	Priority        string  `json:"priority,omitempty" example:"high"`
	EstimatedCost   float64 `json:"estimated_cost,omitempty" example:"800"`
}

type AssignRequest struct {
	MechanicID string `json:"mechanic_id" binding:"required" example:"123e4567-e89b-12d3-a456-426614174000"`
}

type StatusRequest struct {
	Status        string   `json:"status" binding:"required" example:"completed"`
	MechanicNotes *string  `json:"mechanic_notes,omitempty" example:"fixed brake"`
	ActualCost    *float64 `json:"actual_cost,omitempty" example:"500"`
}

type ServiceRequestListResponse struct {
	Requests []*domain.ServiceRequestView `json:"requests"`
	Count    int                          `json:"count"`
}

func NewServiceRequestHandler(
	requestService *services.ServiceRequestService,
	policy *services.AssignmentPolicy,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *ServiceRequestHandler {
	return &ServiceRequestHandler{
		requestService: requestService,
		policy:         policy,
		logger:         logger,
		metrics:        metrics,
	}
}

func listResponse(reqs []*domain.ServiceRequestView) ServiceRequestListResponse {
	return ServiceRequestListResponse{Requests: reqs, Count: len(reqs)}
}

// @Summary Создать заявку
// @Description Заявка на обслуживание от клиента, статус pending
// @Tags service-requests
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body ServiceRequestRequest true "Данные заявки"
// @Success 201 {object} successResponse{data=domain.ServiceRequestView} "Заявка создана"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 401 {object} errorResponse "Не авторизован"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Router /api/service-requests [post]
func (h *ServiceRequestHandler) CreateServiceRequest(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req ServiceRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed JSON parse in create service request", map[string]interface{}{
			"error":   err.Error(),
			"user_id": payload.UserID.String(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	view, err := h.requestService.Create(c.Request.Context(), payload.UserID, domain.NewServiceRequest{
		VehicleType:     domain.VehicleType(req.VehicleType),
		VehicleModel:    req.VehicleModel,
		VehicleNumber:   req.VehicleNumber,
		ServiceType:     domain.ServiceType(req.ServiceType),
		Description:     req.Description,
		CustomerAddress: req.CustomerAddress,
		CustomerPhone:   req.CustomerPhone,
		Priority:        domain.Priority(req.Priority),
		EstimatedCost:   req.EstimatedCost,
	})
	if err != nil {
		handleError(c, h.logger, "Failed to create service request", err, map[string]interface{}{
			"user_id": payload.UserID.String(),
		})
		return
	}

	newSuccessResponse(c, http.StatusCreated, "Service request created successfully", view)
}

// @Summary Все заявки
// @Description Список заявок с фильтрами (только admin)
// @Tags service-requests
// @Security BearerAuth
// @Produce json
// @Param status query string false "Статус" Enums(pending, assigned, in_progress, completed, cancelled)
// @Param priority query string false "Приоритет" Enums(low, medium, high, urgent)
// @Success 200 {object} successResponse{data=ServiceRequestListResponse} "Список заявок"
// @Failure 400 {object} errorResponse "Неверный фильтр"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Router /api/service-requests [get]
func (h *ServiceRequestHandler) ListServiceRequests(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	status := domain.RequestStatus(c.Query("status"))
	priority := domain.Priority(c.Query("priority"))

	reqs, err := h.requestService.List(c.Request.Context(), status, priority)
	if err != nil {
		handleError(c, h.logger, "Failed to list service requests", err, map[string]interface{}{
			"status":   status,
			"priority": priority,
		})
		return
	}

	newSuccessResponse(c, http.StatusOK, "Success", listResponse(reqs))
}

// @Summary Заявки механика
// @Description Заявки, назначенные механику (сам механик или admin)
// @Tags service-requests
// @Security BearerAuth
// @Produce json
// @Param mechanicId path string true "ID механика"
// @Param status query string false "Статус" Enums(assigned, in_progress, completed, cancelled)
// @Success 200 {object} successResponse{data=ServiceRequestListResponse} "Список заявок"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Router /api/service-requests/mechanic/{mechanicId} [get]
func (h *ServiceRequestHandler) ListByMechanic(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	mechanicID := c.Param("mechanicId")

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !isSelfOrAdmin(payload, mechanicID) {
		h.logger.Warn("Access denied to mechanic requests", map[string]interface{}{
			"requester_id": payload.UserID.String(),
			"mechanic_id":  mechanicID,
		})
		newErrorResponse(c, http.StatusForbidden, "Access denied")
		return
	}

	reqs, err := h.requestService.ListByMechanic(c.Request.Context(), mechanicID, domain.RequestStatus(c.Query("status")))
	if err != nil {
		handleError(c, h.logger, "Failed to list mechanic requests", err, map[string]interface{}{
			"mechanic_id": mechanicID,
		})
		return
	}

	newSuccessResponse(c, http.StatusOK, "Success", listResponse(reqs))
}

// @Summary Заявки клиента
// @Description Заявки клиента (сам клиент или admin)
// @Tags service-requests
// @Security BearerAuth
// @Produce json
// @Param customerId path string true "ID клиента"
// @Success 200 {object} successResponse{data=ServiceRequestListResponse} "Список заявок"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Router /api/service-requests/customer/{customerId} [get]
func (h *ServiceRequestHandler) ListByCustomer(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	customerID := c.Param("customerId")

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !isSelfOrAdmin(payload, customerID) {
		h.logger.Warn("Access denied to customer requests", map[string]interface{}{
			"requester_id": payload.UserID.String(),
			"customer_id":  customerID,
		})
		newErrorResponse(c, http.StatusForbidden, "Access denied")
		return
	}

	reqs, err := h.requestService.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		handleError(c, h.logger, "Failed to list customer requests", err, map[string]interface{}{
			"customer_id": customerID,
		})
		return
	}

	newSuccessResponse(c, http.StatusOK, "Success", listResponse(reqs))
}

// @Summary Получить заявку
// @Description Заявка по ID (владелец, назначенный механик или admin)
// @Tags service-requests
// @Security BearerAuth
// @Produce json
// @Param requestId path string true "ID заявки"
// @Success 200 {object} successResponse{data=domain.ServiceRequestView} "Заявка найдена"
// @Failure 400 {object} errorResponse "Неверный ID"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 404 {object} errorResponse "Заявка не найдена"
// @Router /api/service-requests/{requestId} [get]
func (h *ServiceRequestHandler) GetServiceRequest(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	requestID := c.Param("requestId")

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	view, err := h.requestService.GetByID(c.Request.Context(), requestID)
	if err != nil {
		handleError(c, h.logger, "Failed to get service request", err, map[string]interface{}{
			"request_id": requestID,
		})
		return
	}

	if !canView(payload, view.ServiceRequest) {
		h.logger.Warn("Access denied to service request", map[string]interface{}{
			"requester_id": payload.UserID.String(),
			"request_id":   requestID,
		})
		newErrorResponse(c, http.StatusForbidden, "Access denied")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Success", view)
}

// @Summary Назначить механика
// @Description Назначение заявки механику (только admin)
// @Tags service-requests
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param requestId path string true "ID заявки"
// @Param request body AssignRequest true "Механик"
// @Success 200 {object} successResponse{data=domain.ServiceRequestView} "Заявка назначена"
// @Failure 400 {object} errorResponse "Пользователь не механик"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 404 {object} errorResponse "Заявка или механик не найдены"
// @Failure 409 {object} errorResponse "Недопустимый переход статуса"
// @Router /api/service-requests/{requestId}/assign [patch]
func (h *ServiceRequestHandler) AssignServiceRequest(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	requestID := c.Param("requestId")

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed JSON parse in assign", map[string]interface{}{
			"error":      err.Error(),
			"request_id": requestID,
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	view, err := h.requestService.Assign(c.Request.Context(), requestID, req.MechanicID)
	if err != nil {
		handleError(c, h.logger, "Failed to assign service request", err, map[string]interface{}{
			"request_id":  requestID,
			"mechanic_id": req.MechanicID,
		})
		return
	}

	newSuccessResponse(c, http.StatusOK, "Service request assigned successfully", view)
}

// @Summary Обновить статус
// @Description Механик двигает свою заявку вперед, клиент может отменить свою, admin может все
// @Tags service-requests
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param requestId path string true "ID заявки"
// @Param request body StatusRequest true "Новый статус"
// @Success 200 {object} successResponse{data=domain.ServiceRequestView} "Статус обновлен"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 404 {object} errorResponse "Заявка не найдена"
// @Failure 409 {object} errorResponse "Недопустимый переход статуса"
// @Router /api/service-requests/{requestId}/status [patch]
func (h *ServiceRequestHandler) UpdateStatus(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	requestID := c.Param("requestId")

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed JSON parse in update status", map[string]interface{}{
			"error":      err.Error(),
			"request_id": requestID,
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	status := domain.RequestStatus(req.Status)

	current, err := h.requestService.GetByID(c.Request.Context(), requestID)
	if err != nil {
		handleError(c, h.logger, "Failed to get service request", err, map[string]interface{}{
			"request_id": requestID,
		})
		return
	}

	if !canMove(payload, current.ServiceRequest, status) {
		h.logger.Warn("Status change denied", map[string]interface{}{
			"requester_id": payload.UserID.String(),
			"role":         payload.Role,
			"request_id":   requestID,
			"status":       status,
		})
		newErrorResponse(c, http.StatusForbidden, "Access denied")
		return
	}

	view, err := h.requestService.UpdateStatus(c.Request.Context(), requestID, domain.StatusUpdate{
		Status:        status,
		MechanicNotes: req.MechanicNotes,
		ActualCost:    req.ActualCost,
	})
	if err != nil {
		handleError(c, h.logger, "Failed to update service request status", err, map[string]interface{}{
			"request_id": requestID,
			"status":     status,
		})
		return
	}

	newSuccessResponse(c, http.StatusOK, "Service request status updated", view)
}

// @Summary Доступные механики
// @Description Пользователи с ролью mechanic (только admin)
// @Tags service-requests
// @Security BearerAuth
// @Produce json
// @Success 200 {object} successResponse{data=[]domain.PublicUser} "Список механиков"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Router /api/service-requests/mechanics/available [get]
func (h *ServiceRequestHandler) AvailableMechanics(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	mechanics, err := h.policy.AvailableMechanics(c.Request.Context())
	if err != nil {
		handleError(c, h.logger, "Failed to list mechanics", err, nil)
		return
	}

	newSuccessResponse(c, http.StatusOK, "Success", mechanics)
}

func isAssignedMechanic(payload *domain.TokenPayload, req *domain.ServiceRequest) bool {
	return req.AssignedMechanicID != nil && *req.AssignedMechanicID == payload.UserID
}

func canView(payload *domain.TokenPayload, req *domain.ServiceRequest) bool {
	return payload.Role == domain.Admin ||
		req.CustomerID == payload.UserID ||
		isAssignedMechanic(payload, req)
}

// canMove: customers may only cancel their own requests, mechanics only move their assignments forward.
func canMove(payload *domain.TokenPayload, req *domain.ServiceRequest, next domain.RequestStatus) bool {
	switch payload.Role {
	case domain.Admin:
		return true
	case domain.Customer:
		return next == domain.StatusCancelled && req.CustomerID == payload.UserID
	case domain.Mechanic:
		return next != domain.StatusCancelled && isAssignedMechanic(payload, req)
	}
	return false
}
