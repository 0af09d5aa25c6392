package http

import (
	"net/http"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/ports"
	"github.com/sm8ta/webike_marketplace/internal/core/services"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
	logger           ports.LoggerPort
	metrics          ports.MetricsPort
}

type DashboardResponse struct {
	Role      string      `json:"role" example:"customer"`
	Dashboard interface{} `json:"dashboard"`
}

func NewDashboardHandler(dashboardService *services.DashboardService, logger ports.LoggerPort, metrics ports.MetricsPort) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
		metrics:          metrics,
	}
}

// @Summary Дашборд
// @Description Вид зависит от роли: customer, mechanic или admin
// @Tags dashboard
// @Security BearerAuth
// @Produce json
// @Success 200 {object} successResponse{data=DashboardResponse} "Дашборд"
// @Failure 401 {object} errorResponse "Не авторизован"
// @Router /api/dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	user, exists := getAuthUser(c)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	dashboard, err := h.dashboardService.ForUser(c.Request.Context(), user)
	if err != nil {
		handleError(c, h.logger, "Failed to build dashboard", err, map[string]interface{}{
			"user_id": user.ID.String(),
			"role":    user.Role,
		})
		return
	}

	newSuccessResponse(c, http.StatusOK, "Success", DashboardResponse{
		Role:      string(dashboard.Role()),
		Dashboard: dashboard,
	})
}
