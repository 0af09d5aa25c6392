package ports

import (
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/gin-gonic/gin"
)

type MetricsPort interface {
	RecordMetrics(c *gin.Context, start time.Time)
	RecordTransition(status domain.RequestStatus)
}
