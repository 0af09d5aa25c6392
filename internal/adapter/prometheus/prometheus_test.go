package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordMetricsUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	a := NewPrometheusAdapterWithRegistry(reg)

	r := gin.New()
	r.GET("/api/bikes/:bikeId", func(c *gin.Context) {
		start := time.Now()
		c.Status(http.StatusNotFound)
		a.RecordMetrics(c, start)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/bikes/B-1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/bikes/B-2", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(a.requests.WithLabelValues("GET", "/api/bikes/:bikeId", "404")))
}

func TestRecordTransition(t *testing.T) {
	a := NewPrometheusAdapterWithRegistry(prometheus.NewRegistry())

	a.RecordTransition(domain.StatusAssigned)
	a.RecordTransition(domain.StatusAssigned)
	a.RecordTransition(domain.StatusCompleted)

	assert.Equal(t, 2.0, testutil.ToFloat64(a.transitions.WithLabelValues("assigned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.transitions.WithLabelValues("completed")))
}
