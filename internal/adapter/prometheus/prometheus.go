package prometheus

import (
	"strconv"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type PrometheusAdapter struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	transitions *prometheus.CounterVec
}

// NewPrometheusAdapter registers the collectors on the default registry served at /metrics.
func NewPrometheusAdapter() *PrometheusAdapter {
	return NewPrometheusAdapterWithRegistry(prometheus.DefaultRegisterer)
}

func NewPrometheusAdapterWithRegistry(reg prometheus.Registerer) *PrometheusAdapter {
	a := &PrometheusAdapter{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "service_request_transitions_total",
			Help: "Service requests entering each status",
		}, []string{"status"}),
	}
	reg.MustRegister(a.requests, a.duration, a.transitions)
	return a
}

func (a *PrometheusAdapter) RecordMetrics(c *gin.Context, start time.Time) {
	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	method := c.Request.Method
	a.requests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
	a.duration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
}

func (a *PrometheusAdapter) RecordTransition(status domain.RequestStatus) {
	a.transitions.WithLabelValues(string(status)).Inc()
}
