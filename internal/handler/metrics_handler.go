package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/service"
	"github.com/noah-isme/school-records-api/pkg/response"
)

// ReadinessProbe reports whether a dependency can serve traffic.
type ReadinessProbe func() error

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	probes  map[string]ReadinessProbe
}

// NewMetricsHandler constructs a metrics handler. probes are checked by Ready.
func NewMetricsHandler(metrics *service.MetricsService, probes map[string]ReadinessProbe) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, probes: probes}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Snapshot returns the running totals as JSON.
func (h *MetricsHandler) Snapshot(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}

// Health responds with a generic OK payload for liveness checks.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready runs every probe and answers 503 when any of them fails.
func (h *MetricsHandler) Ready(c *gin.Context) {
	checks := make(map[string]string, len(h.probes))
	status := http.StatusOK
	for name, probe := range h.probes {
		if err := probe(); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	state := "ready"
	if status != http.StatusOK {
		state = "unavailable"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}
