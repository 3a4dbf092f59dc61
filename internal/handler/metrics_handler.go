package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/univ-archive/internal/models"
	"github.com/noah-isme/univ-archive/internal/service"
	"github.com/noah-isme/univ-archive/pkg/response"
)

type healthChecker interface {
	Check(ctx context.Context) models.HealthStatus
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	health  healthChecker
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, health healthChecker) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, health: health}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health godoc
// @Summary Dependency health
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /health [get]
func (h *MetricsHandler) Health(c *gin.Context) {
	if h.health == nil {
		response.JSON(c, http.StatusOK, models.HealthStatus{Status: service.HealthOK}, nil)
		return
	}
	status := h.health.Check(c.Request.Context())
	code := http.StatusOK
	if status.Status == service.HealthDown {
		code = http.StatusServiceUnavailable
	}
	response.JSON(c, code, status, nil)
}
