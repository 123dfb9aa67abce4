package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable
type Pinger func(ctx context.Context) error

// HealthHandler answers liveness probes
type HealthHandler struct {
	service string
	version string
	ping    Pinger
	logger  *zap.Logger
}

func NewHealthHandler(service, version string, ping Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{service: service, version: version, ping: ping, logger: logger}
}

// Health handles GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	body := map[string]string{
		"status":  "healthy",
		"service": h.service,
		"version": h.version,
	}

	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.Error(err))
			body["status"] = "unhealthy"
			return c.JSON(http.StatusServiceUnavailable, body)
		}
	}

	return c.JSON(http.StatusOK, body)
}
