package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable
type Pinger func(ctx context.Context) error

// HealthHandler keeps the standard gRPC health service in step with the
// database. The overall status ("") and the named service report SERVING
// only while pings succeed.
type HealthHandler struct {
	server  *health.Server
	service string
	ping    Pinger
	logger  *zap.Logger
	serving bool
}

func NewHealthHandler(service string, ping Pinger, logger *zap.Logger) *HealthHandler {
	h := &HealthHandler{
		server:  health.NewServer(),
		service: service,
		ping:    ping,
		logger:  logger,
	}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// Server returns the health service to register on a grpc.Server
func (h *HealthHandler) Server() *health.Server {
	return h.server
}

// Check pings once and publishes the result
func (h *HealthHandler) Check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	err := h.ping(ctx)
	switch {
	case err == nil && !h.serving:
		h.logger.Info("Database reachable, reporting SERVING")
		h.set(healthpb.HealthCheckResponse_SERVING)
	case err != nil && h.serving:
		h.logger.Warn("Database unreachable, reporting NOT_SERVING", zap.Error(err))
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	}
}

// Run checks every interval until ctx is done, then marks the service as
// shutting down.
func (h *HealthHandler) Run(ctx context.Context, interval time.Duration) {
	h.Check(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

func (h *HealthHandler) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.serving = status == healthpb.HealthCheckResponse_SERVING
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(h.service, status)
}
