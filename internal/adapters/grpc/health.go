package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported next to the overall "" entry.
const ServiceName = "governance.v1.CommunityGovernance"

// HealthReporter mirrors the readiness probe into the standard gRPC health
// service.
type HealthReporter struct {
	server   *health.Server
	check    func(ctx context.Context) error
	interval time.Duration
	logger   *slog.Logger
}

func NewServer(logger *slog.Logger, check func(ctx context.Context) error, interval time.Duration) (*grpc.Server, *HealthReporter) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	reporter := &HealthReporter{server: healthSrv, check: check, interval: interval, logger: logger}
	reporter.set(healthpb.HealthCheckResponse_SERVING)
	return grpcServer, reporter
}

func (h *HealthReporter) Health() healthpb.HealthServer {
	return h.server
}

func (h *HealthReporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		h.refresh(ctx)
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (h *HealthReporter) refresh(ctx context.Context) {
	if h.check == nil {
		return
	}
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.check(checkCtx); err != nil {
		if ctx.Err() != nil {
			return
		}
		h.logger.WarnContext(ctx, "readiness check failed",
			"module", "grpc",
			"layer", "adapter",
			"operation", "health_refresh",
			"outcome", "failure",
			"error", err,
		)
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	h.set(healthpb.HealthCheckResponse_SERVING)
}

func (h *HealthReporter) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
}
