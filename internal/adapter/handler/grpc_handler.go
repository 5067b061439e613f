package handler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const CartServiceName = "rocketcart.Cart"

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter serves grpc.health.v1 and reports SERVING while the
// snapshot store answers pings.
type HealthReporter struct {
	health *health.Server
	store  Pinger
	log    logrus.FieldLogger
}

func NewHealthReporter(store Pinger, log logrus.FieldLogger) *HealthReporter {
	return &HealthReporter{
		health: health.NewServer(),
		store:  store,
		log:    log,
	}
}

func (h *HealthReporter) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.health)
	reflection.Register(s)
}

// Run probes the store every interval until ctx is done.
func (h *HealthReporter) Run(ctx context.Context, interval time.Duration) {
	h.Probe(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.Probe(ctx)
		case <-ctx.Done():
			h.health.Shutdown()
			return
		}
	}
}

func (h *HealthReporter) Probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.store.Ping(ctx); err != nil {
		h.log.WithError(err).Warn("snapshot store unreachable")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(CartServiceName, status)
}

func (h *HealthReporter) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := h.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
