package grpc

import (
	"context"
	"time"

	"github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name probes use to ask about this service specifically.
const ServiceName = "eventhub.seatsync"

// Check is one dependency probe; any error marks the service NOT_SERVING.
type Check func(ctx context.Context) error

type HealthService struct {
	srv      *health.Server
	checks   map[string]Check
	interval time.Duration
	l        logger.Logger
}

func NewHealthService(checks map[string]Check, interval time.Duration, l logger.Logger) *HealthService {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HealthService{
		srv:      health.NewServer(),
		checks:   checks,
		interval: interval,
		l:        l,
	}
}

func (h *HealthService) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.srv)
}

// Run probes dependencies immediately and then on every interval until ctx
// ends, at which point every service is marked NOT_SERVING.
func (h *HealthService) Run(ctx context.Context) {
	h.probe(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-ticker.C:
			h.probe(ctx)
		}
	}
}

func (h *HealthService) probe(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, h.interval/2)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	for name, check := range h.checks {
		if err := check(pctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			h.l.Warnf(ctx, "delivery.grpc.HealthService.probe: %s: %v", name, err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(ServiceName, status)
}

// NewServer builds the gRPC server with request logging.
func NewServer(l logger.Logger) *grpc.Server {
	return grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(l)))
}

func loggingInterceptor(l logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			l.Warnf(ctx, "%s failed after %s: %v", info.FullMethod, time.Since(start), err)
			return resp, err
		}
		l.Debugf(ctx, "%s %s", info.FullMethod, time.Since(start))
		return resp, nil
	}
}
