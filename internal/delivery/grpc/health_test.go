package grpc

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func dialHealth(t *testing.T, hs *HealthService) healthpb.HealthClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(logger.NewNop())
	hs.Register(srv)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return healthpb.NewHealthClient(conn)
}

func servingStatus(cli healthpb.HealthClient) healthpb.HealthCheckResponse_ServingStatus {
	resp, err := cli.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN
	}
	return resp.Status
}

func TestHealthService_TracksChecks(t *testing.T) {
	var failing atomic.Bool
	hs := NewHealthService(map[string]Check{
		"redis": func(context.Context) error {
			if failing.Load() {
				return errors.New("connection refused")
			}
			return nil
		},
	}, 20*time.Millisecond, logger.NewNop())
	cli := dialHealth(t, hs)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hs.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return servingStatus(cli) == healthpb.HealthCheckResponse_SERVING }, time.Second, 5*time.Millisecond)

	failing.Store(true)
	require.Eventually(t, func() bool { return servingStatus(cli) == healthpb.HealthCheckResponse_NOT_SERVING }, time.Second, 5*time.Millisecond)

	failing.Store(false)
	require.Eventually(t, func() bool { return servingStatus(cli) == healthpb.HealthCheckResponse_SERVING }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, servingStatus(cli))
}
