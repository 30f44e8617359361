package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	grpcDelivery "github.com/vogiaan1904/eventhub-seatsync/internal/delivery/grpc"
	pkgGrpc "github.com/vogiaan1904/eventhub-seatsync/pkg/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var healthAddr string

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Query a deployment's gRPC health service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, cleanup, err := pkgGrpc.NewHealthClient(healthAddr)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		resp, err := cli.Check(ctx, &healthpb.HealthCheckRequest{Service: grpcDelivery.ServiceName})
		if err != nil {
			return fmt.Errorf("health check: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), resp.GetStatus().String())
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			return fmt.Errorf("service is %s", resp.GetStatus())
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().StringVar(&healthAddr, "addr", "localhost:50057", "gRPC address of the deployment")
}
