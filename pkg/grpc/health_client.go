package grpc

import (
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type CleanupFunc func()

func NewHealthClient(addr string) (healthpb.HealthClient, CleanupFunc, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Println("gRpc health client connection failed.", err)
		return nil, nil, err
	}

	return healthpb.NewHealthClient(conn), func() { conn.Close() }, nil
}
