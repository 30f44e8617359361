package redis

import (
	"context"
	"fmt"
	"log"

	"github.com/vogiaan1904/eventhub-seatsync/config"
	pkgRedis "github.com/vogiaan1904/eventhub-seatsync/pkg/redis"
)

func Connect(ctx context.Context, cfg config.RedisConfig) (*pkgRedis.Client, error) {
	cli, err := pkgRedis.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if err := cli.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	log.Println("Connected to Redis.")

	return cli, nil
}

func Disconnect(cli *pkgRedis.Client) {
	if cli == nil {
		return
	}

	cli.Close()

	log.Println("Connection to Redis closed.")
}
