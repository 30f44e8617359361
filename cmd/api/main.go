package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vogiaan1904/eventhub-seatsync/config"
	grpcDelivery "github.com/vogiaan1904/eventhub-seatsync/internal/delivery/grpc"
	httpDelivery "github.com/vogiaan1904/eventhub-seatsync/internal/delivery/http"
	"github.com/vogiaan1904/eventhub-seatsync/internal/delivery/kafka/consumer"
	"github.com/vogiaan1904/eventhub-seatsync/internal/delivery/kafka/producer"
	infraFirestore "github.com/vogiaan1904/eventhub-seatsync/internal/infra/firestore"
	"github.com/vogiaan1904/eventhub-seatsync/internal/infra/postgres"
	"github.com/vogiaan1904/eventhub-seatsync/internal/infra/redis"
	"github.com/vogiaan1904/eventhub-seatsync/internal/livefeed"
	repoFirestore "github.com/vogiaan1904/eventhub-seatsync/internal/repository/firestore"
	repoPostgres "github.com/vogiaan1904/eventhub-seatsync/internal/repository/postgres"
	repoRedis "github.com/vogiaan1904/eventhub-seatsync/internal/repository/redis"
	"github.com/vogiaan1904/eventhub-seatsync/internal/seatsync"
	"github.com/vogiaan1904/eventhub-seatsync/internal/service"
	pkgKafka "github.com/vogiaan1904/eventhub-seatsync/pkg/kafka"
	pkgLog "github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})
	defer l.Sync()

	// Storage
	pool, err := postgres.Connect(ctx, cfg.Postgres)
	if err != nil {
		l.Fatalf(ctx, "Failed to connect to Postgres: %v", err)
	}
	defer postgres.Disconnect(pool)

	if err := postgres.Migrate(ctx, pool); err != nil {
		l.Fatalf(ctx, "Failed to apply schema: %v", err)
	}

	redisCli, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		l.Fatalf(ctx, "Failed to connect to Redis: %v", err)
	}
	defer redis.Disconnect(redisCli)

	fsCli, err := infraFirestore.Connect(ctx, cfg.Firestore)
	if err != nil {
		// The mirror is best-effort; run without it.
		l.Warnf(ctx, "Firestore unavailable, mirror disabled: %v", err)
	}
	defer infraFirestore.Disconnect(fsCli)

	// Kafka
	prod := producer.NewNopProducer()
	var cons *consumer.Consumer
	if cfg.Kafka.Enabled {
		kafkaSyncProd, err := pkgKafka.NewProducer(pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka producer: %v", err)
		}
		prod = producer.NewProducer(kafkaSyncProd, l)
	}
	defer prod.Close()

	// Repositories and services
	eventRepo := repoPostgres.NewEventRepository(pool, l)
	logRepo := repoPostgres.NewActivityLogRepository(pool, l)
	statusRepo := repoRedis.NewRedisStatusRepository(redisCli, cfg.Sync.Namespace, cfg.Redis.StatusTTL, l)
	mirror := repoFirestore.NewEventMirror(fsCli, cfg.Firestore.Collection, l)

	statusSvc := service.NewEventStatusService(eventRepo, logRepo, statusRepo, mirror, prod, l)

	if cfg.Kafka.Enabled {
		kafkaConsGr, err := pkgKafka.NewConsumerGroup(pkgKafka.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.ConsumerGroupID,
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka consumer: %v", err)
		}
		cons = consumer.NewConsumer(kafkaConsGr, statusSvc, l)
		cons.Start(ctx)
	}

	// Watch sessions
	checks := map[string]httpDelivery.HealthCheck{
		"postgres": pool.Ping,
		"redis":    redisCli.Ping,
	}
	handler := httpDelivery.NewHandler(statusSvc, l, httpDelivery.Config{
		LiveConfig: liveConfig(cfg),
		Dialers: map[string]seatsync.LiveDialer{
			seatsync.ProviderRedis:     livefeed.NewRedisDialer(redisCli, l),
			seatsync.ProviderFirestore: livefeed.NewFirestoreDialer(fsCli),
		},
		ConfirmTimeout: cfg.Sync.ConfirmTimeout,
		PollInterval:   cfg.Sync.PollInterval,
		PollTimeout:    cfg.Sync.PollTimeout,
		HealthChecks:   checks,
	})

	httpSrv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpDelivery.NewRouter(handler, l, httpDelivery.RouterConfig{
			JWTSecret:      cfg.JWT.Secret,
			JWTIssuer:      cfg.JWT.Issuer,
			StatusRateMax:  cfg.Server.StatusRateMax,
			StatusRateSpan: cfg.Server.StatusRateSpan,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	// gRPC health
	grpcChecks := make(map[string]grpcDelivery.Check, len(checks))
	for name, c := range checks {
		grpcChecks[name] = grpcDelivery.Check(c)
	}
	healthSvc := grpcDelivery.NewHealthService(grpcChecks, 10*time.Second, l)
	gRpcSrv := grpcDelivery.NewServer(l)
	healthSvc.Register(gRpcSrv)

	lnr, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRpcPort))
	if err != nil {
		l.Fatalf(ctx, "gRPC server failed to listen: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Infof(ctx, "HTTP server is listening on port: %d", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		l.Infof(ctx, "gRPC server is listening on port: %d", cfg.Server.GRpcPort)
		if err := gRpcSrv.Serve(lnr); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		healthSvc.Run(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		l.Info(ctx, "Server shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		gRpcSrv.GracefulStop()
		if cons != nil {
			if err := cons.Close(); err != nil {
				l.Errorf(shutdownCtx, "Failed to close Kafka consumer: %v", err)
			}
		}
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		l.Errorf(ctx, "Server stopped with error: %v", err)
	}

	l.Info(ctx, "Server exited")
}

// liveConfig is the blob pages receive; nil keeps every page on polling.
func liveConfig(cfg *config.Config) *seatsync.LiveConfig {
	switch cfg.Sync.LiveProvider {
	case config.LiveProviderRedis:
		return &seatsync.LiveConfig{
			Provider:  seatsync.ProviderRedis,
			ProjectID: cfg.Sync.Namespace,
		}
	case config.LiveProviderFirestore:
		return &seatsync.LiveConfig{
			Provider:   seatsync.ProviderFirestore,
			ProjectID:  cfg.Firestore.ProjectID,
			Collection: cfg.Firestore.Collection,
		}
	default:
		return nil
	}
}
