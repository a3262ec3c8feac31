// Package main provides the outbox publisher that polls unpublished sale
// events and appends them to a Redis stream.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-inventory-sales/internal/config"
	"go-inventory-sales/internal/logger"
	"go-inventory-sales/internal/repository"
	"go-inventory-sales/internal/service"
	"go-inventory-sales/internal/stream"
	"go-inventory-sales/pkg/database"
)

func runPublisherLoop(
	ctx context.Context,
	log *slog.Logger,
	outboxService service.OutboxService,
	pollInterval time.Duration,
	batchSize int,
) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("publisher stopped")
			return
		case <-ticker.C:
			n, err := outboxService.ProcessUnpublishedEvents(ctx, batchSize)
			if err != nil {
				log.Error("error processing outbox events", slog.Any("error", err))
				continue
			}
			if n > 0 {
				log.Info("outbox events published", slog.Int("count", n))
			}
		}
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	log := logger.Setup(cfg.LogLevel)
	slog.SetDefault(log)

	db, err := database.Connect(cfg.DatabaseOptions(), log)
	if err != nil {
		log.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Error("failed to migrate schema", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := stream.NewClient(cfg.RedisAddr)
	if err != nil {
		log.Error("failed to connect to Redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher := stream.NewRedisPublisher(redisClient, cfg.OutboxStream)
	outboxService := service.NewOutboxService(repository.NewOutboxRepo(db), publisher, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting outbox publisher",
		slog.String("stream", publisher.Stream()),
		slog.Duration("poll_interval", cfg.PublisherPollInterval),
		slog.Int("batch_size", cfg.PublisherBatchSize))

	runPublisherLoop(ctx, log, outboxService, cfg.PublisherPollInterval, cfg.PublisherBatchSize)
}
