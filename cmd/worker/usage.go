package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/api-portal/internal/config"
	"github.com/jmehdipour/api-portal/internal/db"
	"github.com/jmehdipour/api-portal/internal/kafka"
	"github.com/jmehdipour/api-portal/internal/logger"
	"github.com/jmehdipour/api-portal/internal/metrics"
	"github.com/jmehdipour/api-portal/internal/repository"
	"github.com/jmehdipour/api-portal/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Ingest usage events from Kafka into ClickHouse and Redis",
	RunE:  runUsage,
}

func runUsage(cmd *cobra.Command, args []string) error {
	// 1) load config
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := logger.Log.With(zap.String("worker", "usage"))
	defer func() { _ = log.Sync() }()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	// 2) stores
	chDB, err := db.NewClickHouseConnection(cfg.ClickHouse)
	if err != nil {
		return fmt.Errorf("clickhouse connect: %w", err)
	}
	defer chDB.Close()

	redisClient, err := db.NewRedisClient(cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis connect: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	// 3) kafka consumer
	groupID := cfg.Kafka.GroupID
	if groupID == "" {
		groupID = "portal-usage"
	}
	consumer := kafka.NewConsumerFromConfig(kafka.Config{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Kafka.UsageTopic,
		GroupID:        groupID,
		MinBytes:       cfg.Kafka.MinBytes,
		MaxBytes:       cfg.Kafka.MaxBytes,
		CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
	})
	defer consumer.Close()

	w := worker.NewUsageIngest(
		consumer,
		repository.NewCHUsageRepository(chDB),
		repository.NewUsageCountersRepository(redisClient),
		log,
	)

	// tune knobs
	if cfg.Worker.BatchSize > 0 {
		w.BatchSize = cfg.Worker.BatchSize
	}
	if cfg.Worker.BatchWait > 0 {
		w.BatchWait = cfg.Worker.BatchWait
	}

	// 4) graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("usage ingest started",
		zap.String("topic", cfg.Kafka.UsageTopic),
		zap.String("group", groupID),
		zap.Int("batch_size", w.BatchSize),
		zap.Duration("batch_wait", w.BatchWait),
	)

	return w.Run(ctx)
}
