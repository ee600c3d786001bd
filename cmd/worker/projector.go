package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/credit-registry/internal/db"
	"github.com/jmehdipour/credit-registry/internal/kafka"
	"github.com/jmehdipour/credit-registry/internal/logger"
	"github.com/jmehdipour/credit-registry/internal/metrics"
	"github.com/jmehdipour/credit-registry/internal/repository"
	"github.com/jmehdipour/credit-registry/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var projectorCmd = &cobra.Command{
	Use:   "projector",
	Short: "Project the credit change feed from Kafka into ClickHouse",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1) load config
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Log.Sync() }()

		metrics.MustRegister(prometheus.DefaultRegisterer)

		if cfg.ClickHouse.DSN == "" {
			return fmt.Errorf("projector needs clickhouse.dsn")
		}

		// 2) ClickHouse connection
		chDB, err := connect(db.DriverClickHouse, cfg.ClickHouse)
		if err != nil {
			return err
		}
		defer chDB.Close()

		if cfg.ClickHouse.AutoMigrate {
			if err := db.MigrateClickHouse(context.Background(), chDB); err != nil {
				return fmt.Errorf("clickhouse migrate: %w", err)
			}
		}

		// 3) kafka consumer
		groupID := cfg.Kafka.GroupID
		if groupID == "" {
			groupID = "creditos-projector"
		}
		consumer := kafka.NewConsumerFromConfig(kafka.Config{
			Brokers:        cfg.Kafka.Brokers,
			Topic:          cfg.Kafka.Topic,
			GroupID:        groupID,
			MinBytes:       cfg.Kafka.MinBytes,
			MaxBytes:       cfg.Kafka.MaxBytes,
			CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
		})
		defer consumer.Close()

		w := worker.NewProjector(consumer, repository.NewCHEventsRepository(chDB))

		// tune knobs
		if cfg.Projector.WorkerCount > 0 {
			w.Workers = cfg.Projector.WorkerCount
		}
		if cfg.Projector.BatchSize > 0 {
			w.BatchSize = cfg.Projector.BatchSize
		}
		if cfg.Projector.BatchWait > 0 {
			w.BatchWait = cfg.Projector.BatchWait
		}

		// 4) graceful shutdown
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Log.Info("projector started",
			zap.String("topic", cfg.Kafka.Topic),
			zap.String("group", groupID),
			zap.Int("workers", w.Workers),
			zap.Int("batch_size", w.BatchSize),
			zap.Duration("batch_wait", w.BatchWait),
		)

		return w.Run(ctx)
	},
}
