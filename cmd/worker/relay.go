package worker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmehdipour/credit-registry/internal/kafka"
	"github.com/jmehdipour/credit-registry/internal/logger"
	"github.com/jmehdipour/credit-registry/internal/metrics"
	"github.com/jmehdipour/credit-registry/internal/repository"
	"github.com/jmehdipour/credit-registry/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Publish outbox rows to Kafka (use when no CDC connector runs)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Log.Sync() }()

		metrics.MustRegister(prometheus.DefaultRegisterer)

		dbx, err := connect(cfg.Database.Driver, cfg.Database)
		if err != nil {
			return err
		}
		defer dbx.Close()

		producer := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers})
		defer producer.Close()

		r := worker.NewRelay(repository.NewOutboxRepository(dbx), producer)
		if cfg.Relay.BatchSize > 0 {
			r.BatchSize = cfg.Relay.BatchSize
		}
		if cfg.Relay.PollInterval > 0 {
			r.PollInterval = cfg.Relay.PollInterval
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Log.Info("relay started",
			zap.String("driver", cfg.Database.Driver),
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.Int("batch_size", r.BatchSize),
			zap.Duration("poll_interval", r.PollInterval),
		)

		return r.Run(ctx)
	},
}
