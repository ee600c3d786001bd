package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmehdipour/credit-registry/internal/kafka"
	"github.com/jmehdipour/credit-registry/internal/logger"
	"github.com/jmehdipour/credit-registry/internal/metrics"
	"github.com/jmehdipour/credit-registry/internal/repository"
	"go.uber.org/zap"
)

// Publisher is the producing side of the change-feed topic.
type Publisher interface {
	Publish(ctx context.Context, msgs ...kafka.Message) error
}

// Relay polls the outbox table and publishes its rows to Kafka, for
// deployments without a CDC connector. Rows are deleted only after the
// broker acknowledged them, so delivery is at-least-once.
type Relay struct {
	Outbox    repository.OutboxRepository
	Publisher Publisher

	BatchSize    int
	PollInterval time.Duration
}

func NewRelay(outbox repository.OutboxRepository, pub Publisher) *Relay {
	return &Relay{
		Outbox:       outbox,
		Publisher:    pub,
		BatchSize:    100,
		PollInterval: time.Second,
	}
}

// Run relays until ctx is cancelled. A full batch is followed immediately by
// the next one; otherwise the relay sleeps for PollInterval.
func (r *Relay) Run(ctx context.Context) error {
	if r.Outbox == nil || r.Publisher == nil {
		return errors.New("relay: missing outbox or publisher")
	}
	if r.BatchSize <= 0 {
		r.BatchSize = 100
	}
	if r.PollInterval <= 0 {
		r.PollInterval = time.Second
	}

	for {
		n, err := r.RelayOnce(ctx)
		if err != nil && ctx.Err() == nil {
			logger.Log.Error("relay: batch failed", zap.Error(err))
		}
		if err == nil && n == r.BatchSize {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.PollInterval):
		}
	}
}

// RelayOnce publishes the oldest pending outbox rows and returns how many
// were published.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	events, err := r.Outbox.ListAfter(ctx, 0, r.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list outbox: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		msgs = append(msgs, kafka.Message{
			Topic: ev.Topic,
			Key:   []byte(ev.AggregateID),
			Value: ev.Payload,
			Headers: []kafka.Header{
				{Key: "aggregate", Value: []byte(ev.Aggregate)},
			},
		})
	}

	if err := r.Publisher.Publish(ctx, msgs...); err != nil {
		return 0, fmt.Errorf("publish %d events: %w", len(msgs), err)
	}

	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	if err := r.Outbox.Delete(ctx, ids); err != nil {
		// published but still stored: the next round publishes them again
		return 0, fmt.Errorf("delete %d outbox rows: %w", len(ids), err)
	}

	metrics.EventsRelayed.Add(float64(len(events)))
	return len(events), nil
}
