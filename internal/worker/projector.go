package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmehdipour/credit-registry/internal/kafka"
	"github.com/jmehdipour/credit-registry/internal/logger"
	"github.com/jmehdipour/credit-registry/internal/metrics"
	"github.com/jmehdipour/credit-registry/internal/model"
	"github.com/jmehdipour/credit-registry/internal/repository"
	"go.uber.org/zap"
)

// Source is the consuming side of the change-feed topic.
type Source interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msgs ...kafka.Message) error
}

// Projector:
// - fetches credit events from Kafka,
// - decodes them on per-partition lanes,
// - batch-writes them to ClickHouse and only then commits the offsets.
type Projector struct {
	// Dependencies
	Consumer Source
	Events   repository.CHEventsRepository

	// Behavior
	Workers   int           // decode lanes; a partition always maps to the same lane
	BatchSize int           // max buffered events per flush
	BatchWait time.Duration // max time to wait before flush
}

// NewProjector builds a projector with sane defaults.
func NewProjector(consumer Source, events repository.CHEventsRepository) *Projector {
	return &Projector{
		Consumer:  consumer,
		Events:    events,
		Workers:   4,
		BatchSize: 500,
		BatchWait: 500 * time.Millisecond,
	}
}

type projected struct {
	msg kafka.Message
	row *model.CreditEventRow // nil for poison messages: committed, never written
}

// Run starts the projector and blocks until ctx is cancelled and the last
// batch has been flushed.
func (p *Projector) Run(ctx context.Context) error {
	if p.Consumer == nil || p.Events == nil {
		return errors.New("projector: missing consumer or events repository")
	}
	if p.Workers <= 0 {
		p.Workers = 4
	}
	if p.BatchSize <= 0 {
		p.BatchSize = 500
	}
	if p.BatchWait <= 0 {
		p.BatchWait = 500 * time.Millisecond
	}

	items := make(chan projected, p.BatchSize*2)

	// Lanes keep per-partition order all the way to the batch writer, so a
	// committed offset never skips an event that is still in flight.
	lanes := make([]chan kafka.Message, p.Workers)
	done := make(chan struct{}, p.Workers)
	for i := range lanes {
		lanes[i] = make(chan kafka.Message, 64)
		go func(in <-chan kafka.Message) {
			defer func() { done <- struct{}{} }()
			for m := range in {
				items <- decodeEvent(m)
			}
		}(lanes[i])
	}

	// Fetcher goroutine
	go func() {
		defer func() {
			for _, l := range lanes {
				close(l)
			}
		}()
		for {
			m, err := p.Consumer.Fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Log.Warn("projector: kafka fetch", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(200 * time.Millisecond):
				}
				continue
			}
			// the batch writer drains until items closes, so this never blocks for good
			lanes[m.Partition%len(lanes)] <- m
		}
	}()

	go func() {
		for range lanes {
			<-done
		}
		close(items)
	}()

	p.runBatchWriter(ctx, items)
	return nil
}

// decodeEvent accepts the outbox payload either as a JSON object or, as
// Debezium emits it without payload expansion, as a JSON string holding one.
func decodeEvent(m kafka.Message) projected {
	value := bytes.TrimSpace(m.Value)
	if len(value) > 0 && value[0] == '"' {
		var inner string
		if err := json.Unmarshal(value, &inner); err == nil {
			value = []byte(inner)
		}
	}

	var ev model.CreditEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		logger.Log.Warn("projector: bad event json",
			zap.Int("partition", m.Partition), zap.Int64("offset", m.Offset), zap.Error(err))
		return projected{msg: m}
	}
	if ev.ID == "" || !ev.Type.Valid() || ev.CreditID <= 0 {
		logger.Log.Warn("projector: incomplete event",
			zap.Int("partition", m.Partition), zap.Int64("offset", m.Offset), zap.String("event_id", ev.ID))
		return projected{msg: m}
	}

	row := ev.Row()
	return projected{msg: m, row: &row}
}

// runBatchWriter does size/time-based flush of events to ClickHouse, then
// commits the offsets of everything flushed (poison messages included).
func (p *Projector) runBatchWriter(ctx context.Context, in <-chan projected) {
	tick := time.NewTicker(p.BatchWait)
	defer tick.Stop()

	var buf []projected

	flush := func(ctx context.Context) error {
		if len(buf) == 0 {
			return nil
		}

		rows := make([]model.CreditEventRow, 0, len(buf))
		msgs := make([]kafka.Message, 0, len(buf))
		for _, it := range buf {
			msgs = append(msgs, it.msg)
			if it.row != nil {
				rows = append(rows, *it.row)
			}
		}

		if err := p.Events.InsertBatch(ctx, rows); err != nil {
			return err
		}
		for _, it := range buf {
			if it.row != nil {
				metrics.EventsProjected.WithLabelValues(it.row.Type).Inc()
			} else {
				metrics.EventsProjected.WithLabelValues("invalid").Inc()
			}
		}

		// rows are in ClickHouse; a failed commit only means replays, which
		// the ReplacingMergeTree collapses
		if err := p.Consumer.Commit(ctx, msgs...); err != nil {
			logger.Log.Warn("projector: commit", zap.Error(err))
		}
		logger.Log.Debug("projector: flushed", zap.Int("events", len(rows)), zap.Int("messages", len(msgs)))

		buf = buf[:0]
		return nil
	}

	// on failure the batch is kept and the writer backs off, which stalls
	// the lanes instead of growing the buffer
	tryFlush := func() {
		if ctx.Err() != nil {
			return // the final flush below takes over
		}
		if err := flush(ctx); err != nil {
			logger.Log.Error("projector: clickhouse insert", zap.Int("events", len(buf)), zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(p.BatchWait):
			}
		}
	}

	for {
		select {
		case it, ok := <-in:
			if !ok {
				// ctx is gone by now; give the final flush its own deadline
				fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				if err := flush(fctx); err != nil {
					logger.Log.Error("projector: final flush", zap.Int("events", len(buf)), zap.Error(err))
				}
				cancel()
				return
			}
			buf = append(buf, it)
			if len(buf) >= p.BatchSize {
				tryFlush()
			}

		case <-tick.C:
			tryFlush()
		}
	}
}
