package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmehdipour/credit-registry/internal/kafka"
	"github.com/jmehdipour/credit-registry/internal/model"
)

type fakeSource struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []kafka.Message
}

func (s *fakeSource) Fetch(ctx context.Context) (kafka.Message, error) {
	s.mu.Lock()
	if len(s.msgs) > 0 {
		m := s.msgs[0]
		s.msgs = s.msgs[1:]
		s.mu.Unlock()
		return m, nil
	}
	s.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (s *fakeSource) Commit(_ context.Context, msgs ...kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = append(s.committed, msgs...)
	return nil
}

func (s *fakeSource) committedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.committed)
}

type fakeEvents struct {
	mu    sync.Mutex
	rows  []model.CreditEventRow
	fails int // InsertBatch fails this many times first
}

func (f *fakeEvents) InsertBatch(_ context.Context, rows []model.CreditEventRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails > 0 {
		f.fails--
		return errors.New("clickhouse down")
	}
	f.rows = append(f.rows, rows...)
	return nil
}

func (f *fakeEvents) List(context.Context, int64, model.CreditEventType, int, int) ([]model.CreditEventRow, error) {
	return nil, nil
}

func (f *fakeEvents) stored() []model.CreditEventRow {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.CreditEventRow(nil), f.rows...)
}

func eventMessage(t *testing.T, partition int, offset int64, ev model.CreditEvent) kafka.Message {
	t.Helper()
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Partition: partition, Offset: offset, Value: b}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDecodeEvent(t *testing.T) {
	ev := model.CreditEvent{
		ID:         "01J0000000000000000000000A",
		Type:       model.CreditCreated,
		CreditID:   7,
		Credit:     model.Credit{ID: 7, ClientName: "Ana", Amount: 1000, InterestRate: 5, TermMonths: 12, GrantDate: "2024-01-01"},
		OccurredAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
	obj, _ := json.Marshal(ev)
	quoted, _ := json.Marshal(string(obj))

	for name, value := range map[string][]byte{"object": obj, "debezium string": quoted} {
		t.Run(name, func(t *testing.T) {
			got := decodeEvent(kafka.Message{Value: value})
			if got.row == nil {
				t.Fatal("expected a row")
			}
			gotRow, want := *got.row, ev.Row()
			if !gotRow.OccurredAt.Equal(want.OccurredAt) {
				t.Fatalf("occurred_at: got %v, want %v", gotRow.OccurredAt, want.OccurredAt)
			}
			gotRow.OccurredAt, want.OccurredAt = time.Time{}, time.Time{}
			if gotRow != want {
				t.Fatalf("got %+v, want %+v", gotRow, want)
			}
		})
	}

	for name, value := range map[string]string{
		"garbage":      "not json",
		"missing id":   `{"type":"created","credit_id":1}`,
		"unknown type": `{"id":"x","type":"archived","credit_id":1}`,
		"no credit":    `{"id":"x","type":"created"}`,
	} {
		t.Run(name, func(t *testing.T) {
			if got := decodeEvent(kafka.Message{Value: []byte(value)}); got.row != nil {
				t.Fatalf("expected poison message, got %+v", *got.row)
			}
		})
	}
}

func TestProjectorWritesThenCommits(t *testing.T) {
	src := &fakeSource{}
	for i := int64(0); i < 5; i++ {
		src.msgs = append(src.msgs, eventMessage(t, int(i%2), i, model.CreditEvent{
			ID:       "ev" + string(rune('a'+i)),
			Type:     model.CreditUpdated,
			CreditID: i + 1,
		}))
	}
	src.msgs = append(src.msgs, kafka.Message{Partition: 0, Offset: 5, Value: []byte("{")})

	sink := &fakeEvents{fails: 1}
	p := NewProjector(src, sink)
	p.Workers = 2
	p.BatchSize = 3
	p.BatchWait = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	waitFor(t, "all messages committed", func() bool { return src.committedCount() == 6 })
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("projector did not stop")
	}

	rows := sink.stored()
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	seen := map[int64]bool{}
	for _, r := range rows {
		seen[r.CreditID] = true
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 distinct credits, got %v", seen)
	}
}

func TestProjectorFlushesOnShutdown(t *testing.T) {
	src := &fakeSource{msgs: []kafka.Message{
		eventMessage(t, 0, 0, model.CreditEvent{ID: "a", Type: model.CreditDeleted, CreditID: 1}),
	}}
	sink := &fakeEvents{}
	p := NewProjector(src, sink)
	p.BatchSize = 100
	p.BatchWait = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	waitFor(t, "message fetched", func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return len(src.msgs) == 0
	})
	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("run: %v", err)
	}

	if rows := sink.stored(); len(rows) != 1 || rows[0].Type != "deleted" {
		t.Fatalf("expected the buffered event to be flushed, got %+v", rows)
	}
	if src.committedCount() != 1 {
		t.Fatalf("expected 1 commit, got %d", src.committedCount())
	}
}
