package credit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jmehdipour/credit-registry/internal/model"
	"github.com/jmehdipour/credit-registry/internal/repository"
	"github.com/jmehdipour/credit-registry/internal/util"
	"github.com/jmoiron/sqlx"
)

const (
	EventsTopic     = "creditos.events"
	EventsAggregate = "credito"
)

// Service runs each write in its own transaction together with the change-feed
// outbox row: either both are stored or neither is.
type Service struct {
	db      *sqlx.DB
	credits repository.CreditsRepository
	outbox  repository.OutboxRepository
	now     func() time.Time
}

// New constructs the credit service.
func New(db *sqlx.DB, creditsRepo repository.CreditsRepository, outboxRepo repository.OutboxRepository) *Service {
	return &Service{
		db:      db,
		credits: creditsRepo,
		outbox:  outboxRepo,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create validates p and stores a new credit. Returns the stored record.
func (s *Service) Create(ctx context.Context, p Payload) (model.Credit, error) {
	d, err := ValidateCreate(p)
	if err != nil {
		return model.Credit{}, err
	}
	c := d.Credit()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Credit{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := s.credits.Insert(ctx, tx, c)
	if err != nil {
		return model.Credit{}, fmt.Errorf("insert credit: %w", err)
	}
	c.ID = id

	if err := s.emit(ctx, tx, model.CreditCreated, c); err != nil {
		return model.Credit{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Credit{}, fmt.Errorf("commit: %w", err)
	}
	return c, nil
}

// Update applies the fields present in p to credit id. Unknown id returns
// repository.ErrNotFound before p is validated.
func (s *Service) Update(ctx context.Context, id int64, p Payload) (model.Credit, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Credit{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := s.credits.GetForUpdate(ctx, tx, id)
	if err != nil {
		return model.Credit{}, err
	}

	d, err := ValidateUpdate(existing, p)
	if err != nil {
		return model.Credit{}, err
	}
	c := d.Credit()

	if err := s.credits.Update(ctx, tx, c); err != nil {
		return model.Credit{}, fmt.Errorf("update credit %d: %w", id, err)
	}
	if err := s.emit(ctx, tx, model.CreditUpdated, c); err != nil {
		return model.Credit{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Credit{}, fmt.Errorf("commit: %w", err)
	}
	return c, nil
}

// Delete removes credit id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := s.credits.GetForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := s.credits.Delete(ctx, tx, id); err != nil {
		return err
	}
	if err := s.emit(ctx, tx, model.CreditDeleted, existing); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (model.Credit, error) {
	return s.credits.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]model.Credit, error) {
	return s.credits.List(ctx)
}

func (s *Service) Total(ctx context.Context) (float64, error) {
	records, err := s.credits.List(ctx)
	if err != nil {
		return 0, err
	}
	return Total(records), nil
}

func (s *Service) TotalsByClient(ctx context.Context) ([]ClientTotal, error) {
	records, err := s.credits.List(ctx)
	if err != nil {
		return nil, err
	}
	return TotalsByClient(records), nil
}

func (s *Service) AmountRanges(ctx context.Context) (AmountBuckets, error) {
	records, err := s.credits.List(ctx)
	if err != nil {
		return AmountBuckets{}, err
	}
	return AmountRanges(records), nil
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	records, err := s.credits.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(records), nil
}

func (s *Service) emit(ctx context.Context, tx *sqlx.Tx, typ model.CreditEventType, c model.Credit) error {
	now := s.now()
	ev := model.CreditEvent{
		ID:         util.NewID(now),
		Type:       typ,
		CreditID:   c.ID,
		Credit:     c,
		OccurredAt: now,
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := s.outbox.Insert(ctx, tx, EventsAggregate, strconv.FormatInt(c.ID, 10), EventsTopic, payload); err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}
	return nil
}
