package repository

import (
	"context"
	"fmt"

	"github.com/jmehdipour/credit-registry/internal/model"
	"github.com/jmoiron/sqlx"
)

// CHEventsRepository stores and lists the credit change feed in ClickHouse.
type CHEventsRepository interface {
	InsertBatch(ctx context.Context, rows []model.CreditEventRow) error
	List(ctx context.Context, creditID int64, typ model.CreditEventType, limit, offset int) ([]model.CreditEventRow, error)
}

type chEventsRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewCHEventsRepository(ch *sqlx.DB) CHEventsRepository {
	return &chEventsRepository{ch: ch}
}

// InsertBatch writes rows as one ClickHouse block (prepared INSERT inside a tx).
// Duplicates from at-least-once delivery collapse in the ReplacingMergeTree.
func (r *chEventsRepository) InsertBatch(ctx context.Context, rows []model.CreditEventRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.ch.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO credit_events
		    (event_id, type, credit_id, cliente, monto, tasa_interes, plazo, fecha_otorgamiento, occurred_at)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	defer stmt.Close()

	for _, rw := range rows {
		if _, err := stmt.ExecContext(ctx,
			rw.EventID, rw.Type, rw.CreditID, rw.ClientName, rw.Amount,
			rw.InterestRate, rw.TermMonths, rw.GrantDate, rw.OccurredAt,
		); err != nil {
			return fmt.Errorf("append %s: %w", rw.EventID, err)
		}
	}

	return tx.Commit()
}

func (r *chEventsRepository) List(ctx context.Context, creditID int64, typ model.CreditEventType, limit, offset int) ([]model.CreditEventRow, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT event_id, type, credit_id, cliente, monto, tasa_interes, plazo, fecha_otorgamiento, occurred_at
		FROM credit_events FINAL
		WHERE 1 = 1
	`
	args := []any{}

	if creditID > 0 {
		q += " AND credit_id = ?"
		args = append(args, creditID)
	}
	if typ != "" {
		q += " AND type = ?"
		args = append(args, typ.String())
	}

	q += " ORDER BY occurred_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows := []model.CreditEventRow{}
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
