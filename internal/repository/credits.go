package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmehdipour/credit-registry/internal/model"
	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when no credit exists with the requested id.
var ErrNotFound = errors.New("credit not found")

// CreditsRepository defines persistence for the creditos table. Write methods
// take the caller's transaction; a nil tx runs them in an internal one.
type CreditsRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, c model.Credit) (int64, error)
	List(ctx context.Context) ([]model.Credit, error)
	Get(ctx context.Context, id int64) (model.Credit, error)
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (model.Credit, error)
	Update(ctx context.Context, tx *sqlx.Tx, c model.Credit) error
	Delete(ctx context.Context, tx *sqlx.Tx, id int64) error
}

type CreditsRepositoryImpl struct {
	db *sqlx.DB
}

func NewCreditsRepository(db *sqlx.DB) *CreditsRepositoryImpl {
	return &CreditsRepositoryImpl{db: db}
}

var _ CreditsRepository = (*CreditsRepositoryImpl)(nil)

const creditColumns = `id, cliente, monto, tasa_interes, plazo, fecha_otorgamiento`

func (r *CreditsRepositoryImpl) withTx(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
	if tx != nil {
		return fn(tx)
	}
	t, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = t.Rollback() }()
	if err := fn(t); err != nil {
		return err
	}
	return t.Commit()
}

// Insert stores a new credit and returns its generated id.
func (r *CreditsRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, c model.Credit) (int64, error) {
	const q = `
		INSERT INTO creditos (cliente, monto, tasa_interes, plazo, fecha_otorgamiento)
		VALUES (?, ?, ?, ?, ?)
	`
	var id int64
	err := r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		args := []any{c.ClientName, c.Amount, c.InterestRate, c.TermMonths, c.GrantDate}

		// lib/pq does not implement LastInsertId
		if tx.DriverName() == "postgres" {
			return tx.QueryRowxContext(ctx, tx.Rebind(q+" RETURNING id"), args...).Scan(&id)
		}

		res, err := tx.ExecContext(ctx, tx.Rebind(q), args...)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// List returns every credit ordered by id.
func (r *CreditsRepositoryImpl) List(ctx context.Context) ([]model.Credit, error) {
	rows := []model.Credit{}
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+creditColumns+` FROM creditos ORDER BY id`); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CreditsRepositoryImpl) Get(ctx context.Context, id int64) (model.Credit, error) {
	var c model.Credit
	err := r.db.GetContext(ctx, &c, r.db.Rebind(`SELECT `+creditColumns+` FROM creditos WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Credit{}, ErrNotFound
	}
	if err != nil {
		return model.Credit{}, err
	}
	return c, nil
}

// GetForUpdate reads a credit inside tx and locks the row until tx ends.
// SQLite has no row locks; its single-writer transactions give the same guarantee.
func (r *CreditsRepositoryImpl) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (model.Credit, error) {
	q := `SELECT ` + creditColumns + ` FROM creditos WHERE id = ?`
	if tx.DriverName() != "sqlite3" {
		q += ` FOR UPDATE`
	}

	var c model.Credit
	err := tx.GetContext(ctx, &c, tx.Rebind(q), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Credit{}, ErrNotFound
	}
	if err != nil {
		return model.Credit{}, err
	}
	return c, nil
}

// Update overwrites every mutable column of c.ID. The caller is expected to
// have locked the row with GetForUpdate; MySQL reports zero affected rows for
// no-op updates, so affected rows are not used to detect missing credits.
func (r *CreditsRepositoryImpl) Update(ctx context.Context, tx *sqlx.Tx, c model.Credit) error {
	const q = `
		UPDATE creditos
		   SET cliente = ?, monto = ?, tasa_interes = ?, plazo = ?, fecha_otorgamiento = ?
		 WHERE id = ?
	`
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(q),
			c.ClientName, c.Amount, c.InterestRate, c.TermMonths, c.GrantDate, c.ID,
		)
		return err
	})
}

func (r *CreditsRepositoryImpl) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM creditos WHERE id = ?`), id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
