package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jmehdipour/credit-registry/internal/db/dbtest"
	"github.com/jmehdipour/credit-registry/internal/model"
	"github.com/jmehdipour/credit-registry/internal/repository"
)

func sampleCredit(client string, amount float64) model.Credit {
	return model.Credit{
		ClientName:   client,
		Amount:       amount,
		InterestRate: 5,
		TermMonths:   12,
		GrantDate:    "2024-01-01",
	}
}

func TestCreditsInsertGetList(t *testing.T) {
	dbx := dbtest.NewSQLite(t)
	repo := repository.NewCreditsRepository(dbx)
	ctx := context.Background()

	id1, err := repo.Insert(ctx, nil, sampleCredit("Ana", 1000))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	id2, err := repo.Insert(ctx, nil, sampleCredit("Bob", 2500.5))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id1 <= 0 || id2 <= id1 {
		t.Fatalf("expected increasing ids, got %d then %d", id1, id2)
	}

	got, err := repo.Get(ctx, id2)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := sampleCredit("Bob", 2500.5)
	want.ID = id2
	if got != want {
		t.Fatalf("get mismatch:\n got  %+v\n want %+v", got, want)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != id1 || all[1].ID != id2 {
		t.Fatalf("unexpected list: %+v", all)
	}
}

func TestCreditsListEmptyIsNotNil(t *testing.T) {
	repo := repository.NewCreditsRepository(dbtest.NewSQLite(t))

	all, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", all)
	}
}

func TestCreditsGetMissing(t *testing.T) {
	repo := repository.NewCreditsRepository(dbtest.NewSQLite(t))

	if _, err := repo.Get(context.Background(), 999); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreditsUpdateInsideTx(t *testing.T) {
	dbx := dbtest.NewSQLite(t)
	repo := repository.NewCreditsRepository(dbx)
	ctx := context.Background()

	id, err := repo.Insert(ctx, nil, sampleCredit("Ana", 1000))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	tx, err := dbx.BeginTxx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	c, err := repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		_ = tx.Rollback()
		t.Fatalf("get for update: %v", err)
	}
	c.Amount = 4200
	c.ClientName = "Ana María"
	if err := repo.Update(ctx, tx, c); err != nil {
		_ = tx.Rollback()
		t.Fatalf("update: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount != 4200 || got.ClientName != "Ana María" || got.TermMonths != 12 {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestCreditsRollbackDiscardsUpdate(t *testing.T) {
	dbx := dbtest.NewSQLite(t)
	repo := repository.NewCreditsRepository(dbx)
	ctx := context.Background()

	id, err := repo.Insert(ctx, nil, sampleCredit("Ana", 1000))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	tx, err := dbx.BeginTxx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	c := sampleCredit("Otro", 1)
	c.ID = id
	if err := repo.Update(ctx, tx, c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ClientName != "Ana" || got.Amount != 1000 {
		t.Fatalf("rolled back update leaked: %+v", got)
	}
}

func TestCreditsDelete(t *testing.T) {
	repo := repository.NewCreditsRepository(dbtest.NewSQLite(t))
	ctx := context.Background()

	id, err := repo.Insert(ctx, nil, sampleCredit("Ana", 1000))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.Delete(ctx, nil, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, nil, id); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Get(ctx, id); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("get after delete: expected ErrNotFound, got %v", err)
	}
}
