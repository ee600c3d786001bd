// Package dbtest provides throwaway record stores for tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmehdipour/credit-registry/internal/db"
	"github.com/jmoiron/sqlx"
)

var seq atomic.Int64

// NewSQLite returns a migrated in-memory SQLite database private to t.
// A single connection keeps the in-memory database alive for the test's lifetime.
func NewSQLite(t *testing.T) *sqlx.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	dbx, err := db.NewSQLConnection(db.DriverSQLite, dsn, db.SQLOpts{
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = dbx.Close() })

	if err := db.Migrate(context.Background(), dbx); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return dbx
}
