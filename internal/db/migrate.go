package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies the embedded DDL for the connection's driver. Statements are
// idempotent (CREATE ... IF NOT EXISTS), so it is safe to run on every start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	return migrateDir(ctx, db, db.DriverName())
}

// MigrateClickHouse applies the change-feed DDL to a ClickHouse connection.
func MigrateClickHouse(ctx context.Context, ch *sqlx.DB) error {
	return migrateDir(ctx, ch, "clickhouse")
}

func migrateDir(ctx context.Context, db *sqlx.DB, dir string) error {
	dir = path.Join("migrations", dir)
	entries, err := fs.ReadDir(migrations, dir)
	if err != nil {
		return fmt.Errorf("no migrations for %q: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		raw, err := migrations.ReadFile(path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		// one statement per Exec: the mysql driver rejects multi-statements by default
		for _, stmt := range splitStatements(string(raw)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("exec migration %s: %w", name, err)
			}
		}
	}
	return nil
}

func splitStatements(script string) []string {
	var out []string
	for _, part := range strings.Split(script, ";") {
		var lines []string
		for _, ln := range strings.Split(part, "\n") {
			if strings.HasPrefix(strings.TrimSpace(ln), "--") {
				continue
			}
			lines = append(lines, ln)
		}
		if stmt := strings.TrimSpace(strings.Join(lines, "\n")); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
