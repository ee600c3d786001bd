package cmd

import (
	"context"
	"fmt"

	"github.com/jmehdipour/credit-registry/internal/config"
	"github.com/jmehdipour/credit-registry/internal/db"
	"github.com/jmehdipour/credit-registry/internal/logger"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func sqlOpts(c config.DatabaseConfig) db.SQLOpts {
	return db.SQLOpts{
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		ConnMaxIdleTime: c.ConnMaxIdleTime,
		PingTimeout:     c.PingTimeout,
	}
}

// openRecordStore connects the credit database and, when migrate is set,
// creates missing tables.
func openRecordStore(ctx context.Context, c config.DatabaseConfig, migrate bool) (*sqlx.DB, error) {
	sqlDB, err := db.NewSQLConnection(c.Driver, c.DSN, sqlOpts(c))
	if err != nil {
		return nil, fmt.Errorf("%s connect: %w", c.Driver, err)
	}
	if migrate {
		if err := db.Migrate(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("%s migrate: %w", c.Driver, err)
		}
		logger.Log.Info("record store migrated", zap.String("driver", c.Driver))
	}
	return sqlDB, nil
}

// openClickHouse returns nil without error when no DSN is configured.
func openClickHouse(ctx context.Context, c config.DatabaseConfig, migrate bool) (*sqlx.DB, error) {
	if c.DSN == "" {
		return nil, nil
	}
	chDB, err := db.NewSQLConnection(db.DriverClickHouse, c.DSN, sqlOpts(c))
	if err != nil {
		return nil, fmt.Errorf("clickhouse connect: %w", err)
	}
	if migrate {
		if err := db.MigrateClickHouse(ctx, chDB); err != nil {
			_ = chDB.Close()
			return nil, fmt.Errorf("clickhouse migrate: %w", err)
		}
		logger.Log.Info("clickhouse migrated")
	}
	return chDB, nil
}
