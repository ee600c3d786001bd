package cmd

import (
	"context"
	"fmt"

	"github.com/jmehdipour/credit-registry/internal/config"
	"github.com/jmehdipour/credit-registry/internal/logger"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables (record store, and ClickHouse when configured)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level, cfg.Log.Encoding)

		ctx := context.Background()

		sqlDB, err := openRecordStore(ctx, cfg.Database, true)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		chDB, err := openClickHouse(ctx, cfg.ClickHouse, true)
		if err != nil {
			return err
		}
		if chDB != nil {
			defer chDB.Close()
		}

		fmt.Println(">> Migration complete ✅")
		return nil
	},
}
