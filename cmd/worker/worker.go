package worker

import (
	"fmt"

	"github.com/jmehdipour/credit-registry/internal/config"
	"github.com/jmehdipour/credit-registry/internal/db"
	"github.com/jmehdipour/credit-registry/internal/logger"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

// NewWorkerCmd returns the parent "worker" command.
func NewWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run background workers",
	}
	// attach subcommands
	cmd.AddCommand(projectorCmd)
	cmd.AddCommand(relayCmd)

	return cmd
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Encoding)
	return cfg, nil
}

func connect(driver string, c config.DatabaseConfig) (*sqlx.DB, error) {
	dbx, err := db.NewSQLConnection(driver, c.DSN, db.SQLOpts{
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		ConnMaxIdleTime: c.ConnMaxIdleTime,
		PingTimeout:     c.PingTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%s connect: %w", driver, err)
	}
	return dbx, nil
}
