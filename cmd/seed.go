package cmd

import (
	"context"
	"fmt"

	"github.com/jmehdipour/credit-registry/internal/config"
	"github.com/jmehdipour/credit-registry/internal/logger"
	"github.com/jmehdipour/credit-registry/internal/repository"
	"github.com/jmehdipour/credit-registry/internal/service/credit"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo credits",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1) load config
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level, cfg.Log.Encoding)

		// 2) connect
		ctx := context.Background()
		sqlDB, err := openRecordStore(ctx, cfg.Database, cfg.Database.AutoMigrate)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		// 3) insert through the service so demo rows pass validation and reach the change feed
		svc := credit.New(sqlDB, repository.NewCreditsRepository(sqlDB), repository.NewOutboxRepository(sqlDB))
		for _, raw := range demoCredits {
			p, err := credit.ParsePayload([]byte(raw))
			if err != nil {
				return fmt.Errorf("parse demo credit: %w", err)
			}
			c, err := svc.Create(ctx, p)
			if err != nil {
				return fmt.Errorf("seed %v: %w", p[credit.FieldClient], err)
			}
			logger.Log.Info("seeded credit", zap.Int64("id", c.ID), zap.String("cliente", c.ClientName))
		}

		fmt.Printf(">> Seeded %d credits ✅\n", len(demoCredits))
		return nil
	},
}

// demoCredits spread over the three amount ranges and repeat a client.
var demoCredits = []string{
	`{"cliente":"Ana Torres","monto":3500,"tasa_interes":12.5,"plazo":12,"fecha_otorgamiento":"2024-01-15"}`,
	`{"cliente":"Ana Torres","monto":12000,"tasa_interes":10,"plazo":24,"fecha_otorgamiento":"2024-03-02"}`,
	`{"cliente":"Luis Pérez","monto":45000,"tasa_interes":8.75,"plazo":60,"fecha_otorgamiento":"2024-02-20"}`,
	`{"cliente":"María Gómez","monto":5000,"tasa_interes":15,"plazo":6,"fecha_otorgamiento":"2024-04-10"}`,
	`{"cliente":"Carlos Ruiz","monto":250000,"tasa_interes":7.2,"plazo":240,"fecha_otorgamiento":"2024-05-28"}`,
}
