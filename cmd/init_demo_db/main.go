package main

import (
	"context"
	"log"

	"ecomdb/config"
	"ecomdb/db"
	"ecomdb/logging"

	"github.com/spf13/cobra"
)

func main() {
	// Initialize a demo database without synthetic data: schema, price
	// partitions and regional replicas only.
	v := config.NewViper()
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "init_demo_db",
		Short: "Create an empty e-commerce demo database",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load(v, configFile)
			if err != nil {
				log.Fatalf("ERROR: %v", err)
			}
			logger, err := logging.New(cfg.LogLevel, cfg.LogJSON)
			if err != nil {
				log.Fatalf("ERROR: %v", err)
			}
			defer func() { _ = logger.Sync() }()

			res, err := db.Bootstrap(cmd.Context(), db.Options{
				Postgres: cfg.Postgres,
				Logger:   logger,
			})
			if err != nil {
				logger.Fatalf("Failed to initialize database: %v", err)
			}
			if len(res.Failed) > 0 {
				logger.Warnf("steps with errors: %v", res.Failed)
			}

			logger.Infof("Demo database %s initialized successfully", cfg.Postgres.Database)
			logger.Info("Schema created. No seed data loaded.")
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Optional YAML config file")
	if err := config.BindPostgresFlags(rootCmd, v); err != nil {
		log.Fatalf("%v", err)
	}
	if err := config.BindCommonFlags(rootCmd, v); err != nil {
		log.Fatalf("%v", err)
	}

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}
