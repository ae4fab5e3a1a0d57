package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"ecomdb/config"
	"ecomdb/db"
	"ecomdb/generator"
	"ecomdb/logging"
	"ecomdb/metrics"
	"ecomdb/model"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	defaultLookupLimit = 10
	// exitStepFailures is returned when the run completed but a non-fatal
	// step reported errors.
	exitStepFailures = 2
)

func main() {
	v := config.NewViper()
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Recreate the e-commerce demo database, seed it and run the reports",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, logger := setup(v, configFile)

			mc := metrics.NewCollector(cfg.Postgres.Database)
			res, err := db.Bootstrap(cmd.Context(), db.Options{
				Postgres: cfg.Postgres,
				Seed:     true,
				Records:  cfg.Records,
				Source:   generator.NewFaker(cfg.Seed),
				Out:      os.Stdout,
				Logger:   logger,
				Metrics:  mc,
			})
			writeMetrics(cfg.MetricsFile, logger)
			if err != nil {
				logger.Fatalf("bootstrap failed: %v", err)
			}

			logger.Infof("inserted %d records, skipped %d", res.Populate.Inserted, res.Populate.Skipped)
			if len(res.Failed) > 0 {
				logger.Warnf("steps with errors: %v", res.Failed)
				_ = logger.Sync()
				os.Exit(exitStepFailures)
			}
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Optional YAML config file")
	if err := config.BindPostgresFlags(rootCmd, v); err != nil {
		log.Fatalf("%v", err)
	}
	if err := config.BindCommonFlags(rootCmd, v); err != nil {
		log.Fatalf("%v", err)
	}
	rootCmd.AddCommand(newReportCmd(v, &configFile), newLookupCmd(v, &configFile))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func setup(v *viper.Viper, configFile string) (config.Config, *zap.SugaredLogger) {
	cfg, err := config.Load(v, configFile)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	return cfg, logger
}

func writeMetrics(path string, logger *zap.SugaredLogger) {
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		logger.Warnf("%v", err)
		return
	}
	logger.Infof("metrics written to %s", path)
}

// newReportCmd reruns the reports and the consistency checks against an
// existing database without recreating it.
func newReportCmd(v *viper.Viper, configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Run the reports and verification against an existing database",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, logger := setup(v, *configFile)
			defer func() { _ = logger.Sync() }()

			gdb, err := db.Open(cfg.Postgres)
			if err != nil {
				logger.Fatalf("report failed: %v", err)
			}
			defer func() {
				if err := db.Close(gdb); err != nil {
					logger.Warnf("closing connection: %v", err)
				}
			}()

			store := db.NewSQLStore(gdb)
			mc := metrics.NewCollector(cfg.Postgres.Database)
			qErr := db.RunQueries(cmd.Context(), store, os.Stdout, logger)
			vErr := db.Verify(cmd.Context(), store, os.Stdout, logger, mc)
			writeMetrics(cfg.MetricsFile, logger)
			if qErr != nil || vErr != nil {
				logger.Errorf("report finished with errors")
			}
		},
	}
}

func newLookupCmd(v *viper.Viper, configFile *string) *cobra.Command {
	var prefix, region string
	var limit int

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Find customers by name prefix, optionally in one regional replica",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, logger := setup(v, *configFile)
			defer func() { _ = logger.Sync() }()

			gdb, err := db.Open(cfg.Postgres)
			if err != nil {
				logger.Fatalf("lookup failed: %v", err)
			}
			defer func() {
				if err := db.Close(gdb); err != nil {
					logger.Warnf("closing connection: %v", err)
				}
			}()

			customers, err := db.NewSQLStore(gdb).CustomersByNamePrefix(cmd.Context(), model.Region(region), prefix, limit)
			if err != nil {
				logger.Errorf("lookup failed: %v", err)
				return
			}
			for _, c := range customers {
				fmt.Printf("%d\t%s\t%s\t%s\n", c.CustomerID, c.CustomerName, c.CustomerEmail, c.CustomerRegion)
			}
			logger.Infof("%d customers matched %q", len(customers), prefix)
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Case-sensitive customer name prefix")
	cmd.Flags().StringVar(&region, "region", "", "Search only this region's replica (LATAM, EMEA, APJ)")
	cmd.Flags().IntVar(&limit, "limit", defaultLookupLimit, "Maximum rows to return; 0 returns every match")
	_ = cmd.MarkFlagRequired("prefix")
	return cmd
}
