package main

import (
	"context"
	"log"
	"os"
	"time"

	"ecomdb/config"
	"ecomdb/docstore"
	"ecomdb/generator"
	"ecomdb/logging"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
)

const connectTimeout = 10 * time.Second

func main() {
	v := config.NewViper()
	var configFile, seedFile, region, prefix string
	var transaction bool

	rootCmd := &cobra.Command{
		Use:   "docstore",
		Short: "Seed the customer document collection and walk through CRUD and aggregations",
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

			ctx := cmd.Context()
			connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
			client, err := docstore.Connect(connectCtx, cfg.Mongo.URI)
			cancel()
			if err != nil {
				logger.Fatalf("%v", err)
			}
			defer func() {
				if err := client.Disconnect(context.Background()); err != nil {
					logger.Warnf("disconnecting: %v", err)
				}
			}()

			src := generator.NewFaker(cfg.Seed)
			var seed []docstore.Customer
			if seedFile != "" {
				f, err := os.Open(seedFile)
				if err != nil {
					logger.Fatalf("opening %s: %v", seedFile, err)
				}
				seed, err = docstore.LoadJSON(f)
				_ = f.Close()
				if err != nil {
					logger.Fatalf("%v", err)
				}
			} else {
				seed = docstore.Generate(src, cfg.Records)
			}

			renamed := docstore.Generate(src, 2)
			demo := docstore.Demo{
				Seed: seed,
				New:  renamed[0],
				Update: bson.M{
					"customer_name":  renamed[1].Name,
					"customer_email": renamed[1].Email,
				},
				Region:      region,
				Prefix:      prefix,
				Transaction: transaction,
			}

			customers := docstore.NewCustomers(client, cfg.Mongo.Database, cfg.Mongo.Collection, logger)
			if err := demo.Run(ctx, customers, os.Stdout); err != nil {
				logger.Fatalf("docstore demo failed: %v", err)
			}
			logger.Info("The entire operation is completed.")
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Optional YAML config file")
	if err := config.BindMongoFlags(rootCmd, v); err != nil {
		log.Fatalf("%v", err)
	}
	if err := config.BindCommonFlags(rootCmd, v); err != nil {
		log.Fatalf("%v", err)
	}
	rootCmd.Flags().StringVar(&seedFile, "file", "", "Seed the collection from this JSON array instead of generated customers")
	rootCmd.Flags().StringVar(&region, "region", "LATAM", "Region used by the region lookups")
	rootCmd.Flags().StringVar(&prefix, "prefix", "A", "Name prefix used by the prefix aggregation")
	rootCmd.Flags().BoolVar(&transaction, "transaction", false, "Also run the majority write concern transaction (needs a replica set)")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}
