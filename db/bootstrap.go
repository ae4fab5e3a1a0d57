package db

import (
	"context"
	"fmt"
	"io"
	"time"

	"ecomdb/config"
	"ecomdb/generator"
	"ecomdb/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	StepProvision   = "provision"
	StepSchema      = "schema"
	StepPartition   = "partition"
	StepPopulate    = "populate"
	StepRefresh     = "refresh-projections"
	StepReplication = "replication"
	StepQueries     = "queries"
	StepVerify      = "verify"
)

// Options configures one bootstrap run.
type Options struct {
	Postgres config.Postgres
	// Seed enables population, the reports and verification. Without it
	// only the database, schema, partitions and replicas are created.
	Seed    bool
	Records int
	Source  generator.Source
	Out     io.Writer
	Logger  *zap.SugaredLogger
	Metrics *metrics.Collector
}

// Result summarises a run. Failed lists the non-fatal steps that reported
// errors; their details were logged as they happened.
type Result struct {
	Populate PopulateResult
	Failed   []string
}

type step struct {
	name  string
	fatal bool
	run   func(ctx context.Context, db *gorm.DB) error
}

// Bootstrap provisions the target database and runs every step against a
// single connection held for the whole run. Provisioning, schema creation
// and population abort the run on error; the other steps only report.
func Bootstrap(ctx context.Context, opts Options) (Result, error) {
	var res Result
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.Seed && opts.Source == nil {
		return res, fmt.Errorf("bootstrap: seeding requested without a record source")
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	if err := timeStep(StepProvision, opts.Metrics, func() error {
		return Provision(ctx, opts.Postgres, logger)
	}); err != nil {
		return res, fmt.Errorf("bootstrap: %w", err)
	}

	gdb, err := Open(opts.Postgres)
	if err != nil {
		opts.Metrics.IncStepFailures(StepProvision)
		return res, fmt.Errorf("bootstrap: %w", err)
	}
	defer func() {
		if err := Close(gdb); err != nil {
			logger.Warnf("bootstrap: closing connection: %v", err)
		}
	}()

	store := NewSQLStore(gdb)
	steps := []step{
		{name: StepSchema, fatal: true, run: func(ctx context.Context, db *gorm.DB) error {
			return BuildSchema(ctx, db, logger)
		}},
		{name: StepPartition, run: func(ctx context.Context, db *gorm.DB) error {
			return ConfigurePartitions(ctx, db, logger)
		}},
	}
	if opts.Seed {
		steps = append(steps,
			step{name: StepPopulate, fatal: true, run: func(ctx context.Context, db *gorm.DB) error {
				pr, err := Populate(ctx, db, opts.Source, opts.Records, logger, opts.Metrics)
				res.Populate = pr
				return err
			}},
			step{name: StepRefresh, run: func(ctx context.Context, db *gorm.DB) error {
				return RefreshProjections(ctx, db, logger)
			}},
		)
	}
	steps = append(steps, step{name: StepReplication, run: func(ctx context.Context, db *gorm.DB) error {
		return ConfigureReplication(ctx, db, logger)
	}})
	if opts.Seed {
		steps = append(steps,
			step{name: StepQueries, run: func(ctx context.Context, _ *gorm.DB) error {
				return RunQueries(ctx, store, opts.Out, logger)
			}},
			step{name: StepVerify, run: func(ctx context.Context, _ *gorm.DB) error {
				return Verify(ctx, store, opts.Out, logger, opts.Metrics)
			}},
		)
	}

	for _, s := range steps {
		err := timeStep(s.name, opts.Metrics, func() error { return s.run(ctx, gdb) })
		if err == nil {
			continue
		}
		if s.fatal {
			return res, fmt.Errorf("bootstrap: %w", err)
		}
		logger.Warnf("bootstrap: step %s failed, continuing: %v", s.name, err)
		res.Failed = append(res.Failed, s.name)
	}

	logger.Infof("bootstrap: completed against %s", opts.Postgres.Database)
	return res, nil
}

func timeStep(name string, mc *metrics.Collector, fn func() error) error {
	start := time.Now()
	err := fn()
	mc.ObserveStepDuration(name, time.Since(start).Seconds())
	if err != nil {
		mc.IncStepFailures(name)
	}
	return err
}
