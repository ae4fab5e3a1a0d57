package db

import (
	"context"
	"fmt"

	"ecomdb/config"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Provision drops the target database if it exists and creates it again,
// connected to the administrative database. Both statements run in
// autocommit mode; DROP/CREATE DATABASE cannot run inside a transaction.
func Provision(ctx context.Context, c config.Postgres, logger *zap.SugaredLogger) error {
	if err := ValidateIdentifier(c.Database); err != nil {
		return fmt.Errorf("provision: %w", err)
	}
	if c.Database == c.AdminDatabase {
		return fmt.Errorf("provision: refusing to drop the administrative database %q", c.AdminDatabase)
	}

	admin, err := openSQL(DSN(c, c.AdminDatabase))
	if err != nil {
		return fmt.Errorf("provision: connecting to %s@%s:%d/%s: %w", c.User, c.Host, c.Port, c.AdminDatabase, err)
	}
	defer func() {
		if err := admin.Close(); err != nil {
			logger.Warnf("provision: closing admin connection: %v", err)
		}
	}()

	name := pq.QuoteIdentifier(c.Database)
	if _, err := admin.ExecContext(ctx, "DROP DATABASE IF EXISTS "+name); err != nil {
		return fmt.Errorf("provision: dropping database %s: %w", c.Database, err)
	}
	if _, err := admin.ExecContext(ctx, "CREATE DATABASE "+name); err != nil {
		return fmt.Errorf("provision: creating database %s: %w", c.Database, err)
	}

	logger.Infof("provision: database %q created", c.Database)
	return nil
}
