package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ecomdb/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrUnknownRegion = errors.New("unknown region")

// ReplicaTable returns the name of the regional replica of customer.
func ReplicaTable(r model.Region) (string, error) {
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRegion, r)
	}
	return "customer_region_" + strings.ToLower(string(r)), nil
}

func mustReplicaTable(r model.Region) string {
	t, err := ReplicaTable(r)
	if err != nil {
		panic(err)
	}
	return t
}

// ReplicationStatements declare one replica per region, copy rows already
// in customer, install the copy-on-insert trigger and build the name
// indexes used by prefix lookups.
func ReplicationStatements() []Statement {
	var stmts []Statement
	for _, r := range model.Regions {
		t := mustReplicaTable(r)
		stmts = append(stmts, Statement{
			Name: t,
			SQL: fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    LIKE customer INCLUDING ALL,
    CHECK (customer_region = %s)
)`, t, quoteLiteral(string(r))),
		})
	}
	for _, r := range model.Regions {
		t := mustReplicaTable(r)
		stmts = append(stmts, Statement{
			Name: "backfill " + t,
			SQL: fmt.Sprintf("INSERT INTO %s SELECT * FROM customer WHERE customer_region = %s ON CONFLICT DO NOTHING",
				t, quoteLiteral(string(r))),
		})
	}
	stmts = append(stmts,
		Statement{Name: "replicate_customer_trigger function", SQL: replicationTriggerFunction()},
		Statement{Name: "drop replicate_customer_trigger", SQL: "DROP TRIGGER IF EXISTS replicate_customer_trigger ON customer"},
		Statement{Name: "replicate_customer_trigger", SQL: `
CREATE TRIGGER replicate_customer_trigger
BEFORE INSERT ON customer
FOR EACH ROW
EXECUTE FUNCTION replicate_customer_trigger()`},
		Statement{Name: "customer_name_idx", SQL: "CREATE INDEX IF NOT EXISTS customer_name_idx ON customer (customer_name text_pattern_ops)"},
	)
	for _, r := range model.Regions {
		t := mustReplicaTable(r)
		stmts = append(stmts, Statement{
			Name: t + "_name_idx",
			SQL:  fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_name_idx ON %s (customer_name text_pattern_ops)", t, t),
		})
	}
	return stmts
}

// replicationTriggerFunction returns NEW so the base insert still happens
// alongside the replica copy.
func replicationTriggerFunction() string {
	var sb strings.Builder
	sb.WriteString(`
CREATE OR REPLACE FUNCTION replicate_customer_trigger()
RETURNS TRIGGER AS $$
BEGIN
`)
	for i, r := range model.Regions {
		kw := "ELSIF"
		if i == 0 {
			kw = "IF"
		}
		fmt.Fprintf(&sb, "    %s NEW.customer_region = %s THEN\n        INSERT INTO %s VALUES (NEW.*);\n",
			kw, quoteLiteral(string(r)), mustReplicaTable(r))
	}
	sb.WriteString(`    ELSE
        RAISE EXCEPTION 'Unknown customer region: %', NEW.customer_region USING ERRCODE = 'check_violation';
    END IF;
    RETURN NEW;
END;
$$ LANGUAGE plpgsql`)
	return sb.String()
}

// ConfigureReplication declares the regional replicas of customer.
func ConfigureReplication(ctx context.Context, db *gorm.DB, logger *zap.SugaredLogger) error {
	if err := execStatements(ctx, db, "replication", ReplicationStatements(), logger); err != nil {
		return err
	}
	logger.Info("replication: regional replicas and indexes configured")
	return nil
}
