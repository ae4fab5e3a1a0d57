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

// Statement is one named DDL statement of a step.
type Statement struct {
	Name string
	SQL  string
}

// SchemaStatements returns the schema DDL in foreign-key dependency order:
// customer, payments and products before orders, orderitems and shipments.
// The orders table is dropped and recreated unconditionally so the
// order_sequence_id unique constraint is always present; the statement list
// is only meant for a freshly provisioned database.
func SchemaStatements() []Statement {
	return []Statement{
		{Name: "customer", SQL: fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS customer (
    customer_id SERIAL PRIMARY KEY,
    customer_name VARCHAR(255),
    customer_email VARCHAR(255),
    customer_shipping_address VARCHAR(255),
    customer_region VARCHAR(255) CHECK (customer_region IN (%s))
)`, regionList())},
		{Name: "payments", SQL: fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS payments (
    payment_id SERIAL PRIMARY KEY,
    payment_date DATE,
    payment_mode VARCHAR(255) CHECK (payment_mode IN (%s))
)`, quoteList(model.PaymentModes))},
		{Name: "products", SQL: fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS products (
    product_id SERIAL PRIMARY KEY,
    product_name VARCHAR(255),
    product_price VARCHAR(255),
    product_categories VARCHAR(255) CHECK (product_categories IN (%s))
)`, quoteList(model.Categories))},
		{Name: "drop orders", SQL: `DROP TABLE IF EXISTS orders`},
		{Name: "orders", SQL: `
CREATE TABLE IF NOT EXISTS orders (
    order_id INT UNIQUE,
    customer_id INT REFERENCES customer (customer_id),
    order_date DATE,
    payment_id INT REFERENCES payments (payment_id),
    quantity INT CHECK (quantity BETWEEN 1 AND 10),
    price INT,
    order_sequence_id BIGINT,
    PRIMARY KEY (order_id, order_sequence_id),
    UNIQUE (order_sequence_id)
)`},
		{Name: "orderitems", SQL: `
CREATE TABLE IF NOT EXISTS orderitems (
    orderitem_id SERIAL PRIMARY KEY,
    order_sequence_id BIGINT REFERENCES orders (order_sequence_id),
    product_id INT REFERENCES products (product_id)
)`},
		{Name: "shipments", SQL: fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS shipments (
    shipping_id SERIAL PRIMARY KEY,
    order_id INT REFERENCES orders (order_id),
    shipment_date DATE,
    customer_shipping_address VARCHAR(255),
    customer_region VARCHAR(255) CHECK (customer_region IN (%s))
)`, regionList())},
	}
}

// BuildSchema creates the base tables. Every statement is attempted; the
// failures are logged one by one and returned joined.
func BuildSchema(ctx context.Context, db *gorm.DB, logger *zap.SugaredLogger) error {
	if err := execStatements(ctx, db, "schema", SchemaStatements(), logger); err != nil {
		return err
	}
	logger.Info("schema: tables created")
	return nil
}

func execStatements(ctx context.Context, db *gorm.DB, step string, stmts []Statement, logger *zap.SugaredLogger) error {
	var errs []error
	for _, s := range stmts {
		if err := db.WithContext(ctx).Exec(s.SQL).Error; err != nil {
			logger.Errorf("%s: statement %q failed: %v", step, s.Name, err)
			errs = append(errs, fmt.Errorf("%s: %s: %w", step, s.Name, err))
			continue
		}
		logger.Debugf("%s: statement %q applied", step, s.Name)
	}
	return errors.Join(errs...)
}

func quoteList[T ~string](values []T) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteLiteral(string(v))
	}
	return strings.Join(quoted, ", ")
}

func regionList() string {
	return quoteList(model.Regions)
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
