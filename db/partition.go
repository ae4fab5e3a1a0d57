package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrPriceOutOfRange = errors.New("price out of range")

// A PriceBand is one horizontal partition of products. Bands are closed on
// the upper bound; only the lowest band is closed on the lower bound.
type PriceBand struct {
	Table        string
	Low          float64
	High         float64
	LowInclusive bool
}

// PriceBands are the product partitions, lowest first. They cover [10,500]
// without overlap.
var PriceBands = []PriceBand{
	{Table: "products_10_to_100", Low: 10, High: 100, LowInclusive: true},
	{Table: "products_101_to_250", Low: 100, High: 250},
	{Table: "products_251_to_500", Low: 250, High: 500},
}

// Contains reports whether price falls inside the band.
func (b PriceBand) Contains(price float64) bool {
	if price > b.High {
		return false
	}
	if b.LowInclusive {
		return price >= b.Low
	}
	return price > b.Low
}

// Condition renders the band as a SQL predicate over expr.
func (b PriceBand) Condition(expr string) string {
	op := ">"
	if b.LowInclusive {
		op = ">="
	}
	return fmt.Sprintf("%s %s %s AND %s <= %s", expr, op, formatNumber(b.Low), expr, formatNumber(b.High))
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// BandFor returns the band holding price.
func BandFor(price float64) (PriceBand, error) {
	for _, b := range PriceBands {
		if b.Contains(price) {
			return b, nil
		}
	}
	return PriceBand{}, fmt.Errorf("%w: %s", ErrPriceOutOfRange, formatNumber(price))
}

// BandForText parses a stored product price and returns its band.
func BandForText(price string) (PriceBand, error) {
	p, err := strconv.ParseFloat(strings.TrimSpace(price), 64)
	if err != nil {
		return PriceBand{}, fmt.Errorf("%w: %q is not numeric", ErrPriceOutOfRange, price)
	}
	return BandFor(p)
}

// A Projection is a vertical slice of the shipments table.
type Projection struct {
	Table   string
	Columns []string
}

var Projections = []Projection{
	{Table: "shipment_details", Columns: []string{"shipping_id", "order_id", "shipment_date"}},
	{Table: "customer_details", Columns: []string{"shipping_id", "customer_region", "customer_shipping_address"}},
}

func (p Projection) selectSQL() string {
	return fmt.Sprintf("SELECT %s FROM shipments", strings.Join(p.Columns, ", "))
}

// VerticalStatements snapshot shipments into its projections. The snapshots
// are not kept in sync with later writes to shipments.
func VerticalStatements() []Statement {
	stmts := make([]Statement, 0, len(Projections))
	for _, p := range Projections {
		stmts = append(stmts, Statement{
			Name: p.Table,
			SQL:  fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s AS %s", p.Table, p.selectSQL()),
		})
	}
	return stmts
}

const priceExpr = "product_price::numeric"

// HorizontalStatements declare the band tables and the routing trigger that
// moves every insert on products into exactly one band.
func HorizontalStatements() []Statement {
	var stmts []Statement
	for _, b := range PriceBands {
		stmts = append(stmts, Statement{Name: "drop " + b.Table, SQL: "DROP TABLE IF EXISTS " + b.Table})
	}
	for _, b := range PriceBands {
		stmts = append(stmts, Statement{
			Name: b.Table,
			SQL: fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    CHECK (%s)
) INHERITS (products)`, b.Table, b.Condition(priceExpr)),
		})
	}
	return append(stmts,
		Statement{Name: "products_insert_trigger function", SQL: productsTriggerFunction()},
		Statement{Name: "drop products_insert_trigger", SQL: "DROP TRIGGER IF EXISTS products_insert_trigger ON products"},
		Statement{Name: "products_insert_trigger", SQL: `
CREATE TRIGGER products_insert_trigger
BEFORE INSERT ON products
FOR EACH ROW
EXECUTE FUNCTION products_insert_trigger()`},
	)
}

// productsTriggerFunction returns NULL after routing so the parent table
// never holds rows of its own.
func productsTriggerFunction() string {
	var sb strings.Builder
	sb.WriteString(`
CREATE OR REPLACE FUNCTION products_insert_trigger()
RETURNS TRIGGER AS $$
BEGIN
`)
	for i, b := range PriceBands {
		kw := "ELSIF"
		if i == 0 {
			kw = "IF"
		}
		fmt.Fprintf(&sb, "    %s %s THEN\n        INSERT INTO %s VALUES (NEW.*);\n", kw, b.Condition("NEW."+priceExpr), b.Table)
	}
	sb.WriteString(`    ELSE
        RAISE EXCEPTION 'Price out of range: %', NEW.product_price USING ERRCODE = 'check_violation';
    END IF;
    RETURN NULL;
END;
$$ LANGUAGE plpgsql`)
	return sb.String()
}

// ConfigurePartitions declares the vertical projections and the horizontal
// price bands of products.
func ConfigurePartitions(ctx context.Context, db *gorm.DB, logger *zap.SugaredLogger) error {
	err := errors.Join(
		execStatements(ctx, db, "partition", VerticalStatements(), logger),
		execStatements(ctx, db, "partition", HorizontalStatements(), logger),
	)
	if err != nil {
		return err
	}
	logger.Info("partition: vertical and horizontal partitioning configured")
	return nil
}

// RefreshProjections replaces the content of every projection with the
// current rows of shipments.
func RefreshProjections(ctx context.Context, db *gorm.DB, logger *zap.SugaredLogger) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range Projections {
			if err := tx.Exec("DELETE FROM " + p.Table).Error; err != nil {
				return fmt.Errorf("refresh: clearing %s: %w", p.Table, err)
			}
			res := tx.Exec(fmt.Sprintf("INSERT INTO %s (%s) %s", p.Table, strings.Join(p.Columns, ", "), p.selectSQL()))
			if res.Error != nil {
				return fmt.Errorf("refresh: filling %s: %w", p.Table, res.Error)
			}
			logger.Debugf("refresh: %s holds %d rows", p.Table, res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("refresh: vertical projections re-snapshotted")
	return nil
}
