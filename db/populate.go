package db

import (
	"context"
	"fmt"

	"ecomdb/generator"
	"ecomdb/metrics"
	"ecomdb/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PopulateResult counts what a batch did.
type PopulateResult struct {
	Inserted int
	Skipped  int
}

// insertOrderSQL links the order to a random existing customer and payment,
// not necessarily the ones inserted for the same record.
const insertOrderSQL = `
INSERT INTO orders (order_id, customer_id, order_date, payment_id, quantity, price, order_sequence_id)
VALUES (?, (SELECT customer_id FROM customer ORDER BY random() LIMIT 1), ?,
        (SELECT payment_id FROM payments ORDER BY random() LIMIT 1), ?, ?, ?)`

// insertProductSQL goes through products so the routing trigger places the
// row in its price band. gorm's RETURNING would come back empty because the
// trigger suppresses the parent row.
const insertProductSQL = `INSERT INTO products (product_name, product_price, product_categories) VALUES (?, ?, ?)`

// Populate inserts n generated records in a single transaction. A record
// whose product price has no band is logged and skipped before anything is
// written for it; any database error rolls back the whole batch.
// Order ids continue after the highest existing order_id.
func Populate(ctx context.Context, db *gorm.DB, src generator.Source, n int, logger *zap.SugaredLogger, mc *metrics.Collector) (PopulateResult, error) {
	var res PopulateResult
	if n < 0 {
		return res, fmt.Errorf("populate: negative record count %d", n)
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int
		if err := tx.Raw("SELECT COALESCE(MAX(order_id), 0) FROM orders").Scan(&next).Error; err != nil {
			return fmt.Errorf("populate: reading last order id: %w", err)
		}

		for i := 0; i < n; i++ {
			rec := src.Next()
			if _, err := BandForText(rec.Product.ProductPrice); err != nil {
				logger.Warnf("populate: record %d skipped: %v", i, err)
				res.Skipped++
				mc.IncRecordsSkipped("price_out_of_range")
				continue
			}
			next++
			if err := insertRecord(tx, next, rec); err != nil {
				return fmt.Errorf("populate: record %d: %w", i, err)
			}
			res.Inserted++
		}
		return nil
	})
	if err != nil {
		res.Inserted = 0
		return res, err
	}

	for _, t := range []string{"customer", "payments", "orders", "products", "shipments"} {
		mc.AddRowsInserted(t, res.Inserted)
	}
	logger.Infof("populate: inserted %d records, skipped %d", res.Inserted, res.Skipped)
	return res, nil
}

func insertRecord(tx *gorm.DB, orderID int, rec generator.Record) error {
	customer := rec.Customer
	if err := tx.Create(&customer).Error; err != nil {
		return fmt.Errorf("inserting customer: %w", err)
	}

	payment := rec.Payment
	if err := tx.Create(&payment).Error; err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}

	if err := tx.Exec(insertOrderSQL, orderID, rec.OrderDate, rec.Quantity, rec.OrderPrice, rec.OrderSequenceID).Error; err != nil {
		return fmt.Errorf("inserting order %d (sequence %d): %w", orderID, rec.OrderSequenceID, err)
	}

	p := rec.Product
	if err := tx.Exec(insertProductSQL, p.ProductName, p.ProductPrice, p.ProductCategories).Error; err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}

	shipment := model.Shipment{
		OrderID:                 orderID,
		ShipmentDate:            rec.ShipmentDate,
		CustomerShippingAddress: rec.Customer.CustomerShippingAddress,
		CustomerRegion:          rec.Customer.CustomerRegion,
	}
	if err := tx.Create(&shipment).Error; err != nil {
		return fmt.Errorf("inserting shipment: %w", err)
	}
	return nil
}
