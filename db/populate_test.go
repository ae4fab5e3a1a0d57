package db

import (
	"context"
	"testing"
	"time"

	"ecomdb/generator"
	"ecomdb/metrics"
	"ecomdb/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func fixedClock() time.Time {
	return time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}

func record(seq int64, price string, region model.Region) generator.Record {
	day := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	return generator.Record{
		Customer: model.Customer{
			CustomerName:            "Customer",
			CustomerEmail:           "c@example.com",
			CustomerShippingAddress: "3 High St",
			CustomerRegion:          region,
		},
		Payment:         model.Payment{PaymentDate: day, PaymentMode: model.PayPal},
		OrderDate:       day,
		Quantity:        2,
		OrderPrice:      40,
		OrderSequenceID: seq,
		Product: model.Product{
			ProductName:       "Shoes",
			ProductPrice:      price,
			ProductCategories: model.Clothing,
		},
		ShipmentDate: day.AddDate(0, 0, 1),
	}
}

func TestPopulate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	src := generator.NewFakerAt(42, fixedClock)
	mc := metrics.NewCollector("populate_test")

	res, err := Populate(ctx, db, src, 25, nopLogger(), mc)
	require.NoError(t, err)
	assert.Equal(t, PopulateResult{Inserted: 25}, res)

	for _, table := range []string{"customer", "payments", "orders", "products", "shipments"} {
		assert.Equal(t, int64(25), countRows(t, db, table), table)
	}
	assert.Equal(t, float64(25), testutil.ToFloat64(metrics.RowsInsertedTotal.WithLabelValues("populate_test", "orders")))

	t.Run("order sequence ids are unique", func(t *testing.T) {
		var distinct int64
		require.NoError(t, db.Raw("SELECT COUNT(DISTINCT order_sequence_id) FROM orders").Scan(&distinct).Error)
		assert.Equal(t, int64(25), distinct)
	})

	t.Run("orders reference existing customers and payments", func(t *testing.T) {
		var dangling int64
		require.NoError(t, db.Raw(`
SELECT COUNT(*) FROM orders o
LEFT JOIN customer c ON c.customer_id = o.customer_id
LEFT JOIN payments p ON p.payment_id = o.payment_id
WHERE c.customer_id IS NULL OR p.payment_id IS NULL`).Scan(&dangling).Error)
		assert.Zero(t, dangling)
	})

	t.Run("shipments never precede their order", func(t *testing.T) {
		var shipments []model.Shipment
		require.NoError(t, db.Find(&shipments).Error)
		for _, s := range shipments {
			var o model.Order
			require.NoError(t, db.Where("order_id = ?", s.OrderID).First(&o).Error)
			assert.False(t, s.ShipmentDate.Before(o.OrderDate), "shipment %d", s.ShippingID)
		}
	})

	t.Run("a second batch continues order ids", func(t *testing.T) {
		res, err := Populate(ctx, db, src, 5, nopLogger(), nil)
		require.NoError(t, err)
		assert.Equal(t, 5, res.Inserted)

		var maxID int
		require.NoError(t, db.Raw("SELECT MAX(order_id) FROM orders").Scan(&maxID).Error)
		assert.Equal(t, 30, maxID)
	})
}

func TestPopulateSkipsOutOfBandPrices(t *testing.T) {
	db := setupTestDB(t)
	src := generator.Slice{
		record(1, "10", model.RegionLATAM),
		record(2, "501", model.RegionEMEA),
		record(3, "500", model.RegionAPJ),
		record(4, "9", model.RegionAPJ),
	}
	mc := metrics.NewCollector("skip_test")

	res, err := Populate(context.Background(), db, &src, 4, nopLogger(), mc)
	require.NoError(t, err)
	assert.Equal(t, PopulateResult{Inserted: 2, Skipped: 2}, res)

	assert.Equal(t, int64(2), countRows(t, db, "customer"))
	assert.Equal(t, int64(2), countRows(t, db, "products"))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.RecordsSkippedTotal.WithLabelValues("skip_test", "price_out_of_range")))
}

func TestPopulateIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	src := generator.Slice{
		record(7, "20", model.RegionLATAM),
		record(8, "30", model.RegionLATAM),
		record(7, "40", model.RegionLATAM),
	}

	res, err := Populate(context.Background(), db, &src, 3, nopLogger(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 2")
	assert.Zero(t, res.Inserted)

	for _, table := range []string{"customer", "payments", "orders", "products", "shipments"} {
		assert.Zero(t, countRows(t, db, table), "%s must be rolled back", table)
	}
}

func TestPopulateRejectsNegativeCount(t *testing.T) {
	db := setupTestDB(t)
	src := generator.NewFakerAt(1, fixedClock)

	_, err := Populate(context.Background(), db, src, -1, nopLogger(), nil)
	assert.Error(t, err)
}
