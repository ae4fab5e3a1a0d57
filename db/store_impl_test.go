package db

import (
	"context"
	"testing"
	"time"

	"ecomdb/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&model.Customer{},
		&model.Payment{},
		&model.Order{},
		&model.Product{},
		&model.OrderItem{},
		&model.Shipment{},
	)
	require.NoError(t, err)

	return db
}

func nopLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// seedOrders creates one customer per name and the given number of orders for each.
func seedOrders(t *testing.T, db *gorm.DB, orders map[string]int, names ...string) map[string]model.Customer {
	payment := model.Payment{PaymentDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), PaymentMode: model.Cash}
	require.NoError(t, db.Create(&payment).Error)

	customers := make(map[string]model.Customer, len(names))
	var orderID int
	for _, name := range names {
		c := model.Customer{
			CustomerName:            name,
			CustomerEmail:           name + "@example.com",
			CustomerShippingAddress: "1 Main St",
			CustomerRegion:          model.RegionEMEA,
		}
		require.NoError(t, db.Create(&c).Error)
		customers[name] = c
		for i := 0; i < orders[name]; i++ {
			orderID++
			o := model.Order{
				OrderID:         orderID,
				CustomerID:      c.CustomerID,
				OrderDate:       payment.PaymentDate,
				PaymentID:       payment.PaymentID,
				Quantity:        1,
				Price:           20,
				OrderSequenceID: int64(1000 + orderID),
			}
			require.NoError(t, db.Create(&o).Error)
		}
	}
	return customers
}

func TestTopCustomersByOrders(t *testing.T) {
	db := setupTestDB(t)
	customers := seedOrders(t, db, map[string]int{"A": 5, "B": 3, "C": 3, "D": 1}, "A", "B", "C", "D")
	store := NewSQLStore(db)
	ctx := context.Background()

	t.Run("ranks by order count with ties broken by customer id", func(t *testing.T) {
		top, err := store.TopCustomersByOrders(ctx, TopCustomersLimit)
		require.NoError(t, err)
		require.Len(t, top, 3)

		assert.Equal(t, "A", top[0].CustomerName)
		assert.Equal(t, int64(5), top[0].TotalOrders)
		assert.Equal(t, "B", top[1].CustomerName)
		assert.Equal(t, "C", top[2].CustomerName)
		assert.Equal(t, customers["B"].CustomerID, top[1].CustomerID)
		for _, row := range top {
			assert.NotEqual(t, "D", row.CustomerName)
		}
	})

	t.Run("is deterministic across calls", func(t *testing.T) {
		first, err := store.TopCustomersByOrders(ctx, TopCustomersLimit)
		require.NoError(t, err)
		second, err := store.TopCustomersByOrders(ctx, TopCustomersLimit)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("customers without orders are not listed", func(t *testing.T) {
		c := model.Customer{CustomerName: "E", CustomerRegion: model.RegionAPJ}
		require.NoError(t, db.Create(&c).Error)

		top, err := store.TopCustomersByOrders(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, top, 4)
	})
}

func TestTopCustomersByOrdersEmpty(t *testing.T) {
	store := NewSQLStore(setupTestDB(t))

	top, err := store.TopCustomersByOrders(context.Background(), TopCustomersLimit)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestAveragePriceByCategory(t *testing.T) {
	db := setupTestDB(t)
	store := NewSQLStore(db)

	products := []model.Product{
		{ProductName: "Laptop", ProductPrice: "100", ProductCategories: model.Electronics},
		{ProductName: "Camera", ProductPrice: "300", ProductCategories: model.Electronics},
		{ProductName: "Shirt", ProductPrice: "50", ProductCategories: model.Clothing},
	}
	require.NoError(t, db.Create(&products).Error)

	avg, err := store.AveragePriceByCategory(context.Background())
	require.NoError(t, err)
	require.Len(t, avg, 2)

	assert.Equal(t, model.Electronics, avg[0].Category)
	assert.InDelta(t, 200.00, avg[0].AveragePrice, 0.001)
	assert.Equal(t, model.Clothing, avg[1].Category)
	assert.InDelta(t, 50.00, avg[1].AveragePrice, 0.001)
}

func TestAveragePriceRounding(t *testing.T) {
	db := setupTestDB(t)
	store := NewSQLStore(db)

	products := []model.Product{
		{ProductName: "Sofa", ProductPrice: "10", ProductCategories: model.HomeAndFurniture},
		{ProductName: "Table", ProductPrice: "10", ProductCategories: model.HomeAndFurniture},
		{ProductName: "Bedding", ProductPrice: "11", ProductCategories: model.HomeAndFurniture},
	}
	require.NoError(t, db.Create(&products).Error)

	avg, err := store.AveragePriceByCategory(context.Background())
	require.NoError(t, err)
	require.Len(t, avg, 1)
	assert.InDelta(t, 10.33, avg[0].AveragePrice, 0.0001)
}

func TestCustomersByNamePrefix(t *testing.T) {
	db := setupTestDB(t)
	store := NewSQLStore(db)
	ctx := context.Background()

	for _, name := range []string{"Alfred", "Al_bert", "Bob", "Alice"} {
		c := model.Customer{CustomerName: name, CustomerRegion: model.RegionLATAM}
		require.NoError(t, db.Create(&c).Error)
	}

	t.Run("returns matches ordered by name", func(t *testing.T) {
		got, err := store.CustomersByNamePrefix(ctx, "", "Al", 0)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "Al_bert", got[0].CustomerName)
		assert.Equal(t, "Alfred", got[1].CustomerName)
		assert.Equal(t, "Alice", got[2].CustomerName)
	})

	t.Run("treats LIKE wildcards in the prefix literally", func(t *testing.T) {
		got, err := store.CustomersByNamePrefix(ctx, "", "Al_", 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Al_bert", got[0].CustomerName)
	})

	t.Run("honours the limit", func(t *testing.T) {
		got, err := store.CustomersByNamePrefix(ctx, "", "Al", 2)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("rejects unknown regions", func(t *testing.T) {
		got, err := store.CustomersByNamePrefix(ctx, "MARS", "Al", 0)
		require.ErrorIs(t, err, ErrUnknownRegion)
		assert.Nil(t, got)
	})
}

func TestPing(t *testing.T) {
	store := NewSQLStore(setupTestDB(t))
	assert.NoError(t, store.Ping(context.Background()))

	var uninitialised *SQLStore
	assert.Error(t, uninitialised.Ping(context.Background()))
}
