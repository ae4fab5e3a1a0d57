package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ecomdb/model"

	"gorm.io/gorm"
)

type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

var _ Store = (*SQLStore)(nil)

// Ping verifies the underlying database connection is healthy.
func (s *SQLStore) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sql store is not initialized")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// TopCustomersByOrders returns the customers with the most orders. Ties
// are broken by customer id so the ranking is stable between runs.
func (s *SQLStore) TopCustomersByOrders(ctx context.Context, limit int) ([]model.CustomerOrderCount, error) {
	var rows []model.CustomerOrderCount
	err := s.db.WithContext(ctx).Raw(`
SELECT c.customer_id, c.customer_name, COUNT(o.order_id) AS total_orders
FROM customer c
JOIN orders o ON c.customer_id = o.customer_id
GROUP BY c.customer_id, c.customer_name
ORDER BY total_orders DESC, c.customer_id ASC
LIMIT ?`, limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying top customers: %w", err)
	}
	return rows, nil
}

// AveragePriceByCategory returns the mean product price of each category,
// highest first. Reading products includes its partitions.
func (s *SQLStore) AveragePriceByCategory(ctx context.Context) ([]model.CategoryAverage, error) {
	var rows []model.CategoryAverage
	err := s.db.WithContext(ctx).Raw(`
SELECT p.product_categories AS category, ROUND(AVG(CAST(p.product_price AS NUMERIC)), 2) AS average_price
FROM products p
GROUP BY p.product_categories
ORDER BY average_price DESC, category ASC`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying average price by category: %w", err)
	}
	return rows, nil
}

// CustomersByNamePrefix looks customers up by case-sensitive name prefix,
// in the regional replica when region is set and in customer otherwise.
// A non-positive limit returns every match.
func (s *SQLStore) CustomersByNamePrefix(ctx context.Context, region model.Region, prefix string, limit int) ([]model.Customer, error) {
	table := model.Customer{}.TableName()
	if region != "" {
		t, err := ReplicaTable(region)
		if err != nil {
			return nil, err
		}
		table = t
	}
	if limit <= 0 {
		limit = -1
	}
	var customers []model.Customer
	err := s.db.WithContext(ctx).
		Table(table).
		Where(`customer_name LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%").
		Order("customer_name, customer_id").
		Limit(limit).
		Find(&customers).Error
	if err != nil {
		return nil, fmt.Errorf("looking up %s by name prefix %q: %w", table, prefix, err)
	}
	return customers, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// PartitionCounts returns the rows held by each price band and, first, by
// the products parent itself, which should stay empty.
func (s *SQLStore) PartitionCounts(ctx context.Context) ([]model.PartitionCount, error) {
	tables := []string{model.Product{}.TableName()}
	for _, b := range PriceBands {
		tables = append(tables, b.Table)
	}
	counts := make([]model.PartitionCount, 0, len(tables))
	for _, t := range tables {
		var n int64
		if err := s.db.WithContext(ctx).Raw("SELECT COUNT(*) FROM ONLY " + t).Scan(&n).Error; err != nil {
			return nil, fmt.Errorf("counting %s: %w", t, err)
		}
		counts = append(counts, model.PartitionCount{Table: t, Rows: n})
	}
	return counts, nil
}

// DuplicateProducts counts product ids stored in more than one table of
// the products hierarchy.
func (s *SQLStore) DuplicateProducts(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Raw(`
SELECT COUNT(*) FROM (
    SELECT product_id FROM products GROUP BY product_id HAVING COUNT(*) > 1
) d`).Scan(&n).Error
	if err != nil {
		return 0, fmt.Errorf("counting duplicate products: %w", err)
	}
	return n, nil
}

// ReplicaCounts compares every region of customer with its replica.
func (s *SQLStore) ReplicaCounts(ctx context.Context) ([]model.ReplicaCount, error) {
	counts := make([]model.ReplicaCount, 0, len(model.Regions))
	for _, r := range model.Regions {
		t, err := ReplicaTable(r)
		if err != nil {
			return nil, err
		}
		c := model.ReplicaCount{Region: r, Table: t}
		if err := s.db.WithContext(ctx).Model(&model.Customer{}).Where("customer_region = ?", r).Count(&c.Base).Error; err != nil {
			return nil, fmt.Errorf("counting customers in %s: %w", r, err)
		}
		if err := s.db.WithContext(ctx).Table(t).Count(&c.Replica).Error; err != nil {
			return nil, fmt.Errorf("counting %s: %w", t, err)
		}
		counts = append(counts, c)
	}
	return counts, nil
}
