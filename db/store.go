package db

import (
	"context"

	"ecomdb/model"
)

// Store is the read side used by the report and verification steps.
type Store interface {
	Ping(ctx context.Context) error
	TopCustomersByOrders(ctx context.Context, limit int) ([]model.CustomerOrderCount, error)
	AveragePriceByCategory(ctx context.Context) ([]model.CategoryAverage, error)
	CustomersByNamePrefix(ctx context.Context, region model.Region, prefix string, limit int) ([]model.Customer, error)
	PartitionCounts(ctx context.Context) ([]model.PartitionCount, error)
	DuplicateProducts(ctx context.Context) (int64, error)
	ReplicaCounts(ctx context.Context) ([]model.ReplicaCount, error)
}
