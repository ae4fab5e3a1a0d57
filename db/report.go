package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"ecomdb/metrics"

	"go.uber.org/zap"
)

const TopCustomersLimit = 3

// RunQueries prints the two reports. A failing query is logged and printed
// as "no rows"; the errors are returned joined once both reports ran.
func RunQueries(ctx context.Context, store Store, w io.Writer, logger *zap.SugaredLogger) error {
	var errs []error

	printHeader(w, fmt.Sprintf("Query 1: Top %d Customers based on Total Orders", TopCustomersLimit))
	top, err := store.TopCustomersByOrders(ctx, TopCustomersLimit)
	if err != nil {
		logger.Errorf("queries: %v", err)
		errs = append(errs, err)
	}
	if len(top) == 0 {
		fmt.Fprintln(w, "no rows")
	}
	for _, row := range top {
		fmt.Fprintf(w, "%s: %d orders\n", row.CustomerName, row.TotalOrders)
	}

	printHeader(w, "Query 2: Product Categories and Average Price")
	avg, err := store.AveragePriceByCategory(ctx)
	if err != nil {
		logger.Errorf("queries: %v", err)
		errs = append(errs, err)
	}
	if len(avg) == 0 {
		fmt.Fprintln(w, "no rows")
	}
	for _, row := range avg {
		fmt.Fprintf(w, "%s: $%.2f\n", row.Category, row.AveragePrice)
	}

	return errors.Join(errs...)
}

func printHeader(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
}

// Verify checks that every product sits in exactly one price band and every
// customer in exactly one regional replica, printing the counts it used.
func Verify(ctx context.Context, store Store, w io.Writer, logger *zap.SugaredLogger, mc *metrics.Collector) error {
	var errs []error

	printHeader(w, "Partitions")
	counts, err := store.PartitionCounts(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	for _, c := range counts {
		fmt.Fprintf(w, "%s: %d rows\n", c.Table, c.Rows)
		mc.SetPartitionRows(c.Table, c.Rows)
		if c.Table == "products" && c.Rows != 0 {
			errs = append(errs, fmt.Errorf("verify: %d rows left in the products parent table", c.Rows))
		}
	}
	dups, err := store.DuplicateProducts(ctx)
	if err != nil {
		errs = append(errs, err)
	} else if dups != 0 {
		errs = append(errs, fmt.Errorf("verify: %d products stored in more than one partition", dups))
	}

	printHeader(w, "Replicas")
	replicas, err := store.ReplicaCounts(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	for _, c := range replicas {
		fmt.Fprintf(w, "%s: %d of %d customers\n", c.Table, c.Replica, c.Base)
		mc.SetPartitionRows(c.Table, c.Replica)
		if !c.InSync() {
			errs = append(errs, fmt.Errorf("verify: %s holds %d rows, customer has %d in %s", c.Table, c.Replica, c.Base, c.Region))
		}
	}

	err = errors.Join(errs...)
	if err != nil {
		logger.Warnf("verify: %v", err)
		return err
	}
	logger.Info("verify: partitions and replicas consistent")
	return nil
}
