package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"ecomdb/generator"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// StatusProcessed is set on the transaction demo customer.
const StatusProcessed = "processed"

// LoadJSON reads a JSON array of customers.
func LoadJSON(r io.Reader) ([]Customer, error) {
	var customers []Customer
	if err := json.NewDecoder(r).Decode(&customers); err != nil {
		return nil, fmt.Errorf("docstore: decoding customers: %w", err)
	}
	return customers, nil
}

// Generate draws n customers from src.
func Generate(src generator.Source, n int) []Customer {
	out := make([]Customer, n)
	for i := range out {
		out[i] = FromModel(src.Next().Customer)
	}
	return out
}

// Demo describes one run of the document store walkthrough.
type Demo struct {
	Seed []Customer
	// New is created, read, updated with Update and finally deleted.
	New    Customer
	Update bson.M
	// Region and Prefix drive the lookups after the round-trip.
	Region string
	Prefix string
	// Transaction runs the insert-then-mark-processed sequence in a
	// session. It needs a replica set deployment.
	Transaction bool
}

// Run drops the collection, seeds it and walks through every operation,
// printing each result to w.
func (d Demo) Run(ctx context.Context, c *Customers, w io.Writer) error {
	if _, err := c.Drop(ctx); err != nil {
		return err
	}

	ids, err := c.InsertMany(ctx, d.Seed)
	if err != nil {
		return err
	}
	total, err := c.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nInsertion: %d customers inserted, %d in collection\n", len(ids), total)

	created, err := c.Create(ctx, d.New)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nCreate: %s\n", format(created))

	got, err := c.Get(ctx, created.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nRetrieve: %s\n", format(got))

	before, after, err := c.Update(ctx, created.ID, d.Update)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nUpdate:\n  before: %s\n  after:  %s\n", format(before), format(after))

	deleted, err := c.Delete(ctx, created.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nDelete: %s\n", format(deleted))

	names, err := c.NamesByRegion(ctx, d.Region)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nCustomer names in %s: %d\n", d.Region, len(names))
	for _, n := range names {
		fmt.Fprintf(w, "  %s\n", n)
	}

	inRegion, err := c.MatchRegion(ctx, d.Region)
	if err != nil {
		return err
	}
	printAll(w, fmt.Sprintf("Customers in region %q", d.Region), inRegion)

	byPrefix, err := c.MatchNamePrefix(ctx, d.Prefix)
	if err != nil {
		return err
	}
	printAll(w, fmt.Sprintf("Customers with names starting with %q", d.Prefix), byPrefix)

	if d.Transaction {
		if err := d.runTransaction(ctx, c, w); err != nil {
			return err
		}
	}
	return nil
}

func (d Demo) runTransaction(ctx context.Context, c *Customers, w io.Writer) error {
	doc := d.New
	err := c.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := c.coll.InsertOne(sc, doc); err != nil {
			return err
		}
		_, err := c.SetStatus(sc, doc.Name, doc.Email, StatusProcessed)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nTransaction committed: %q marked %s\n", doc.Name, StatusProcessed)
	return nil
}

func format(c Customer) string {
	s := fmt.Sprintf("%s %s <%s> %s, %s", c.ID.Hex(), c.Name, c.Email, c.ShippingAddress, c.Region)
	if c.Status != "" {
		s += " [" + c.Status + "]"
	}
	return s
}

func printAll(w io.Writer, title string, customers []Customer) {
	fmt.Fprintf(w, "\n%s: %d\n", title, len(customers))
	for _, c := range customers {
		fmt.Fprintf(w, "  %s\n", format(c))
	}
}
