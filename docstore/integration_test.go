//go:build integration

package docstore

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func integrationCustomers(t *testing.T) *Customers {
	uri := os.Getenv("ECOMDB_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("ECOMDB_TEST_MONGO_URI not set, skipping MongoDB integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := Connect(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	c := NewCustomers(client, "ecomdb_integration", "customers", zap.NewNop().Sugar())
	_, err = c.Drop(ctx)
	require.NoError(t, err)
	return c
}

func TestIntegrationCRUD(t *testing.T) {
	c := integrationCustomers(t)
	ctx := context.Background()

	_, err := c.InsertMany(ctx, []Customer{
		{Name: "Aubrey", Region: "BR"},
		{Name: "alma", Region: "AR"},
		{Name: "Bruno", Region: "AR"},
	})
	require.NoError(t, err)

	created, err := c.Create(ctx, Customer{Name: "Nadia Rahman", Email: "nadia@example.com", Region: "US"})
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())

	before, after, err := c.Update(ctx, created.ID, bson.M{"customer_name": "Nadia R."})
	require.NoError(t, err)
	assert.Equal(t, "Nadia Rahman", before.Name)
	assert.Equal(t, "Nadia R.", after.Name)

	deleted, err := c.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nadia R.", deleted.Name)

	_, err = c.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	names, err := c.NamesByRegion(ctx, "AR")
	require.NoError(t, err)
	assert.Equal(t, []string{"alma", "Bruno"}, names)

	byPrefix, err := c.MatchNamePrefix(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, byPrefix, 2, "prefix match ignores case")

	inRegion, err := c.MatchRegion(ctx, "BR")
	require.NoError(t, err)
	require.Len(t, inRegion, 1)
	assert.Equal(t, "Aubrey", inRegion[0].Name)
}

func TestIntegrationDemo(t *testing.T) {
	c := integrationCustomers(t)

	var out bytes.Buffer
	err := Demo{
		Seed:   []Customer{{Name: "Aubrey", Region: "AR"}},
		New:    Customer{Name: "Nadia Rahman", Region: "US"},
		Update: bson.M{"customer_email": "nadia@example.com"},
		Region: "AR",
		Prefix: "A",
	}.Run(context.Background(), c, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Insertion: 1 customers inserted, 1 in collection")
	assert.Contains(t, out.String(), `Customers in region "AR": 1`)
}
