// Package docstore keeps customer documents in MongoDB alongside the
// relational database.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"ecomdb/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("customer not found")

// Customer is the document form of model.Customer. Region is free text
// here; the collection does not enforce the relational vocabulary.
type Customer struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Name            string             `bson:"customer_name" json:"customer_name"`
	Email           string             `bson:"customer_email" json:"customer_email"`
	ShippingAddress string             `bson:"customer_shipping_address" json:"customer_shipping_address"`
	Region          string             `bson:"customer_region" json:"customer_region"`
	Status          string             `bson:"status,omitempty" json:"status,omitempty"`
}

// FromModel converts a relational customer into a document.
func FromModel(c model.Customer) Customer {
	return Customer{
		Name:            c.CustomerName,
		Email:           c.CustomerEmail,
		ShippingAddress: c.CustomerShippingAddress,
		Region:          string(c.CustomerRegion),
	}
}

// Connect opens a client and checks the primary is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("docstore: connecting to %s: %w", uri, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("docstore: pinging %s: %w", uri, err)
	}
	return client, nil
}

// Customers wraps one collection. Every write waits for a majority of the
// replica set to acknowledge it.
type Customers struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *zap.SugaredLogger
}

func NewCustomers(client *mongo.Client, database, collection string, logger *zap.SugaredLogger) *Customers {
	coll := client.Database(database).Collection(collection,
		options.Collection().SetWriteConcern(writeconcern.Majority()))
	return &Customers{client: client, coll: coll, logger: logger}
}

// Drop removes the collection and reports whether it existed.
func (c *Customers) Drop(ctx context.Context) (bool, error) {
	names, err := c.coll.Database().ListCollectionNames(ctx, bson.D{{Key: "name", Value: c.coll.Name()}})
	if err != nil {
		return false, fmt.Errorf("docstore: listing collections: %w", err)
	}
	if len(names) == 0 {
		c.logger.Infof("docstore: collection %q does not exist", c.coll.Name())
		return false, nil
	}
	if err := c.coll.Drop(ctx); err != nil {
		return false, fmt.Errorf("docstore: dropping %s: %w", c.coll.Name(), err)
	}
	c.logger.Infof("docstore: collection %q dropped", c.coll.Name())
	return true, nil
}

func (c *Customers) InsertMany(ctx context.Context, customers []Customer) ([]primitive.ObjectID, error) {
	if len(customers) == 0 {
		return nil, nil
	}
	docs := make([]interface{}, len(customers))
	for i := range customers {
		docs[i] = customers[i]
	}
	res, err := c.coll.InsertMany(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("docstore: inserting %d customers: %w", len(customers), err)
	}
	ids := make([]primitive.ObjectID, 0, len(res.InsertedIDs))
	for _, id := range res.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok {
			ids = append(ids, oid)
		}
	}
	return ids, nil
}

// Create inserts one customer and returns it as stored.
func (c *Customers) Create(ctx context.Context, customer Customer) (Customer, error) {
	customer.ID = primitive.NilObjectID
	res, err := c.coll.InsertOne(ctx, customer)
	if err != nil {
		return Customer{}, fmt.Errorf("docstore: inserting customer %q: %w", customer.Name, err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return Customer{}, fmt.Errorf("docstore: unexpected id type %T", res.InsertedID)
	}
	return c.Get(ctx, id)
}

func (c *Customers) Get(ctx context.Context, id primitive.ObjectID) (Customer, error) {
	var out Customer
	err := c.coll.FindOne(ctx, byID(id)).Decode(&out)
	return out, notFound(id, err)
}

// Update applies fields with $set and returns the document before and after.
func (c *Customers) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (Customer, Customer, error) {
	var before Customer
	err := c.coll.FindOneAndUpdate(ctx, byID(id), bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.Before)).Decode(&before)
	if err != nil {
		return Customer{}, Customer{}, notFound(id, err)
	}
	after, err := c.Get(ctx, id)
	if err != nil {
		return before, Customer{}, err
	}
	return before, after, nil
}

// Delete removes a customer and returns what was deleted.
func (c *Customers) Delete(ctx context.Context, id primitive.ObjectID) (Customer, error) {
	var deleted Customer
	err := c.coll.FindOneAndDelete(ctx, byID(id)).Decode(&deleted)
	return deleted, notFound(id, err)
}

func (c *Customers) Count(ctx context.Context) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("docstore: counting customers: %w", err)
	}
	return n, nil
}

// All returns every customer in insertion order.
func (c *Customers) All(ctx context.Context) ([]Customer, error) {
	cur, err := c.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("docstore: listing customers: %w", err)
	}
	var out []Customer
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("docstore: decoding customers: %w", err)
	}
	return out, nil
}

// NamesByRegion returns the names of the customers in region.
func (c *Customers) NamesByRegion(ctx context.Context, region string) ([]string, error) {
	cur, err := c.coll.Find(ctx, RegionFilter(region),
		options.Find().SetProjection(bson.D{{Key: "customer_name", Value: 1}}).SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("docstore: finding customers in %s: %w", region, err)
	}
	var docs []Customer
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("docstore: decoding customers in %s: %w", region, err)
	}
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	return names, nil
}

// MatchRegion runs RegionPipeline.
func (c *Customers) MatchRegion(ctx context.Context, region string) ([]Customer, error) {
	return c.aggregate(ctx, RegionPipeline(region))
}

// MatchNamePrefix runs NamePrefixPipeline.
func (c *Customers) MatchNamePrefix(ctx context.Context, prefix string) ([]Customer, error) {
	return c.aggregate(ctx, NamePrefixPipeline(prefix))
}

func (c *Customers) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]Customer, error) {
	cur, err := c.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("docstore: aggregating: %w", err)
	}
	var out []Customer
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("docstore: decoding aggregation: %w", err)
	}
	return out, nil
}

// SetStatus sets status on the first customer matching either name or email.
func (c *Customers) SetStatus(ctx context.Context, name, email, status string) (int64, error) {
	res, err := c.coll.UpdateOne(ctx, NameOrEmailFilter(name, email),
		bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return 0, fmt.Errorf("docstore: setting status of %q: %w", name, err)
	}
	return res.ModifiedCount, nil
}

// WithTransaction runs fn in a session transaction with local read concern,
// majority write concern and primary reads. It needs a replica set.
func (c *Customers) WithTransaction(ctx context.Context, fn func(ctx mongo.SessionContext) error) error {
	session, err := c.client.StartSession()
	if err != nil {
		return fmt.Errorf("docstore: starting session: %w", err)
	}
	defer session.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Local()).
		SetWriteConcern(writeconcern.Majority()).
		SetReadPreference(readpref.Primary())
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, opts)
	if err != nil {
		return fmt.Errorf("docstore: transaction aborted: %w", err)
	}
	return nil
}

func byID(id primitive.ObjectID) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

func notFound(id primitive.ObjectID, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %s", ErrNotFound, id.Hex())
	}
	if err != nil {
		return fmt.Errorf("docstore: customer %s: %w", id.Hex(), err)
	}
	return nil
}

func RegionFilter(region string) bson.D {
	return bson.D{{Key: "customer_region", Value: region}}
}

// NameOrEmailFilter matches a customer by name or by email.
func NameOrEmailFilter(name, email string) bson.D {
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "customer_name", Value: name}},
		bson.D{{Key: "customer_email", Value: email}},
	}}}
}

// RegionPipeline keeps the customers of one region.
func RegionPipeline(region string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: RegionFilter(region)}},
	}
}

// NamePrefixPipeline keeps customers whose name starts with prefix, ignoring
// case. Regex metacharacters in prefix match literally.
func NamePrefixPipeline(prefix string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "customer_name", Value: primitive.Regex{
			Pattern: "^" + regexp.QuoteMeta(prefix),
			Options: "i",
		}}}}},
	}
}
