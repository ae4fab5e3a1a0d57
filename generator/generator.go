// Package generator produces synthetic e-commerce records for the populator.
package generator

import (
	"strconv"
	"time"

	"ecomdb/model"

	"github.com/brianvoe/gofakeit/v7"
)

const (
	MinPrice    = 10
	MaxPrice    = 500
	MinQuantity = 1
	MaxQuantity = 10

	// OrderWindow bounds how far in the past an order date may fall.
	OrderWindow = 30 * 24 * time.Hour

	// sequenceStride leaves room for this many orders per run epoch.
	sequenceStride = 1_000_000
)

// Record is one synthetic row set: a customer, a payment, an order, a
// product and the order's shipment.
type Record struct {
	Customer        model.Customer
	Payment         model.Payment
	OrderDate       time.Time
	Quantity        int
	OrderPrice      int
	OrderSequenceID int64
	Product         model.Product
	ShipmentDate    time.Time
}

// Source is anything that can hand out records one at a time.
type Source interface {
	Next() Record
}

// Faker is a Source backed by gofakeit. It is not safe for concurrent use.
type Faker struct {
	f     *gofakeit.Faker
	now   func() time.Time
	epoch int64
	seq   int64
}

// NewFaker returns a Faker seeded with seed; zero picks a random seed.
func NewFaker(seed uint64) *Faker {
	return NewFakerAt(seed, time.Now)
}

// NewFakerAt is NewFaker with an injectable clock.
func NewFakerAt(seed uint64, now func() time.Time) *Faker {
	return &Faker{
		f:     gofakeit.New(seed),
		now:   now,
		epoch: now().Unix(),
	}
}

// Next returns a record whose every field satisfies the schema checks.
func (g *Faker) Next() Record {
	today := truncateDay(g.now())
	orderDate := truncateDay(g.f.DateRange(today.Add(-OrderWindow), today))
	shipmentDate := truncateDay(g.f.DateRange(orderDate, today))

	region := model.Regions[g.f.IntRange(0, len(model.Regions)-1)]
	category := model.Categories[g.f.IntRange(0, len(model.Categories)-1)]
	mode := model.PaymentModes[g.f.IntRange(0, len(model.PaymentModes)-1)]

	g.seq++
	return Record{
		Customer: model.Customer{
			CustomerName:            g.f.Name(),
			CustomerEmail:           g.f.Email(),
			CustomerShippingAddress: g.f.Address().Address,
			CustomerRegion:          region,
		},
		Payment: model.Payment{
			PaymentDate: orderDate,
			PaymentMode: mode,
		},
		OrderDate:       orderDate,
		Quantity:        g.f.IntRange(MinQuantity, MaxQuantity),
		OrderPrice:      g.f.IntRange(MinPrice, MaxPrice),
		OrderSequenceID: g.epoch*sequenceStride + g.seq,
		Product: model.Product{
			ProductName:       g.f.RandomString(category.ProductNames()),
			ProductPrice:      strconv.Itoa(g.f.IntRange(MinPrice, MaxPrice)),
			ProductCategories: category,
		},
		ShipmentDate: shipmentDate,
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Slice is a Source replaying fixed records, looping when exhausted.
type Slice []Record

func (s *Slice) Next() Record {
	r := (*s)[0]
	*s = append((*s)[1:], r)
	return r
}
