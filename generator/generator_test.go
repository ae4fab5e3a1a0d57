package generator

import (
	"strconv"
	"testing"
	"time"

	"ecomdb/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock() time.Time {
	return time.Date(2024, 7, 15, 18, 30, 0, 0, time.UTC)
}

func TestFakerRecords(t *testing.T) {
	g := NewFakerAt(42, clock)
	today := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	seen := map[int64]bool{}

	for i := 0; i < 500; i++ {
		r := g.Next()

		assert.True(t, r.Customer.CustomerRegion.IsValid())
		assert.True(t, r.Payment.PaymentMode.IsValid())
		assert.True(t, r.Product.ProductCategories.IsValid())
		assert.Contains(t, r.Product.ProductCategories.ProductNames(), r.Product.ProductName)
		assert.NotEmpty(t, r.Customer.CustomerName)
		assert.NotEmpty(t, r.Customer.CustomerEmail)

		assert.GreaterOrEqual(t, r.Quantity, MinQuantity)
		assert.LessOrEqual(t, r.Quantity, MaxQuantity)
		assert.GreaterOrEqual(t, r.OrderPrice, MinPrice)
		assert.LessOrEqual(t, r.OrderPrice, MaxPrice)

		price, err := strconv.Atoi(r.Product.ProductPrice)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, price, MinPrice)
		assert.LessOrEqual(t, price, MaxPrice)

		assert.False(t, r.OrderDate.Before(today.Add(-OrderWindow)), "order date %v", r.OrderDate)
		assert.False(t, r.OrderDate.After(today))
		assert.False(t, r.ShipmentDate.Before(r.OrderDate), "shipment %v before order %v", r.ShipmentDate, r.OrderDate)
		assert.False(t, r.ShipmentDate.After(today))
		assert.Equal(t, r.OrderDate, r.Payment.PaymentDate)
		assert.Equal(t, r.OrderDate, truncateDay(r.OrderDate))

		assert.False(t, seen[r.OrderSequenceID], "duplicate sequence id %d", r.OrderSequenceID)
		seen[r.OrderSequenceID] = true
	}
}

func TestFakerIsDeterministic(t *testing.T) {
	a, b := NewFakerAt(7, clock), NewFakerAt(7, clock)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Next(), b.Next())
	}
}

func TestSequenceIDsDifferAcrossRuns(t *testing.T) {
	later := func() time.Time { return clock().Add(time.Minute) }
	first := NewFakerAt(7, clock).Next()
	second := NewFakerAt(7, later).Next()
	assert.NotEqual(t, first.OrderSequenceID, second.OrderSequenceID)
}

func TestSliceLoops(t *testing.T) {
	s := Slice{
		{Quantity: 1},
		{Quantity: 2},
	}
	var got []int
	for i := 0; i < 5; i++ {
		got = append(got, s.Next().Quantity)
	}
	assert.Equal(t, []int{1, 2, 1, 2, 1}, got)
}

func TestRegionsCovered(t *testing.T) {
	g := NewFakerAt(1, clock)
	seen := map[model.Region]bool{}
	for i := 0; i < 200; i++ {
		seen[g.Next().Customer.CustomerRegion] = true
	}
	assert.Len(t, seen, len(model.Regions))
}
