package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

type Region string

const (
	RegionLATAM Region = "LATAM"
	RegionEMEA  Region = "EMEA"
	RegionAPJ   Region = "APJ"
)

// Regions lists every known region in the order replica tables are declared.
var Regions = []Region{RegionLATAM, RegionEMEA, RegionAPJ}

// IsValid returns true if Region is known
func (r Region) IsValid() bool {
	switch r {
	case RegionLATAM, RegionEMEA, RegionAPJ:
		return true
	}
	return false
}

func (r *Region) Scan(value interface{ any }) error {
	v, err := scanString(value, "Region")
	if err != nil {
		return err
	}
	*r = Region(v)
	return nil
}

func (r Region) Value() (driver.Value, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid Region %q", r)
	}
	return string(r), nil
}

type Category string

const (
	Electronics      Category = "Electronics"
	Clothing         Category = "Clothing"
	HomeAndFurniture Category = "Home and Furniture"
)

var Categories = []Category{Electronics, Clothing, HomeAndFurniture}

func (c Category) IsValid() bool {
	switch c {
	case Electronics, Clothing, HomeAndFurniture:
		return true
	}
	return false
}

// ProductNames returns the product names sold under the category.
func (c Category) ProductNames() []string {
	switch c {
	case Electronics:
		return []string{"Smartphone", "Laptop", "Camera"}
	case Clothing:
		return []string{"Shirt", "Dress", "Shoes"}
	case HomeAndFurniture:
		return []string{"Sofa", "Table", "Bedding"}
	}
	return nil
}

func (c *Category) Scan(value interface{ any }) error {
	v, err := scanString(value, "Category")
	if err != nil {
		return err
	}
	*c = Category(v)
	return nil
}

func (c Category) Value() (driver.Value, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("invalid Category %q", c)
	}
	return string(c), nil
}

type PaymentMode string

const (
	CreditCard PaymentMode = "Credit Card"
	PayPal     PaymentMode = "PayPal"
	Cash       PaymentMode = "Cash"
)

var PaymentModes = []PaymentMode{CreditCard, PayPal, Cash}

func (m PaymentMode) IsValid() bool {
	switch m {
	case CreditCard, PayPal, Cash:
		return true
	}
	return false
}

func (m *PaymentMode) Scan(value interface{ any }) error {
	v, err := scanString(value, "PaymentMode")
	if err != nil {
		return err
	}
	*m = PaymentMode(v)
	return nil
}

func (m PaymentMode) Value() (driver.Value, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("invalid PaymentMode %q", m)
	}
	return string(m), nil
}

func scanString(value interface{ any }, typeName string) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	return "", fmt.Errorf("cannot scan %T into %s", value, typeName)
}

// A Customer places orders. The region is the key used to pick the
// customer's regional replica table.
type Customer struct {
	CustomerID              uint   `gorm:"column:customer_id;primaryKey"`
	CustomerName            string `gorm:"size:255"`
	CustomerEmail           string `gorm:"size:255"`
	CustomerShippingAddress string `gorm:"size:255"`
	CustomerRegion          Region `gorm:"type:varchar(255)"`
}

func (Customer) TableName() string { return "customer" }

type Payment struct {
	PaymentID   uint        `gorm:"column:payment_id;primaryKey"`
	PaymentDate time.Time   `gorm:"type:date"`
	PaymentMode PaymentMode `gorm:"type:varchar(255)"`
}

func (Payment) TableName() string { return "payments" }

// An Order is keyed by (OrderID, OrderSequenceID). OrderSequenceID is also
// unique on its own and is what order items point at.
type Order struct {
	OrderID         int       `gorm:"column:order_id;primaryKey;autoIncrement:false;uniqueIndex"`
	CustomerID      uint      `gorm:"index"`
	OrderDate       time.Time `gorm:"type:date"`
	PaymentID       uint      `gorm:"index"`
	Quantity        int
	Price           int
	OrderSequenceID int64     `gorm:"column:order_sequence_id;primaryKey;autoIncrement:false;uniqueIndex"`
}

func (Order) TableName() string { return "orders" }

// Product prices are stored as text; every consumer casts them to numeric.
type Product struct {
	ProductID         uint     `gorm:"column:product_id;primaryKey"`
	ProductName       string   `gorm:"size:255"`
	ProductPrice      string   `gorm:"size:255"`
	ProductCategories Category `gorm:"column:product_categories;type:varchar(255)"`
}

func (Product) TableName() string { return "products" }

type OrderItem struct {
	OrderItemID     uint  `gorm:"column:orderitem_id;primaryKey"`
	OrderSequenceID int64 `gorm:"column:order_sequence_id;index"`
	ProductID       uint  `gorm:"index"`
}

func (OrderItem) TableName() string { return "orderitems" }

// Shipment carries a copy of the customer's address and region so the
// vertical partitioning demo has something to split.
type Shipment struct {
	ShippingID              uint      `gorm:"column:shipping_id;primaryKey"`
	OrderID                 int       `gorm:"index"`
	ShipmentDate            time.Time `gorm:"type:date"`
	CustomerShippingAddress string    `gorm:"size:255"`
	CustomerRegion          Region    `gorm:"type:varchar(255)"`
}

func (Shipment) TableName() string { return "shipments" }

// CustomerOrderCount is one row of the top-customers report.
type CustomerOrderCount struct {
	CustomerID   uint
	CustomerName string
	TotalOrders  int64
}

// CategoryAverage is one row of the average-price report.
type CategoryAverage struct {
	Category     Category
	AveragePrice float64
}

// PartitionCount is the number of rows held by one derived table.
type PartitionCount struct {
	Table string
	Rows  int64
}

// ReplicaCount compares a region's rows in customer with its replica.
type ReplicaCount struct {
	Region  Region
	Table   string
	Base    int64
	Replica int64
}

// InSync is true when the replica holds exactly the base rows of its region.
func (c ReplicaCount) InSync() bool {
	return c.Base == c.Replica
}
