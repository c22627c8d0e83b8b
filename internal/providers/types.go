// Package providers defines the neutral commerce records exchanged
// between the merchant platform client and the analytics core, plus the
// provider contract the composer is built against.
package providers

import (
	"context"
	"time"
)

// ShopInfo is the store-level metadata returned by the platform.
type ShopInfo struct {
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	Currency string `json:"currency"`
	Plan     string `json:"plan"`
}

// LineItem is one line of an order.
type LineItem struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int64   `json:"quantity"`
}

// Order is an immutable point-in-time order record, scoped to the
// query window it was retrieved for.
type Order struct {
	ID         string     `json:"id"`
	CustomerID string     `json:"customer_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	TotalPrice float64    `json:"total_price"`
	LineItems  []LineItem `json:"line_items"`
}

// Product is a point-in-time snapshot of an upstream product.
type Product struct {
	ID            string  `json:"id"`
	Handle        string  `json:"handle"`
	Title         string  `json:"title"`
	Status        string  `json:"status"`
	Vendor        string  `json:"vendor"`
	Price         float64 `json:"price"`
	StockQuantity int64   `json:"stock_quantity"`
	ImageURL      string  `json:"image_url"`
}

// Collection is the platform's product grouping (a category).
type Collection struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Handle       string `json:"handle"`
	ProductCount int64  `json:"product_count"`
}

// Collect is one collection membership edge: the product belongs to
// the collection.
type Collect struct {
	CollectionID string `json:"collection_id"`
	ProductID    string `json:"product_id"`
}

// Customer is a customer record with lifetime aggregates as reported
// by the platform.
type Customer struct {
	ID          string     `json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	TotalSpent  float64    `json:"total_spent"`
	OrdersCount int64      `json:"orders_count"`
	LastOrderAt *time.Time `json:"last_order_at,omitempty"`
}

// SessionRecord is one day of store traffic.
type SessionRecord struct {
	Date      string `json:"date"`
	Sessions  int64  `json:"sessions"`
	Views     int64  `json:"views"`
	Estimated bool   `json:"estimated"`
}

// OrderStats summarizes the order activity a traffic figure is scoped
// to (shop-wide or a single product).
type OrderStats struct {
	OrderCount int64
	UnitsSold  int64
}

// TrafficStats holds the session/view/basket figures for one scope and
// window. Estimated marks synthesized numbers so they are never
// presented as measured data.
type TrafficStats struct {
	Sessions   int64
	Views      int64
	AddToCarts int64
	Estimated  bool
}

// OrderListParams filters an order listing.
type OrderListParams struct {
	CreatedAtMin time.Time
	CreatedAtMax time.Time
	Status       string
	Limit        int
}

// ProductListParams controls a product listing.
type ProductListParams struct {
	Limit int
}

// MerchantProvider is the upstream surface the analytics composer is
// built against. The merchant package implements it over the platform
// REST API; tests substitute fakes.
type MerchantProvider interface {
	GetShopInfo(ctx context.Context) (*ShopInfo, error)
	ListOrders(ctx context.Context, params OrderListParams) ([]Order, error)
	ListProducts(ctx context.Context, params ProductListParams) ([]Product, error)
	ListCollections(ctx context.Context) ([]Collection, error)
	ListCollects(ctx context.Context) ([]Collect, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	ListCustomerOrders(ctx context.Context, customerID string) ([]Order, error)
	Sessions() SessionDataSource
}
