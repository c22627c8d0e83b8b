package analytics

import (
	"time"

	"github.com/storelens/service-analytics/internal/providers"
)

// ProductRecord is one product entry in the snapshot, keyed by handle.
type ProductRecord struct {
	ID                string            `json:"id"`
	Handle            string            `json:"handle"`
	Title             string            `json:"title"`
	Status            string            `json:"status"`
	Vendor            string            `json:"vendor,omitempty"`
	Price             float64           `json:"price"`
	StockQuantity     int64             `json:"stock_quantity"`
	ImageURL          string            `json:"image_url,omitempty"`
	Categories        []string          `json:"categories"`
	PrimaryCategory   string            `json:"primary_category,omitempty"`
	SecondaryCategory string            `json:"secondary_category,omitempty"`
	Analytics         map[Period]Rollup `json:"analytics"`
}

// CategoryAnalytics is the per-window summary for one category.
type CategoryAnalytics struct {
	Revenue    float64 `json:"revenue"`
	OrderCount int64   `json:"order_count"`
	UnitsSold  int64   `json:"units_sold"`
}

// CategoryRecord is one category entry in the snapshot, keyed by
// handle. Synthetic brand categories derived from product vendors use
// a "brand_" handle prefix.
type CategoryRecord struct {
	ID           string                       `json:"id"`
	Title        string                       `json:"title"`
	Handle       string                       `json:"handle"`
	ProductCount int64                        `json:"product_count"`
	Synthetic    bool                         `json:"synthetic,omitempty"`
	Analytics    map[Period]CategoryAnalytics `json:"analytics"`
}

// Segment is a derived customer cohort.
type Segment struct {
	Name               string   `json:"name"`
	CustomerCount      int      `json:"customer_count"`
	TotalRevenue       float64  `json:"total_revenue"`
	AverageOrderValue  float64  `json:"average_order_value"`
	RepeatPurchaseRate float64  `json:"repeat_purchase_rate"`
	TopProductIDs      []string `json:"top_product_ids"`
}

// Snapshot is the complete analytics result document for one store at
// one point in time. It is produced fresh per build, never mutated
// afterwards, and has no persistence beyond the short-lived cache.
type Snapshot struct {
	StoreID       string                     `json:"store_id"`
	GeneratedAt   time.Time                  `json:"generated_at"`
	SessionSource string                     `json:"session_source"`
	Shop          *providers.ShopInfo        `json:"shop"`
	Metrics       map[Period]Rollup          `json:"metrics"`
	Products      map[string]*ProductRecord  `json:"products"`
	Categories    map[string]*CategoryRecord `json:"categories"`
	DailySessions []providers.SessionRecord  `json:"daily_sessions"`
	Segments      []Segment                  `json:"segments"`
}
