package analytics

import (
	"github.com/storelens/service-analytics/internal/providers"
)

// Rollup is the aggregated numeric summary for one scope and window.
// Field names are the dashboard wire contract.
type Rollup struct {
	Revenue           float64 `json:"revenue"`
	OrderCount        int64   `json:"order_count"`
	UnitsSold         int64   `json:"units_sold"`
	Sessions          int64   `json:"sessions"`
	Views             int64   `json:"views"`
	AddToCarts        int64   `json:"add_to_carts"`
	ConversionRate    float64 `json:"conversion_rate"`
	AverageOrderValue float64 `json:"average_order_value"`
	AddToCartRate     float64 `json:"add_to_cart_rate"`
	CartToOrderRate   float64 `json:"cart_to_order_rate"`
	EstimatedTraffic  bool    `json:"estimated_traffic"`
}

// OrderTotals returns the order count and units sold for the given
// scope, before any traffic source is consulted. An empty productID
// means shop scope.
func OrderTotals(orders []providers.Order, productID string) providers.OrderStats {
	var stats providers.OrderStats
	for _, o := range orders {
		if productID == "" {
			stats.OrderCount++
			for _, li := range o.LineItems {
				stats.UnitsSold += li.Quantity
			}
			continue
		}

		matched := false
		for _, li := range o.LineItems {
			if li.ProductID != productID {
				continue
			}
			matched = true
			stats.UnitsSold += li.Quantity
		}
		if matched {
			stats.OrderCount++
		}
	}
	return stats
}

// ComputeShopRollup aggregates a window's orders at shop scope.
// Revenue sums order-level totals.
func ComputeShopRollup(orders []providers.Order, traffic providers.TrafficStats) Rollup {
	var revenue float64
	for _, o := range orders {
		revenue += o.TotalPrice
	}
	return finishRollup(revenue, OrderTotals(orders, ""), traffic)
}

// ComputeProductRollup aggregates a window's orders for one product.
// Revenue sums line-item unit price times quantity over matching
// lines: unlike the order-total sum used at shop scope, this
// partitions each order's revenue across the products it contains.
func ComputeProductRollup(orders []providers.Order, productID string, traffic providers.TrafficStats) Rollup {
	var revenue float64
	for _, o := range orders {
		for _, li := range o.LineItems {
			if li.ProductID != productID {
				continue
			}
			revenue += li.UnitPrice * float64(li.Quantity)
		}
	}
	return finishRollup(revenue, OrderTotals(orders, productID), traffic)
}

// finishRollup derives the ratio metrics. Zero denominators yield 0
// rather than failing; conversion is clamped at 100 so a traffic
// source that undercounts sessions cannot surface a >100% rate.
func finishRollup(revenue float64, stats providers.OrderStats, traffic providers.TrafficStats) Rollup {
	r := Rollup{
		Revenue:          revenue,
		OrderCount:       stats.OrderCount,
		UnitsSold:        stats.UnitsSold,
		Sessions:         traffic.Sessions,
		Views:            traffic.Views,
		AddToCarts:       traffic.AddToCarts,
		EstimatedTraffic: traffic.Estimated,
	}

	if traffic.Sessions > 0 {
		r.ConversionRate = float64(stats.OrderCount) / float64(traffic.Sessions) * 100
		if r.ConversionRate > 100 {
			r.ConversionRate = 100
		}
	}
	if stats.OrderCount > 0 {
		r.AverageOrderValue = revenue / float64(stats.OrderCount)
	}
	if traffic.Views > 0 {
		r.AddToCartRate = float64(traffic.AddToCarts) / float64(traffic.Views) * 100
	}
	if traffic.AddToCarts > 0 {
		r.CartToOrderRate = float64(stats.UnitsSold) / float64(traffic.AddToCarts) * 100
	}
	return r
}
