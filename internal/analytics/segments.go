package analytics

import (
	"sort"
	"time"

	"github.com/storelens/service-analytics/internal/providers"
)

// Segment names are a fixed set and part of the wire contract.
const (
	SegmentTopSpenders = "top_spenders"
	SegmentNew         = "new"
	SegmentRepeat      = "repeat"
	SegmentLapsed      = "lapsed"
)

const (
	newCustomerWindow  = 30 * 24 * time.Hour
	lapsedOrderWindow  = 90 * 24 * time.Hour
	topProductLimit    = 5
	topSpenderFraction = 0.2
)

// OrderHistoryFunc fetches one customer's order history for top-product
// attribution. The composer caps how many members are fetched; a nil
// func skips top products entirely.
type OrderHistoryFunc func(customerID string) ([]providers.Order, error)

// SegmenterConfig bounds the expensive secondary per-customer order
// fetch.
type SegmenterConfig struct {
	// OrderFetchLimit caps how many members (highest spenders first)
	// have their order history fetched per segment.
	OrderFetchLimit int
}

// BuildSegments partitions one customer snapshot into the four fixed
// cohorts. Every cohort derives from the same snapshot; nothing is
// re-fetched per segment.
func BuildSegments(customers []providers.Customer, clock Clock, history OrderHistoryFunc, cfg SegmenterConfig) []Segment {
	now := clock.Now()

	// Top spenders: descending lifetime spend, top
	// max(1, floor(20% of count)) when any customers exist.
	sorted := append([]providers.Customer{}, customers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalSpent > sorted[j].TotalSpent
	})
	topCount := 0
	if len(sorted) > 0 {
		topCount = int(float64(len(sorted)) * topSpenderFraction)
		if topCount < 1 {
			topCount = 1
		}
	}
	topSpenders := sorted[:topCount]

	var newCustomers, repeat, lapsed []providers.Customer
	cutoffNew := now.Add(-newCustomerWindow)
	cutoffLapsed := now.Add(-lapsedOrderWindow)
	for _, c := range customers {
		// Inclusive boundary: created exactly 30 days ago still counts.
		if !c.CreatedAt.Before(cutoffNew) {
			newCustomers = append(newCustomers, c)
		}
		if c.OrdersCount > 1 {
			repeat = append(repeat, c)
		}
		if c.LastOrderAt != nil && !c.LastOrderAt.After(cutoffLapsed) {
			lapsed = append(lapsed, c)
		}
	}

	return []Segment{
		summarizeSegment(SegmentTopSpenders, topSpenders, history, cfg),
		summarizeSegment(SegmentNew, newCustomers, history, cfg),
		summarizeSegment(SegmentRepeat, repeat, history, cfg),
		summarizeSegment(SegmentLapsed, lapsed, history, cfg),
	}
}

// summarizeSegment computes the per-cohort aggregates. The repeat rate
// here is segment-internal: the share of this cohort's members with
// more than one lifetime order, not the population-wide share.
func summarizeSegment(name string, members []providers.Customer, history OrderHistoryFunc, cfg SegmenterConfig) Segment {
	seg := Segment{
		Name:          name,
		CustomerCount: len(members),
		TopProductIDs: []string{},
	}

	var repeaters int
	for _, m := range members {
		seg.TotalRevenue += m.TotalSpent
		if m.OrdersCount > 1 {
			repeaters++
		}
	}
	if len(members) > 0 {
		seg.AverageOrderValue = seg.TotalRevenue / float64(len(members))
		seg.RepeatPurchaseRate = float64(repeaters) / float64(len(members)) * 100
	}

	seg.TopProductIDs = topProducts(members, history, cfg)
	return seg
}

// topProducts ranks products by cumulative quantity purchased across
// the segment's members, ties broken by encounter order over the scan.
// The per-customer order fetch is expensive, so only the highest
// spenders up to the configured cap are consulted.
func topProducts(members []providers.Customer, history OrderHistoryFunc, cfg SegmenterConfig) []string {
	if history == nil || len(members) == 0 {
		return []string{}
	}

	fetchLimit := cfg.OrderFetchLimit
	if fetchLimit <= 0 || fetchLimit > len(members) {
		fetchLimit = len(members)
	}

	scan := append([]providers.Customer{}, members...)
	sort.SliceStable(scan, func(i, j int) bool {
		return scan[i].TotalSpent > scan[j].TotalSpent
	})
	scan = scan[:fetchLimit]

	type tally struct {
		quantity int64
		seen     int
	}
	quantities := make(map[string]*tally)
	order := 0

	for _, m := range scan {
		orders, err := history(m.ID)
		if err != nil {
			// Best effort: a failed member fetch costs that member's
			// contribution, not the whole segment.
			continue
		}
		for _, o := range orders {
			for _, li := range o.LineItems {
				if li.ProductID == "" {
					continue
				}
				t, ok := quantities[li.ProductID]
				if !ok {
					t = &tally{seen: order}
					order++
					quantities[li.ProductID] = t
				}
				t.quantity += li.Quantity
			}
		}
	}

	ids := make([]string, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := quantities[ids[i]], quantities[ids[j]]
		if a.quantity != b.quantity {
			return a.quantity > b.quantity
		}
		return a.seen < b.seen
	})

	if len(ids) > topProductLimit {
		ids = ids[:topProductLimit]
	}
	return ids
}
