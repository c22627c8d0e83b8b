package analytics

import (
	"github.com/storelens/service-analytics/internal/providers"
)

// BrandHandlePrefix keys the synthetic vendor-derived categories.
const BrandHandlePrefix = "brand_"

// TrafficFunc supplies traffic figures for a period and order scope.
// The composer wraps the configured SessionDataSource into this shape
// so the assembly stays free of I/O.
type TrafficFunc func(period Period, stats providers.OrderStats) providers.TrafficStats

// BuildMembership expands the collect edges into lookup maps:
// product ID to collection handles (in discovery order) and collection
// handle to product IDs. Edges pointing at unknown collections are
// dropped.
func BuildMembership(collections []providers.Collection, collects []providers.Collect) (byProduct map[string][]string, byCategory map[string][]string) {
	handleByID := make(map[string]string, len(collections))
	for _, c := range collections {
		handleByID[c.ID] = c.Handle
	}

	byProduct = make(map[string][]string)
	byCategory = make(map[string][]string)
	for _, edge := range collects {
		handle, ok := handleByID[edge.CollectionID]
		if !ok {
			continue
		}
		byProduct[edge.ProductID] = append(byProduct[edge.ProductID], handle)
		byCategory[handle] = append(byCategory[handle], edge.ProductID)
	}
	return byProduct, byCategory
}

// AssembleProducts builds the handle-keyed product map. The handle is
// the aggregate key as delivered upstream: an absent or duplicate
// handle means last write wins, a known upstream weakness kept
// deliberately rather than papered over. A product with no vendor and
// no collections gets an empty category list, not an error.
//
// Classification heuristics are a fallback, not authoritative: the
// first category discovered becomes primary, the second secondary, and
// the vendor yields a synthetic brand category.
func AssembleProducts(products []providers.Product, categoriesByProduct map[string][]string) map[string]*ProductRecord {
	records := make(map[string]*ProductRecord, len(products))
	for _, p := range products {
		categories := append([]string{}, categoriesByProduct[p.ID]...)

		record := &ProductRecord{
			ID:            p.ID,
			Handle:        p.Handle,
			Title:         p.Title,
			Status:        p.Status,
			Vendor:        p.Vendor,
			Price:         p.Price,
			StockQuantity: p.StockQuantity,
			ImageURL:      p.ImageURL,
			Categories:    categories,
			Analytics:     make(map[Period]Rollup),
		}
		if len(categories) > 0 {
			record.PrimaryCategory = categories[0]
		}
		if len(categories) > 1 {
			record.SecondaryCategory = categories[1]
		}
		if p.Vendor != "" {
			record.Categories = append(record.Categories, BrandHandlePrefix+p.Vendor)
		}

		records[p.Handle] = record
	}
	return records
}

// AttachProductAnalytics computes the per-product rollup for every
// period from the already-fetched window orders.
func AttachProductAnalytics(products map[string]*ProductRecord, ordersByPeriod map[Period][]providers.Order, traffic TrafficFunc) {
	for _, record := range products {
		for _, period := range Periods {
			orders := ordersByPeriod[period]
			stats := OrderTotals(orders, record.ID)
			record.Analytics[period] = ComputeProductRollup(orders, record.ID, traffic(period, stats))
		}
	}
}

// AssembleCategories builds the handle-keyed category map in two
// passes: first the plain directory import, then per-category rollups
// from the window orders. Synthetic brand categories are derived from
// product vendors.
func AssembleCategories(
	collections []providers.Collection,
	productsByCategory map[string][]string,
	products map[string]*ProductRecord,
	ordersByPeriod map[Period][]providers.Order,
) map[string]*CategoryRecord {
	records := make(map[string]*CategoryRecord, len(collections))

	// Pass 1: directory import, no analytics yet.
	for _, c := range collections {
		count := c.ProductCount
		if count == 0 {
			count = int64(len(productsByCategory[c.Handle]))
		}
		records[c.Handle] = &CategoryRecord{
			ID:           c.ID,
			Title:        c.Title,
			Handle:       c.Handle,
			ProductCount: count,
			Analytics:    make(map[Period]CategoryAnalytics),
		}
	}

	// Synthetic brand categories from product vendors.
	brandMembers := make(map[string][]string)
	brandTitles := make(map[string]string)
	for _, p := range products {
		if p.Vendor == "" {
			continue
		}
		handle := BrandHandlePrefix + p.Vendor
		brandMembers[handle] = append(brandMembers[handle], p.ID)
		brandTitles[handle] = p.Vendor
	}
	for handle, members := range brandMembers {
		records[handle] = &CategoryRecord{
			ID:           handle,
			Title:        brandTitles[handle],
			Handle:       handle,
			ProductCount: int64(len(members)),
			Synthetic:    true,
			Analytics:    make(map[Period]CategoryAnalytics),
		}
	}

	// Pass 2: per-category rollups from already-fetched orders.
	for handle, record := range records {
		var memberIDs []string
		if record.Synthetic {
			memberIDs = brandMembers[handle]
		} else {
			memberIDs = productsByCategory[handle]
		}
		members := make(map[string]bool, len(memberIDs))
		for _, id := range memberIDs {
			members[id] = true
		}

		for _, period := range Periods {
			record.Analytics[period] = categoryRollup(ordersByPeriod[period], members)
		}
	}

	return records
}

func categoryRollup(orders []providers.Order, members map[string]bool) CategoryAnalytics {
	var ca CategoryAnalytics
	for _, o := range orders {
		matched := false
		for _, li := range o.LineItems {
			if !members[li.ProductID] {
				continue
			}
			matched = true
			ca.Revenue += li.UnitPrice * float64(li.Quantity)
			ca.UnitsSold += li.Quantity
		}
		if matched {
			ca.OrderCount++
		}
	}
	return ca
}
