package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storelens/service-analytics/internal/providers"
)

func testOrders() []providers.Order {
	return []providers.Order{
		{
			ID:         "1001",
			TotalPrice: 150,
			LineItems: []providers.LineItem{
				{ProductID: "p1", UnitPrice: 50, Quantity: 2},
				{ProductID: "p2", UnitPrice: 25, Quantity: 2},
			},
		},
		{
			ID:         "1002",
			TotalPrice: 100,
			LineItems: []providers.LineItem{
				{ProductID: "p1", UnitPrice: 50, Quantity: 1},
			},
		},
		{
			ID:         "1003",
			TotalPrice: 60,
			LineItems: []providers.LineItem{
				{ProductID: "p3", UnitPrice: 20, Quantity: 3},
			},
		},
	}
}

func TestOrderTotalsShopScope(t *testing.T) {
	stats := OrderTotals(testOrders(), "")

	assert.Equal(t, int64(3), stats.OrderCount)
	assert.Equal(t, int64(8), stats.UnitsSold)
}

func TestOrderTotalsProductScope(t *testing.T) {
	stats := OrderTotals(testOrders(), "p1")

	// Two orders contain p1, with 2+1 units between them.
	assert.Equal(t, int64(2), stats.OrderCount)
	assert.Equal(t, int64(3), stats.UnitsSold)
}

func TestOrderTotalsUnknownProduct(t *testing.T) {
	stats := OrderTotals(testOrders(), "missing")

	assert.Zero(t, stats.OrderCount)
	assert.Zero(t, stats.UnitsSold)
}

func TestComputeShopRollup(t *testing.T) {
	traffic := providers.TrafficStats{
		Sessions:   100,
		Views:      400,
		AddToCarts: 24,
		Estimated:  true,
	}

	r := ComputeShopRollup(testOrders(), traffic)

	// Shop revenue sums order-level totals, not line items.
	assert.Equal(t, float64(310), r.Revenue)
	assert.Equal(t, int64(3), r.OrderCount)
	assert.Equal(t, int64(8), r.UnitsSold)
	assert.InDelta(t, 3.0, r.ConversionRate, 0.001)
	assert.InDelta(t, 310.0/3.0, r.AverageOrderValue, 0.001)
	assert.InDelta(t, 6.0, r.AddToCartRate, 0.001)
	assert.InDelta(t, float64(8)/24*100, r.CartToOrderRate, 0.001)
	assert.True(t, r.EstimatedTraffic)
}

func TestComputeProductRollupPartitionsRevenue(t *testing.T) {
	traffic := providers.TrafficStats{Sessions: 40, Views: 160}

	r := ComputeProductRollup(testOrders(), "p1", traffic)

	// Product revenue is line price times quantity over matching lines:
	// 50*2 + 50*1, not the order totals that include p2.
	assert.Equal(t, float64(150), r.Revenue)
	assert.Equal(t, int64(2), r.OrderCount)
	assert.Equal(t, int64(3), r.UnitsSold)
	assert.InDelta(t, 75.0, r.AverageOrderValue, 0.001)
}

func TestRollupZeroDenominators(t *testing.T) {
	r := ComputeShopRollup(nil, providers.TrafficStats{})

	assert.Zero(t, r.Revenue)
	assert.Zero(t, r.ConversionRate)
	assert.Zero(t, r.AverageOrderValue)
	assert.Zero(t, r.AddToCartRate)
	assert.Zero(t, r.CartToOrderRate)
}

func TestRollupConversionClamped(t *testing.T) {
	orders := make([]providers.Order, 5)
	for i := range orders {
		orders[i] = providers.Order{TotalPrice: 10}
	}

	// More orders than sessions would push conversion past 100.
	r := ComputeShopRollup(orders, providers.TrafficStats{Sessions: 2})

	assert.Equal(t, float64(100), r.ConversionRate)
}
