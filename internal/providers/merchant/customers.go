package merchant

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	merchantdomain "github.com/storelens/service-analytics/internal/domain/merchant"
	"github.com/storelens/service-analytics/internal/providers"
)

const customersPath = "/customers.json"

type customersPage struct {
	Customers []struct {
		ID          int64      `json:"id"`
		CreatedAt   time.Time  `json:"created_at"`
		TotalSpent  float64    `json:"total_spent,string"`
		OrdersCount int64      `json:"orders_count"`
		LastOrderAt *time.Time `json:"last_order_at"`
	} `json:"customers"`
}

// ListCustomers fetches the full customer list. The segmenter derives
// every cohort from this single snapshot.
func (p *Provider) ListCustomers(ctx context.Context) ([]providers.Customer, error) {
	query := map[string]string{"limit": "250"}

	var customers []providers.Customer
	err := p.client.FetchAll(ctx, &Request{Path: customersPath, Query: query}, func(body json.RawMessage) error {
		var page customersPage
		if err := json.Unmarshal(body, &page); err != nil {
			return merchantdomain.NewParseError("decoding customers page", err)
		}
		for _, c := range page.Customers {
			customers = append(customers, providers.Customer{
				ID:          strconv.FormatInt(c.ID, 10),
				CreatedAt:   c.CreatedAt,
				TotalSpent:  c.TotalSpent,
				OrdersCount: c.OrdersCount,
				LastOrderAt: c.LastOrderAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	return customers, nil
}
