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

const (
	ordersPath         = "/orders.json"
	customerOrdersPath = "/customers/%s/orders.json"

	defaultOrderPageSize = 250
)

type wireOrder struct {
	ID          int64     `json:"id"`
	CustomerID  int64     `json:"customer_id"`
	CreatedAt   time.Time `json:"created_at"`
	TotalPrice  float64   `json:"total_price,string"`
	LineItems   []struct {
		ProductID int64   `json:"product_id"`
		Title     string  `json:"title"`
		Price     float64 `json:"price,string"`
		Quantity  int64   `json:"quantity"`
	} `json:"line_items"`
}

type ordersPage struct {
	Orders []wireOrder `json:"orders"`
}

// ListOrders fetches all order pages for the given window.
func (p *Provider) ListOrders(ctx context.Context, params providers.OrderListParams) ([]providers.Order, error) {
	limit := params.Limit
	if limit == 0 {
		limit = defaultOrderPageSize
	}

	query := map[string]string{
		"limit":  strconv.Itoa(limit),
		"status": "any",
	}
	if params.Status != "" {
		query["status"] = params.Status
	}
	if !params.CreatedAtMin.IsZero() {
		query["created_at_min"] = params.CreatedAtMin.UTC().Format(time.RFC3339)
	}
	if !params.CreatedAtMax.IsZero() {
		query["created_at_max"] = params.CreatedAtMax.UTC().Format(time.RFC3339)
	}

	var orders []providers.Order
	err := p.client.FetchAll(ctx, &Request{Path: ordersPath, Query: query}, func(body json.RawMessage) error {
		page, err := decodeOrdersPage(body)
		if err != nil {
			return err
		}
		orders = append(orders, page...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// ListCustomerOrders fetches the order history of a single customer.
func (p *Provider) ListCustomerOrders(ctx context.Context, customerID string) ([]providers.Order, error) {
	path := fmt.Sprintf(customerOrdersPath, customerID)
	query := map[string]string{
		"limit":  strconv.Itoa(defaultOrderPageSize),
		"status": "any",
	}

	var orders []providers.Order
	err := p.client.FetchAll(ctx, &Request{Path: path, Query: query}, func(body json.RawMessage) error {
		page, err := decodeOrdersPage(body)
		if err != nil {
			return err
		}
		orders = append(orders, page...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for customer %s: %w", customerID, err)
	}

	return orders, nil
}

func decodeOrdersPage(body json.RawMessage) ([]providers.Order, error) {
	var page ordersPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, merchantdomain.NewParseError("decoding orders page", err)
	}

	orders := make([]providers.Order, 0, len(page.Orders))
	for _, o := range page.Orders {
		items := make([]providers.LineItem, 0, len(o.LineItems))
		for _, li := range o.LineItems {
			items = append(items, providers.LineItem{
				ProductID: strconv.FormatInt(li.ProductID, 10),
				Title:     li.Title,
				UnitPrice: li.Price,
				Quantity:  li.Quantity,
			})
		}

		customerID := ""
		if o.CustomerID != 0 {
			customerID = strconv.FormatInt(o.CustomerID, 10)
		}

		orders = append(orders, providers.Order{
			ID:         strconv.FormatInt(o.ID, 10),
			CustomerID: customerID,
			CreatedAt:  o.CreatedAt,
			TotalPrice: o.TotalPrice,
			LineItems:  items,
		})
	}
	return orders, nil
}
