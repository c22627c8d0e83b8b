package merchant

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	merchantdomain "github.com/storelens/service-analytics/internal/domain/merchant"
	"github.com/storelens/service-analytics/internal/providers"
)

const (
	productsPath = "/products.json"

	defaultProductPageSize = 250
)

type productsPage struct {
	Products []struct {
		ID       int64  `json:"id"`
		Handle   string `json:"handle"`
		Title    string `json:"title"`
		Status   string `json:"status"`
		Vendor   string `json:"vendor"`
		Variants []struct {
			Price             float64 `json:"price,string"`
			InventoryQuantity int64   `json:"inventory_quantity"`
		} `json:"variants"`
		Images []struct {
			Src string `json:"src"`
		} `json:"images"`
	} `json:"products"`
}

// ListProducts fetches all product pages. Price and stock come from
// the first variant, the image URL from the first image.
func (p *Provider) ListProducts(ctx context.Context, params providers.ProductListParams) ([]providers.Product, error) {
	limit := params.Limit
	if limit == 0 {
		limit = defaultProductPageSize
	}

	query := map[string]string{
		"limit": strconv.Itoa(limit),
	}

	var products []providers.Product
	err := p.client.FetchAll(ctx, &Request{Path: productsPath, Query: query}, func(body json.RawMessage) error {
		var page productsPage
		if err := json.Unmarshal(body, &page); err != nil {
			return merchantdomain.NewParseError("decoding products page", err)
		}

		for _, wp := range page.Products {
			product := providers.Product{
				ID:     strconv.FormatInt(wp.ID, 10),
				Handle: wp.Handle,
				Title:  wp.Title,
				Status: wp.Status,
				Vendor: wp.Vendor,
			}
			if len(wp.Variants) > 0 {
				product.Price = wp.Variants[0].Price
				product.StockQuantity = wp.Variants[0].InventoryQuantity
			}
			if len(wp.Images) > 0 {
				product.ImageURL = wp.Images[0].Src
			}
			products = append(products, product)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}
