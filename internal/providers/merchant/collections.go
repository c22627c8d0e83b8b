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
	collectionsPath = "/custom_collections.json"
	collectsPath    = "/collects.json"
)

type collectionsPage struct {
	CustomCollections []struct {
		ID            int64  `json:"id"`
		Title         string `json:"title"`
		Handle        string `json:"handle"`
		ProductsCount int64  `json:"products_count"`
	} `json:"custom_collections"`
}

type collectsPage struct {
	Collects []struct {
		CollectionID int64 `json:"collection_id"`
		ProductID    int64 `json:"product_id"`
	} `json:"collects"`
}

// ListCollections fetches all collection pages.
func (p *Provider) ListCollections(ctx context.Context) ([]providers.Collection, error) {
	query := map[string]string{"limit": "250"}

	var collections []providers.Collection
	err := p.client.FetchAll(ctx, &Request{Path: collectionsPath, Query: query}, func(body json.RawMessage) error {
		var page collectionsPage
		if err := json.Unmarshal(body, &page); err != nil {
			return merchantdomain.NewParseError("decoding collections page", err)
		}
		for _, c := range page.CustomCollections {
			collections = append(collections, providers.Collection{
				ID:           strconv.FormatInt(c.ID, 10),
				Title:        c.Title,
				Handle:       c.Handle,
				ProductCount: c.ProductsCount,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	return collections, nil
}

// ListCollects fetches all membership edges between products and
// collections in one paginated listing.
func (p *Provider) ListCollects(ctx context.Context) ([]providers.Collect, error) {
	query := map[string]string{"limit": "250"}

	var collects []providers.Collect
	err := p.client.FetchAll(ctx, &Request{Path: collectsPath, Query: query}, func(body json.RawMessage) error {
		var page collectsPage
		if err := json.Unmarshal(body, &page); err != nil {
			return merchantdomain.NewParseError("decoding collects page", err)
		}
		for _, c := range page.Collects {
			collects = append(collects, providers.Collect{
				CollectionID: strconv.FormatInt(c.CollectionID, 10),
				ProductID:    strconv.FormatInt(c.ProductID, 10),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list collects: %w", err)
	}

	return collects, nil
}
