package merchant

import (
	"context"
	"fmt"

	merchantdomain "github.com/storelens/service-analytics/internal/domain/merchant"
	"github.com/storelens/service-analytics/internal/providers"
)

const shopPath = "/shop.json"

type shopResponse struct {
	Shop struct {
		Name     string `json:"name"`
		Domain   string `json:"domain"`
		Currency string `json:"currency"`
		PlanName string `json:"plan_name"`
	} `json:"shop"`
}

// GetShopInfo retrieves store-level metadata.
func (p *Provider) GetShopInfo(ctx context.Context) (*providers.ShopInfo, error) {
	var resp shopResponse
	if _, err := p.client.FetchPage(ctx, &Request{Path: shopPath}, &resp); err != nil {
		return nil, fmt.Errorf("failed to get shop info: %w", err)
	}

	if resp.Shop.Name == "" && resp.Shop.Domain == "" {
		return nil, merchantdomain.NewParseError("shop payload missing required fields", nil)
	}

	return &providers.ShopInfo{
		Name:     resp.Shop.Name,
		Domain:   resp.Shop.Domain,
		Currency: resp.Shop.Currency,
		Plan:     resp.Shop.PlanName,
	}, nil
}
