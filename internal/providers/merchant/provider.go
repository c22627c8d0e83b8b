package merchant

import (
	"time"

	"go.uber.org/zap"

	merchantdomain "github.com/storelens/service-analytics/internal/domain/merchant"
	"github.com/storelens/service-analytics/internal/providers"
)

// Provider implements the MerchantProvider interface over the merchant
// platform REST API.
type Provider struct {
	client   *Client
	sessions providers.SessionDataSource
	logger   *zap.Logger
}

// ProviderConfig holds configuration for one store's provider.
type ProviderConfig struct {
	ShopDomain     string
	AccessToken    string
	APIVersion     string
	SessionSource  string
	RetryAttempts  int
	RequestTimeout time.Duration
}

// NewProvider creates a provider bound to one store's credentials.
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	retryPolicy := merchantdomain.NoRetryPolicy()
	if cfg.RetryAttempts > 1 {
		retryPolicy = merchantdomain.BackoffRetryPolicy(cfg.RetryAttempts)
	}

	client, err := NewClient(&ClientConfig{
		ShopDomain:     cfg.ShopDomain,
		AccessToken:    cfg.AccessToken,
		APIVersion:     cfg.APIVersion,
		Logger:         logger,
		RetryPolicy:    retryPolicy,
		RequestTimeout: cfg.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}

	var sessions providers.SessionDataSource
	if cfg.SessionSource == providers.SessionSourceReports {
		sessions = NewReportSessionSource(client)
	} else {
		sessions = providers.NewSyntheticSessionSource()
	}

	return &Provider{
		client:   client,
		sessions: sessions,
		logger:   logger,
	}, nil
}

// Sessions returns the configured session data source.
func (p *Provider) Sessions() providers.SessionDataSource {
	return p.sessions
}

var _ providers.MerchantProvider = (*Provider)(nil)
