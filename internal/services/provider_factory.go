package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storelens/service-analytics/internal/config"
	"github.com/storelens/service-analytics/internal/models"
	"github.com/storelens/service-analytics/internal/providers"
	"github.com/storelens/service-analytics/internal/providers/merchant"
)

// ProviderFactory builds a MerchantProvider for a registered store:
// it resolves the store, decrypts its access token and applies the
// service-wide merchant API configuration.
type ProviderFactory struct {
	stores        *StoreService
	merchantCfg   config.MerchantConfig
	sessionSource string
	logger        *zap.Logger
}

// NewProviderFactory creates a provider factory.
func NewProviderFactory(stores *StoreService, merchantCfg config.MerchantConfig, sessionSource string, logger *zap.Logger) *ProviderFactory {
	return &ProviderFactory{
		stores:        stores,
		merchantCfg:   merchantCfg,
		sessionSource: sessionSource,
		logger:        logger,
	}
}

// ForStore builds a provider bound to the given store's credentials.
func (f *ProviderFactory) ForStore(ctx context.Context, storeID uuid.UUID) (providers.MerchantProvider, *models.Store, error) {
	store, err := f.stores.Get(ctx, storeID)
	if err != nil {
		return nil, nil, err
	}

	provider, err := f.forStoreRecord(store)
	if err != nil {
		return nil, nil, err
	}
	return provider, store, nil
}

func (f *ProviderFactory) forStoreRecord(store *models.Store) (providers.MerchantProvider, error) {
	token, err := f.stores.GetDecryptedToken(store)
	if err != nil {
		return nil, err
	}

	provider, err := merchant.NewProvider(&merchant.ProviderConfig{
		ShopDomain:     store.Domain,
		AccessToken:    token,
		APIVersion:     f.merchantCfg.APIVersion,
		SessionSource:  f.sessionSource,
		RetryAttempts:  f.merchantCfg.RetryAttempts,
		RequestTimeout: f.merchantCfg.RequestTimeout,
	}, f.logger.With(zap.String("store_id", store.ID.String())))
	if err != nil {
		return nil, fmt.Errorf("failed to build provider for store %s: %w", store.ID, err)
	}
	return provider, nil
}
