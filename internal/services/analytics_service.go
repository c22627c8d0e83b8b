package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/storelens/service-analytics/internal/analytics"
	"github.com/storelens/service-analytics/internal/config"
	"github.com/storelens/service-analytics/internal/models"
	"github.com/storelens/service-analytics/internal/providers"
)

// EventPublisher notifies downstream consumers that a snapshot was
// built. A nil publisher disables eventing.
type EventPublisher interface {
	PublishSnapshotBuilt(ctx context.Context, storeID string) error
}

// ProviderSource resolves a registered store into a provider bound to
// its credentials. Implemented by ProviderFactory.
type ProviderSource interface {
	ForStore(ctx context.Context, storeID uuid.UUID) (providers.MerchantProvider, *models.Store, error)
}

// MetadataRecorder persists the advisory shop-info payload against a
// store record. Implemented by StoreService.
type MetadataRecorder interface {
	UpdateMetadata(ctx context.Context, id uuid.UUID, shopInfo any) error
}

// AnalyticsService composes analytics snapshots: it fans out the
// upstream fetches, runs the aggregation core over the results and
// caches the finished document. Concurrent requests for the same store
// share one build.
type AnalyticsService struct {
	factory   ProviderSource
	stores    MetadataRecorder
	cache     SnapshotCache
	publisher EventPublisher
	cfg       config.AnalyticsConfig
	clock     analytics.Clock
	logger    *zap.Logger

	group singleflight.Group
}

// NewAnalyticsService creates the snapshot composer.
func NewAnalyticsService(
	factory ProviderSource,
	stores MetadataRecorder,
	cache SnapshotCache,
	publisher EventPublisher,
	cfg config.AnalyticsConfig,
	logger *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		factory:   factory,
		stores:    stores,
		cache:     cache,
		publisher: publisher,
		cfg:       cfg,
		clock:     analytics.SystemClock,
		logger:    logger,
	}
}

// SetClock replaces the clock. Tests use this to pin window boundaries.
func (s *AnalyticsService) SetClock(clock analytics.Clock) {
	s.clock = clock
}

// GetSnapshot returns the snapshot for a store, serving from cache
// when a fresh one exists. refresh forces a rebuild. The second return
// reports whether the snapshot came from cache.
func (s *AnalyticsService) GetSnapshot(ctx context.Context, storeID uuid.UUID, refresh bool) (*analytics.Snapshot, bool, error) {
	key := storeID.String()

	if !refresh {
		if cached, err := s.cache.Get(ctx, key); err == nil && cached != nil {
			return cached, true, nil
		}
	}

	// Concurrent requests for the same store share a single build; a
	// completed build is never partially visible.
	result, err, _ := s.group.Do(key, func() (any, error) {
		snapshot, err := s.buildSnapshot(ctx, storeID)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, snapshot); err != nil {
			s.logger.Warn("failed to cache snapshot", zap.String("store_id", key), zap.Error(err))
		}
		if s.publisher != nil {
			if err := s.publisher.PublishSnapshotBuilt(ctx, key); err != nil {
				s.logger.Warn("failed to publish snapshot event", zap.String("store_id", key), zap.Error(err))
			}
		}
		return snapshot, nil
	})
	if err != nil {
		return nil, false, err
	}
	return result.(*analytics.Snapshot), false, nil
}

// Invalidate drops the cached snapshot for a store so the next read
// rebuilds it.
func (s *AnalyticsService) Invalidate(ctx context.Context, storeID string) error {
	return s.cache.Invalidate(ctx, storeID)
}

// storeData is everything fetched upstream for one build.
type storeData struct {
	shop           *providers.ShopInfo
	ordersByPeriod map[analytics.Period][]providers.Order
	products       []providers.Product
	collections    []providers.Collection
	collects       []providers.Collect
	customers      []providers.Customer
}

// buildSnapshot runs one full composition for a store.
func (s *AnalyticsService) buildSnapshot(ctx context.Context, storeID uuid.UUID) (*analytics.Snapshot, error) {
	start := time.Now()

	provider, store, err := s.factory.ForStore(ctx, storeID)
	if err != nil {
		return nil, err
	}

	windows := analytics.Windows(s.clock)
	data, err := s.fetchStoreData(ctx, provider, windows)
	if err != nil {
		return nil, err
	}

	s.refreshStoreMetadata(ctx, store, data.shop)

	sessions := provider.Sessions()
	traffic := s.trafficFunc(ctx, sessions, windows)

	snapshot := &analytics.Snapshot{
		StoreID:       store.ID.String(),
		GeneratedAt:   s.clock.Now(),
		SessionSource: sessions.Name(),
		Shop:          data.shop,
		Metrics:       make(map[analytics.Period]analytics.Rollup, len(windows)),
	}

	for _, w := range windows {
		orders := data.ordersByPeriod[w.Period]
		stats := analytics.OrderTotals(orders, "")
		snapshot.Metrics[w.Period] = analytics.ComputeShopRollup(orders, traffic(w.Period, stats))
	}

	byProduct, byCategory := analytics.BuildMembership(data.collections, data.collects)
	snapshot.Products = analytics.AssembleProducts(data.products, byProduct)
	analytics.AttachProductAnalytics(snapshot.Products, data.ordersByPeriod, traffic)
	snapshot.Categories = analytics.AssembleCategories(data.collections, byCategory, snapshot.Products, data.ordersByPeriod)

	snapshot.DailySessions, err = s.dailySessions(ctx, sessions, windows, data.ordersByPeriod)
	if err != nil {
		if guarded := s.guard(err, "daily sessions"); guarded != nil {
			return nil, guarded
		}
	}

	history := func(customerID string) ([]providers.Order, error) {
		return provider.ListCustomerOrders(ctx, customerID)
	}
	snapshot.Segments = analytics.BuildSegments(data.customers, s.clock, history, analytics.SegmenterConfig{
		OrderFetchLimit: s.cfg.SegmentOrderFetchLimit,
	})

	s.logger.Info("built analytics snapshot",
		zap.String("store_id", snapshot.StoreID),
		zap.String("session_source", snapshot.SessionSource),
		zap.Int("products", len(snapshot.Products)),
		zap.Int("categories", len(snapshot.Categories)),
		zap.Duration("duration", time.Since(start)),
	)
	return snapshot, nil
}

// fetchStoreData fans out all upstream reads for one build. The three
// period windows are fetched independently rather than slicing the
// widest window, so each rollup reflects exactly what the platform
// returns for its range.
func (s *AnalyticsService) fetchStoreData(ctx context.Context, provider providers.MerchantProvider, windows []analytics.Window) (*storeData, error) {
	data := &storeData{
		ordersByPeriod: make(map[analytics.Period][]providers.Order, len(windows)),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.MaxConcurrentFetches > 0 {
		g.SetLimit(s.cfg.MaxConcurrentFetches)
	}

	g.Go(func() error {
		shop, err := provider.GetShopInfo(gctx)
		if err != nil {
			return s.guard(err, "shop info")
		}
		data.shop = shop
		return nil
	})

	for _, w := range windows {
		w := w
		g.Go(func() error {
			orders, err := provider.ListOrders(gctx, providers.OrderListParams{
				CreatedAtMin: w.From,
				CreatedAtMax: w.To,
			})
			if err != nil {
				return s.guard(err, fmt.Sprintf("orders %s", w.Period))
			}
			mu.Lock()
			data.ordersByPeriod[w.Period] = orders
			mu.Unlock()
			return nil
		})
	}

	g.Go(func() error {
		products, err := provider.ListProducts(gctx, providers.ProductListParams{})
		if err != nil {
			return s.guard(err, "products")
		}
		data.products = products
		return nil
	})

	g.Go(func() error {
		collections, err := provider.ListCollections(gctx)
		if err != nil {
			return s.guard(err, "collections")
		}
		data.collections = collections
		return nil
	})

	g.Go(func() error {
		collects, err := provider.ListCollects(gctx)
		if err != nil {
			return s.guard(err, "collects")
		}
		data.collects = collects
		return nil
	})

	g.Go(func() error {
		customers, err := provider.ListCustomers(gctx)
		if err != nil {
			return s.guard(err, "customers")
		}
		data.customers = customers
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

// guard applies the uniform failure policy to one sub-aggregate: abort
// fails the whole build, best_effort logs and keeps that aggregate
// empty.
func (s *AnalyticsService) guard(err error, what string) error {
	if s.cfg.FailurePolicy == config.FailurePolicyAbort {
		return fmt.Errorf("failed to fetch %s: %w", what, err)
	}
	s.logger.Warn("skipping failed aggregate",
		zap.String("aggregate", what),
		zap.Error(err),
	)
	return nil
}

// trafficFunc bridges the session source into the pure aggregation
// core. The synthetic source is computed inline per scope; the reports
// source is fetched once per period and reused for every product in
// that window, since report traffic has no per-product resolution.
func (s *AnalyticsService) trafficFunc(
	ctx context.Context,
	sessions providers.SessionDataSource,
	windows []analytics.Window,
) analytics.TrafficFunc {
	byPeriod := make(map[analytics.Period]analytics.Window, len(windows))
	for _, w := range windows {
		byPeriod[w.Period] = w
	}

	if sessions.Name() == providers.SessionSourceSynthetic {
		return func(period analytics.Period, stats providers.OrderStats) providers.TrafficStats {
			w := byPeriod[period]
			ts, _ := sessions.Traffic(ctx, w.From, w.To, stats)
			return ts
		}
	}

	var mu sync.Mutex
	memo := make(map[analytics.Period]providers.TrafficStats, len(windows))
	return func(period analytics.Period, stats providers.OrderStats) providers.TrafficStats {
		mu.Lock()
		defer mu.Unlock()
		if ts, ok := memo[period]; ok {
			return ts
		}
		w := byPeriod[period]
		ts, err := sessions.Traffic(ctx, w.From, w.To, stats)
		if err != nil {
			s.logger.Warn("failed to fetch report traffic",
				zap.String("period", string(period)),
				zap.Error(err),
			)
			ts = providers.TrafficStats{}
		}
		memo[period] = ts
		return ts
	}
}

// dailySessions produces the daily series over the widest window.
func (s *AnalyticsService) dailySessions(
	ctx context.Context,
	sessions providers.SessionDataSource,
	windows []analytics.Window,
	ordersByPeriod map[analytics.Period][]providers.Order,
) ([]providers.SessionRecord, error) {
	for _, w := range windows {
		if w.Period == analytics.PeriodLast90Days {
			return sessions.DailySessions(ctx, w.From, w.To, ordersByPeriod[w.Period])
		}
	}
	return nil, nil
}

// refreshStoreMetadata records the latest shop info on the registry
// record. Failures are logged only; metadata is advisory.
func (s *AnalyticsService) refreshStoreMetadata(ctx context.Context, store *models.Store, shop *providers.ShopInfo) {
	if shop == nil || s.stores == nil {
		return
	}
	if err := s.stores.UpdateMetadata(ctx, store.ID, shop); err != nil {
		s.logger.Warn("failed to update store metadata",
			zap.String("store_id", store.ID.String()),
			zap.Error(err),
		)
	}
}
