// Package events wires the service to NATS: it publishes
// snapshot-built notifications and invalidates cached snapshots when
// commerce data changes upstream.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Event subjects
const (
	SubjectSnapshotBuilt = "analytics.snapshot.built"

	// Commerce events that stale a cached snapshot
	SubjectOrderCreated   = "orders.created"
	SubjectOrderUpdated   = "orders.updated"
	SubjectProductUpdated = "products.updated"
)

// SnapshotBuiltEvent announces a freshly composed snapshot.
type SnapshotBuiltEvent struct {
	StoreID   string    `json:"store_id"`
	Timestamp time.Time `json:"timestamp"`
}

// StoreEvent is the common shape of the commerce change events; only
// the store reference matters for invalidation.
type StoreEvent struct {
	StoreID   string    `json:"store_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher publishes analytics events to NATS.
type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(nc *nats.Conn, logger *zap.Logger) *Publisher {
	return &Publisher{nc: nc, logger: logger}
}

// PublishSnapshotBuilt publishes a snapshot built event.
func (p *Publisher) PublishSnapshotBuilt(_ context.Context, storeID string) error {
	data, err := json.Marshal(&SnapshotBuiltEvent{
		StoreID:   storeID,
		Timestamp: time.Now(),
	})
	if err != nil {
		return err
	}
	return p.nc.Publish(SubjectSnapshotBuilt, data)
}

// CacheInvalidator drops the cached snapshot for a store.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, storeID string) error
}

// Subscriber handles NATS event subscriptions.
type Subscriber struct {
	nc     *nats.Conn
	cache  CacheInvalidator
	logger *zap.Logger
	subs   []*nats.Subscription
}

// NewSubscriber creates a new NATS subscriber.
func NewSubscriber(nc *nats.Conn, cache CacheInvalidator, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		nc:     nc,
		cache:  cache,
		logger: logger,
		subs:   make([]*nats.Subscription, 0),
	}
}

// Start subscribes to the commerce change events.
func (s *Subscriber) Start() error {
	for _, subject := range []string{SubjectOrderCreated, SubjectOrderUpdated, SubjectProductUpdated} {
		sub, err := s.nc.Subscribe(subject, s.handleStoreEvent)
		if err != nil {
			return err
		}
		s.subs = append(s.subs, sub)
		s.logger.Info("Subscribed to event", zap.String("subject", subject))
	}

	s.logger.Info("NATS subscriber started with all subscriptions")
	return nil
}

// Stop unsubscribes from all events.
func (s *Subscriber) Stop() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.logger.Info("NATS subscriber stopped")
}

// handleStoreEvent invalidates the cached snapshot for the store named
// in the event. The next snapshot read rebuilds from live data.
func (s *Subscriber) handleStoreEvent(msg *nats.Msg) {
	var event StoreEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logger.Error("Failed to unmarshal store event",
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		return
	}
	if event.StoreID == "" {
		return
	}

	s.logger.Info("Received store change event",
		zap.String("subject", msg.Subject),
		zap.String("store_id", event.StoreID),
	)

	if err := s.cache.Invalidate(context.Background(), event.StoreID); err != nil {
		s.logger.Error("Failed to invalidate snapshot cache",
			zap.String("store_id", event.StoreID),
			zap.Error(err),
		)
	}
}
