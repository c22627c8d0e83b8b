package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storelens/service-analytics/internal/analytics"
	merchantdomain "github.com/storelens/service-analytics/internal/domain/merchant"
	"github.com/storelens/service-analytics/internal/services"
)

// AnalyticsHandler serves composed analytics snapshots and their
// sub-document slices.
type AnalyticsHandler struct {
	service *services.AnalyticsService
	logger  *zap.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(service *services.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  logger,
	}
}

// snapshot resolves the store ID, serves the snapshot and reports
// whether it came from cache. A false return means the response has
// already been written.
func (h *AnalyticsHandler) snapshot(c *gin.Context) (*analytics.Snapshot, bool, bool) {
	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"kind": "invalid_request", "message": "Invalid store ID"})
		return nil, false, false
	}

	refresh := c.Query("refresh") == "true"
	snapshot, fromCache, err := h.service.GetSnapshot(c.Request.Context(), storeID, refresh)
	if err != nil {
		h.writeError(c, storeID, err)
		return nil, false, false
	}
	return snapshot, fromCache, true
}

// writeError maps build failures to structured error bodies carrying
// the error kind, a message and the upstream status when one exists.
// Unknown stores are 404, rate limiting 503, every other classified
// platform failure 502. Unclassified errors stay a 500 with a fixed
// message so internals never reach the response.
func (h *AnalyticsHandler) writeError(c *gin.Context, storeID uuid.UUID, err error) {
	h.logger.Error("Failed to build snapshot",
		zap.String("store_id", storeID.String()),
		zap.Error(err),
	)

	if errors.Is(err, services.ErrStoreNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"kind": "not_found", "message": "Store not found"})
		return
	}

	var apiErr *merchantdomain.APIError
	if errors.As(err, &apiErr) {
		status := http.StatusBadGateway
		if apiErr.Kind == merchantdomain.KindRateLimit {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, apiErr)
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"kind": "internal", "message": "Failed to build analytics snapshot"})
}

// GetSnapshot returns the full snapshot document
// GET /api/v1/stores/:id/analytics
func (h *AnalyticsHandler) GetSnapshot(c *gin.Context) {
	snapshot, fromCache, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot":   snapshot,
		"from_cache": fromCache,
	})
}

// GetMetrics returns the shop-level rollups per period
// GET /api/v1/stores/:id/analytics/metrics
func (h *AnalyticsHandler) GetMetrics(c *gin.Context) {
	snapshot, fromCache, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"store_id":     snapshot.StoreID,
		"generated_at": snapshot.GeneratedAt,
		"metrics":      snapshot.Metrics,
		"from_cache":   fromCache,
	})
}

// GetProducts returns the product analytics map
// GET /api/v1/stores/:id/analytics/products
func (h *AnalyticsHandler) GetProducts(c *gin.Context) {
	snapshot, fromCache, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"store_id":   snapshot.StoreID,
		"products":   snapshot.Products,
		"from_cache": fromCache,
	})
}

// GetCategories returns the category analytics map
// GET /api/v1/stores/:id/analytics/categories
func (h *AnalyticsHandler) GetCategories(c *gin.Context) {
	snapshot, fromCache, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"store_id":   snapshot.StoreID,
		"categories": snapshot.Categories,
		"from_cache": fromCache,
	})
}

// GetSegments returns the customer segments
// GET /api/v1/stores/:id/analytics/segments
func (h *AnalyticsHandler) GetSegments(c *gin.Context) {
	snapshot, fromCache, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"store_id":   snapshot.StoreID,
		"segments":   snapshot.Segments,
		"from_cache": fromCache,
	})
}

// GetSessions returns the daily session series
// GET /api/v1/stores/:id/analytics/sessions
func (h *AnalyticsHandler) GetSessions(c *gin.Context) {
	snapshot, fromCache, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"store_id":       snapshot.StoreID,
		"session_source": snapshot.SessionSource,
		"daily_sessions": snapshot.DailySessions,
		"from_cache":     fromCache,
	})
}
