// Package routes wires the HTTP surface.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/storelens/service-analytics/internal/handlers"
)

// RouteConfig holds configuration for routes
type RouteConfig struct {
	StoreHandler     *handlers.StoreHandler
	AnalyticsHandler *handlers.AnalyticsHandler
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, cfg *RouteConfig) {
	v1 := router.Group("/api/v1")

	// Store registry
	stores := v1.Group("/stores")
	{
		stores.GET("", cfg.StoreHandler.ListStores)
		stores.POST("", cfg.StoreHandler.RegisterStore)
		stores.GET("/:id", cfg.StoreHandler.GetStore)
		stores.DELETE("/:id", cfg.StoreHandler.DeleteStore)

		// Analytics snapshot and slices
		stores.GET("/:id/analytics", cfg.AnalyticsHandler.GetSnapshot)
		stores.GET("/:id/analytics/metrics", cfg.AnalyticsHandler.GetMetrics)
		stores.GET("/:id/analytics/products", cfg.AnalyticsHandler.GetProducts)
		stores.GET("/:id/analytics/categories", cfg.AnalyticsHandler.GetCategories)
		stores.GET("/:id/analytics/segments", cfg.AnalyticsHandler.GetSegments)
		stores.GET("/:id/analytics/sessions", cfg.AnalyticsHandler.GetSessions)
	}
}
