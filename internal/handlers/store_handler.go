package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storelens/service-analytics/internal/services"
)

// StoreHandler handles store registry API requests
type StoreHandler struct {
	service *services.StoreService
	logger  *zap.Logger
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(service *services.StoreService, logger *zap.Logger) *StoreHandler {
	return &StoreHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterStore registers a new store
// POST /api/v1/stores
func (h *StoreHandler) RegisterStore(c *gin.Context) {
	var input services.RegisterStoreInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"kind": "invalid_request", "message": err.Error()})
		return
	}

	store, err := h.service.Register(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, services.ErrStoreAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"kind": "conflict", "message": "A store with this domain is already registered"})
			return
		}
		h.logger.Error("Failed to register store",
			zap.String("domain", input.Domain),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"kind": "internal", "message": "Failed to register store"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"store": store})
}

// ListStores lists registered stores. ?active=true narrows the result
// to stores with analytics enabled.
// GET /api/v1/stores
func (h *StoreHandler) ListStores(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	stores, err := h.service.List(c.Request.Context(), activeOnly)
	if err != nil {
		h.logger.Error("Failed to list stores", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"kind": "internal", "message": "Failed to list stores"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stores": stores,
		"total":  len(stores),
	})
}

// GetStore fetches one store
// GET /api/v1/stores/:id
func (h *StoreHandler) GetStore(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"kind": "invalid_request", "message": "Invalid store ID"})
		return
	}

	store, err := h.service.Get(c.Request.Context(), storeID)
	if err != nil {
		if errors.Is(err, services.ErrStoreNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"kind": "not_found", "message": "Store not found"})
			return
		}
		h.logger.Error("Failed to get store", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"kind": "internal", "message": "Failed to get store"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"store": store})
}

// DeleteStore removes a store from the registry
// DELETE /api/v1/stores/:id
func (h *StoreHandler) DeleteStore(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"kind": "invalid_request", "message": "Invalid store ID"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), storeID); err != nil {
		if errors.Is(err, services.ErrStoreNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"kind": "not_found", "message": "Store not found"})
			return
		}
		h.logger.Error("Failed to delete store", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"kind": "internal", "message": "Failed to delete store"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Store deleted"})
}
