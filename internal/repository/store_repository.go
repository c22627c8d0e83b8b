package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/storelens/service-analytics/internal/models"
)

// StoreRepository persists registered stores.
type StoreRepository struct {
	db *gorm.DB
}

// NewStoreRepository creates a new store repository.
func NewStoreRepository(db *gorm.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

// Create inserts a new store.
func (r *StoreRepository) Create(ctx context.Context, store *models.Store) error {
	return r.db.WithContext(ctx).Create(store).Error
}

// GetByID fetches a store by ID.
func (r *StoreRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// GetByDomain fetches a store by its shop domain.
func (r *StoreRepository) GetByDomain(ctx context.Context, domain string) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).First(&store, "domain = ?", domain).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// List returns all registered stores.
func (r *StoreRepository) List(ctx context.Context) ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// ListActive returns stores with analytics enabled.
func (r *StoreRepository) ListActive(ctx context.Context) ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.WithContext(ctx).Where("active = ?", true).Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// UpdateMetadata stores the latest shop-info payload.
func (r *StoreRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, metadata datatypes.JSON) error {
	return r.db.WithContext(ctx).Model(&models.Store{}).
		Where("id = ?", id).
		Update("metadata", metadata).Error
}

// Delete removes a store from the registry.
func (r *StoreRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Store{}, "id = ?", id).Error
}
