package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/storelens/service-analytics/internal/models"
	"github.com/storelens/service-analytics/internal/utils"
)

// ErrStoreNotFound is returned when a store ID or domain is unknown.
var ErrStoreNotFound = errors.New("store not found")

// ErrStoreAlreadyExists is returned when registering a domain that is
// already in the registry.
var ErrStoreAlreadyExists = errors.New("store already registered")

// StoreRepository is the persistence surface the registry needs.
// Implemented by repository.StoreRepository.
type StoreRepository interface {
	Create(ctx context.Context, store *models.Store) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	GetByDomain(ctx context.Context, domain string) (*models.Store, error)
	List(ctx context.Context) ([]models.Store, error)
	ListActive(ctx context.Context) ([]models.Store, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, metadata datatypes.JSON) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RegisterStoreInput holds the fields needed to register a store.
type RegisterStoreInput struct {
	Name        string `json:"name" binding:"required"`
	Domain      string `json:"domain" binding:"required"`
	AccessToken string `json:"access_token" binding:"required"`
	Currency    string `json:"currency"`
}

// StoreService manages the store registry. Access tokens are encrypted
// before they reach the database and only decrypted when a provider is
// built for the store.
type StoreService struct {
	repo      StoreRepository
	encryptor *utils.Encryptor
	logger    *zap.Logger
}

// NewStoreService creates a store service.
func NewStoreService(repo StoreRepository, encryptionKey string, logger *zap.Logger) (*StoreService, error) {
	encryptor, err := utils.NewEncryptor(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	return &StoreService{
		repo:      repo,
		encryptor: encryptor,
		logger:    logger,
	}, nil
}

// Register encrypts the access token and persists the store. A domain
// already in the registry is rejected.
func (s *StoreService) Register(ctx context.Context, input RegisterStoreInput) (*models.Store, error) {
	if existing, err := s.repo.GetByDomain(ctx, input.Domain); err == nil && existing != nil {
		return nil, ErrStoreAlreadyExists
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check domain: %w", err)
	}

	encrypted, err := s.encryptor.Encrypt(input.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	store := &models.Store{
		Name:        input.Name,
		Domain:      input.Domain,
		AccessToken: encrypted,
		Currency:    input.Currency,
		Active:      true,
	}

	if err := s.repo.Create(ctx, store); err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	s.logger.Info("registered store",
		zap.String("store_id", store.ID.String()),
		zap.String("domain", store.Domain),
	)
	return store, nil
}

// Get fetches a store by ID.
func (s *StoreService) Get(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return store, nil
}

// List returns registered stores, optionally only those with analytics
// enabled.
func (s *StoreService) List(ctx context.Context, activeOnly bool) ([]models.Store, error) {
	if activeOnly {
		return s.repo.ListActive(ctx)
	}
	return s.repo.List(ctx)
}

// Delete removes a store from the registry.
func (s *StoreService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// GetDecryptedToken returns the plaintext access token for a store.
func (s *StoreService) GetDecryptedToken(store *models.Store) (string, error) {
	token, err := s.encryptor.Decrypt(store.AccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt access token: %w", err)
	}
	return token, nil
}

// UpdateMetadata records the latest shop-info payload against the store.
func (s *StoreService) UpdateMetadata(ctx context.Context, id uuid.UUID, shopInfo any) error {
	payload, err := json.Marshal(shopInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal shop info: %w", err)
	}
	return s.repo.UpdateMetadata(ctx, id, datatypes.JSON(payload))
}
