// Package models holds the persisted registry records.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Store is a registered merchant store: the domain it lives on and the
// encrypted bearer credential used against the platform API. Analytics
// snapshots themselves are never persisted; the registry only holds
// what is needed to build them.
type Store struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Domain      string         `gorm:"uniqueIndex;not null" json:"domain"`
	AccessToken string         `gorm:"not null" json:"-"` // encrypted at rest
	Currency    string         `json:"currency"`
	Active      bool           `gorm:"default:true" json:"active"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"` // last shop-info payload
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// BeforeCreate assigns the store ID.
func (s *Store) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
