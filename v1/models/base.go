package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel provides common timestamp fields for all persisted records
type BaseModel struct {
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// BeforeCreate sets both timestamps when a record is first persisted
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	return nil
}

// BeforeUpdate refreshes the update timestamp
func (b *BaseModel) BeforeUpdate(tx *gorm.DB) error {
	b.UpdatedAt = time.Now()
	return nil
}
