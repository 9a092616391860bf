package db_models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel is embedded by ideas, subscriptions and newsletter subscribers.
// Timestamps are unix seconds; created_at is indexed for the dashboard's
// since-window counts. Rows are soft-deleted.
type BaseModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CreatedAt int64          `gorm:"autoCreateTime;index"`
	UpdatedAt int64          `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

var clock = time.Now

// BeforeCreate fills a missing id. A CreatedAt set by the caller is kept so
// imported ideas retain their original dates.
func (b *BaseModel) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := clock().Unix()
	if b.CreatedAt == 0 {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	return nil
}

func (b *BaseModel) BeforeUpdate(*gorm.DB) error {
	b.UpdatedAt = clock().Unix()
	return nil
}

// Created is CreatedAt in UTC, or nil when unset.
func (b BaseModel) Created() *time.Time {
	if b.CreatedAt <= 0 {
		return nil
	}
	t := time.Unix(b.CreatedAt, 0).UTC()
	return &t
}
