package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdmissionEvent records a patron entry. It carries no stock.
type AdmissionEvent struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	PatronID   uuid.UUID  `gorm:"column:patron_id;type:uuid;not null;index"`
	CreatedBy  uuid.UUID  `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	IsVoided   bool       `gorm:"column:is_voided;not null;default:false"`
	VoidedAt   *time.Time `gorm:"column:voided_at"`
	VoidedBy   *uuid.UUID `gorm:"column:voided_by;type:uuid"`
	VoidReason *string    `gorm:"column:void_reason"`
}

func (a *AdmissionEvent) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}
