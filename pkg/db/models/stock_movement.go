package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// StockMovement is the append-only audit row written for each stock adjustment.
type StockMovement struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	ItemID      uuid.UUID               `gorm:"column:item_id;type:uuid;not null;index"`
	Kind        enums.StockMovementKind `gorm:"column:kind;type:text;not null"`
	Delta       int                     `gorm:"column:delta;not null"`
	StockBefore int                     `gorm:"column:stock_before;not null"`
	StockAfter  int                     `gorm:"column:stock_after;not null"`
	ReferenceID *uuid.UUID              `gorm:"column:reference_id;type:uuid"`
	CreatedBy   uuid.UUID               `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}
