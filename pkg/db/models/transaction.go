package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Transaction is a completed checkout. IsVoided moves false to true at most once.
type Transaction struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CreatedBy  uuid.UUID         `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	IsVoided   bool              `gorm:"column:is_voided;not null;default:false"`
	VoidedAt   *time.Time        `gorm:"column:voided_at"`
	VoidedBy   *uuid.UUID        `gorm:"column:voided_by;type:uuid"`
	VoidReason *string           `gorm:"column:void_reason"`
	Items      []TransactionItem `gorm:"foreignKey:TransactionID;references:ID"`
}

func (t *Transaction) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}

// TransactionItem is one cart line of a transaction.
type TransactionItem struct {
	ID            uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	TransactionID uuid.UUID     `gorm:"column:transaction_id;type:uuid;not null;index"`
	ItemID        uuid.UUID     `gorm:"column:item_id;type:uuid;not null"`
	AmountSold    int           `gorm:"column:amount_sold;not null"`
	CreatedBy     uuid.UUID     `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt     time.Time     `gorm:"column:created_at;autoCreateTime"`
	Item          InventoryItem `gorm:"foreignKey:ItemID;references:ID"`
}

func (t *TransactionItem) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}
