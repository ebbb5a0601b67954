package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// InventoryItem is a sellable item. Concessions carry stock and a purchase
// price; admissions never do.
type InventoryItem struct {
	ID                 uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Label              string             `gorm:"column:label;not null"`
	Category           enums.ItemCategory `gorm:"column:category;type:text;not null"`
	SellingPriceCents  int                `gorm:"column:selling_price_cents;not null"`
	PurchasePriceCents *int               `gorm:"column:purchase_price_cents"`
	InStock            *int               `gorm:"column:in_stock"`
	IsSeasonal         bool               `gorm:"column:is_seasonal;not null;default:false"`
	IsDay              bool               `gorm:"column:is_day;not null;default:false"`
	PatronLimit        *int               `gorm:"column:patron_limit"`
	IsArchived         bool               `gorm:"column:is_archived;not null;default:false"`
	CreatedBy          uuid.UUID          `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *InventoryItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
