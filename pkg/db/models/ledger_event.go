package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// LedgerEvent records an immutable money event tied to a transaction.
type LedgerEvent struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	TransactionID uuid.UUID             `gorm:"column:transaction_id;type:uuid;not null;index"`
	ActorUserID   uuid.UUID             `gorm:"column:actor_user_id;type:uuid;not null"`
	Type          enums.LedgerEventType `gorm:"column:type;type:text;not null"`
	AmountCents   int                   `gorm:"column:amount_cents;not null"`
	Metadata      json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (l *LedgerEvent) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	return nil
}
