package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the read-only staff directory entry used to label shift reports.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	FirstName string    `gorm:"column:first_name;not null"`
	LastName  string    `gorm:"column:last_name;not null"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// All lists every model owned by the engine, in dependency order.
func All() []any {
	return []any{
		&User{},
		&InventoryItem{},
		&StockMovement{},
		&Transaction{},
		&TransactionItem{},
		&AdmissionEvent{},
		&TimeClockEvent{},
		&LedgerEvent{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
