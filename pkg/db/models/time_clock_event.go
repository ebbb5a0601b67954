package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TimeClockEvent is a single punch. Whether it opens or closes a shift is
// positional within the user's ordered stream.
type TimeClockEvent struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:idx_time_clock_events_user_created,priority:1"`
	HourCodeID uuid.UUID `gorm:"column:hour_code_id;type:uuid;not null"`
	CreatedBy  uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;index:idx_time_clock_events_user_created,priority:2"`
}

func (e *TimeClockEvent) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return nil
}
