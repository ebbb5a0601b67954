package timeclock

import (
	"context"
	"time"

	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventFilter bounds a punch read to [From, To), optionally for one user.
type EventFilter struct {
	UserID *uuid.UUID
	From   time.Time
	To     time.Time
}

// Repository reads and appends timeclock punches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindEvents(ctx context.Context, filter EventFilter) ([]models.TimeClockEvent, error)
	CountEventsBefore(ctx context.Context, userID uuid.UUID, before time.Time) (int64, error)
	CreateEvent(ctx context.Context, event *models.TimeClockEvent) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindEvents returns punches ordered by created_at ascending with id as the
// tie-break, the order Reconstruct expects.
func (r *repository) FindEvents(ctx context.Context, filter EventFilter) ([]models.TimeClockEvent, error) {
	q := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", filter.From, filter.To)
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	var rows []models.TimeClockEvent
	if err := q.Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountEventsBefore counts every punch the user made up to and including
// before, with no lower bound.
func (r *repository) CountEventsBefore(ctx context.Context, userID uuid.UUID, before time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.TimeClockEvent{}).
		Where("user_id = ? AND created_at <= ?", userID, before).
		Count(&n).Error
	return n, err
}

func (r *repository) CreateEvent(ctx context.Context, event *models.TimeClockEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}
