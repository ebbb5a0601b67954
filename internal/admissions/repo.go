package admissions

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when an admission event does not exist.
var ErrNotFound = errors.New("admission event not found")

// Repository persists admission events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.AdmissionEvent) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.AdmissionEvent, error)
	MarkVoided(ctx context.Context, id, actorID uuid.UUID, reason string, at time.Time) (bool, error)
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

func (r *repository) Create(ctx context.Context, event *models.AdmissionEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.AdmissionEvent, error) {
	var event models.AdmissionEvent
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// MarkVoided sets the void metadata only while the event is still active.
func (r *repository) MarkVoided(ctx context.Context, id, actorID uuid.UUID, reason string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.AdmissionEvent{}).
		Where("id = ? AND is_voided = ?", id, false).
		Updates(map[string]any{
			"is_voided":   true,
			"voided_at":   at,
			"voided_by":   actorID,
			"void_reason": reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
