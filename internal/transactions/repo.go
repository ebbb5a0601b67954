package transactions

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a transaction does not exist.
var ErrNotFound = errors.New("transaction not found")

// VoidMark is the metadata written when a transaction is voided.
type VoidMark struct {
	ActorID uuid.UUID
	Reason  string
	At      time.Time
}

// Repository persists completed transactions and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction, items []models.TransactionItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	MarkVoided(ctx context.Context, id uuid.UUID, mark VoidMark) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a transactions repository to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the transaction header followed by its lines. Each line's
// TransactionID and CreatedBy are filled from the header.
func (r *repository) Create(ctx context.Context, txn *models.Transaction, items []models.TransactionItem) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(txn).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].TransactionID = txn.ID
		if items[i].CreatedBy == uuid.Nil {
			items[i].CreatedBy = txn.CreatedBy
		}
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error; err != nil {
		return err
	}
	txn.Items = items
	return nil
}

// FindByID loads a transaction with its lines and each line's inventory item.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Preload("Items.Item").
		Where("id = ?", id).
		First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// MarkVoided flips is_voided from false to true. It reports false when the
// row was already voided, so two racing voids cannot both succeed.
func (r *repository) MarkVoided(ctx context.Context, id uuid.UUID, mark VoidMark) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND is_voided = ?", id, false).
		Updates(map[string]any{
			"is_voided":   true,
			"voided_at":   mark.At,
			"voided_by":   mark.ActorID,
			"void_reason": mark.Reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
