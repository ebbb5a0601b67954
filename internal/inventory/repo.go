package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when an inventory row does not exist.
var ErrNotFound = errors.New("inventory item not found")

// Repository persists inventory items and their stock movements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.InventoryItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.InventoryItem, error)
	ApplyDelta(ctx context.Context, id uuid.UUID, delta int) (int64, error)
	CreateMovement(ctx context.Context, movement *models.StockMovement) error
	ListMovements(ctx context.Context, itemID uuid.UUID) ([]models.StockMovement, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds an inventory repository to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByIDs loads every referenced item in one read. Missing ids are simply
// absent from the result.
func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.InventoryItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.InventoryItem
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ApplyDelta adds delta to a concession's stock in a single conditional
// statement. Decrements only match while the result stays non-negative, so
// zero rows affected means the stock was not there to take.
func (r *repository) ApplyDelta(ctx context.Context, id uuid.UUID, delta int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET in_stock = in_stock + ?,
			updated_at = ?
		WHERE id = ? AND category = ? AND in_stock IS NOT NULL AND in_stock + ? >= 0
	`, delta, time.Now().UTC(), id, enums.ItemCategoryConcession, delta)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListMovements(ctx context.Context, itemID uuid.UUID) ([]models.StockMovement, error) {
	var rows []models.StockMovement
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
