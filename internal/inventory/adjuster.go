package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockAdjustment is a signed change to one concession's stock.
type StockAdjustment struct {
	ItemID      uuid.UUID
	Delta       int
	Kind        enums.StockMovementKind
	ReferenceID *uuid.UUID
	ActorID     uuid.UUID
}

// StockAdjuster applies stock adjustments inside a caller-owned transaction.
type StockAdjuster interface {
	AdjustStock(ctx context.Context, tx *gorm.DB, adj StockAdjustment) (*Concession, error)
}

type stockAdjuster struct {
	repo Repository
}

// NewStockAdjuster builds the stock adjustment unit.
func NewStockAdjuster(repo Repository) (StockAdjuster, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &stockAdjuster{repo: repo}, nil
}

// AdjustStock changes a concession's stock by adj.Delta and writes a stock
// movement. Admissions are rejected. A decrement that would drive stock
// negative, or that loses a race with another writer, fails with CONFLICT and
// leaves the row untouched.
func (s *stockAdjuster) AdjustStock(ctx context.Context, tx *gorm.DB, adj StockAdjustment) (*Concession, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required for stock adjustment")
	}
	if adj.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOperation, "stock adjustment must be non-zero")
	}
	if !adj.Kind.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidOperation, "unknown stock movement kind %q", adj.Kind)
	}

	repo := s.repo.WithTx(tx)

	row, err := repo.FindByID(ctx, adj.ItemID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "inventory item %s not found", adj.ItemID)
		}
		return nil, db.ClassifyError(err, "load inventory item")
	}

	item, err := FromModel(*row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode inventory item")
	}
	if _, ok := item.(Concession); !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidOperation, "%s is an admission and does not track stock", item.ItemLabel())
	}

	affected, err := repo.ApplyDelta(ctx, adj.ItemID, adj.Delta)
	if err != nil {
		return nil, db.ClassifyError(err, "adjust stock")
	}
	if affected == 0 {
		msg := fmt.Sprintf("stock for %s changed concurrently", item.ItemLabel())
		if adj.Delta < 0 {
			msg = fmt.Sprintf("stock for %s changed concurrently, %d no longer available", item.ItemLabel(), -adj.Delta)
		}
		return nil, pkgerrors.New(pkgerrors.CodeConflict, msg).
			WithDetails(map[string]any{"item_id": adj.ItemID, "delta": adj.Delta})
	}

	row, err = repo.FindByID(ctx, adj.ItemID)
	if err != nil {
		return nil, db.ClassifyError(err, "reload inventory item")
	}
	reloaded, err := FromModel(*row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode inventory item")
	}
	updated := reloaded.(Concession)

	movement := &models.StockMovement{
		ItemID:      adj.ItemID,
		Kind:        adj.Kind,
		Delta:       adj.Delta,
		StockBefore: updated.InStock - adj.Delta,
		StockAfter:  updated.InStock,
		ReferenceID: adj.ReferenceID,
		CreatedBy:   adj.ActorID,
	}
	if err := repo.CreateMovement(ctx, movement); err != nil {
		return nil, db.ClassifyError(err, "record stock movement")
	}

	return &updated, nil
}
