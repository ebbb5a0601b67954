package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
	"github.com/angelmondragon/venueops-backend/pkg/metrics"
	"github.com/angelmondragon/venueops-backend/pkg/outbox"
	"github.com/angelmondragon/venueops-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/venueops-backend/pkg/ratelimit"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxRestockQuantity = 10000

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages inventory items outside of checkout and void flows.
type Service interface {
	CreateItem(ctx context.Context, input CreateItemInput) (*models.InventoryItem, error)
	Restock(ctx context.Context, input RestockInput) (*Concession, error)
	Get(ctx context.Context, id uuid.UUID) (Item, error)
	Movements(ctx context.Context, id uuid.UUID) ([]models.StockMovement, error)
}

// CreateItemInput describes a new inventory item.
type CreateItemInput struct {
	Label              string
	Category           enums.ItemCategory
	SellingPriceCents  int
	PurchasePriceCents *int
	InStock            *int
	IsSeasonal         bool
	IsDay              bool
	PatronLimit        *int
	ActorID            uuid.UUID
}

// RestockInput adds Quantity units to a concession.
type RestockInput struct {
	ItemID   uuid.UUID
	Quantity int
	ActorID  uuid.UUID
}

type ServiceParams struct {
	Tx       txRunner
	Repo     Repository
	Adjuster StockAdjuster
	Outbox   outbox.Emitter
	Limiter  ratelimit.Limiter
	Metrics  *metrics.EngineMetrics
	Logger   *logger.Logger
}

type service struct {
	tx       txRunner
	repo     Repository
	adjuster StockAdjuster
	outbox   outbox.Emitter
	limiter  ratelimit.Limiter
	metrics  *metrics.EngineMetrics
	logg     *logger.Logger
}

// NewService wires the inventory service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	adjuster := params.Adjuster
	if adjuster == nil {
		var err error
		if adjuster, err = NewStockAdjuster(params.Repo); err != nil {
			return nil, err
		}
	}
	limiter := params.Limiter
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		tx:       params.Tx,
		repo:     params.Repo,
		adjuster: adjuster,
		outbox:   params.Outbox,
		limiter:  limiter,
		metrics:  params.Metrics,
		logg:     logg,
	}, nil
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*models.InventoryItem, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	item := &models.InventoryItem{
		Label:              strings.TrimSpace(input.Label),
		Category:           input.Category,
		SellingPriceCents:  input.SellingPriceCents,
		PurchasePriceCents: input.PurchasePriceCents,
		InStock:            input.InStock,
		IsSeasonal:         input.IsSeasonal,
		IsDay:              input.IsDay,
		PatronLimit:        input.PatronLimit,
		CreatedBy:          input.ActorID,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, db.ClassifyError(err, "create inventory item")
	}
	return item, nil
}

func validateCreate(input CreateItemInput) error {
	if input.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInvalidOperation, "actor id required")
	}
	if strings.TrimSpace(input.Label) == "" {
		return pkgerrors.New(pkgerrors.CodeInvalidOperation, "label required")
	}
	if input.SellingPriceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidOperation, "selling price must be non-negative")
	}
	switch input.Category {
	case enums.ItemCategoryConcession:
		if input.InStock == nil || *input.InStock < 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidOperation, "concessions need a non-negative starting stock")
		}
		if input.PurchasePriceCents != nil && *input.PurchasePriceCents < 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidOperation, "purchase price must be non-negative")
		}
		if input.PatronLimit != nil || input.IsDay {
			return pkgerrors.New(pkgerrors.CodeInvalidOperation, "patron limit and day flag apply to admissions only")
		}
	case enums.ItemCategoryAdmission:
		if input.InStock != nil || input.PurchasePriceCents != nil {
			return pkgerrors.New(pkgerrors.CodeInvalidOperation, "admissions do not carry stock or purchase price")
		}
		if input.PatronLimit != nil && *input.PatronLimit < 1 {
			return pkgerrors.New(pkgerrors.CodeInvalidOperation, "patron limit must be at least 1")
		}
	default:
		return pkgerrors.Newf(pkgerrors.CodeInvalidOperation, "unknown item category %q", input.Category)
	}
	return nil
}

func (s *service) Restock(ctx context.Context, input RestockInput) (result *Concession, err error) {
	start := time.Now()
	defer func() { s.observe("restock", start, err) }()

	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOperation, "actor id required")
	}
	if input.Quantity < 1 || input.Quantity > maxRestockQuantity {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidOperation, "restock quantity must be between 1 and %d", maxRestockQuantity)
	}
	if err := s.limiter.Allow(ctx, ratelimit.ActionRestock, input.ActorID.String()); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		updated, err := s.adjuster.AdjustStock(ctx, tx, StockAdjustment{
			ItemID:  input.ItemID,
			Delta:   input.Quantity,
			Kind:    enums.StockMovementRestock,
			ActorID: input.ActorID,
		})
		if err != nil {
			return err
		}
		result = updated
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockRestocked,
			AggregateType: enums.AggregateInventoryItem,
			AggregateID:   updated.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID},
			Data: payloads.StockRestockedEvent{
				ItemID:     updated.ID,
				Quantity:   input.Quantity,
				StockAfter: updated.InStock,
			},
		})
	})
	if err != nil {
		return nil, db.ClassifyError(err, "restock")
	}

	s.metrics.AddStockUnits(string(enums.StockMovementRestock), input.Quantity)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"item_id":     result.ID.String(),
		"quantity":    input.Quantity,
		"stock_after": result.InStock,
	})
	s.logg.Info(logCtx, "inventory.restocked")
	return result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (Item, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "inventory item %s not found", id)
		}
		return nil, db.ClassifyError(err, "load inventory item")
	}
	item, err := FromModel(*row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode inventory item")
	}
	return item, nil
}

// Movements returns an item's stock history, oldest first. Admissions have
// no stock and so an empty history.
func (s *service) Movements(ctx context.Context, id uuid.UUID) ([]models.StockMovement, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListMovements(ctx, id)
	if err != nil {
		return nil, db.ClassifyError(err, "list stock movements")
	}
	return rows, nil
}

func (s *service) observe(op string, start time.Time, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = string(pkgerrors.CodeOf(err))
	}
	s.metrics.Observe(op, outcome, time.Since(start))
}
