package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/venueops-backend/internal/checkout/helpers"
	"github.com/angelmondragon/venueops-backend/internal/inventory"
	"github.com/angelmondragon/venueops-backend/internal/ledger"
	"github.com/angelmondragon/venueops-backend/internal/transactions"
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

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledgerRecorder interface {
	RecordEvent(ctx context.Context, tx *gorm.DB, input ledger.RecordLedgerEventInput) (*models.LedgerEvent, error)
}

// CartLine is one requested item and quantity.
type CartLine = helpers.CartLine

// CheckoutInput is a cart submitted by a staff member.
type CheckoutInput struct {
	ActorID uuid.UUID
	Lines   []CartLine
}

// ReceiptLine is a priced line of a completed checkout.
type ReceiptLine struct {
	ItemID         uuid.UUID `json:"item_id"`
	Label          string    `json:"label"`
	AmountSold     int       `json:"amount_sold"`
	LineTotalCents int       `json:"line_total_cents"`
}

// Receipt is the result of a committed checkout.
type Receipt struct {
	TransactionID      uuid.UUID     `json:"transaction_id"`
	TotalCents         int           `json:"total_cents"`
	Lines              []ReceiptLine `json:"lines"`
	SeasonPassFollowUp bool          `json:"season_pass_follow_up"`
	CreatedAt          time.Time     `json:"created_at"`
}

// Service executes checkouts.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*Receipt, error)
}

type ServiceParams struct {
	Tx              txRunner
	Inventory       inventory.Repository
	Adjuster        inventory.StockAdjuster
	Transactions    transactions.Repository
	Ledger          ledgerRecorder
	Outbox          outbox.Emitter
	Limiter         ratelimit.Limiter
	Metrics         *metrics.EngineMetrics
	Logger          *logger.Logger
	DuplicatePolicy enums.DuplicatePolicy
}

type service struct {
	tx           txRunner
	inventory    inventory.Repository
	adjuster     inventory.StockAdjuster
	transactions transactions.Repository
	ledger       ledgerRecorder
	outbox       outbox.Emitter
	limiter      ratelimit.Limiter
	metrics      *metrics.EngineMetrics
	logg         *logger.Logger
	policy       enums.DuplicatePolicy
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Transactions == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	adjuster := params.Adjuster
	if adjuster == nil {
		var err error
		if adjuster, err = inventory.NewStockAdjuster(params.Inventory); err != nil {
			return nil, err
		}
	}
	policy := params.DuplicatePolicy
	if policy == "" {
		policy = enums.DuplicatePolicyReject
	}
	if !policy.IsValid() {
		return nil, fmt.Errorf("unknown duplicate policy %q", policy)
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
		tx:           params.Tx,
		inventory:    params.Inventory,
		adjuster:     adjuster,
		transactions: params.Transactions,
		ledger:       params.Ledger,
		outbox:       params.Outbox,
		limiter:      limiter,
		metrics:      params.Metrics,
		logg:         logg,
		policy:       policy,
	}, nil
}

// Checkout decrements stock for every concession line and records the
// transaction, its sale and its outbox event in one atomic scope. Any failure
// leaves no trace.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) (receipt *Receipt, err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = string(pkgerrors.CodeOf(err))
		}
		s.metrics.Observe("checkout", outcome, time.Since(start))
	}()

	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOperation, "actor id required")
	}
	if err := s.limiter.Allow(ctx, ratelimit.ActionCheckout, input.ActorID.String()); err != nil {
		return nil, err
	}
	lines, err := helpers.NormalizeLines(input.Lines, s.policy)
	if err != nil {
		return nil, err
	}

	unitsSold := 0
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		items, err := s.loadItems(ctx, tx, lines)
		if err != nil {
			return err
		}
		if err := helpers.ValidateAvailability(lines, items); err != nil {
			return err
		}

		txn := &models.Transaction{ID: uuid.New(), CreatedBy: input.ActorID}
		rows := make([]models.TransactionItem, 0, len(lines))
		for _, line := range lines {
			if _, ok := items[line.ItemID].(inventory.Concession); ok {
				if _, err := s.adjuster.AdjustStock(ctx, tx, inventory.StockAdjustment{
					ItemID:      line.ItemID,
					Delta:       -line.AmountSold,
					Kind:        enums.StockMovementSale,
					ReferenceID: &txn.ID,
					ActorID:     input.ActorID,
				}); err != nil {
					return err
				}
				unitsSold += line.AmountSold
			}
			rows = append(rows, models.TransactionItem{
				ItemID:     line.ItemID,
				AmountSold: line.AmountSold,
				CreatedBy:  input.ActorID,
			})
		}

		if err := s.transactions.WithTx(tx).Create(ctx, txn, rows); err != nil {
			return db.ClassifyError(err, "create transaction")
		}

		totals := helpers.ComputeTotals(lines, items)
		receipt = buildReceipt(txn, totals)

		if err := s.recordSale(ctx, tx, txn.ID, input.ActorID, totals); err != nil {
			return err
		}
		return s.emitCreated(ctx, tx, input.ActorID, receipt)
	})
	if err != nil {
		return nil, db.ClassifyError(err, "checkout")
	}

	s.metrics.AddStockUnits(string(enums.StockMovementSale), unitsSold)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"transaction_id":        receipt.TransactionID.String(),
		"total_cents":           receipt.TotalCents,
		"lines":                 len(receipt.Lines),
		"season_pass_follow_up": receipt.SeasonPassFollowUp,
	})
	s.logg.Info(logCtx, "checkout.completed")
	return receipt, nil
}

// loadItems reads every referenced item in one query and converts the rows to
// their variants.
func (s *service) loadItems(ctx context.Context, tx *gorm.DB, lines []CartLine) (map[uuid.UUID]inventory.Item, error) {
	ids := make([]uuid.UUID, len(lines))
	for i, line := range lines {
		ids[i] = line.ItemID
	}
	rows, err := s.inventory.WithTx(tx).FindByIDs(ctx, ids)
	if err != nil {
		return nil, db.ClassifyError(err, "load cart items")
	}
	items := make([]inventory.Item, 0, len(rows))
	for _, row := range rows {
		item, err := inventory.FromModel(row)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode inventory item")
		}
		items = append(items, item)
	}
	return helpers.MatchItems(lines, items)
}

func (s *service) recordSale(ctx context.Context, tx *gorm.DB, transactionID, actorID uuid.UUID, totals helpers.Totals) error {
	metadata, err := json.Marshal(map[string]any{
		"lines":                 len(totals.Lines),
		"season_pass_follow_up": totals.SeasonPassFollowUp,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode sale metadata")
	}
	if _, err := s.ledger.RecordEvent(ctx, tx, ledger.RecordLedgerEventInput{
		TransactionID: transactionID,
		ActorUserID:   actorID,
		Type:          enums.LedgerEventTypeSale,
		AmountCents:   totals.TotalCents,
		Metadata:      metadata,
	}); err != nil {
		return db.ClassifyError(err, "record sale")
	}
	return nil
}

func (s *service) emitCreated(ctx context.Context, tx *gorm.DB, actorID uuid.UUID, receipt *Receipt) error {
	lines := make([]payloads.TransactionLine, len(receipt.Lines))
	for i, line := range receipt.Lines {
		lines[i] = payloads.TransactionLine{
			ItemID:         line.ItemID,
			AmountSold:     line.AmountSold,
			LineTotalCents: line.LineTotalCents,
		}
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventTransactionCreated,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   receipt.TransactionID,
		Actor:         &outbox.ActorRef{UserID: actorID},
		Data: payloads.TransactionCreatedEvent{
			TransactionID:      receipt.TransactionID,
			TotalCents:         receipt.TotalCents,
			Lines:              lines,
			SeasonPassFollowUp: receipt.SeasonPassFollowUp,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return db.ClassifyError(err, "queue transaction event")
	}
	return nil
}

func buildReceipt(txn *models.Transaction, totals helpers.Totals) *Receipt {
	lines := make([]ReceiptLine, len(totals.Lines))
	for i, line := range totals.Lines {
		lines[i] = ReceiptLine{
			ItemID:         line.ItemID,
			Label:          line.Label,
			AmountSold:     line.AmountSold,
			LineTotalCents: line.LineTotalCents,
		}
	}
	return &Receipt{
		TransactionID:      txn.ID,
		TotalCents:         totals.TotalCents,
		Lines:              lines,
		SeasonPassFollowUp: totals.SeasonPassFollowUp,
		CreatedAt:          txn.CreatedAt,
	}
}
