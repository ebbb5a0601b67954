package voids

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/venueops-backend/internal/admissions"
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

// MaxReasonLength bounds the free-text void reason.
const MaxReasonLength = 500

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledgerRecorder interface {
	RecordEvent(ctx context.Context, tx *gorm.DB, input ledger.RecordLedgerEventInput) (*models.LedgerEvent, error)
	NetForTransaction(ctx context.Context, tx *gorm.DB, transactionID uuid.UUID) (int, error)
}

// VoidInput identifies the record to void and why.
type VoidInput struct {
	ID      uuid.UUID
	Reason  string
	ActorID uuid.UUID
}

// VoidResult reports a committed purchase void.
type VoidResult struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	RefundCents   int       `json:"refund_cents"`
	// NetCents is what the transaction still earns after the refund; admission
	// lines of a mixed transaction keep their revenue.
	NetCents      int       `json:"net_cents"`
	RestoredUnits int       `json:"restored_units"`
	VoidedAt      time.Time `json:"voided_at"`
}

// Service voids purchases and admissions. Both are terminal: a voided record
// never returns to active.
type Service interface {
	VoidTransaction(ctx context.Context, input VoidInput) (*VoidResult, error)
	VoidAdmission(ctx context.Context, input VoidInput) error
}

type ServiceParams struct {
	Tx           txRunner
	Transactions transactions.Repository
	Admissions   admissions.Repository
	Adjuster     inventory.StockAdjuster
	Ledger       ledgerRecorder
	Outbox       outbox.Emitter
	Limiter      ratelimit.Limiter
	Metrics      *metrics.EngineMetrics
	Logger       *logger.Logger
	Clock        func() time.Time
}

type service struct {
	tx           txRunner
	transactions transactions.Repository
	admissions   admissions.Repository
	adjuster     inventory.StockAdjuster
	ledger       ledgerRecorder
	outbox       outbox.Emitter
	limiter      ratelimit.Limiter
	metrics      *metrics.EngineMetrics
	logg         *logger.Logger
	now          func() time.Time
}

// NewService wires the void processor.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Transactions == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	if params.Admissions == nil {
		return nil, fmt.Errorf("admissions repository required")
	}
	if params.Adjuster == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	limiter := params.Limiter
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		tx:           params.Tx,
		transactions: params.Transactions,
		admissions:   params.Admissions,
		adjuster:     params.Adjuster,
		ledger:       params.Ledger,
		outbox:       params.Outbox,
		limiter:      limiter,
		metrics:      params.Metrics,
		logg:         logg,
		now:          now,
	}, nil
}

// VoidTransaction restores stock for every concession line and marks the
// transaction voided. Admission lines of a mixed transaction are neither
// restored nor refunded.
func (s *service) VoidTransaction(ctx context.Context, input VoidInput) (result *VoidResult, err error) {
	start := time.Now()
	defer func() { s.observe("void_transaction", start, err) }()

	reason, err := s.precheck(ctx, input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.transactions.WithTx(tx)
		txn, err := repo.FindByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, transactions.ErrNotFound) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "transaction %s not found", input.ID)
			}
			return db.ClassifyError(err, "load transaction")
		}
		if txn.IsVoided {
			return pkgerrors.Newf(pkgerrors.CodeInvalidOperation, "transaction %s is already voided", txn.ID)
		}

		lines, err := concessionLines(txn.Items)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidOperation, "cannot void a transaction without concession items")
		}

		refund, units := 0, 0
		for _, line := range lines {
			if _, err := s.adjuster.AdjustStock(ctx, tx, inventory.StockAdjustment{
				ItemID:      line.item.ID,
				Delta:       line.amount,
				Kind:        enums.StockMovementVoidRestore,
				ReferenceID: &txn.ID,
				ActorID:     input.ActorID,
			}); err != nil {
				return err
			}
			refund += line.amount * line.item.SellingPriceCents
			units += line.amount
		}

		voidedAt := s.now()
		applied, err := repo.MarkVoided(ctx, txn.ID, transactions.VoidMark{
			ActorID: input.ActorID,
			Reason:  reason,
			At:      voidedAt,
		})
		if err != nil {
			return db.ClassifyError(err, "mark transaction voided")
		}
		if !applied {
			return pkgerrors.Newf(pkgerrors.CodeConflict, "transaction %s was voided concurrently", txn.ID)
		}

		if err := s.recordRefund(ctx, tx, txn.ID, input.ActorID, refund, reason, len(lines) < len(txn.Items)); err != nil {
			return err
		}
		net, err := s.ledger.NetForTransaction(ctx, tx, txn.ID)
		if err != nil {
			return db.ClassifyError(err, "compute net after refund")
		}
		if err := s.emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTransactionVoided,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   txn.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID},
			Data: payloads.TransactionVoidedEvent{
				TransactionID: txn.ID,
				RefundCents:   refund,
				Reason:        reason,
				VoidedAt:      voidedAt,
			},
		}); err != nil {
			return err
		}

		result = &VoidResult{
			TransactionID: txn.ID,
			RefundCents:   refund,
			NetCents:      net,
			RestoredUnits: units,
			VoidedAt:      voidedAt,
		}
		return nil
	})
	if err != nil {
		return nil, db.ClassifyError(err, "void transaction")
	}

	s.metrics.AddStockUnits(string(enums.StockMovementVoidRestore), result.RestoredUnits)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"transaction_id": result.TransactionID.String(),
		"refund_cents":   result.RefundCents,
		"restored_units": result.RestoredUnits,
	})
	s.logg.Info(logCtx, "void.transaction.completed")
	return result, nil
}

// VoidAdmission marks an admission event voided. No stock moves.
func (s *service) VoidAdmission(ctx context.Context, input VoidInput) (err error) {
	start := time.Now()
	defer func() { s.observe("void_admission", start, err) }()

	reason, err := s.precheck(ctx, input)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.admissions.WithTx(tx)
		event, err := repo.FindByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, admissions.ErrNotFound) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "admission %s not found", input.ID)
			}
			return db.ClassifyError(err, "load admission")
		}
		if event.IsVoided {
			return pkgerrors.Newf(pkgerrors.CodeInvalidOperation, "admission %s is already voided", event.ID)
		}

		voidedAt := s.now()
		applied, err := repo.MarkVoided(ctx, event.ID, input.ActorID, reason, voidedAt)
		if err != nil {
			return db.ClassifyError(err, "mark admission voided")
		}
		if !applied {
			return pkgerrors.Newf(pkgerrors.CodeConflict, "admission %s was voided concurrently", event.ID)
		}

		return s.emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAdmissionVoided,
			AggregateType: enums.AggregateAdmission,
			AggregateID:   event.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID},
			Data: payloads.AdmissionVoidedEvent{
				AdmissionID: event.ID,
				PatronID:    event.PatronID,
				Reason:      reason,
				VoidedAt:    voidedAt,
			},
		})
	})
	if err != nil {
		return db.ClassifyError(err, "void admission")
	}

	s.logg.Info(s.logg.WithField(ctx, "admission_id", input.ID.String()), "void.admission.completed")
	return nil
}

// precheck validates the request and consumes a limiter slot. It returns the
// trimmed reason.
func (s *service) precheck(ctx context.Context, input VoidInput) (string, error) {
	if input.ID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeInvalidOperation, "id required")
	}
	if input.ActorID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeInvalidOperation, "actor id required")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return "", pkgerrors.New(pkgerrors.CodeInvalidOperation, "void reason required")
	}
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return "", pkgerrors.Newf(pkgerrors.CodeInvalidOperation, "void reason must be at most %d characters", MaxReasonLength)
	}
	if err := s.limiter.Allow(ctx, ratelimit.ActionVoid, input.ActorID.String()); err != nil {
		return "", err
	}
	return reason, nil
}

type restorableLine struct {
	item   inventory.Concession
	amount int
}

func concessionLines(items []models.TransactionItem) ([]restorableLine, error) {
	lines := make([]restorableLine, 0, len(items))
	for _, line := range items {
		item, err := inventory.FromModel(line.Item)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode transaction line")
		}
		switch v := item.(type) {
		case inventory.Concession:
			lines = append(lines, restorableLine{item: v, amount: line.AmountSold})
		case inventory.Admission:
			// nothing to restore
		}
	}
	return lines, nil
}

func (s *service) recordRefund(ctx context.Context, tx *gorm.DB, transactionID, actorID uuid.UUID, refund int, reason string, partial bool) error {
	metadata, err := json.Marshal(map[string]any{
		"reason":  reason,
		"partial": partial,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode refund metadata")
	}
	if _, err := s.ledger.RecordEvent(ctx, tx, ledger.RecordLedgerEventInput{
		TransactionID: transactionID,
		ActorUserID:   actorID,
		Type:          enums.LedgerEventTypeRefund,
		AmountCents:   refund,
		Metadata:      metadata,
	}); err != nil {
		return db.ClassifyError(err, "record refund")
	}
	return nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return db.ClassifyError(err, "queue void event")
	}
	return nil
}

func (s *service) observe(op string, start time.Time, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = string(pkgerrors.CodeOf(err))
	}
	s.metrics.Observe(op, outcome, time.Since(start))
}
