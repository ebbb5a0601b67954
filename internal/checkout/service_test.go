package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/venueops-backend/internal/inventory"
	"github.com/angelmondragon/venueops-backend/internal/ledger"
	"github.com/angelmondragon/venueops-backend/internal/transactions"
	"github.com/angelmondragon/venueops-backend/pkg/db/dbtest"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/outbox"
	"github.com/angelmondragon/venueops-backend/pkg/ratelimit"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type harness struct {
	svc  Service
	conn *gorm.DB
}

type serviceOption func(*ServiceParams)

func withPolicy(policy enums.DuplicatePolicy) serviceOption {
	return func(p *ServiceParams) { p.DuplicatePolicy = policy }
}

func withOutbox(emitter outbox.Emitter) serviceOption {
	return func(p *ServiceParams) { p.Outbox = emitter }
}

func withLimiter(limiter ratelimit.Limiter) serviceOption {
	return func(p *ServiceParams) { p.Limiter = limiter }
}

func withAdjuster(adjuster inventory.StockAdjuster) serviceOption {
	return func(p *ServiceParams) { p.Adjuster = adjuster }
}

func newHarness(t *testing.T, opts ...serviceOption) harness {
	t.Helper()
	client, conn := dbtest.Client(t)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	params := ServiceParams{
		Tx:           client,
		Inventory:    inventory.NewRepository(conn),
		Transactions: transactions.NewRepository(conn),
		Ledger:       ledgerSvc,
		Outbox:       outbox.NewService(outbox.NewRepository(conn), nil),
	}
	for _, opt := range opts {
		opt(&params)
	}
	svc, err := NewService(params)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return harness{svc: svc, conn: conn}
}

type failingEmitter struct{}

func (failingEmitter) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error {
	return errors.New("outbox insert failed")
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, ratelimit.Action, string) error {
	return pkgerrors.New(pkgerrors.CodeRateLimit, "slow down")
}

type racingAdjuster struct{}

func (racingAdjuster) AdjustStock(context.Context, *gorm.DB, inventory.StockAdjustment) (*inventory.Concession, error) {
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "stock for Soda changed concurrently")
}

func (h harness) assertNothingWritten(t *testing.T) {
	t.Helper()
	for name, model := range map[string]any{
		"transactions":      &models.Transaction{},
		"transaction_items": &models.TransactionItem{},
		"stock_movements":   &models.StockMovement{},
		"ledger_events":     &models.LedgerEvent{},
		"outbox_events":     &models.OutboxEvent{},
	} {
		if n := dbtest.Count(t, h.conn, model); n != 0 {
			t.Fatalf("expected no %s rows, got %d", name, n)
		}
	}
}

func TestCheckoutDecrementsStockAndRecordsEverything(t *testing.T) {
	h := newHarness(t)
	soda := dbtest.Concession(t, h.conn, "Soda", 300, 10)
	chips := dbtest.Concession(t, h.conn, "Chips", 200, 5)
	pass := dbtest.Admission(t, h.conn, "Day Pass", 1500, false)
	actor := uuid.New()

	receipt, err := h.svc.Checkout(context.Background(), CheckoutInput{
		ActorID: actor,
		Lines: []CartLine{
			{ItemID: soda.ID, AmountSold: 2},
			{ItemID: chips.ID, AmountSold: 5},
			{ItemID: pass.ID, AmountSold: 3},
		},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if receipt.TotalCents != 2*300+5*200+3*1500 {
		t.Fatalf("unexpected total %d", receipt.TotalCents)
	}
	if receipt.SeasonPassFollowUp {
		t.Fatalf("no seasonal item was sold")
	}
	if len(receipt.Lines) != 3 || receipt.Lines[0].Label != "Soda" || receipt.Lines[0].LineTotalCents != 600 {
		t.Fatalf("unexpected receipt lines %+v", receipt.Lines)
	}
	if got := dbtest.Stock(t, h.conn, soda.ID); got != 8 {
		t.Fatalf("expected soda stock 8, got %d", got)
	}
	if got := dbtest.Stock(t, h.conn, chips.ID); got != 0 {
		t.Fatalf("expected chips stock 0, got %d", got)
	}

	txn, err := transactions.NewRepository(h.conn).FindByID(context.Background(), receipt.TransactionID)
	if err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if txn.CreatedBy != actor || txn.IsVoided || len(txn.Items) != 3 {
		t.Fatalf("unexpected transaction %+v", txn)
	}

	if n := dbtest.Count(t, h.conn, &models.StockMovement{}); n != 2 {
		t.Fatalf("expected 2 movements (concessions only), got %d", n)
	}
	var sale models.LedgerEvent
	if err := h.conn.Where("transaction_id = ?", receipt.TransactionID).First(&sale).Error; err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if sale.Type != enums.LedgerEventTypeSale || sale.AmountCents != receipt.TotalCents {
		t.Fatalf("unexpected ledger event %+v", sale)
	}
	events, err := outbox.NewRepository(h.conn).ListByAggregate(nil, receipt.TransactionID)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(events) != 1 || events[0].EventType != enums.EventTransactionCreated {
		t.Fatalf("expected one transaction_created event, got %+v", events)
	}
}

func TestCheckoutFlagsSeasonPassFollowUp(t *testing.T) {
	h := newHarness(t)
	season := dbtest.Admission(t, h.conn, "Season Pass", 9900, true)

	receipt, err := h.svc.Checkout(context.Background(), CheckoutInput{
		ActorID: uuid.New(),
		Lines:   []CartLine{{ItemID: season.ID, AmountSold: 1}},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !receipt.SeasonPassFollowUp || receipt.TotalCents != 9900 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	h := newHarness(t)
	soda := dbtest.Concession(t, h.conn, "Soda", 300, 10)
	chips := dbtest.Concession(t, h.conn, "Chips", 200, 1)

	_, err := h.svc.Checkout(context.Background(), CheckoutInput{
		ActorID: uuid.New(),
		Lines: []CartLine{
			{ItemID: soda.ID, AmountSold: 2},
			{ItemID: chips.ID, AmountSold: 3},
		},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidOperation) {
		t.Fatalf("expected invalid operation, got %v", err)
	}
	if msg := pkgerrors.As(err).Message(); msg != "insufficient stock for Chips" {
		t.Fatalf("unexpected message %q", msg)
	}
	if got := dbtest.Stock(t, h.conn, soda.ID); got != 10 {
		t.Fatalf("soda stock must be untouched, got %d", got)
	}
	h.assertNothingWritten(t)
}

func TestCheckoutLateFailureRollsBackStock(t *testing.T) {
	h := newHarness(t, withOutbox(failingEmitter{}))
	soda := dbtest.Concession(t, h.conn, "Soda", 300, 10)

	_, err := h.svc.Checkout(context.Background(), CheckoutInput{
		ActorID: uuid.New(),
		Lines:   []CartLine{{ItemID: soda.ID, AmountSold: 4}},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStoreFailure) {
		t.Fatalf("expected store failure, got %v", err)
	}
	if got := dbtest.Stock(t, h.conn, soda.ID); got != 10 {
		t.Fatalf("stock must roll back, got %d", got)
	}
	h.assertNothingWritten(t)
}

func TestCheckoutDuplicatePolicies(t *testing.T) {
	reject := newHarness(t)
	soda := dbtest.Concession(t, reject.conn, "Soda", 300, 10)
	cart := []CartLine{{ItemID: soda.ID, AmountSold: 1}, {ItemID: soda.ID, AmountSold: 2}}

	_, err := reject.svc.Checkout(context.Background(), CheckoutInput{ActorID: uuid.New(), Lines: cart})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidOperation) {
		t.Fatalf("expected invalid operation under reject, got %v", err)
	}
	if got := dbtest.Stock(t, reject.conn, soda.ID); got != 10 {
		t.Fatalf("rejected cart must not touch stock, got %d", got)
	}

	merge := newHarness(t, withPolicy(enums.DuplicatePolicyMerge))
	soda = dbtest.Concession(t, merge.conn, "Soda", 300, 10)
	cart = []CartLine{{ItemID: soda.ID, AmountSold: 1}, {ItemID: soda.ID, AmountSold: 2}}

	receipt, err := merge.svc.Checkout(context.Background(), CheckoutInput{ActorID: uuid.New(), Lines: cart})
	if err != nil {
		t.Fatalf("merge checkout: %v", err)
	}
	if len(receipt.Lines) != 1 || receipt.Lines[0].AmountSold != 3 || receipt.TotalCents != 900 {
		t.Fatalf("expected one merged line, got %+v", receipt)
	}
	if got := dbtest.Stock(t, merge.conn, soda.ID); got != 7 {
		t.Fatalf("expected stock 7, got %d", got)
	}
}

func TestCheckoutRejectsUnknownAndArchivedItems(t *testing.T) {
	h := newHarness(t)
	soda := dbtest.Concession(t, h.conn, "Soda", 300, 10)
	old := dbtest.Concession(t, h.conn, "Old Chips", 200, 10)
	if err := h.conn.Model(&models.InventoryItem{}).Where("id = ?", old.ID).Update("is_archived", true).Error; err != nil {
		t.Fatalf("archive: %v", err)
	}

	_, err := h.svc.Checkout(context.Background(), CheckoutInput{
		ActorID: uuid.New(),
		Lines:   []CartLine{{ItemID: soda.ID, AmountSold: 1}, {ItemID: uuid.New(), AmountSold: 1}},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidOperation) {
		t.Fatalf("expected invalid operation for unknown id, got %v", err)
	}

	_, err = h.svc.Checkout(context.Background(), CheckoutInput{
		ActorID: uuid.New(),
		Lines:   []CartLine{{ItemID: old.ID, AmountSold: 1}},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidOperation) {
		t.Fatalf("expected invalid operation for archived item, got %v", err)
	}
	h.assertNothingWritten(t)
}

func TestCheckoutSurfacesConflicts(t *testing.T) {
	h := newHarness(t, withAdjuster(racingAdjuster{}))
	soda := dbtest.Concession(t, h.conn, "Soda", 300, 10)

	_, err := h.svc.Checkout(context.Background(), CheckoutInput{
		ActorID: uuid.New(),
		Lines:   []CartLine{{ItemID: soda.ID, AmountSold: 1}},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	h.assertNothingWritten(t)
}

func TestCheckoutGuards(t *testing.T) {
	h := newHarness(t, withLimiter(denyLimiter{}))
	soda := dbtest.Concession(t, h.conn, "Soda", 300, 10)

	_, err := h.svc.Checkout(context.Background(), CheckoutInput{Lines: []CartLine{{ItemID: soda.ID, AmountSold: 1}}})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidOperation) {
		t.Fatalf("expected invalid operation without actor, got %v", err)
	}

	_, err = h.svc.Checkout(context.Background(), CheckoutInput{ActorID: uuid.New(), Lines: []CartLine{{ItemID: soda.ID, AmountSold: 1}}})
	if !pkgerrors.IsCode(err, pkgerrors.CodeRateLimit) {
		t.Fatalf("expected rate limit, got %v", err)
	}
	if got := dbtest.Stock(t, h.conn, soda.ID); got != 10 {
		t.Fatalf("stock must be untouched, got %d", got)
	}
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatalf("expected error for missing dependencies")
	}
	client, conn := dbtest.Client(t)
	ledgerSvc, _ := ledger.NewService(ledger.NewRepository(conn))
	_, err := NewService(ServiceParams{
		Tx:              client,
		Inventory:       inventory.NewRepository(conn),
		Transactions:    transactions.NewRepository(conn),
		Ledger:          ledgerSvc,
		Outbox:          outbox.NewService(outbox.NewRepository(conn), nil),
		DuplicatePolicy: "sometimes",
	})
	if err == nil {
		t.Fatalf("expected error for unknown duplicate policy")
	}
}
