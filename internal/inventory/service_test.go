package inventory

import (
	"context"
	"testing"

	"github.com/angelmondragon/venueops-backend/pkg/db/dbtest"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/outbox"
	"github.com/angelmondragon/venueops-backend/pkg/ratelimit"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, ratelimit.Action, string) error {
	return pkgerrors.New(pkgerrors.CodeRateLimit, "slow down")
}

func newInventoryService(t *testing.T, limiter ratelimit.Limiter) (Service, *gorm.DB) {
	t.Helper()
	client, conn := dbtest.Client(t)
	svc, err := NewService(ServiceParams{
		Tx:      client,
		Repo:    NewRepository(conn),
		Outbox:  outbox.NewService(outbox.NewRepository(conn), nil),
		Limiter: limiter,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func intPtr(v int) *int { return &v }

func TestCreateItemVariants(t *testing.T) {
	svc, _ := newInventoryService(t, nil)
	actor := uuid.New()

	concession, err := svc.CreateItem(context.Background(), CreateItemInput{
		Label:             "  Hot Dog ",
		Category:          enums.ItemCategoryConcession,
		SellingPriceCents: 450,
		InStock:           intPtr(20),
		ActorID:           actor,
	})
	if err != nil {
		t.Fatalf("create concession: %v", err)
	}
	if concession.Label != "Hot Dog" || concession.ID == uuid.Nil {
		t.Fatalf("unexpected concession %+v", concession)
	}

	admission, err := svc.CreateItem(context.Background(), CreateItemInput{
		Label:             "Season Pass",
		Category:          enums.ItemCategoryAdmission,
		SellingPriceCents: 9900,
		IsSeasonal:        true,
		PatronLimit:       intPtr(1),
		ActorID:           actor,
	})
	if err != nil {
		t.Fatalf("create admission: %v", err)
	}

	got, err := svc.Get(context.Background(), admission.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	pass, ok := got.(Admission)
	if !ok || !pass.IsSeasonal {
		t.Fatalf("expected seasonal admission, got %#v", got)
	}
}

func TestCreateItemRejectsCrossedVariants(t *testing.T) {
	svc, _ := newInventoryService(t, nil)
	actor := uuid.New()

	inputs := []CreateItemInput{
		{Label: "Pass", Category: enums.ItemCategoryAdmission, InStock: intPtr(3), ActorID: actor},
		{Label: "Chips", Category: enums.ItemCategoryConcession, ActorID: actor},
		{Label: "Chips", Category: enums.ItemCategoryConcession, InStock: intPtr(1), PatronLimit: intPtr(2), ActorID: actor},
		{Label: "", Category: enums.ItemCategoryConcession, InStock: intPtr(1), ActorID: actor},
		{Label: "Merch", Category: "merch", ActorID: actor},
	}
	for i, input := range inputs {
		if _, err := svc.CreateItem(context.Background(), input); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidOperation) {
			t.Fatalf("input %d: expected invalid operation, got %v", i, err)
		}
	}
}

func TestRestockAddsStockAndQueuesEvent(t *testing.T) {
	svc, conn := newInventoryService(t, nil)
	soda := dbtest.Concession(t, conn, "Soda", 300, 1)

	updated, err := svc.Restock(context.Background(), RestockInput{ItemID: soda.ID, Quantity: 24, ActorID: uuid.New()})
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if updated.InStock != 25 {
		t.Fatalf("expected 25, got %d", updated.InStock)
	}

	rows, err := outbox.NewRepository(conn).ListByAggregate(nil, soda.ID)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(rows) != 1 || rows[0].EventType != enums.EventStockRestocked {
		t.Fatalf("expected one stock_restocked event, got %+v", rows)
	}
}

func TestRestockRollsBackOnAdmission(t *testing.T) {
	svc, conn := newInventoryService(t, nil)
	pass := dbtest.Admission(t, conn, "Day Pass", 1500, false)

	_, err := svc.Restock(context.Background(), RestockInput{ItemID: pass.ID, Quantity: 5, ActorID: uuid.New()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidOperation) {
		t.Fatalf("expected invalid operation, got %v", err)
	}
	if n := dbtest.Count(t, conn, &models.OutboxEvent{}); n != 0 {
		t.Fatalf("expected no outbox rows, got %d", n)
	}
}

func TestRestockValidatesQuantityAndLimits(t *testing.T) {
	svc, conn := newInventoryService(t, nil)
	soda := dbtest.Concession(t, conn, "Soda", 300, 1)

	for _, qty := range []int{0, -1, maxRestockQuantity + 1} {
		_, err := svc.Restock(context.Background(), RestockInput{ItemID: soda.ID, Quantity: qty, ActorID: uuid.New()})
		if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidOperation) {
			t.Fatalf("quantity %d: expected invalid operation, got %v", qty, err)
		}
	}

	limited, conn := newInventoryService(t, denyLimiter{})
	soda = dbtest.Concession(t, conn, "Soda", 300, 1)
	_, err := limited.Restock(context.Background(), RestockInput{ItemID: soda.ID, Quantity: 1, ActorID: uuid.New()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeRateLimit) {
		t.Fatalf("expected rate limit, got %v", err)
	}
	if got := dbtest.Stock(t, conn, soda.ID); got != 1 {
		t.Fatalf("rate limited restock must not touch stock, got %d", got)
	}
}

func TestMovementsTraceRestockHistory(t *testing.T) {
	svc, conn := newInventoryService(t, nil)
	soda := dbtest.Concession(t, conn, "Soda", 300, 1)
	actor := uuid.New()

	for _, qty := range []int{24, 5} {
		if _, err := svc.Restock(context.Background(), RestockInput{ItemID: soda.ID, Quantity: qty, ActorID: actor}); err != nil {
			t.Fatalf("restock %d: %v", qty, err)
		}
	}

	history, err := svc.Movements(context.Background(), soda.ID)
	if err != nil {
		t.Fatalf("movements: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(history))
	}
	if history[0].StockBefore != 1 || history[0].StockAfter != 25 || history[1].StockAfter != 30 {
		t.Fatalf("unexpected history %+v", history)
	}
	for _, m := range history {
		if m.Kind != enums.StockMovementRestock || m.CreatedBy != actor {
			t.Fatalf("unexpected movement %+v", m)
		}
	}

	if _, err := svc.Movements(context.Background(), uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetMissingItem(t *testing.T) {
	svc, _ := newInventoryService(t, nil)
	if _, err := svc.Get(context.Background(), uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
