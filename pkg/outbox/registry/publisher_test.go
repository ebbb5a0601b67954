package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/venueops-backend/pkg/config"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	"github.com/angelmondragon/venueops-backend/pkg/outbox"
	"github.com/angelmondragon/venueops-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

func TestEventRegistryResolveSuccess(t *testing.T) {
	reg := newTestEventRegistry(t)

	txnID := uuid.New()
	event := models.OutboxEvent{
		EventType:     enums.EventTransactionVoided,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   txnID,
		Payload: mustEnvelope(t, mustMarshal(t, payloads.TransactionVoidedEvent{
			TransactionID: txnID,
			RefundCents:   1500,
			Reason:        "wrong item",
		})),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "events-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	payload, ok := resolved.Payload.(*payloads.TransactionVoidedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if payload.RefundCents != 1500 || payload.TransactionID != txnID {
		t.Fatalf("payload mismatch %+v", payload)
	}
	if resolved.Envelope.EventID == "" || resolved.Envelope.OccurredAt.IsZero() {
		t.Fatalf("envelope metadata missing: %+v", resolved.Envelope)
	}
}

func TestEventRegistryResolveFailuresAreNonRetryable(t *testing.T) {
	reg := newTestEventRegistry(t)
	valid := mustEnvelope(t, mustMarshal(t, payloads.StockRestockedEvent{ItemID: uuid.New(), Quantity: 5}))

	cases := map[string]models.OutboxEvent{
		"unknown type": {
			EventType:     "mystery",
			AggregateType: enums.AggregateInventoryItem,
			AggregateID:   uuid.New(),
			Payload:       valid,
		},
		"aggregate mismatch": {
			EventType:     enums.EventStockRestocked,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   uuid.New(),
			Payload:       valid,
		},
		"missing aggregate id": {
			EventType:     enums.EventStockRestocked,
			AggregateType: enums.AggregateInventoryItem,
			Payload:       valid,
		},
		"null payload": {
			EventType:     enums.EventStockRestocked,
			AggregateType: enums.AggregateInventoryItem,
			AggregateID:   uuid.New(),
			Payload:       mustEnvelope(t, json.RawMessage("null")),
		},
		"bad envelope": {
			EventType:     enums.EventStockRestocked,
			AggregateType: enums.AggregateInventoryItem,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage("{"),
		},
	}

	for name, event := range cases {
		_, err := reg.Resolve(event)
		var nonRetry NonRetryableError
		if !errors.As(err, &nonRetry) {
			t.Fatalf("%s: expected non-retryable error, got %v", name, err)
		}
	}
}

func TestNewEventRegistryRequiresTopic(t *testing.T) {
	if _, err := NewEventRegistry(config.PubSubConfig{}); err == nil {
		t.Fatal("expected missing topic error")
	}
}

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{EventsTopic: "events-topic"})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func mustEnvelope(t *testing.T, data json.RawMessage) json.RawMessage {
	t.Helper()
	return mustMarshal(t, outbox.PayloadEnvelope{
		Version:    outbox.CurrentVersion,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
}
