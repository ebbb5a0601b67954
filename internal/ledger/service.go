package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service records sale and refund money events. Writes join the caller's
// transaction so the ledger never disagrees with stock.
type Service interface {
	RecordEvent(ctx context.Context, tx *gorm.DB, input RecordLedgerEventInput) (*models.LedgerEvent, error)
	NetForTransaction(ctx context.Context, tx *gorm.DB, transactionID uuid.UUID) (int, error)
}

type service struct {
	repo Repository
}

// RecordLedgerEventInput captures the immutable data a ledger event requires.
type RecordLedgerEventInput struct {
	TransactionID uuid.UUID             `json:"transaction_id"`
	ActorUserID   uuid.UUID             `json:"actor_user_id"`
	Type          enums.LedgerEventType `json:"type"`
	AmountCents   int                   `json:"amount_cents"`
	Metadata      json.RawMessage       `json:"metadata"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RecordEvent(ctx context.Context, tx *gorm.DB, input RecordLedgerEventInput) (*models.LedgerEvent, error) {
	if input.TransactionID == uuid.Nil {
		return nil, fmt.Errorf("transaction id is required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, fmt.Errorf("actor user id is required")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid ledger event type %q", input.Type)
	}
	if input.AmountCents < 0 {
		return nil, fmt.Errorf("amount must be non-negative")
	}

	event := &models.LedgerEvent{
		TransactionID: input.TransactionID,
		ActorUserID:   input.ActorUserID,
		Type:          input.Type,
		AmountCents:   input.AmountCents,
		Metadata:      input.Metadata,
	}

	if err := s.repo.WithTx(tx).Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// NetForTransaction returns sales minus refunds recorded for a transaction.
// A non-nil tx sees writes the caller has not committed yet.
func (s *service) NetForTransaction(ctx context.Context, tx *gorm.DB, transactionID uuid.UUID) (int, error) {
	if transactionID == uuid.Nil {
		return 0, fmt.Errorf("transaction id is required")
	}
	events, err := s.repo.WithTx(tx).ListByTransactionID(ctx, transactionID)
	if err != nil {
		return 0, err
	}
	net := 0
	for _, event := range events {
		switch event.Type {
		case enums.LedgerEventTypeSale:
			net += event.AmountCents
		case enums.LedgerEventTypeRefund:
			net -= event.AmountCents
		}
	}
	return net, nil
}
