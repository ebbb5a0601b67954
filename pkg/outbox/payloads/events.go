package payloads

import (
	"time"

	"github.com/google/uuid"
)

// TransactionLine is a sold line as published downstream.
type TransactionLine struct {
	ItemID         uuid.UUID `json:"item_id"`
	AmountSold     int       `json:"amount_sold"`
	LineTotalCents int       `json:"line_total_cents"`
}

// TransactionCreatedEvent is emitted after a checkout commits.
type TransactionCreatedEvent struct {
	TransactionID      uuid.UUID         `json:"transaction_id"`
	TotalCents         int               `json:"total_cents"`
	Lines              []TransactionLine `json:"lines"`
	SeasonPassFollowUp bool              `json:"season_pass_follow_up"`
}

// TransactionVoidedEvent is emitted after a purchase void commits.
type TransactionVoidedEvent struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	RefundCents   int       `json:"refund_cents"`
	Reason        string    `json:"reason"`
	VoidedAt      time.Time `json:"voided_at"`
}

// AdmissionVoidedEvent is emitted after an admission void commits.
type AdmissionVoidedEvent struct {
	AdmissionID uuid.UUID `json:"admission_id"`
	PatronID    uuid.UUID `json:"patron_id"`
	Reason      string    `json:"reason"`
	VoidedAt    time.Time `json:"voided_at"`
}

// StockRestockedEvent is emitted after a manual restock.
type StockRestockedEvent struct {
	ItemID     uuid.UUID `json:"item_id"`
	Quantity   int       `json:"quantity"`
	StockAfter int       `json:"stock_after"`
}

// PunchRecordedEvent is emitted for every timeclock punch.
type PunchRecordedEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	UserID    uuid.UUID `json:"user_id"`
	PunchType string    `json:"punch_type"`
	PunchedAt time.Time `json:"punched_at"`
}
