package enums

import "fmt"

// OutboxAggregateType maps to outbox_events.aggregate_type.
type OutboxAggregateType string

const (
	AggregateTransaction   OutboxAggregateType = "transaction"
	AggregateAdmission     OutboxAggregateType = "admission_event"
	AggregateInventoryItem OutboxAggregateType = "inventory_item"
	AggregateTimeClock     OutboxAggregateType = "time_clock_event"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateTransaction,
	AggregateAdmission,
	AggregateInventoryItem,
	AggregateTimeClock,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to outbox_events.event_type.
type OutboxEventType string

const (
	EventTransactionCreated OutboxEventType = "transaction_created"
	EventTransactionVoided  OutboxEventType = "transaction_voided"
	EventAdmissionVoided    OutboxEventType = "admission_voided"
	EventStockRestocked     OutboxEventType = "stock_restocked"
	EventPunchRecorded      OutboxEventType = "punch_recorded"
)

var validOutboxEventTypes = []OutboxEventType{
	EventTransactionCreated,
	EventTransactionVoided,
	EventAdmissionVoided,
	EventStockRestocked,
	EventPunchRecorded,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason records why an event stopped being retried.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)
