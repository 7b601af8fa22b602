package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "PAYMENT_SETTLED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is a plain implementation usable for most publishers.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Event type codes emitted by the billing core.
const (
	TypePaymentSettled        = "PAYMENT_SETTLED"
	TypePaymentFailed         = "PAYMENT_FAILED"
	TypeSubscriptionExtended  = "SUBSCRIPTION_EXTENDED"
	TypeSubscriptionCancelled = "SUBSCRIPTION_CANCELLED"
)
