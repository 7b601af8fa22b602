package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusSuccess  PaymentStatus = "success"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// ErrInvalidState signals a transition on a payment that is not PENDING.
// Callers are expected to gate on Status first; hitting this is a
// programmer error, not a user-facing condition.
var ErrInvalidState = errors.New("payment is not in a pending state")

// Payment records one attempt to pay for a plan. Rows are never deleted;
// failed attempts are retained for audit.
type Payment struct {
	Id            uuid.UUID
	UserId        uuid.UUID
	PlanId        *uuid.UUID // nullable: the plan may be retired later
	Amount        decimal.Decimal
	Currency      string
	AuthorityCode string // gateway correlation token, empty until initiation succeeds
	ReferenceCode string // gateway settlement proof, empty until verified
	Status        PaymentStatus
	RequestedAt   time.Time
	ProcessedAt   *time.Time
	Metadata      map[string]interface{}
}

func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusSuccess || p.Status == PaymentStatusFailed || p.Status == PaymentStatusRefunded
}

// MarkSuccess transitions PENDING -> SUCCESS, stamping the gateway
// reference and processed time and merging extra metadata.
func (p *Payment) MarkSuccess(reference string, extra map[string]interface{}) error {
	if p.Status != PaymentStatusPending {
		return ErrInvalidState
	}
	now := time.Now()
	p.Status = PaymentStatusSuccess
	p.ReferenceCode = reference
	p.ProcessedAt = &now
	p.mergeMetadata(extra)
	return nil
}

// MarkFailed transitions PENDING -> FAILED and records the reason.
func (p *Payment) MarkFailed(reason string) error {
	if p.Status != PaymentStatusPending {
		return ErrInvalidState
	}
	now := time.Now()
	p.Status = PaymentStatusFailed
	p.ProcessedAt = &now
	p.mergeMetadata(map[string]interface{}{"reason": reason})
	return nil
}

func (p *Payment) mergeMetadata(extra map[string]interface{}) {
	if len(extra) == 0 {
		return
	}
	if p.Metadata == nil {
		p.Metadata = make(map[string]interface{}, len(extra))
	}
	for k, v := range extra {
		p.Metadata[k] = v
	}
}
