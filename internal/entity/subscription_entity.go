package entity

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// LiveStatuses are the states covered by the one-per-user storage
// constraint: a user may hold at most one subscription in these states.
var LiveStatuses = []SubscriptionStatus{SubscriptionStatusPending, SubscriptionStatusActive}

// Subscription is a user's entitlement window [StartDate, EndDate).
// All later successful purchases extend this row; a second live row is
// never created while one exists.
type Subscription struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	PlanId      uuid.UUID
	PaymentId   *uuid.UUID // the payment that most recently funded/extended it
	Status      SubscriptionStatus
	StartDate   time.Time
	EndDate     time.Time
	AutoRenew   bool
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewSubscriptionForPlan builds an ACTIVE subscription starting now and
// running for the plan's duration.
func NewSubscriptionForPlan(userId uuid.UUID, plan *SubscriptionPlan, paymentId *uuid.UUID) *Subscription {
	now := time.Now()
	return &Subscription{
		Id:        uuid.New(),
		UserId:    userId,
		PlanId:    plan.Id,
		PaymentId: paymentId,
		Status:    SubscriptionStatusActive,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, plan.DurationDays),
		AutoRenew: true,
	}
}

// IsActive is the derived entitlement predicate: ACTIVE and not yet past
// the end date. It is time-relative and never stored.
func (s *Subscription) IsActive() bool {
	if s.Status != SubscriptionStatusActive {
		return false
	}
	return !s.EndDate.Before(time.Now())
}

// Extend pushes the end date forward by days, stacking on the current
// end date so extending before expiry keeps the remaining time. A zero
// end date is based on now.
func (s *Subscription) Extend(days int) {
	base := s.EndDate
	if base.IsZero() {
		base = time.Now()
	}
	s.EndDate = base.AddDate(0, 0, days)
	s.Status = SubscriptionStatusActive
}

// Cancel terminates the subscription immediately. No partial refunds.
func (s *Subscription) Cancel() {
	now := time.Now()
	s.Status = SubscriptionStatusCancelled
	s.CancelledAt = &now
	s.EndDate = now
}

// RefreshStatus lazily demotes ACTIVE to EXPIRED once the end date has
// passed. Idempotent; reports whether anything changed so callers know
// to persist.
func (s *Subscription) RefreshStatus() bool {
	if s.Status == SubscriptionStatusActive && s.EndDate.Before(time.Now()) {
		s.Status = SubscriptionStatusExpired
		return true
	}
	return false
}
