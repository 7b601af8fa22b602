package dto

import (
	"time"

	"github.com/google/uuid"
)

type CheckoutRequest struct {
	PlanId uuid.UUID `json:"plan_id" validate:"required"`
}

type CheckoutResponse struct {
	PaymentId   uuid.UUID `json:"payment_id"`
	RedirectUrl string    `json:"redirect_url"`
}

type RenewRequest struct {
	ExtraDays int `json:"extra_days" validate:"omitempty,gt=0"`
}

type PlanResponse struct {
	Id           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Price        string    `json:"price"`
	Currency     string    `json:"currency"`
	DurationDays int       `json:"duration_days"`
	Level        int       `json:"level"`
}

type SubscriptionResponse struct {
	Id          uuid.UUID  `json:"id"`
	PlanId      uuid.UUID  `json:"plan_id"`
	PlanName    string     `json:"plan_name,omitempty"`
	PlanLevel   int        `json:"plan_level,omitempty"`
	Status      string     `json:"status"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	AutoRenew   bool       `json:"auto_renew"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	IsActive    bool       `json:"is_active"`
}

type PaymentResponse struct {
	Id            uuid.UUID  `json:"id"`
	PlanId        *uuid.UUID `json:"plan_id,omitempty"`
	Amount        string     `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	ReferenceCode string     `json:"reference_code,omitempty"`
	RequestedAt   time.Time  `json:"requested_at"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

type CallbackResponse struct {
	Outcome      string                `json:"outcome"`
	Message      string                `json:"message"`
	WasUpgrade   bool                  `json:"was_upgrade,omitempty"`
	Subscription *SubscriptionResponse `json:"subscription,omitempty"`
}
