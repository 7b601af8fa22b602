package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubscriptionPlan is read-only reference data from the billing core's
// perspective. Plans are ordered by Level; a higher level unlocks more
// of the catalog.
type SubscriptionPlan struct {
	Id           uuid.UUID
	Name         string
	Slug         string
	Description  string
	Price        decimal.Decimal
	Currency     string
	DurationDays int
	Level        int
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
