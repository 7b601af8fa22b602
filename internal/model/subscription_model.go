package model

import (
	"time"

	"github.com/google/uuid"
)

// Subscription carries a partial unique index so the database, not the
// application, enforces at most one pending-or-active row per user.
// Concurrent double-creation surfaces as a duplicate-key error that the
// service layer recovers from. cmd/migrate also creates it via raw SQL
// for databases migrated before GORM supported the WHERE clause.
type Subscription struct {
	Id          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId      uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:uniq_live_subscription_per_user,where:status IN ('pending','active')"`
	PlanId      uuid.UUID  `gorm:"type:uuid;not null;index"`
	PaymentId   *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending'"`
	StartDate   time.Time  `gorm:"not null"`
	EndDate     time.Time  `gorm:"not null"`
	AutoRenew   bool       `gorm:"not null"`
	CancelledAt *time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
