package specification

import (
	"github.com/amiirziyaa/video-platform/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForUpdate takes a row-level lock held for the rest of the
// transaction. Concurrent readers using it block until commit.
type ForUpdate struct{}

func (s ForUpdate) Apply(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// ByAuthority filters payments by the gateway correlation token.
type ByAuthority struct {
	Authority string
}

func (s ByAuthority) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("authority_code = ?", s.Authority)
}

// StatusIn filters subscriptions by a set of statuses.
type StatusIn struct {
	Statuses []entity.SubscriptionStatus
}

func (s StatusIn) Apply(db *gorm.DB) *gorm.DB {
	values := make([]string, len(s.Statuses))
	for i, st := range s.Statuses {
		values[i] = string(st)
	}
	return db.Where("status IN ?", values)
}

// PaymentStatusIs filters payments by status.
type PaymentStatusIs struct {
	Status entity.PaymentStatus
}

func (s PaymentStatusIs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", string(s.Status))
}

// ActivePlansOnly keeps plans visible on the pricing page.
type ActivePlansOnly struct{}

func (s ActivePlansOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

// PublishedOnly keeps videos visible in the catalog.
type PublishedOnly struct{}

func (s PublishedOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", "published")
}
