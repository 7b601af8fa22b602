package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SubscriptionPlan struct {
	Id           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string          `gorm:"type:varchar(100);uniqueIndex;not null"`
	Slug         string          `gorm:"type:varchar(110);uniqueIndex;not null"`
	Description  string          `gorm:"type:text"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Currency     string          `gorm:"type:varchar(8);not null;default:'IRR'"`
	DurationDays int             `gorm:"not null;default:30"`
	Level        int             `gorm:"not null;default:1;index"`
	IsActive     bool            `gorm:"not null"`
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}
