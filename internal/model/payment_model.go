package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Payment struct {
	Id            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId        uuid.UUID       `gorm:"type:uuid;not null;index"`
	PlanId        *uuid.UUID      `gorm:"type:uuid;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Currency      string          `gorm:"type:varchar(8);not null;default:'IRR'"`
	AuthorityCode string          `gorm:"type:varchar(64);index"`
	ReferenceCode string          `gorm:"type:varchar(64)"`
	Status        string          `gorm:"type:varchar(20);not null;default:'pending'"`
	RequestedAt   time.Time       `gorm:"not null;autoCreateTime"`
	ProcessedAt   *time.Time
	Metadata      datatypes.JSONMap `gorm:"type:jsonb"`
}

func (Payment) TableName() string {
	return "payments"
}
