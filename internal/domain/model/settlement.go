package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const SettlementStatusProcessed = "processed"

// Settlement records one pending-to-available sweep for one merchant.
type Settlement struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"-"`
	SettlementID  string          `gorm:"size:40;not null;uniqueIndex" json:"settlement_id"`
	MerchantID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"merchant_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	PaymentsCount int             `gorm:"not null;default:0" json:"payments_count"`
	Status        string          `gorm:"size:16;not null" json:"status"`
	PeriodEnd     time.Time       `gorm:"not null" json:"period_end"`
	CreatedAt     time.Time       `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Settlement) TableName() string {
	return "settlements"
}
