package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentStatusSuccess = "success"
	PaymentMethodWallet  = "wallet"
)

// Payment is the result of capturing an order. OrderID is unique, so an order
// has at most one payment.
type Payment struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"-"`
	PaymentID     string          `gorm:"size:40;not null;uniqueIndex" json:"payment_id"`
	OrderID       string          `gorm:"size:40;not null;uniqueIndex" json:"order_id"`
	MerchantID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_payments_merchant_settlement" json:"merchant_id"`
	BuyerID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"buyer_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency      string          `gorm:"size:3;not null" json:"currency"`
	Status        string          `gorm:"size:20;not null" json:"status"`
	Method        string          `gorm:"size:20;not null" json:"method"`
	TransactionID string          `gorm:"size:40;not null" json:"transaction_id"`
	SettlementID  *string         `gorm:"size:40;index:idx_payments_merchant_settlement" json:"settlement_id,omitempty"`
	CreatedAt     time.Time       `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Payment) TableName() string {
	return "payments"
}
