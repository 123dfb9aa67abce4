package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of ledger movement
type TransactionType string

const (
	TransactionTypeTransfer   TransactionType = "transfer"
	TransactionTypePayment    TransactionType = "payment"
	TransactionTypeRefund     TransactionType = "refund"
	TransactionTypeSettlement TransactionType = "settlement"
)

// Scan implements sql.Scanner interface
func (t *TransactionType) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*t = TransactionType(v)
	case []byte:
		*t = TransactionType(v)
	}
	return nil
}

// Value implements driver.Valuer interface
func (t TransactionType) Value() (driver.Value, error) {
	return string(t), nil
}

const TransactionStatusCompleted = "completed"

// Transaction is an immutable ledger entry. Rows are only ever inserted;
// corrections are new entries in the opposite direction.
type Transaction struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement" json:"-"`
	TransactionID      string          `gorm:"size:40;not null;uniqueIndex" json:"transaction_id"`
	SenderID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_transactions_sender_created" json:"sender_id"`
	ReceiverID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_transactions_receiver_created" json:"receiver_id"`
	Amount             decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Type               TransactionType `gorm:"type:transaction_type;not null" json:"type"`
	Status             string          `gorm:"size:16;not null" json:"status"`
	Description        string          `gorm:"size:500;not null" json:"description"`
	ReferenceID        *string         `gorm:"size:40;index" json:"reference_id,omitempty"`
	IdempotencyKey     *string         `gorm:"size:100" json:"-"`
	SenderBalanceAfter decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"sender_balance_after"`
	CreatedAt          time.Time       `gorm:"default:now();index:idx_transactions_sender_created;index:idx_transactions_receiver_created" json:"created_at"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (Transaction) TableName() string {
	return "transactions"
}
