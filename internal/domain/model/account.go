package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is a user's custodial balance. Identity columns are owned by the
// registration flow; the ledger only mutates Balance.
type Wallet struct {
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	Name      string          `gorm:"size:100;not null" json:"name"`
	Email     string          `gorm:"size:150;not null" json:"email"`
	Mobile    string          `gorm:"size:15;not null;uniqueIndex" json:"mobile"`
	UpiID     string          `gorm:"column:upi_id;size:100;not null;uniqueIndex" json:"upi_id"`
	Balance   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	CreatedAt time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt time.Time       `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Wallet) TableName() string {
	return "wallets"
}

// MerchantAccount holds a merchant's two balances. PendingBalance collects
// captured payments; only settlement moves it to AvailableBalance.
type MerchantAccount struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	BusinessName     string          `gorm:"size:200;not null" json:"business_name"`
	BusinessEmail    *string         `gorm:"size:150" json:"business_email,omitempty"`
	PendingBalance   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"pending_balance"`
	AvailableBalance decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"available_balance"`
	CreatedAt        time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (MerchantAccount) TableName() string {
	return "merchant_accounts"
}

// APIKey is a merchant credential. Keys are issued elsewhere; the secret is
// stored as a bcrypt hash.
type APIKey struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	KeyID      string     `gorm:"size:64;not null;uniqueIndex" json:"key_id"`
	SecretHash string     `gorm:"size:255;not null" json:"-"`
	MerchantID uuid.UUID  `gorm:"type:uuid;not null;index" json:"merchant_id"`
	Type       string     `gorm:"size:10;not null;default:'live'" json:"type"`
	IsActive   bool       `gorm:"not null;default:true" json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (APIKey) TableName() string {
	return "api_keys"
}
