package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is created until a terminal transition to paid or failed.
type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "created"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
)

// Scan implements sql.Scanner interface
func (s *OrderStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = OrderStatus(v)
	case []byte:
		*s = OrderStatus(v)
	default:
		*s = OrderStatusCreated
	}
	return nil
}

// Value implements driver.Valuer interface
func (s OrderStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// IsTerminal reports whether the order can no longer be paid.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusFailed
}

// Order is a merchant checkout request. Amount never changes after creation.
type Order struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderID       string          `gorm:"size:40;not null;uniqueIndex" json:"order_id"`
	MerchantID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"merchant_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency      string          `gorm:"size:3;not null;default:'INR'" json:"currency"`
	Status        OrderStatus     `gorm:"type:order_status;not null;default:'created';index" json:"status"`
	Description   *string         `gorm:"size:500" json:"description,omitempty"`
	CustomerName  *string         `gorm:"size:100" json:"customer_name,omitempty"`
	CustomerEmail *string         `gorm:"size:150" json:"customer_email,omitempty"`
	CustomerPhone *string         `gorm:"size:15" json:"customer_phone,omitempty"`
	ReturnURL     *string         `gorm:"size:500" json:"return_url,omitempty"`
	Metadata      JSONB           `gorm:"type:jsonb;default:'{}'" json:"metadata"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedAt     time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Order) TableName() string {
	return "orders"
}
