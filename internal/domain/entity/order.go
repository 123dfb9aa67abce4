package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderView is the projection of an order shown on the public checkout page.
type OrderView struct {
	OrderID      string          `json:"order_id"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Description  string          `json:"description,omitempty"`
	Status       string          `json:"status"`
	MerchantID   string          `json:"merchant_id"`
	MerchantName string          `json:"merchant_name"`
	ReturnURL    string          `json:"return_url,omitempty"`
}

// CreatedOrder is returned to the merchant after CreateOrder
type CreatedOrder struct {
	OrderID     string          `json:"order_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	CheckoutURL string          `json:"checkout_url"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PaymentResult is returned to the buyer after a successful Pay
type PaymentResult struct {
	PaymentID     string          `json:"payment_id"`
	OrderID       string          `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	TransactionID string          `json:"transaction_id"`
	ReturnURL     string          `json:"return_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
