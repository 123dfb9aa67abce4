package dto

import "encoding/json"

// TransferRequest is the body of POST /wallet/send
type TransferRequest struct {
	ReceiverUPI string      `json:"receiver_upi" validate:"required,max=100"`
	Amount      json.Number `json:"amount" validate:"required,numeric"`
	Note        string      `json:"note" validate:"max=500"`
}

// CustomerInfo describes the buyer as supplied by the merchant
type CustomerInfo struct {
	Name  string `json:"name" validate:"omitempty,max=100"`
	Email string `json:"email" validate:"omitempty,email,max=150"`
	Phone string `json:"phone" validate:"omitempty,max=15"`
}

// CreateOrderRequest is the body of POST /orders
type CreateOrderRequest struct {
	Amount      json.Number            `json:"amount" validate:"required,numeric"`
	Currency    string                 `json:"currency" validate:"omitempty,len=3"`
	Description string                 `json:"description" validate:"omitempty,max=500"`
	ReturnURL   string                 `json:"return_url" validate:"omitempty,url,max=500"`
	Customer    *CustomerInfo          `json:"customer" validate:"omitempty"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// PayRequest is the body of POST /pay
type PayRequest struct {
	OrderID string `json:"order_id" validate:"required,max=40"`
}

// RefundRequest is the body of POST /refunds
type RefundRequest struct {
	PaymentID string      `json:"payment_id" validate:"required"`
	Amount    json.Number `json:"amount" validate:"omitempty,numeric"`
}

// CreateWebhookEndpointRequest is the body of POST /merchants/webhooks
type CreateWebhookEndpointRequest struct {
	URL    string   `json:"url" validate:"required,url,max=500"`
	Events []string `json:"events" validate:"omitempty,dive,oneof=payment.success payment.failed settlement.processed *"`
}
