package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferResult is returned to the sender of a completed transfer
type TransferResult struct {
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	ReceiverName  string          `json:"receiver_name"`
	ReceiverUPI   string          `json:"receiver_upi"`
	NewBalance    decimal.Decimal `json:"new_balance"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Direction of a ledger entry relative to the viewing user
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// HistoryEntry is one row of a user's wallet history
type HistoryEntry struct {
	TransactionID    string          `json:"transaction_id"`
	Type             string          `json:"type"`
	Direction        Direction       `json:"direction"`
	Amount           decimal.Decimal `json:"amount"`
	Description      string          `json:"description"`
	CounterpartyName string          `json:"counterparty_name,omitempty"`
	CounterpartyUPI  string          `json:"counterparty_upi,omitempty"`
	Status           string          `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
}

// WalletHistory is a page of wallet history entries
type WalletHistory struct {
	Transactions []HistoryEntry `json:"transactions"`
	Pagination   PaginationMeta `json:"pagination"`
}

// AccountSummary is the public view of a wallet returned by lookups
type AccountSummary struct {
	Name  string `json:"name"`
	UpiID string `json:"upi_id"`
}

// MerchantBalance exposes both merchant balances
type MerchantBalance struct {
	MerchantID       string          `json:"merchant_id"`
	BusinessName     string          `json:"business_name"`
	PendingBalance   decimal.Decimal `json:"pending_balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
}
