package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementItem describes one merchant swept in a run
type SettlementItem struct {
	MerchantID    string          `json:"merchant_id"`
	BusinessName  string          `json:"business_name"`
	Amount        decimal.Decimal `json:"amount"`
	SettlementID  string          `json:"settlement_id"`
	PaymentsCount int             `json:"payments_count"`
	NotifiedTo    string          `json:"notified_to,omitempty"`
}

// SettlementError records a merchant whose sweep failed
type SettlementError struct {
	MerchantID string `json:"merchant_id"`
	Error      string `json:"error"`
}

// SettlementReport summarizes one settlement run. Merchants whose locked
// pending balance turned out to be zero appear in neither list.
type SettlementReport struct {
	RunStartedAt time.Time         `json:"run_started_at"`
	SnapshotAt   time.Time         `json:"snapshot_at"`
	FinishedAt   time.Time         `json:"finished_at"`
	Items        []SettlementItem  `json:"items"`
	Errors       []SettlementError `json:"errors"`
	TotalAmount  decimal.Decimal   `json:"total_amount"`
	Cancelled    bool              `json:"cancelled"`
}

// SettlementSummary is a past settlement shown to the merchant
type SettlementSummary struct {
	SettlementID  string          `json:"settlement_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentsCount int             `json:"payments_count"`
	Status        string          `json:"status"`
	PeriodEnd     time.Time       `json:"period_end"`
	CreatedAt     time.Time       `json:"created_at"`
}
