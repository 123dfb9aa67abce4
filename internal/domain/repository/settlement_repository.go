package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
)

// PendingBalance is one row of a settlement snapshot
type PendingBalance struct {
	MerchantID   uuid.UUID
	BusinessName string
	Amount       decimal.Decimal
	// PaymentIDs are the untagged payments visible when Amount was read
	PaymentIDs []int64
}

// SettleParams describes the sweep of one merchant
type SettleParams struct {
	SettlementID   string
	TransactionID  string
	MerchantID     uuid.UUID
	SnapshotAmount decimal.Decimal
	SnapshotAt     time.Time
	PaymentIDs     []int64
}

// SettlementRepository moves merchant pending balances to available balances
type SettlementRepository interface {
	// Snapshot lists merchants with a positive pending balance and the
	// payments it is made of, together with the time the snapshot was taken at
	Snapshot(ctx context.Context) ([]PendingBalance, time.Time, error)

	// Settle sweeps at most SnapshotAmount for one merchant in one database
	// transaction. Returns nil, nil when nothing was left to sweep.
	Settle(ctx context.Context, params SettleParams) (*model.Settlement, error)

	ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*model.Settlement, int64, error)
}
