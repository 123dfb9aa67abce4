package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
)

// TransferParams describes a wallet-to-wallet movement. Ids for the new
// ledger entry are generated by the caller.
type TransferParams struct {
	TransactionID  string
	SenderID       uuid.UUID
	ReceiverID     uuid.UUID
	Amount         decimal.Decimal
	Description    string
	IdempotencyKey *string
}

// CaptureParams describes the capture of a created order by a buyer
type CaptureParams struct {
	PaymentID     string
	TransactionID string
	OrderID       string
	BuyerID       uuid.UUID
}

// LedgerRepository is the only writer of wallet balances and merchant
// pending balances. Every method is one database transaction.
type LedgerRepository interface {
	// Transfer debits the sender and credits the receiver. Fails with
	// InsufficientFundsError, ErrAccountNotFound or ErrSelfTransfer.
	Transfer(ctx context.Context, params TransferParams) (*model.Transaction, error)

	// CapturePayment debits the buyer, credits the merchant's pending balance,
	// records the payment and marks the order paid.
	CapturePayment(ctx context.Context, params CaptureParams) (*model.Payment, *model.Transaction, error)

	// FindByIdempotencyKey returns nil, nil when the sender never used the key
	FindByIdempotencyKey(ctx context.Context, senderID uuid.UUID, key string) (*model.Transaction, error)

	// ListTransactions returns entries where the user is sender or receiver, newest first
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*model.Transaction, int64, error)
}
