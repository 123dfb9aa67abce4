package repository

import (
	"context"

	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
)

// OrderRepository persists gateway orders. Status transitions happen only
// inside LedgerRepository.CapturePayment.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error

	// GetByOrderID returns ErrOrderNotFound when absent
	GetByOrderID(ctx context.Context, orderID string) (*model.Order, error)

	// GetPaymentByOrderID returns nil, nil when the order has no payment
	GetPaymentByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
}
