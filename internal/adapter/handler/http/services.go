package http

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/entity"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
	"github.com/wekeepgrowing/wallet-ledger/internal/usecase"
)

// WalletService is implemented by usecase.LedgerUsecase
type WalletService interface {
	Transfer(ctx context.Context, cmd usecase.TransferCommand) (*entity.TransferResult, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	History(ctx context.Context, userID uuid.UUID, params entity.PaginationParams) (*entity.WalletHistory, error)
	SearchAccount(ctx context.Context, handle string) (*entity.AccountSummary, error)
}

// PaymentService is implemented by usecase.PaymentUsecase
type PaymentService interface {
	CreateOrder(ctx context.Context, merchantID uuid.UUID, cmd usecase.CreateOrderCommand) (*entity.CreatedOrder, error)
	GetOrder(ctx context.Context, orderID string) (*entity.OrderView, error)
	Pay(ctx context.Context, buyerID uuid.UUID, orderID string) (*entity.PaymentResult, error)
	Refund(ctx context.Context, merchantID uuid.UUID, paymentID string) error
}

// MerchantService is implemented by usecase.MerchantUsecase
type MerchantService interface {
	MerchantForUser(ctx context.Context, userID uuid.UUID) (*model.MerchantAccount, error)
	Balance(ctx context.Context, merchantID uuid.UUID) (*entity.MerchantBalance, error)
	Settlements(ctx context.Context, merchantID uuid.UUID, params entity.PaginationParams) ([]entity.SettlementSummary, entity.PaginationMeta, error)
}

// SettlementService is implemented by usecase.SettlementUsecase
type SettlementService interface {
	RunSettlement(ctx context.Context) (*entity.SettlementReport, error)
}

// WebhookService is implemented by usecase.WebhookUsecase
type WebhookService interface {
	CreateEndpoint(ctx context.Context, merchantID uuid.UUID, url string, events []string) (*entity.WebhookEndpointView, error)
	ListEndpoints(ctx context.Context, merchantID uuid.UUID) ([]*entity.WebhookEndpointView, error)
	DeleteEndpoint(ctx context.Context, merchantID, endpointID uuid.UUID) error
	ListEvents(ctx context.Context, merchantID uuid.UUID) ([]*entity.WebhookEventView, error)
}

var (
	_ WalletService     = (*usecase.LedgerUsecase)(nil)
	_ PaymentService    = (*usecase.PaymentUsecase)(nil)
	_ MerchantService   = (*usecase.MerchantUsecase)(nil)
	_ SettlementService = (*usecase.SettlementUsecase)(nil)
	_ WebhookService    = (*usecase.WebhookUsecase)(nil)
)
