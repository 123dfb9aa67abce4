package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/wallet-ledger/internal/domain/errors"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/wallet-ledger/internal/domain/repository"
	"github.com/wekeepgrowing/wallet-ledger/internal/infrastructure/metrics"
	"github.com/wekeepgrowing/wallet-ledger/pkg/messaging"
	"go.uber.org/zap"
)

// Customer describes the buyer as supplied by the merchant
type Customer struct {
	Name  string
	Email string
	Phone string
}

// CreateOrderCommand is a merchant's order request
type CreateOrderCommand struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
	ReturnURL   string
	Customer    Customer
	Metadata    map[string]interface{}
}

// PaymentUsecase runs the order and payment pipeline
type PaymentUsecase struct {
	accounts    domainRepo.AccountRepository
	orders      domainRepo.OrderRepository
	ledger      domainRepo.LedgerRepository
	dispatcher  EventDispatcher
	publisher   messaging.Publisher
	tasks       *TaskGroup
	metrics     *metrics.Metrics
	currency    string
	frontendURL string
	logger      *zap.Logger
}

// NewPaymentUsecase creates a new payment use case
func NewPaymentUsecase(
	accounts domainRepo.AccountRepository,
	orders domainRepo.OrderRepository,
	ledger domainRepo.LedgerRepository,
	dispatcher EventDispatcher,
	publisher messaging.Publisher,
	tasks *TaskGroup,
	m *metrics.Metrics,
	currency string,
	frontendURL string,
	logger *zap.Logger,
) *PaymentUsecase {
	return &PaymentUsecase{
		accounts:    accounts,
		orders:      orders,
		ledger:      ledger,
		dispatcher:  dispatcher,
		publisher:   publisher,
		tasks:       tasks,
		metrics:     m,
		currency:    currency,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

// CreateOrder validates and persists a new order in status created
func (u *PaymentUsecase) CreateOrder(ctx context.Context, merchantID uuid.UUID, cmd CreateOrderCommand) (*entity.CreatedOrder, error) {
	if err := validateAmount("amount", cmd.Amount, decimal.Zero); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(cmd.Currency))
	if currency == "" {
		currency = u.currency
	}
	if currency != u.currency {
		return nil, domainErrors.NewValidationError("currency", "only "+u.currency+" is supported")
	}

	if _, err := u.accounts.GetMerchant(ctx, merchantID); err != nil {
		return nil, err
	}

	order := &model.Order{
		OrderID:       newID(prefixOrder),
		MerchantID:    merchantID,
		Amount:        cmd.Amount,
		Currency:      currency,
		Status:        model.OrderStatusCreated,
		Description:   optional(cmd.Description),
		CustomerName:  optional(cmd.Customer.Name),
		CustomerEmail: optional(cmd.Customer.Email),
		CustomerPhone: optional(cmd.Customer.Phone),
		ReturnURL:     optional(cmd.ReturnURL),
		Metadata:      model.JSONB(cmd.Metadata),
	}
	if order.Metadata == nil {
		order.Metadata = model.JSONB{}
	}

	if err := u.orders.Create(ctx, order); err != nil {
		u.metrics.ObserveOperation("create_order", outcomeOf(err))
		return nil, err
	}
	u.metrics.ObserveOperation("create_order", "success")

	u.logger.Info("Order created",
		zap.String("order_id", order.OrderID),
		zap.String("merchant_id", merchantID.String()),
		zap.String("amount", order.Amount.String()))

	createdAt := order.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return &entity.CreatedOrder{
		OrderID:     order.OrderID,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Status:      string(order.Status),
		CheckoutURL: fmt.Sprintf("%s/pay/checkout/%s", u.frontendURL, order.OrderID),
		CreatedAt:   createdAt,
	}, nil
}

// GetOrder returns the public checkout view of an order
func (u *PaymentUsecase) GetOrder(ctx context.Context, orderID string) (*entity.OrderView, error) {
	order, err := u.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	view := &entity.OrderView{
		OrderID:     order.OrderID,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Description: deref(order.Description),
		Status:      string(order.Status),
		MerchantID:  order.MerchantID.String(),
		ReturnURL:   deref(order.ReturnURL),
	}

	merchant, err := u.accounts.GetMerchant(ctx, order.MerchantID)
	if err != nil {
		return nil, err
	}
	view.MerchantName = merchant.BusinessName
	return view, nil
}

// Pay captures the order against the buyer's wallet. Merchant notification
// happens after commit and never affects the result.
func (u *PaymentUsecase) Pay(ctx context.Context, buyerID uuid.UUID, orderID string) (*entity.PaymentResult, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, domainErrors.NewValidationError("order_id", "is required")
	}

	payment, txn, err := u.ledger.CapturePayment(ctx, domainRepo.CaptureParams{
		PaymentID:     newID(prefixPayment),
		TransactionID: newID(prefixTransaction),
		OrderID:       orderID,
		BuyerID:       buyerID,
	})
	if err != nil {
		u.metrics.ObserveOperation("pay", outcomeOf(err))
		return nil, err
	}
	u.metrics.ObserveOperation("pay", "success")

	u.logger.Info("Payment captured",
		zap.String("payment_id", payment.PaymentID),
		zap.String("order_id", payment.OrderID),
		zap.String("merchant_id", payment.MerchantID.String()),
		zap.String("transaction_id", txn.TransactionID),
		zap.String("amount", payment.Amount.String()))

	payload := map[string]interface{}{
		"event":          EventPaymentSuccess,
		"payment_id":     payment.PaymentID,
		"order_id":       payment.OrderID,
		"amount":         payment.Amount.StringFixed(2),
		"currency":       payment.Currency,
		"status":         payment.Status,
		"buyer_id":       payment.BuyerID.String(),
		"transaction_id": payment.TransactionID,
		"created_at":     payment.CreatedAt,
	}
	u.tasks.Go(ctx, "dispatch "+EventPaymentSuccess, func(ctx context.Context) error {
		_, err := u.dispatcher.Dispatch(ctx, payment.MerchantID, EventPaymentSuccess, payload)
		return err
	})
	u.tasks.Go(ctx, "publish "+EventPaymentSuccess, func(ctx context.Context) error {
		return u.publisher.Publish(ctx, messaging.Event{
			Type:       EventPaymentSuccess,
			Key:        payment.MerchantID.String(),
			Data:       payload,
			OccurredAt: payment.CreatedAt,
		})
	})

	result := &entity.PaymentResult{
		PaymentID:     payment.PaymentID,
		OrderID:       payment.OrderID,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		Status:        payment.Status,
		TransactionID: payment.TransactionID,
		CreatedAt:     payment.CreatedAt,
	}
	if order, err := u.orders.GetByOrderID(ctx, orderID); err == nil {
		result.ReturnURL = deref(order.ReturnURL)
	}
	return result, nil
}

// Refund is not offered; the ledger has no refund semantics
func (u *PaymentUsecase) Refund(ctx context.Context, merchantID uuid.UUID, paymentID string) error {
	u.logger.Info("Refund requested but not supported",
		zap.String("merchant_id", merchantID.String()),
		zap.String("payment_id", paymentID))
	u.metrics.ObserveOperation("refund", "not_supported")
	return domainErrors.ErrRefundNotSupported
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
