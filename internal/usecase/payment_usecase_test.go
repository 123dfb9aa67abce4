package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/wekeepgrowing/wallet-ledger/internal/domain/errors"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/wallet-ledger/internal/domain/repository"
	"github.com/wekeepgrowing/wallet-ledger/internal/usecase"
)

type paymentFixture struct {
	accounts   *MockAccountRepository
	orders     *MockOrderRepository
	ledger     *MockLedgerRepository
	dispatcher *MockDispatcher
	publisher  *MockPublisher
	tasks      *usecase.TaskGroup
	uc         *usecase.PaymentUsecase
}

func newPaymentFixture() *paymentFixture {
	logger := zap.NewNop()
	f := &paymentFixture{
		accounts:   new(MockAccountRepository),
		orders:     new(MockOrderRepository),
		ledger:     new(MockLedgerRepository),
		dispatcher: new(MockDispatcher),
		publisher:  new(MockPublisher),
		tasks:      usecase.NewTaskGroup(time.Second, logger),
	}
	f.uc = usecase.NewPaymentUsecase(f.accounts, f.orders, f.ledger, f.dispatcher, f.publisher, f.tasks, nil,
		"INR", "https://pay.example.com/", logger)
	return f
}

func (f *paymentFixture) wait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.tasks.Wait(ctx))
}

func TestPaymentUsecase_CreateOrder(t *testing.T) {
	ctx := context.Background()
	merchant := &model.MerchantAccount{ID: uuid.New(), BusinessName: "Chai Point"}

	t.Run("creates an order with a checkout url", func(t *testing.T) {
		f := newPaymentFixture()
		f.accounts.On("GetMerchant", ctx, merchant.ID).Return(merchant, nil)
		f.orders.On("Create", ctx, mock.MatchedBy(func(o *model.Order) bool {
			return strings.HasPrefix(o.OrderID, "ord_") &&
				o.Status == model.OrderStatusCreated &&
				o.Currency == "INR" &&
				o.Description != nil && *o.Description == "2 cups" &&
				o.CustomerEmail == nil &&
				o.Metadata != nil
		})).Return(nil)

		created, err := f.uc.CreateOrder(ctx, merchant.ID, usecase.CreateOrderCommand{
			Amount:      decimal.RequireFromString("120.50"),
			Description: "2 cups",
		})
		require.NoError(t, err)

		assert.Equal(t, "created", created.Status)
		assert.Len(t, created.OrderID, len("ord_")+24)
		assert.Equal(t, "https://pay.example.com/pay/checkout/"+created.OrderID, created.CheckoutURL)
		assert.False(t, created.CreatedAt.IsZero())
	})

	t.Run("rejects other currencies", func(t *testing.T) {
		f := newPaymentFixture()
		_, err := f.uc.CreateOrder(ctx, merchant.ID, usecase.CreateOrderCommand{
			Amount:   decimal.NewFromInt(10),
			Currency: "usd",
		})

		var validation *domainErrors.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "currency", validation.Field)
		f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		f := newPaymentFixture()
		_, err := f.uc.CreateOrder(ctx, merchant.ID, usecase.CreateOrderCommand{Amount: decimal.Zero})

		var validation *domainErrors.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "amount", validation.Field)
	})

	t.Run("unknown merchant", func(t *testing.T) {
		f := newPaymentFixture()
		f.accounts.On("GetMerchant", ctx, merchant.ID).Return(nil, domainErrors.ErrAccountNotFound)

		_, err := f.uc.CreateOrder(ctx, merchant.ID, usecase.CreateOrderCommand{Amount: decimal.NewFromInt(10)})
		assert.ErrorIs(t, err, domainErrors.ErrAccountNotFound)
	})
}

func TestPaymentUsecase_GetOrder(t *testing.T) {
	ctx := context.Background()
	merchant := &model.MerchantAccount{ID: uuid.New(), BusinessName: "Chai Point"}
	returnURL := "https://shop.example.com/done"

	f := newPaymentFixture()
	f.orders.On("GetByOrderID", ctx, "ord_1").Return(&model.Order{
		OrderID:    "ord_1",
		MerchantID: merchant.ID,
		Amount:     decimal.NewFromInt(500),
		Currency:   "INR",
		Status:     model.OrderStatusCreated,
		ReturnURL:  &returnURL,
	}, nil)
	f.accounts.On("GetMerchant", ctx, merchant.ID).Return(merchant, nil)

	view, err := f.uc.GetOrder(ctx, "ord_1")
	require.NoError(t, err)

	assert.Equal(t, "Chai Point", view.MerchantName)
	assert.Equal(t, returnURL, view.ReturnURL)
	assert.Equal(t, "created", view.Status)
}

func TestPaymentUsecase_Pay(t *testing.T) {
	ctx := context.Background()
	buyerID := uuid.New()
	merchantID := uuid.New()

	t.Run("success dispatches exactly one payment.success event", func(t *testing.T) {
		f := newPaymentFixture()
		payment := &model.Payment{
			PaymentID:     "pay_1",
			OrderID:       "ord_1",
			MerchantID:    merchantID,
			BuyerID:       buyerID,
			Amount:        decimal.NewFromInt(500),
			Currency:      "INR",
			Status:        model.PaymentStatusSuccess,
			TransactionID: "txn_1",
			CreatedAt:     time.Now().UTC(),
		}
		f.ledger.On("CapturePayment", ctx, mock.MatchedBy(func(p domainRepo.CaptureParams) bool {
			return p.OrderID == "ord_1" && p.BuyerID == buyerID &&
				strings.HasPrefix(p.PaymentID, "pay_") && strings.HasPrefix(p.TransactionID, "txn_")
		})).Return(payment, &model.Transaction{TransactionID: "txn_1"}, nil)
		f.dispatcher.On("Dispatch", mock.Anything, merchantID, usecase.EventPaymentSuccess, mock.MatchedBy(func(p map[string]interface{}) bool {
			return p["payment_id"] == "pay_1" && p["amount"] == "500.00" && p["order_id"] == "ord_1"
		})).Return("evt_1", nil).Once()
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
		f.orders.On("GetByOrderID", ctx, "ord_1").Return(&model.Order{OrderID: "ord_1"}, nil)

		result, err := f.uc.Pay(ctx, buyerID, "ord_1")
		require.NoError(t, err)
		f.wait(t)

		assert.Equal(t, "pay_1", result.PaymentID)
		assert.Equal(t, model.PaymentStatusSuccess, result.Status)
		f.dispatcher.AssertNumberOfCalls(t, "Dispatch", 1)
		f.dispatcher.AssertExpectations(t)
	})

	t.Run("insufficient funds leaves nothing to notify", func(t *testing.T) {
		f := newPaymentFixture()
		f.ledger.On("CapturePayment", ctx, mock.Anything).
			Return(nil, nil, domainErrors.NewInsufficientFundsError(decimal.NewFromInt(500), decimal.NewFromInt(100)))

		_, err := f.uc.Pay(ctx, buyerID, "ord_1")
		f.wait(t)

		var funds *domainErrors.InsufficientFundsError
		require.ErrorAs(t, err, &funds)
		assert.Equal(t, "insufficient balance: requested 500.00, available 100.00", funds.Error())
		f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already paid", func(t *testing.T) {
		f := newPaymentFixture()
		f.ledger.On("CapturePayment", ctx, mock.Anything).Return(nil, nil, domainErrors.ErrOrderAlreadyPaid)

		_, err := f.uc.Pay(ctx, buyerID, "ord_1")
		f.wait(t)

		assert.ErrorIs(t, err, domainErrors.ErrOrderAlreadyPaid)
		f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("blank order id", func(t *testing.T) {
		f := newPaymentFixture()
		_, err := f.uc.Pay(ctx, buyerID, "  ")

		var validation *domainErrors.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "order_id", validation.Field)
	})
}

func TestPaymentUsecase_Refund(t *testing.T) {
	f := newPaymentFixture()
	err := f.uc.Refund(context.Background(), uuid.New(), "pay_1")
	assert.ErrorIs(t, err, domainErrors.ErrRefundNotSupported)
}
