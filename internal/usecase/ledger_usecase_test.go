package usecase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/wallet-ledger/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/wallet-ledger/internal/domain/errors"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/wallet-ledger/internal/domain/repository"
	"github.com/wekeepgrowing/wallet-ledger/internal/usecase"
)

type ledgerFixture struct {
	accounts  *MockAccountRepository
	ledger    *MockLedgerRepository
	publisher *MockPublisher
	tasks     *usecase.TaskGroup
	uc        *usecase.LedgerUsecase
}

func newLedgerFixture() *ledgerFixture {
	logger := zap.NewNop()
	f := &ledgerFixture{
		accounts:  new(MockAccountRepository),
		ledger:    new(MockLedgerRepository),
		publisher: new(MockPublisher),
		tasks:     usecase.NewTaskGroup(time.Second, logger),
	}
	f.uc = usecase.NewLedgerUsecase(f.accounts, f.ledger, f.publisher, f.tasks, nil, decimal.NewFromInt(100000), logger)
	return f
}

func (f *ledgerFixture) wait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.tasks.Wait(ctx))
}

func TestLedgerUsecase_Transfer(t *testing.T) {
	ctx := context.Background()
	senderID := uuid.New()
	receiver := &model.Wallet{UserID: uuid.New(), Name: "Asha", UpiID: "asha@wallet", Mobile: "9876543210"}

	t.Run("rejects invalid amounts", func(t *testing.T) {
		f := newLedgerFixture()
		for _, raw := range []string{"0", "-5", "10.001", "100000.01"} {
			_, err := f.uc.Transfer(ctx, usecase.TransferCommand{
				SenderID:       senderID,
				ReceiverHandle: receiver.UpiID,
				Amount:         decimal.RequireFromString(raw),
			})

			var validation *domainErrors.ValidationError
			require.ErrorAs(t, err, &validation, raw)
			assert.Equal(t, "amount", validation.Field)
		}
		f.ledger.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything)
	})

	t.Run("unknown receiver is a validation error", func(t *testing.T) {
		f := newLedgerFixture()
		f.accounts.On("FindWalletByUPI", ctx, "nobody@wallet").Return(nil, domainErrors.ErrAccountNotFound)

		_, err := f.uc.Transfer(ctx, usecase.TransferCommand{
			SenderID:       senderID,
			ReceiverHandle: "nobody@wallet",
			Amount:         decimal.NewFromInt(10),
		})

		var validation *domainErrors.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "receiver", validation.Field)
	})

	t.Run("self transfer is rejected", func(t *testing.T) {
		f := newLedgerFixture()
		self := &model.Wallet{UserID: senderID, Name: "Me", UpiID: "me@wallet"}
		f.accounts.On("FindWalletByUPI", ctx, "me@wallet").Return(self, nil)

		_, err := f.uc.Transfer(ctx, usecase.TransferCommand{
			SenderID:       senderID,
			ReceiverHandle: "me@wallet",
			Amount:         decimal.NewFromInt(10),
		})

		assert.ErrorIs(t, err, domainErrors.ErrSelfTransfer)
		f.ledger.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything)
	})

	t.Run("mobile number resolves by mobile", func(t *testing.T) {
		f := newLedgerFixture()
		now := time.Now().UTC()
		f.accounts.On("FindWalletByMobile", ctx, "9876543210").Return(receiver, nil)
		f.ledger.On("Transfer", ctx, mock.MatchedBy(func(p domainRepo.TransferParams) bool {
			return p.ReceiverID == receiver.UserID && p.Description == "Payment to Asha" && p.IdempotencyKey == nil
		})).Return(&model.Transaction{
			TransactionID:      "txn_1",
			SenderID:           senderID,
			ReceiverID:         receiver.UserID,
			Amount:             decimal.NewFromInt(10),
			SenderBalanceAfter: decimal.NewFromInt(90),
			CreatedAt:          now,
		}, nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		result, err := f.uc.Transfer(ctx, usecase.TransferCommand{
			SenderID:       senderID,
			ReceiverHandle: "9876543210",
			Amount:         decimal.NewFromInt(10),
		})
		require.NoError(t, err)
		f.wait(t)

		assert.Equal(t, "txn_1", result.TransactionID)
		assert.Equal(t, "Asha", result.ReceiverName)
		assert.Equal(t, "asha@wallet", result.ReceiverUPI)
		assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(90)))
		f.accounts.AssertNotCalled(t, "FindWalletByUPI", mock.Anything, mock.Anything)
		f.publisher.AssertNumberOfCalls(t, "Publish", 1)
	})

	t.Run("insufficient funds passes through", func(t *testing.T) {
		f := newLedgerFixture()
		f.accounts.On("FindWalletByUPI", ctx, receiver.UpiID).Return(receiver, nil)
		f.ledger.On("Transfer", ctx, mock.Anything).
			Return(nil, domainErrors.NewInsufficientFundsError(decimal.NewFromInt(500), decimal.NewFromInt(100)))

		_, err := f.uc.Transfer(ctx, usecase.TransferCommand{
			SenderID:       senderID,
			ReceiverHandle: receiver.UpiID,
			Amount:         decimal.NewFromInt(500),
		})

		var funds *domainErrors.InsufficientFundsError
		require.ErrorAs(t, err, &funds)
		assert.True(t, funds.Available.Equal(decimal.NewFromInt(100)))
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("losing an idempotency race returns the winner", func(t *testing.T) {
		f := newLedgerFixture()
		key := "key-123"
		winner := &model.Transaction{
			TransactionID:      "txn_winner",
			SenderID:           senderID,
			ReceiverID:         receiver.UserID,
			Amount:             decimal.NewFromInt(25),
			SenderBalanceAfter: decimal.NewFromInt(75),
		}
		f.accounts.On("FindWalletByUPI", ctx, receiver.UpiID).Return(receiver, nil)
		f.ledger.On("Transfer", ctx, mock.MatchedBy(func(p domainRepo.TransferParams) bool {
			return p.IdempotencyKey != nil && *p.IdempotencyKey == key
		})).Return(nil, fmt.Errorf("%w: duplicate key", domainErrors.ErrConcurrencyConflict))
		f.ledger.On("FindByIdempotencyKey", ctx, senderID, key).Return(winner, nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

		result, err := f.uc.Transfer(ctx, usecase.TransferCommand{
			SenderID:       senderID,
			ReceiverHandle: receiver.UpiID,
			Amount:         decimal.NewFromInt(25),
			IdempotencyKey: key,
		})
		require.NoError(t, err)
		f.wait(t)

		assert.Equal(t, "txn_winner", result.TransactionID)
		assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(75)))
	})

	t.Run("conflict without idempotency key is returned", func(t *testing.T) {
		f := newLedgerFixture()
		f.accounts.On("FindWalletByUPI", ctx, receiver.UpiID).Return(receiver, nil)
		f.ledger.On("Transfer", ctx, mock.Anything).Return(nil, domainErrors.ErrConcurrencyConflict)

		_, err := f.uc.Transfer(ctx, usecase.TransferCommand{
			SenderID:       senderID,
			ReceiverHandle: receiver.UpiID,
			Amount:         decimal.NewFromInt(25),
		})

		assert.ErrorIs(t, err, domainErrors.ErrConcurrencyConflict)
		assert.True(t, domainErrors.IsRetryable(err))
		f.ledger.AssertNotCalled(t, "FindByIdempotencyKey", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestLedgerUsecase_History(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	friend := &model.Wallet{UserID: uuid.New(), Name: "Ravi", UpiID: "ravi@wallet"}

	f := newLedgerFixture()
	transactions := []*model.Transaction{
		{TransactionID: "txn_out", Type: model.TransactionTypeTransfer, SenderID: userID, ReceiverID: friend.UserID, Amount: decimal.NewFromInt(30)},
		{TransactionID: "txn_in", Type: model.TransactionTypeTransfer, SenderID: friend.UserID, ReceiverID: userID, Amount: decimal.NewFromInt(5)},
	}
	f.ledger.On("ListTransactions", ctx, userID, 20, 0).Return(transactions, int64(2), nil)
	f.accounts.On("GetWallets", ctx, []uuid.UUID{friend.UserID, friend.UserID}).
		Return(map[uuid.UUID]*model.Wallet{friend.UserID: friend}, nil)

	history, err := f.uc.History(ctx, userID, entity.PaginationParams{})
	require.NoError(t, err)

	require.Len(t, history.Transactions, 2)
	assert.Equal(t, entity.DirectionSent, history.Transactions[0].Direction)
	assert.Equal(t, entity.DirectionReceived, history.Transactions[1].Direction)
	assert.Equal(t, "Ravi", history.Transactions[1].CounterpartyName)
	assert.Equal(t, int64(2), history.Pagination.Total)
	assert.False(t, history.Pagination.HasMore)
}

func TestLedgerUsecase_SearchAccount(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture()
	f.accounts.On("FindWalletByUPI", ctx, "ghost@wallet").Return(nil, domainErrors.ErrAccountNotFound)

	_, err := f.uc.SearchAccount(ctx, "ghost@wallet")
	assert.ErrorIs(t, err, domainErrors.ErrAccountNotFound)
}
