package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/wallet-ledger/internal/domain/entity"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
	"github.com/wekeepgrowing/wallet-ledger/internal/usecase"
)

func TestMerchantUsecase(t *testing.T) {
	ctx := context.Background()
	merchant := &model.MerchantAccount{
		ID:               uuid.New(),
		BusinessName:     "Chai Point",
		PendingBalance:   decimal.NewFromInt(300),
		AvailableBalance: decimal.NewFromInt(1500),
	}

	t.Run("balance", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		accounts.On("GetMerchant", ctx, merchant.ID).Return(merchant, nil)
		uc := usecase.NewMerchantUsecase(accounts, new(MockSettlementRepository), zap.NewNop())

		balance, err := uc.Balance(ctx, merchant.ID)
		require.NoError(t, err)
		assert.True(t, balance.PendingBalance.Equal(decimal.NewFromInt(300)))
		assert.True(t, balance.AvailableBalance.Equal(decimal.NewFromInt(1500)))
	})

	t.Run("settlements are paginated", func(t *testing.T) {
		settlements := new(MockSettlementRepository)
		settlements.On("ListByMerchant", ctx, merchant.ID, 100, 0).Return([]*model.Settlement{
			{SettlementID: "setl_1", Amount: decimal.NewFromInt(1500), PaymentsCount: 2, Status: model.SettlementStatusProcessed, PeriodEnd: time.Now()},
		}, int64(150), nil)
		uc := usecase.NewMerchantUsecase(new(MockAccountRepository), settlements, zap.NewNop())

		rows, meta, err := uc.Settlements(ctx, merchant.ID, entity.PaginationParams{Limit: 500})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "setl_1", rows[0].SettlementID)
		assert.Equal(t, 100, meta.Limit)
		assert.True(t, meta.HasMore)
	})
}
