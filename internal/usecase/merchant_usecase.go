package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/entity"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/wallet-ledger/internal/domain/repository"
	"go.uber.org/zap"
)

// MerchantUsecase serves merchant dashboard reads
type MerchantUsecase struct {
	accounts    domainRepo.AccountRepository
	settlements domainRepo.SettlementRepository
	logger      *zap.Logger
}

func NewMerchantUsecase(accounts domainRepo.AccountRepository, settlements domainRepo.SettlementRepository, logger *zap.Logger) *MerchantUsecase {
	return &MerchantUsecase{accounts: accounts, settlements: settlements, logger: logger}
}

// MerchantForUser returns the merchant account owned by the user
func (u *MerchantUsecase) MerchantForUser(ctx context.Context, userID uuid.UUID) (*model.MerchantAccount, error) {
	return u.accounts.GetMerchantByUserID(ctx, userID)
}

func (u *MerchantUsecase) Balance(ctx context.Context, merchantID uuid.UUID) (*entity.MerchantBalance, error) {
	merchant, err := u.accounts.GetMerchant(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	return &entity.MerchantBalance{
		MerchantID:       merchant.ID.String(),
		BusinessName:     merchant.BusinessName,
		PendingBalance:   merchant.PendingBalance,
		AvailableBalance: merchant.AvailableBalance,
	}, nil
}

// Settlements lists the merchant's settlements, newest first
func (u *MerchantUsecase) Settlements(ctx context.Context, merchantID uuid.UUID, params entity.PaginationParams) ([]entity.SettlementSummary, entity.PaginationMeta, error) {
	params.Normalize()
	rows, total, err := u.settlements.ListByMerchant(ctx, merchantID, params.Limit, params.Offset)
	if err != nil {
		return nil, entity.PaginationMeta{}, err
	}

	summaries := make([]entity.SettlementSummary, 0, len(rows))
	for _, s := range rows {
		summaries = append(summaries, entity.SettlementSummary{
			SettlementID:  s.SettlementID,
			Amount:        s.Amount,
			PaymentsCount: s.PaymentsCount,
			Status:        s.Status,
			PeriodEnd:     s.PeriodEnd,
			CreatedAt:     s.CreatedAt,
		})
	}
	return summaries, entity.NewPaginationMeta(params, total), nil
}
