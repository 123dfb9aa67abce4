package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	domainErrors "github.com/wekeepgrowing/wallet-ledger/internal/domain/errors"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/wallet-ledger/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type settlementRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSettlementRepository creates a new settlement repository instance
func NewSettlementRepository(db *gorm.DB, logger *zap.Logger) domainRepo.SettlementRepository {
	return &settlementRepository{
		db:     db,
		logger: logger,
	}
}

// Snapshot reads pending balances and the untagged payments behind them from
// one repeatable-read snapshot, so a capture committed afterwards is in neither.
func (r *settlementRepository) Snapshot(ctx context.Context) ([]domainRepo.PendingBalance, time.Time, error) {
	var (
		snapshotAt time.Time
		balances   []domainRepo.PendingBalance
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snapshotAt = time.Now().UTC()

		var rows []struct {
			ID             uuid.UUID
			BusinessName   string
			PendingBalance decimal.Decimal
		}
		err := tx.Model(&model.MerchantAccount{}).
			Select("id", "business_name", "pending_balance").
			Where("pending_balance > 0").
			Order("id").
			Scan(&rows).Error
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		merchantIDs := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			merchantIDs = append(merchantIDs, row.ID)
		}

		var payments []struct {
			ID         int64
			MerchantID uuid.UUID
		}
		err = tx.Model(&model.Payment{}).
			Select("id", "merchant_id").
			Where("settlement_id IS NULL AND merchant_id IN ?", merchantIDs).
			Order("id").
			Scan(&payments).Error
		if err != nil {
			return err
		}

		byMerchant := make(map[uuid.UUID][]int64, len(rows))
		for _, payment := range payments {
			byMerchant[payment.MerchantID] = append(byMerchant[payment.MerchantID], payment.ID)
		}

		balances = make([]domainRepo.PendingBalance, 0, len(rows))
		for _, row := range rows {
			balances = append(balances, domainRepo.PendingBalance{
				MerchantID:   row.ID,
				BusinessName: row.BusinessName,
				Amount:       row.PendingBalance,
				PaymentIDs:   byMerchant[row.ID],
			})
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		r.logger.Error("Failed to snapshot pending balances", zap.Error(err))
		return nil, time.Time{}, fmt.Errorf("failed to snapshot pending balances: %w", classifyError(err))
	}

	if balances == nil {
		balances = []domainRepo.PendingBalance{}
	}
	return balances, snapshotAt, nil
}

// Settle sweeps min(snapshot, current pending) so that payments captured after
// the snapshot stay pending for the next run. Only the payments listed in the
// snapshot are tagged with the settlement.
func (r *settlementRepository) Settle(ctx context.Context, params domainRepo.SettleParams) (*model.Settlement, error) {
	var settlement *model.Settlement

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var merchant model.MerchantAccount
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", params.MerchantID).
			First(&merchant).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainErrors.ErrAccountNotFound
			}
			return fmt.Errorf("failed to lock merchant: %w", err)
		}

		amount := decimal.Min(params.SnapshotAmount, merchant.PendingBalance)
		if !amount.IsPositive() {
			return nil
		}

		now := time.Now().UTC()
		pendingAfter := merchant.PendingBalance.Sub(amount)
		if err := tx.Model(&model.MerchantAccount{}).
			Where("id = ?", merchant.ID).
			Updates(map[string]interface{}{
				"pending_balance":   pendingAfter,
				"available_balance": merchant.AvailableBalance.Add(amount),
				"updated_at":        now,
			}).Error; err != nil {
			return fmt.Errorf("failed to move pending balance: %w", err)
		}

		var paymentsCount int64
		if len(params.PaymentIDs) > 0 {
			tagged := tx.Model(&model.Payment{}).
				Where("merchant_id = ? AND settlement_id IS NULL AND id IN ?", merchant.ID, params.PaymentIDs).
				Update("settlement_id", params.SettlementID)
			if tagged.Error != nil {
				return fmt.Errorf("failed to tag payments: %w", tagged.Error)
			}
			paymentsCount = tagged.RowsAffected
		}

		settlement = &model.Settlement{
			SettlementID:  params.SettlementID,
			MerchantID:    merchant.ID,
			Amount:        amount,
			PaymentsCount: int(paymentsCount),
			Status:        model.SettlementStatusProcessed,
			PeriodEnd:     params.SnapshotAt,
			CreatedAt:     now,
		}
		if err := tx.Create(settlement).Error; err != nil {
			return fmt.Errorf("failed to create settlement: %w", err)
		}

		settlementID := params.SettlementID
		entry := &model.Transaction{
			TransactionID:      params.TransactionID,
			SenderID:           merchant.ID,
			ReceiverID:         merchant.ID,
			Amount:             amount,
			Type:               model.TransactionTypeSettlement,
			Status:             model.TransactionStatusCompleted,
			Description:        fmt.Sprintf("Settlement %s", params.SettlementID),
			ReferenceID:        &settlementID,
			SenderBalanceAfter: pendingAfter,
			CreatedAt:          now,
			CompletedAt:        &now,
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to create settlement transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		err = classifyError(err)
		r.logger.Error("Settlement failed",
			zap.String("merchant_id", params.MerchantID.String()),
			zap.String("settlement_id", params.SettlementID),
			zap.Error(err))
		return nil, err
	}

	return settlement, nil
}

func (r *settlementRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]*model.Settlement, int64, error) {
	var settlements []*model.Settlement
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Settlement{}).Where("merchant_id = ?", merchantID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count settlements: %w", classifyError(err))
	}
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&settlements).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list settlements: %w", classifyError(err))
	}
	return settlements, total, nil
}
