package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	domainErrors "github.com/wekeepgrowing/wallet-ledger/internal/domain/errors"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/wallet-ledger/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type accountRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAccountRepository creates a new account repository instance
func NewAccountRepository(db *gorm.DB, logger *zap.Logger) domainRepo.AccountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *accountRepository) GetWallet(ctx context.Context, userID uuid.UUID) (*model.Wallet, error) {
	return r.findWallet(ctx, "user_id = ?", userID)
}

func (r *accountRepository) FindWalletByMobile(ctx context.Context, mobile string) (*model.Wallet, error) {
	return r.findWallet(ctx, "mobile = ?", mobile)
}

func (r *accountRepository) FindWalletByUPI(ctx context.Context, upiID string) (*model.Wallet, error) {
	return r.findWallet(ctx, "upi_id = ?", upiID)
}

func (r *accountRepository) findWallet(ctx context.Context, query string, arg interface{}) (*model.Wallet, error) {
	var wallet model.Wallet
	err := r.db.WithContext(ctx).Where(query, arg).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrAccountNotFound
		}
		r.logger.Error("Failed to get wallet", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("failed to get wallet: %w", classifyError(err))
	}
	return &wallet, nil
}

func (r *accountRepository) GetWallets(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*model.Wallet, error) {
	result := make(map[uuid.UUID]*model.Wallet, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	var wallets []*model.Wallet
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&wallets).Error; err != nil {
		return nil, fmt.Errorf("failed to get wallets: %w", classifyError(err))
	}
	for _, w := range wallets {
		result[w.UserID] = w
	}
	return result, nil
}

func (r *accountRepository) GetMerchant(ctx context.Context, merchantID uuid.UUID) (*model.MerchantAccount, error) {
	return r.findMerchant(ctx, "id = ?", merchantID)
}

func (r *accountRepository) GetMerchantByUserID(ctx context.Context, userID uuid.UUID) (*model.MerchantAccount, error) {
	return r.findMerchant(ctx, "user_id = ?", userID)
}

func (r *accountRepository) findMerchant(ctx context.Context, query string, arg interface{}) (*model.MerchantAccount, error) {
	var merchant model.MerchantAccount
	err := r.db.WithContext(ctx).Where(query, arg).First(&merchant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrAccountNotFound
		}
		r.logger.Error("Failed to get merchant account", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("failed to get merchant account: %w", classifyError(err))
	}
	return &merchant, nil
}

type apiKeyRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAPIKeyRepository creates a new API key repository instance
func NewAPIKeyRepository(db *gorm.DB, logger *zap.Logger) domainRepo.APIKeyRepository {
	return &apiKeyRepository{
		db:     db,
		logger: logger,
	}
}

func (r *apiKeyRepository) GetByKeyID(ctx context.Context, keyID string) (*model.APIKey, error) {
	var key model.APIKey
	err := r.db.WithContext(ctx).Where("key_id = ?", keyID).First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get api key: %w", classifyError(err))
	}
	return &key, nil
}

func (r *apiKeyRepository) TouchLastUsed(ctx context.Context, keyID string) error {
	err := r.db.WithContext(ctx).
		Model(&model.APIKey{}).
		Where("key_id = ?", keyID).
		Update("last_used_at", time.Now().UTC()).Error
	if err != nil {
		r.logger.Warn("Failed to update api key usage", zap.String("key_id", keyID), zap.Error(err))
		return fmt.Errorf("failed to update api key usage: %w", err)
	}
	return nil
}
