package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
)

// AccountRepository reads wallets and merchant accounts. It never mutates
// balances; see LedgerRepository and SettlementRepository for that.
type AccountRepository interface {
	// GetWallet returns ErrAccountNotFound when the user has no wallet
	GetWallet(ctx context.Context, userID uuid.UUID) (*model.Wallet, error)

	// FindWalletByMobile resolves a phone number to a wallet
	FindWalletByMobile(ctx context.Context, mobile string) (*model.Wallet, error)

	// FindWalletByUPI resolves a UPI-style identifier to a wallet
	FindWalletByUPI(ctx context.Context, upiID string) (*model.Wallet, error)

	// GetWallets loads several wallets at once; missing ids are absent from the map
	GetWallets(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*model.Wallet, error)

	GetMerchant(ctx context.Context, merchantID uuid.UUID) (*model.MerchantAccount, error)
	GetMerchantByUserID(ctx context.Context, userID uuid.UUID) (*model.MerchantAccount, error)
}

// APIKeyRepository verifies merchant credentials issued elsewhere
type APIKeyRepository interface {
	// GetByKeyID returns nil, nil when no key matches
	GetByKeyID(ctx context.Context, keyID string) (*model.APIKey, error)

	TouchLastUsed(ctx context.Context, keyID string) error
}
