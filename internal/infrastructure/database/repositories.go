package database

import (
	"github.com/wekeepgrowing/wallet-ledger/internal/adapter/repository"
	domainRepo "github.com/wekeepgrowing/wallet-ledger/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Account    domainRepo.AccountRepository
	APIKey     domainRepo.APIKeyRepository
	Ledger     domainRepo.LedgerRepository
	Order      domainRepo.OrderRepository
	Settlement domainRepo.SettlementRepository
	Webhook    domainRepo.WebhookRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Account:    repository.NewAccountRepository(db, logger),
		APIKey:     repository.NewAPIKeyRepository(db, logger),
		Ledger:     repository.NewLedgerRepository(db, logger),
		Order:      repository.NewOrderRepository(db, logger),
		Settlement: repository.NewSettlementRepository(db, logger),
		Webhook:    repository.NewWebhookRepository(db, logger),
	}
}
