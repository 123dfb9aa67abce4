package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/wallet-ledger/internal/domain/errors"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/provider"
	domainRepo "github.com/wekeepgrowing/wallet-ledger/internal/domain/repository"
	"github.com/wekeepgrowing/wallet-ledger/internal/infrastructure/metrics"
	"github.com/wekeepgrowing/wallet-ledger/internal/infrastructure/provider/email"
	"github.com/wekeepgrowing/wallet-ledger/pkg/messaging"
	"go.uber.org/zap"
)

const settlementLockKey = "settlement:run"

// SettlementUsecase sweeps merchant pending balances into available balances
type SettlementUsecase struct {
	accounts    domainRepo.AccountRepository
	settlements domainRepo.SettlementRepository
	locker      domainRepo.Locker
	dispatcher  EventDispatcher
	notifier    provider.Notifier
	publisher   messaging.Publisher
	tasks       *TaskGroup
	metrics     *metrics.Metrics
	currency    string
	lockTTL     time.Duration
	logger      *zap.Logger

	// guards runs within this process; locker guards across processes
	running sync.Mutex
}

// NewSettlementUsecase creates a settlement use case. locker may be nil when
// only one process runs settlements.
func NewSettlementUsecase(
	accounts domainRepo.AccountRepository,
	settlements domainRepo.SettlementRepository,
	locker domainRepo.Locker,
	dispatcher EventDispatcher,
	notifier provider.Notifier,
	publisher messaging.Publisher,
	tasks *TaskGroup,
	m *metrics.Metrics,
	currency string,
	lockTTL time.Duration,
	logger *zap.Logger,
) *SettlementUsecase {
	return &SettlementUsecase{
		accounts:    accounts,
		settlements: settlements,
		locker:      locker,
		dispatcher:  dispatcher,
		notifier:    notifier,
		publisher:   publisher,
		tasks:       tasks,
		metrics:     m,
		currency:    currency,
		lockTTL:     lockTTL,
		logger:      logger,
	}
}

// RunSettlement settles every merchant with a positive pending balance. Each
// merchant commits independently; a failure is recorded in the report and
// the run continues. Cancelling ctx stops the run between merchants.
func (u *SettlementUsecase) RunSettlement(ctx context.Context) (*entity.SettlementReport, error) {
	if !u.running.TryLock() {
		return nil, domainErrors.ErrSettlementInProgress
	}
	defer u.running.Unlock()

	if u.locker != nil {
		release, ok, err := u.locker.Acquire(ctx, settlementLockKey, u.lockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domainErrors.ErrSettlementInProgress
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				u.logger.Warn("Failed to release settlement lock", zap.Error(err))
			}
		}()
	}

	report := &entity.SettlementReport{
		RunStartedAt: time.Now().UTC(),
		Items:        []entity.SettlementItem{},
		Errors:       []entity.SettlementError{},
		TotalAmount:  decimal.Zero,
	}

	balances, snapshotAt, err := u.settlements.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	report.SnapshotAt = snapshotAt

	u.logger.Info("Settlement run started",
		zap.Int("merchants", len(balances)),
		zap.Time("snapshot_at", snapshotAt))

	for _, balance := range balances {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		settlement, err := u.settlements.Settle(ctx, domainRepo.SettleParams{
			SettlementID:   newID(prefixSettlement),
			TransactionID:  newID(prefixTransaction),
			MerchantID:     balance.MerchantID,
			SnapshotAmount: balance.Amount,
			SnapshotAt:     snapshotAt,
			PaymentIDs:     balance.PaymentIDs,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				report.Cancelled = true
				break
			}
			u.logger.Error("Failed to settle merchant",
				zap.String("merchant_id", balance.MerchantID.String()),
				zap.Error(err))
			u.metrics.ObserveOperation("settle", outcomeOf(err))
			report.Errors = append(report.Errors, entity.SettlementError{
				MerchantID: balance.MerchantID.String(),
				Error:      err.Error(),
			})
			continue
		}
		if settlement == nil {
			continue
		}
		u.metrics.ObserveOperation("settle", "success")
		u.metrics.AddSettled(settlement.Amount)

		item := entity.SettlementItem{
			MerchantID:    settlement.MerchantID.String(),
			BusinessName:  balance.BusinessName,
			Amount:        settlement.Amount,
			SettlementID:  settlement.SettlementID,
			PaymentsCount: settlement.PaymentsCount,
			NotifiedTo:    u.notify(ctx, settlement, balance.BusinessName),
		}
		report.Items = append(report.Items, item)
		report.TotalAmount = report.TotalAmount.Add(settlement.Amount)
	}

	report.FinishedAt = time.Now().UTC()
	u.logger.Info("Settlement run finished",
		zap.Int("settled", len(report.Items)),
		zap.Int("failed", len(report.Errors)),
		zap.String("total", report.TotalAmount.StringFixed(2)),
		zap.Bool("cancelled", report.Cancelled))

	return report, nil
}

// notify schedules the email, webhook and bus event for a committed
// settlement and returns the address the email goes to
func (u *SettlementUsecase) notify(ctx context.Context, s *model.Settlement, businessName string) string {
	recipient := u.recipient(ctx, s)

	payload := map[string]interface{}{
		"event":          EventSettlementProcessed,
		"settlement_id":  s.SettlementID,
		"amount":         s.Amount.StringFixed(2),
		"currency":       u.currency,
		"payments_count": s.PaymentsCount,
		"period_end":     s.PeriodEnd,
		"created_at":     s.CreatedAt,
	}

	if recipient != "" {
		notice := email.SettlementNotice{
			To:            recipient,
			BusinessName:  businessName,
			Amount:        s.Amount,
			Currency:      u.currency,
			SettlementID:  s.SettlementID,
			PaymentsCount: s.PaymentsCount,
			PeriodEnd:     s.PeriodEnd,
		}
		u.tasks.Go(ctx, "email "+EventSettlementProcessed, func(ctx context.Context) error {
			n, err := email.BuildSettlementNotification(notice)
			if err != nil {
				return err
			}
			return u.notifier.Notify(ctx, n)
		})
	}
	u.tasks.Go(ctx, "dispatch "+EventSettlementProcessed, func(ctx context.Context) error {
		_, err := u.dispatcher.Dispatch(ctx, s.MerchantID, EventSettlementProcessed, payload)
		return err
	})
	u.tasks.Go(ctx, "publish "+EventSettlementProcessed, func(ctx context.Context) error {
		return u.publisher.Publish(ctx, messaging.Event{
			Type:       EventSettlementProcessed,
			Key:        s.MerchantID.String(),
			Data:       payload,
			OccurredAt: s.CreatedAt,
		})
	})

	return recipient
}

// recipient prefers the business email and falls back to the owner's wallet email
func (u *SettlementUsecase) recipient(ctx context.Context, s *model.Settlement) string {
	merchant, err := u.accounts.GetMerchant(ctx, s.MerchantID)
	if err != nil {
		u.logger.Warn("Failed to load merchant for settlement notice",
			zap.String("merchant_id", s.MerchantID.String()),
			zap.Error(err))
		return ""
	}
	if merchant.BusinessEmail != nil && *merchant.BusinessEmail != "" {
		return *merchant.BusinessEmail
	}

	wallet, err := u.accounts.GetWallet(ctx, merchant.UserID)
	if err != nil {
		u.logger.Warn("Merchant owner has no wallet email",
			zap.String("merchant_id", s.MerchantID.String()),
			zap.Error(err))
		return ""
	}
	return wallet.Email
}
