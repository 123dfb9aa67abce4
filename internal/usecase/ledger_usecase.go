package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

// TransferCommand is a wallet-to-wallet transfer request
type TransferCommand struct {
	SenderID       uuid.UUID
	ReceiverHandle string
	Amount         decimal.Decimal
	Description    string
	IdempotencyKey string
}

// LedgerUsecase serves wallet operations
type LedgerUsecase struct {
	accounts    domainRepo.AccountRepository
	ledger      domainRepo.LedgerRepository
	publisher   messaging.Publisher
	tasks       *TaskGroup
	metrics     *metrics.Metrics
	maxTransfer decimal.Decimal
	logger      *zap.Logger
}

// NewLedgerUsecase creates a new ledger use case
func NewLedgerUsecase(
	accounts domainRepo.AccountRepository,
	ledger domainRepo.LedgerRepository,
	publisher messaging.Publisher,
	tasks *TaskGroup,
	m *metrics.Metrics,
	maxTransfer decimal.Decimal,
	logger *zap.Logger,
) *LedgerUsecase {
	return &LedgerUsecase{
		accounts:    accounts,
		ledger:      ledger,
		publisher:   publisher,
		tasks:       tasks,
		metrics:     m,
		maxTransfer: maxTransfer,
		logger:      logger,
	}
}

// Transfer moves funds from the sender's wallet to the wallet identified by
// ReceiverHandle. A repeated IdempotencyKey returns the original result.
func (u *LedgerUsecase) Transfer(ctx context.Context, cmd TransferCommand) (*entity.TransferResult, error) {
	if err := validateAmount("amount", cmd.Amount, u.maxTransfer); err != nil {
		return nil, err
	}

	receiver, err := u.resolveHandle(ctx, cmd.ReceiverHandle)
	if err != nil {
		if errors.Is(err, domainErrors.ErrAccountNotFound) {
			return nil, domainErrors.NewValidationError("receiver", "no account matches the receiver identifier")
		}
		return nil, err
	}
	if receiver.UserID == cmd.SenderID {
		return nil, domainErrors.ErrSelfTransfer
	}

	description := strings.TrimSpace(cmd.Description)
	if description == "" {
		description = fmt.Sprintf("Payment to %s", receiver.Name)
	}

	var key *string
	if cmd.IdempotencyKey != "" {
		key = &cmd.IdempotencyKey
	}

	txn, err := u.ledger.Transfer(ctx, domainRepo.TransferParams{
		TransactionID:  newID(prefixTransaction),
		SenderID:       cmd.SenderID,
		ReceiverID:     receiver.UserID,
		Amount:         cmd.Amount,
		Description:    description,
		IdempotencyKey: key,
	})
	if err != nil && key != nil && errors.Is(err, domainErrors.ErrConcurrencyConflict) {
		// A concurrent request with the same key may have won the race
		if existing, findErr := u.ledger.FindByIdempotencyKey(ctx, cmd.SenderID, *key); findErr == nil && existing != nil {
			txn, err = existing, nil
		}
	}
	if err != nil {
		u.metrics.ObserveOperation("transfer", outcomeOf(err))
		return nil, err
	}
	u.metrics.ObserveOperation("transfer", "success")

	u.logger.Info("Transfer completed",
		zap.String("transaction_id", txn.TransactionID),
		zap.String("sender_id", txn.SenderID.String()),
		zap.String("receiver_id", txn.ReceiverID.String()),
		zap.String("amount", txn.Amount.String()))

	u.tasks.Go(ctx, "publish "+EventTransferCompleted, func(ctx context.Context) error {
		return u.publisher.Publish(ctx, messaging.Event{
			Type: EventTransferCompleted,
			Key:  txn.SenderID.String(),
			Data: map[string]interface{}{
				"transaction_id": txn.TransactionID,
				"sender_id":      txn.SenderID.String(),
				"receiver_id":    txn.ReceiverID.String(),
				"amount":         txn.Amount.StringFixed(2),
			},
			OccurredAt: txn.CreatedAt,
		})
	})

	return &entity.TransferResult{
		TransactionID: txn.TransactionID,
		Amount:        txn.Amount,
		ReceiverName:  receiver.Name,
		ReceiverUPI:   receiver.UpiID,
		NewBalance:    txn.SenderBalanceAfter,
		Timestamp:     txn.CreatedAt,
	}, nil
}

// GetBalance returns the user's wallet balance
func (u *LedgerUsecase) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	wallet, err := u.accounts.GetWallet(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return wallet.Balance, nil
}

// History returns the user's ledger entries, newest first
func (u *LedgerUsecase) History(ctx context.Context, userID uuid.UUID, params entity.PaginationParams) (*entity.WalletHistory, error) {
	params.Normalize()

	transactions, total, err := u.ledger.ListTransactions(ctx, userID, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}

	counterpartyIDs := make([]uuid.UUID, 0, len(transactions))
	for _, t := range transactions {
		counterpartyIDs = append(counterpartyIDs, counterparty(t, userID))
	}
	wallets, err := u.accounts.GetWallets(ctx, counterpartyIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]entity.HistoryEntry, 0, len(transactions))
	for _, t := range transactions {
		entry := entity.HistoryEntry{
			TransactionID: t.TransactionID,
			Type:          string(t.Type),
			Direction:     entity.DirectionReceived,
			Amount:        t.Amount,
			Description:   t.Description,
			Status:        t.Status,
			CreatedAt:     t.CreatedAt,
		}
		if t.SenderID == userID {
			entry.Direction = entity.DirectionSent
		}
		if w, ok := wallets[counterparty(t, userID)]; ok {
			entry.CounterpartyName = w.Name
			entry.CounterpartyUPI = w.UpiID
		}
		entries = append(entries, entry)
	}

	return &entity.WalletHistory{
		Transactions: entries,
		Pagination:   entity.NewPaginationMeta(params, total),
	}, nil
}

// SearchAccount resolves a UPI id or mobile number to its public summary
func (u *LedgerUsecase) SearchAccount(ctx context.Context, handle string) (*entity.AccountSummary, error) {
	wallet, err := u.resolveHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	return &entity.AccountSummary{Name: wallet.Name, UpiID: wallet.UpiID}, nil
}

func (u *LedgerUsecase) resolveHandle(ctx context.Context, handle string) (*model.Wallet, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, domainErrors.NewValidationError("receiver", "is required")
	}
	if isMobile(handle) {
		return u.accounts.FindWalletByMobile(ctx, handle)
	}
	return u.accounts.FindWalletByUPI(ctx, handle)
}

func counterparty(t *model.Transaction, userID uuid.UUID) uuid.UUID {
	if t.SenderID == userID {
		return t.ReceiverID
	}
	return t.SenderID
}

// outcomeOf labels an operation error for metrics
func outcomeOf(err error) string {
	var validation *domainErrors.ValidationError
	var funds *domainErrors.InsufficientFundsError
	switch {
	case errors.As(err, &validation):
		return "invalid"
	case errors.As(err, &funds):
		return "insufficient_funds"
	case errors.Is(err, domainErrors.ErrConcurrencyConflict):
		return "conflict"
	case errors.Is(err, domainErrors.ErrDownstreamUnavailable):
		return "unavailable"
	case errors.Is(err, domainErrors.ErrOrderAlreadyPaid):
		return "already_paid"
	case errors.Is(err, domainErrors.ErrAccountNotFound), errors.Is(err, domainErrors.ErrOrderNotFound):
		return "not_found"
	case errors.Is(err, domainErrors.ErrSelfTransfer):
		return "self_transfer"
	default:
		return "error"
	}
}
