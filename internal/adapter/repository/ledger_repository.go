package repository

import (
	"bytes"
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
	"gorm.io/gorm/clause"
)

// ledgerRepository implements the LedgerRepository interface
type ledgerRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewLedgerRepository creates a new ledger repository instance
func NewLedgerRepository(db *gorm.DB, logger *zap.Logger) domainRepo.LedgerRepository {
	return &ledgerRepository{
		db:     db,
		logger: logger,
	}
}

// Transfer moves funds between two wallets atomically. Wallet rows are locked
// in ascending user id order so concurrent opposite transfers cannot deadlock.
func (r *ledgerRepository) Transfer(ctx context.Context, params domainRepo.TransferParams) (*model.Transaction, error) {
	if params.SenderID == params.ReceiverID {
		return nil, domainErrors.ErrSelfTransfer
	}

	var transaction *model.Transaction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if params.IdempotencyKey != nil {
			existing, err := findByIdempotencyKey(tx, params.SenderID, *params.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				r.logger.Info("Transfer already processed (idempotency)",
					zap.String("transaction_id", existing.TransactionID),
					zap.String("sender_id", params.SenderID.String()))
				transaction = existing
				return nil
			}
		}

		if err := setActor(tx, params.SenderID); err != nil {
			return err
		}

		first, second := params.SenderID, params.ReceiverID
		if bytes.Compare(first[:], second[:]) > 0 {
			first, second = second, first
		}
		locked := make(map[uuid.UUID]*model.Wallet, 2)
		for _, id := range []uuid.UUID{first, second} {
			wallet, err := lockWallet(tx, id)
			if err != nil {
				return err
			}
			locked[id] = wallet
		}
		sender, receiver := locked[params.SenderID], locked[params.ReceiverID]

		if sender.Balance.LessThan(params.Amount) {
			return domainErrors.NewInsufficientFundsError(params.Amount, sender.Balance)
		}

		now := time.Now().UTC()
		senderAfter := sender.Balance.Sub(params.Amount)
		if err := tx.Model(&model.Wallet{}).
			Where("user_id = ?", sender.UserID).
			Updates(map[string]interface{}{"balance": senderAfter, "updated_at": now}).Error; err != nil {
			return fmt.Errorf("failed to debit sender: %w", err)
		}
		if err := tx.Model(&model.Wallet{}).
			Where("user_id = ?", receiver.UserID).
			Updates(map[string]interface{}{"balance": receiver.Balance.Add(params.Amount), "updated_at": now}).Error; err != nil {
			return fmt.Errorf("failed to credit receiver: %w", err)
		}

		transaction = &model.Transaction{
			TransactionID:      params.TransactionID,
			SenderID:           sender.UserID,
			ReceiverID:         receiver.UserID,
			Amount:             params.Amount,
			Type:               model.TransactionTypeTransfer,
			Status:             model.TransactionStatusCompleted,
			Description:        params.Description,
			IdempotencyKey:     params.IdempotencyKey,
			SenderBalanceAfter: senderAfter,
			CreatedAt:          now,
			CompletedAt:        &now,
		}
		if err := tx.Create(transaction).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		err = classifyError(err)
		r.logger.Warn("Transfer failed",
			zap.String("sender_id", params.SenderID.String()),
			zap.String("receiver_id", params.ReceiverID.String()),
			zap.String("amount", params.Amount.String()),
			zap.Error(err))
		return nil, err
	}

	return transaction, nil
}

// CapturePayment settles an order against the buyer's wallet. Locks are taken
// in the order: order row, buyer wallet, merchant account.
func (r *ledgerRepository) CapturePayment(ctx context.Context, params domainRepo.CaptureParams) (*model.Payment, *model.Transaction, error) {
	var payment *model.Payment
	var transaction *model.Transaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_id = ?", params.OrderID).
			First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainErrors.ErrOrderNotFound
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}

		switch order.Status {
		case model.OrderStatusPaid:
			return domainErrors.ErrOrderAlreadyPaid
		case model.OrderStatusFailed:
			return domainErrors.NewValidationError("order_id", "order has failed and cannot be paid")
		}

		// Owner is immutable, so an unlocked read is enough for the self-pay check
		var owner model.MerchantAccount
		if err := tx.Select("id", "user_id").Where("id = ?", order.MerchantID).First(&owner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainErrors.ErrAccountNotFound
			}
			return fmt.Errorf("failed to get merchant: %w", err)
		}
		if owner.UserID == params.BuyerID {
			return domainErrors.ErrSelfTransfer
		}

		if err := setActor(tx, params.BuyerID); err != nil {
			return err
		}

		buyer, err := lockWallet(tx, params.BuyerID)
		if err != nil {
			return err
		}
		if buyer.Balance.LessThan(order.Amount) {
			return domainErrors.NewInsufficientFundsError(order.Amount, buyer.Balance)
		}

		var merchant model.MerchantAccount
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", order.MerchantID).
			First(&merchant).Error; err != nil {
			return fmt.Errorf("failed to lock merchant: %w", err)
		}

		now := time.Now().UTC()
		buyerAfter := buyer.Balance.Sub(order.Amount)
		if err := tx.Model(&model.Wallet{}).
			Where("user_id = ?", buyer.UserID).
			Updates(map[string]interface{}{"balance": buyerAfter, "updated_at": now}).Error; err != nil {
			return fmt.Errorf("failed to debit buyer: %w", err)
		}
		if err := tx.Model(&model.MerchantAccount{}).
			Where("id = ?", merchant.ID).
			Updates(map[string]interface{}{"pending_balance": merchant.PendingBalance.Add(order.Amount), "updated_at": now}).Error; err != nil {
			return fmt.Errorf("failed to credit merchant: %w", err)
		}

		orderID := order.OrderID
		transaction = &model.Transaction{
			TransactionID:      params.TransactionID,
			SenderID:           buyer.UserID,
			ReceiverID:         merchant.ID,
			Amount:             order.Amount,
			Type:               model.TransactionTypePayment,
			Status:             model.TransactionStatusCompleted,
			Description:        fmt.Sprintf("Payment to %s", merchant.BusinessName),
			ReferenceID:        &orderID,
			SenderBalanceAfter: buyerAfter,
			CreatedAt:          now,
			CompletedAt:        &now,
		}
		if err := tx.Create(transaction).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		payment = &model.Payment{
			PaymentID:     params.PaymentID,
			OrderID:       order.OrderID,
			MerchantID:    merchant.ID,
			BuyerID:       buyer.UserID,
			Amount:        order.Amount,
			Currency:      order.Currency,
			Status:        model.PaymentStatusSuccess,
			Method:        model.PaymentMethodWallet,
			TransactionID: transaction.TransactionID,
			CreatedAt:     now,
		}
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		result := tx.Model(&model.Order{}).
			Where("order_id = ? AND status = ?", order.OrderID, model.OrderStatusCreated).
			Updates(map[string]interface{}{"status": model.OrderStatusPaid, "paid_at": now, "updated_at": now})
		if result.Error != nil {
			return fmt.Errorf("failed to mark order paid: %w", result.Error)
		}
		if result.RowsAffected != 1 {
			return domainErrors.ErrConcurrencyConflict
		}
		return nil
	})
	if err != nil {
		err = classifyError(err)
		r.logger.Warn("Payment capture failed",
			zap.String("order_id", params.OrderID),
			zap.String("buyer_id", params.BuyerID.String()),
			zap.Error(err))
		return nil, nil, err
	}

	return payment, transaction, nil
}

func (r *ledgerRepository) FindByIdempotencyKey(ctx context.Context, senderID uuid.UUID, key string) (*model.Transaction, error) {
	transaction, err := findByIdempotencyKey(r.db.WithContext(ctx), senderID, key)
	if err != nil {
		return nil, classifyError(err)
	}
	return transaction, nil
}

func (r *ledgerRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*model.Transaction, int64, error) {
	var transactions []*model.Transaction
	var total int64

	query := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("sender_id = ? OR receiver_id = ?", userID, userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", classifyError(err))
	}

	err := query.Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&transactions).Error
	if err != nil {
		r.logger.Error("Failed to get transaction history",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, 0, fmt.Errorf("failed to get transaction history: %w", classifyError(err))
	}

	return transactions, total, nil
}

func findByIdempotencyKey(db *gorm.DB, senderID uuid.UUID, key string) (*model.Transaction, error) {
	var transaction model.Transaction
	err := db.Where("sender_id = ? AND idempotency_key = ?", senderID, key).First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction by idempotency key: %w", err)
	}
	return &transaction, nil
}

func lockWallet(tx *gorm.DB, userID uuid.UUID) (*model.Wallet, error) {
	var wallet model.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	return &wallet, nil
}

// setActor tags audit rows written by this transaction
func setActor(tx *gorm.DB, actorID uuid.UUID) error {
	if err := tx.Exec("SELECT set_config('app.current_actor_id', ?, true)", actorID.String()).Error; err != nil {
		return fmt.Errorf("failed to set audit actor: %w", err)
	}
	return nil
}
