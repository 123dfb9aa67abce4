package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/dto"
	"github.com/wekeepgrowing/wallet-ledger/internal/middleware/idempotency"
	"github.com/wekeepgrowing/wallet-ledger/internal/usecase"
	"go.uber.org/zap"
)

// WalletHandler handles wallet HTTP requests
type WalletHandler struct {
	wallet WalletService
	logger *zap.Logger
}

// NewWalletHandler creates a new wallet handler instance
func NewWalletHandler(wallet WalletService, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{wallet: wallet, logger: logger}
}

// GetBalance handles GET /api/v1/wallet/balance
func (h *WalletHandler) GetBalance(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	balance, err := h.wallet.GetBalance(c.Request().Context(), userID)
	if err != nil {
		return respondError(h.logger, err, "Failed to get wallet balance", zap.String("user_id", userID.String()))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"balance": balance.StringFixed(2),
	})
}

// Send handles POST /api/v1/wallet/send
func (h *WalletHandler) Send(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req dto.TransferRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	amount, err := usecase.ParseAmount("amount", req.Amount.String())
	if err != nil {
		return respondError(h.logger, err, "Invalid transfer amount")
	}

	result, err := h.wallet.Transfer(c.Request().Context(), usecase.TransferCommand{
		SenderID:       userID,
		ReceiverHandle: req.ReceiverUPI,
		Amount:         amount,
		Description:    req.Note,
		IdempotencyKey: c.Request().Header.Get(idempotency.HeaderKey),
	})
	if err != nil {
		return respondError(h.logger, err, "Transfer failed",
			zap.String("sender_id", userID.String()),
			zap.String("amount", amount.String()))
	}

	return c.JSON(http.StatusOK, result)
}

// GetTransactions handles GET /api/v1/wallet/transactions
func (h *WalletHandler) GetTransactions(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	params, err := paginationParams(c)
	if err != nil {
		return err
	}

	history, err := h.wallet.History(c.Request().Context(), userID, params)
	if err != nil {
		return respondError(h.logger, err, "Failed to get wallet history", zap.String("user_id", userID.String()))
	}

	return c.JSON(http.StatusOK, history)
}

// Search handles GET /api/v1/wallet/search?upiId=
func (h *WalletHandler) Search(c echo.Context) error {
	handle := strings.TrimSpace(c.QueryParam("upiId"))
	if handle == "" {
		return invalidArgument("upiId query parameter is required")
	}

	account, err := h.wallet.SearchAccount(c.Request().Context(), handle)
	if err != nil {
		return respondError(h.logger, err, "Account search failed")
	}

	return c.JSON(http.StatusOK, account)
}
