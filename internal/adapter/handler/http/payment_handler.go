package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/dto"
	"github.com/wekeepgrowing/wallet-ledger/internal/usecase"
	"go.uber.org/zap"
)

// PaymentHandler handles order and payment HTTP requests
type PaymentHandler struct {
	payments PaymentService
	logger   *zap.Logger
}

// NewPaymentHandler creates a new payment handler instance
func NewPaymentHandler(payments PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

// CreateOrder handles POST /api/v1/orders (merchant API key)
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	merchantID, err := currentMerchant(c)
	if err != nil {
		return err
	}

	var req dto.CreateOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	amount, err := usecase.ParseAmount("amount", req.Amount.String())
	if err != nil {
		return respondError(h.logger, err, "Invalid order amount")
	}

	cmd := usecase.CreateOrderCommand{
		Amount:      amount,
		Currency:    req.Currency,
		Description: req.Description,
		ReturnURL:   req.ReturnURL,
		Metadata:    req.Metadata,
	}
	if req.Customer != nil {
		cmd.Customer = usecase.Customer{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		}
	}

	order, err := h.payments.CreateOrder(c.Request().Context(), merchantID, cmd)
	if err != nil {
		return respondError(h.logger, err, "Failed to create order", zap.String("merchant_id", merchantID.String()))
	}

	return c.JSON(http.StatusCreated, order)
}

// GetOrder handles GET /api/v1/orders/:orderId (public)
func (h *PaymentHandler) GetOrder(c echo.Context) error {
	orderID := c.Param("orderId")
	if orderID == "" {
		return invalidArgument("order ID is required")
	}

	order, err := h.payments.GetOrder(c.Request().Context(), orderID)
	if err != nil {
		return respondError(h.logger, err, "Failed to get order", zap.String("order_id", orderID))
	}

	return c.JSON(http.StatusOK, order)
}

// Pay handles POST /api/v1/pay
func (h *PaymentHandler) Pay(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req dto.PayRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.payments.Pay(c.Request().Context(), userID, req.OrderID)
	if err != nil {
		return respondError(h.logger, err, "Payment failed",
			zap.String("buyer_id", userID.String()),
			zap.String("order_id", req.OrderID))
	}

	return c.JSON(http.StatusOK, result)
}

// Refund handles POST /api/v1/refunds (merchant API key)
func (h *PaymentHandler) Refund(c echo.Context) error {
	merchantID, err := currentMerchant(c)
	if err != nil {
		return err
	}

	var req dto.RefundRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.payments.Refund(c.Request().Context(), merchantID, req.PaymentID); err != nil {
		return respondError(h.logger, err, "Refund rejected", zap.String("payment_id", req.PaymentID))
	}
	return c.NoContent(http.StatusAccepted)
}
