package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/dto"
	domainErrors "github.com/wekeepgrowing/wallet-ledger/internal/domain/errors"
	"github.com/wekeepgrowing/wallet-ledger/internal/middleware/auth"
	pkgErrors "github.com/wekeepgrowing/wallet-ledger/pkg/errors"
	"go.uber.org/zap"
)

// MerchantHandler handles the merchant dashboard routes
type MerchantHandler struct {
	merchants   MerchantService
	settlements SettlementService
	webhooks    WebhookService
	logger      *zap.Logger
}

// NewMerchantHandler creates a new merchant handler instance
func NewMerchantHandler(merchants MerchantService, settlements SettlementService, webhooks WebhookService, logger *zap.Logger) *MerchantHandler {
	return &MerchantHandler{
		merchants:   merchants,
		settlements: settlements,
		webhooks:    webhooks,
		logger:      logger,
	}
}

// RequireMerchant resolves the merchant account owned by the JWT user. Users
// without one get 403.
func (h *MerchantHandler) RequireMerchant(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := currentUser(c)
		if err != nil {
			return err
		}

		merchant, err := h.merchants.MerchantForUser(c.Request().Context(), userID)
		if err != nil {
			if errors.Is(err, domainErrors.ErrAccountNotFound) {
				h.logger.Warn("User has no merchant account", zap.String("user_id", userID.String()))
				return pkgErrors.ToHTTPError(pkgErrors.NewAppError(pkgErrors.ErrUnauthorized, "Merchant account required", err))
			}
			return respondError(h.logger, err, "Failed to resolve merchant", zap.String("user_id", userID.String()))
		}

		c.SetRequest(c.Request().WithContext(auth.WithMerchant(c.Request().Context(), merchant.ID)))
		c.Set("merchant_id", merchant.ID.String())
		return next(c)
	}
}

// GetBalance handles GET /api/v1/merchants/balance
func (h *MerchantHandler) GetBalance(c echo.Context) error {
	merchantID, err := currentMerchant(c)
	if err != nil {
		return err
	}

	balance, err := h.merchants.Balance(c.Request().Context(), merchantID)
	if err != nil {
		return respondError(h.logger, err, "Failed to get merchant balance", zap.String("merchant_id", merchantID.String()))
	}

	return c.JSON(http.StatusOK, balance)
}

// GetSettlements handles GET /api/v1/merchants/settlements
func (h *MerchantHandler) GetSettlements(c echo.Context) error {
	merchantID, err := currentMerchant(c)
	if err != nil {
		return err
	}
	params, err := paginationParams(c)
	if err != nil {
		return err
	}

	settlements, meta, err := h.merchants.Settlements(c.Request().Context(), merchantID, params)
	if err != nil {
		return respondError(h.logger, err, "Failed to list settlements", zap.String("merchant_id", merchantID.String()))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"settlements": settlements,
		"pagination":  meta,
	})
}

// Settle handles POST /api/v1/merchants/settle (admin)
func (h *MerchantHandler) Settle(c echo.Context) error {
	report, err := h.settlements.RunSettlement(c.Request().Context())
	if err != nil {
		return respondError(h.logger, err, "Settlement run failed")
	}

	triggeredBy, _ := c.Get("user_id").(string)
	h.logger.Info("Ad hoc settlement completed",
		zap.String("triggered_by", triggeredBy),
		zap.Int("settled", len(report.Items)),
		zap.Int("failed", len(report.Errors)))

	return c.JSON(http.StatusOK, report)
}

// CreateWebhook handles POST /api/v1/merchants/webhooks
func (h *MerchantHandler) CreateWebhook(c echo.Context) error {
	merchantID, err := currentMerchant(c)
	if err != nil {
		return err
	}

	var req dto.CreateWebhookEndpointRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	endpoint, err := h.webhooks.CreateEndpoint(c.Request().Context(), merchantID, req.URL, req.Events)
	if err != nil {
		return respondError(h.logger, err, "Failed to create webhook endpoint", zap.String("merchant_id", merchantID.String()))
	}

	return c.JSON(http.StatusCreated, endpoint)
}

// ListWebhooks handles GET /api/v1/merchants/webhooks
func (h *MerchantHandler) ListWebhooks(c echo.Context) error {
	merchantID, err := currentMerchant(c)
	if err != nil {
		return err
	}

	endpoints, err := h.webhooks.ListEndpoints(c.Request().Context(), merchantID)
	if err != nil {
		return respondError(h.logger, err, "Failed to list webhook endpoints", zap.String("merchant_id", merchantID.String()))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"endpoints": endpoints})
}

// DeleteWebhook handles DELETE /api/v1/merchants/webhooks/:id
func (h *MerchantHandler) DeleteWebhook(c echo.Context) error {
	merchantID, err := currentMerchant(c)
	if err != nil {
		return err
	}
	endpointID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidArgument("invalid webhook endpoint id")
	}

	if err := h.webhooks.DeleteEndpoint(c.Request().Context(), merchantID, endpointID); err != nil {
		return respondError(h.logger, err, "Failed to delete webhook endpoint",
			zap.String("merchant_id", merchantID.String()),
			zap.String("endpoint_id", endpointID.String()))
	}

	return c.NoContent(http.StatusNoContent)
}

// ListWebhookEvents handles GET /api/v1/merchants/webhooks/events
func (h *MerchantHandler) ListWebhookEvents(c echo.Context) error {
	merchantID, err := currentMerchant(c)
	if err != nil {
		return err
	}

	events, err := h.webhooks.ListEvents(c.Request().Context(), merchantID)
	if err != nil {
		return respondError(h.logger, err, "Failed to list webhook events", zap.String("merchant_id", merchantID.String()))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"events": events})
}
