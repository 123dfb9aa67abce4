package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	domainRepo "github.com/wekeepgrowing/wallet-ledger/internal/domain/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const touchTimeout = 5 * time.Second

// APIKeyConfig holds the configuration for merchant API-key middleware
type APIKeyConfig struct {
	Keys   domainRepo.APIKeyRepository
	Logger *zap.Logger
}

// APIKeyMiddleware authenticates merchants with HTTP Basic credentials
// keyId:secret. The secret is checked against its bcrypt hash and inactive
// keys are rejected.
func APIKeyMiddleware(config APIKeyConfig) echo.MiddlewareFunc {
	unauthorized := func(c echo.Context) error {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "Invalid API credentials",
			"code":  "INVALID_API_KEY",
		})
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			keyID, secret, ok := c.Request().BasicAuth()
			if !ok || keyID == "" || secret == "" {
				config.Logger.Warn("Missing API credentials",
					zap.String("path", c.Request().URL.Path))
				return unauthorized(c)
			}

			ctx := c.Request().Context()
			key, err := config.Keys.GetByKeyID(ctx, keyID)
			if err != nil {
				config.Logger.Error("Failed to load API key", zap.String("key_id", keyID), zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, echo.Map{
					"error": "Authentication temporarily unavailable",
					"code":  "UNAVAILABLE",
				})
			}
			if key == nil || !key.IsActive {
				config.Logger.Warn("Unknown or inactive API key", zap.String("key_id", keyID))
				return unauthorized(c)
			}
			if err := bcrypt.CompareHashAndPassword([]byte(key.SecretHash), []byte(secret)); err != nil {
				config.Logger.Warn("API key secret mismatch", zap.String("key_id", keyID))
				return unauthorized(c)
			}

			go func() {
				touchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), touchTimeout)
				defer cancel()
				if err := config.Keys.TouchLastUsed(touchCtx, keyID); err != nil {
					config.Logger.Debug("Failed to update API key usage", zap.String("key_id", keyID), zap.Error(err))
				}
			}()

			c.SetRequest(c.Request().WithContext(WithMerchant(ctx, key.MerchantID)))
			c.Set("merchant_id", key.MerchantID.String())
			return next(c)
		}
	}
}

// WithMerchant stores the authenticated merchant id in ctx
func WithMerchant(ctx context.Context, merchantID uuid.UUID) context.Context {
	return context.WithValue(ctx, merchantContextKey, merchantID)
}

// MerchantFromContext returns the merchant authenticated by APIKeyMiddleware
func MerchantFromContext(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Request().Context().Value(merchantContextKey).(uuid.UUID)
	return id, ok
}
