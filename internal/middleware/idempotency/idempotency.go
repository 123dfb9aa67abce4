package idempotency

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	domainRepo "github.com/wekeepgrowing/wallet-ledger/internal/domain/repository"
	"go.uber.org/zap"
)

const (
	HeaderKey      = "Idempotency-Key"
	HeaderReplayed = "Idempotent-Replayed"
	maxKeyLength   = 255
)

// Config holds the configuration for the idempotency middleware
type Config struct {
	Store domainRepo.IdempotencyStore
	// TTL is how long a completed response is replayed
	TTL time.Duration
	// LockTTL bounds how long an in-flight request blocks duplicates
	LockTTL time.Duration
	// Scope returns the caller identity the key is namespaced by
	Scope  func(c echo.Context) string
	Logger *zap.Logger
}

// Middleware replays the stored response of a completed request carrying the
// same Idempotency-Key and rejects duplicates that arrive while the first is
// still running. Only 2xx responses are stored. When the store is
// unavailable requests pass through unprotected.
func Middleware(config Config) echo.MiddlewareFunc {
	if config.TTL == 0 {
		config.TTL = 24 * time.Hour
	}
	if config.LockTTL == 0 {
		config.LockTTL = time.Minute
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(HeaderKey)
			if key == "" || config.Store == nil {
				return next(c)
			}
			if len(key) > maxKeyLength {
				return c.JSON(http.StatusBadRequest, echo.Map{
					"error": "Idempotency-Key is too long",
					"code":  "INVALID_ARGUMENT",
				})
			}

			scoped := c.Request().Method + ":" + c.Path() + ":" + key
			if config.Scope != nil {
				scoped = config.Scope(c) + ":" + scoped
			}
			ctx := c.Request().Context()

			stored, err := config.Store.Get(ctx, scoped)
			if err != nil {
				config.Logger.Warn("Idempotency store unavailable", zap.Error(err))
				return next(c)
			}
			if stored != nil {
				c.Response().Header().Set(HeaderReplayed, "true")
				return c.Blob(stored.Status, stored.ContentType, stored.Body)
			}

			reserved, err := config.Store.Reserve(ctx, scoped, config.LockTTL)
			if err != nil {
				config.Logger.Warn("Idempotency store unavailable", zap.Error(err))
				return next(c)
			}
			if !reserved {
				return c.JSON(http.StatusConflict, echo.Map{
					"error":     "A request with this Idempotency-Key is already in progress",
					"code":      "CONFLICT",
					"retryable": true,
				})
			}

			recorder := &responseRecorder{ResponseWriter: c.Response().Writer}
			c.Response().Writer = recorder

			handlerErr := next(c)

			storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()

			status := c.Response().Status
			if handlerErr == nil && status >= 200 && status < 300 {
				resp := &domainRepo.StoredResponse{
					Status:      status,
					ContentType: c.Response().Header().Get(echo.HeaderContentType),
					Body:        recorder.body.Bytes(),
				}
				if err := config.Store.Save(storeCtx, scoped, resp, config.TTL); err != nil {
					config.Logger.Warn("Failed to store idempotent response", zap.Error(err))
				}
				return nil
			}

			if err := config.Store.Release(storeCtx, scoped); err != nil {
				config.Logger.Warn("Failed to release idempotency key", zap.Error(err))
			}
			return handlerErr
		}
	}
}

// responseRecorder copies the response body while writing it through
type responseRecorder struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (w *responseRecorder) WriteHeader(code int) {
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("response writer does not support hijacking")
}
