package http

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	handlers "github.com/wekeepgrowing/wallet-ledger/internal/adapter/handler/http"
	"github.com/wekeepgrowing/wallet-ledger/internal/config"
	domainRepo "github.com/wekeepgrowing/wallet-ledger/internal/domain/repository"
	"github.com/wekeepgrowing/wallet-ledger/internal/infrastructure/metrics"
	"github.com/wekeepgrowing/wallet-ledger/internal/middleware/auth"
	"github.com/wekeepgrowing/wallet-ledger/internal/middleware/idempotency"
	"github.com/wekeepgrowing/wallet-ledger/pkg/logger"
	"go.uber.org/zap"
)

// Services are the use cases exposed over HTTP
type Services struct {
	Wallet      handlers.WalletService
	Payments    handlers.PaymentService
	Merchants   handlers.MerchantService
	Settlements handlers.SettlementService
	Webhooks    handlers.WebhookService
}

// Dependencies are the collaborators of the HTTP middleware chain.
// Idempotency may be nil when Redis is not configured.
type Dependencies struct {
	APIKeys     domainRepo.APIKeyRepository
	Idempotency domainRepo.IdempotencyStore
	Metrics     *metrics.Metrics
	Ping        handlers.Pinger
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	echo     *echo.Echo
	services Services
	deps     Dependencies
}

func NewServer(cfg *config.Config, log *zap.Logger, services Services, deps Dependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewRequestValidator()
	logger.WithEchoLogger(e, log)

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(logger.NewEchoRequestLogger(log))
	if deps.Metrics != nil {
		e.Use(deps.Metrics.Middleware())
	}
	if len(cfg.Server.HTTP.AllowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.Server.HTTP.AllowOrigins,
			AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, idempotency.HeaderKey},
		}))
	}

	s := &Server{
		config:   cfg,
		logger:   log,
		echo:     e,
		services: services,
		deps:     deps,
	}
	s.setupRoutes()
	return s
}

// Echo exposes the router, mainly for tests
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.config.Service.Name, s.config.Service.Version, s.deps.Ping, s.logger)
	walletHandler := handlers.NewWalletHandler(s.services.Wallet, s.logger)
	paymentHandler := handlers.NewPaymentHandler(s.services.Payments, s.logger)
	merchantHandler := handlers.NewMerchantHandler(s.services.Merchants, s.services.Settlements, s.services.Webhooks, s.logger)

	// Health check and metrics
	s.echo.GET("/health", healthHandler.Health)
	if s.deps.Metrics != nil {
		s.echo.GET("/metrics", s.deps.Metrics.Handler())
	}

	jwtMiddleware := auth.JWTMiddleware(auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Logger: s.logger,
	})
	apiKeyMiddleware := auth.APIKeyMiddleware(auth.APIKeyConfig{
		Keys:   s.deps.APIKeys,
		Logger: s.logger,
	})
	idempotent := idempotency.Middleware(idempotency.Config{
		Store: s.deps.Idempotency,
		Scope: func(c echo.Context) string {
			userID, _ := c.Get("user_id").(string)
			return userID
		},
		Logger: s.logger,
	})

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Public checkout page lookup
	v1.GET("/orders/:orderId", paymentHandler.GetOrder)

	// Merchant server-to-server routes (API key)
	v1.POST("/orders", paymentHandler.CreateOrder, apiKeyMiddleware)
	v1.POST("/refunds", paymentHandler.Refund, apiKeyMiddleware)

	// User routes (JWT)
	protected := v1.Group("", jwtMiddleware)
	protected.POST("/pay", paymentHandler.Pay, idempotent)

	wallet := protected.Group("/wallet")
	wallet.GET("/balance", walletHandler.GetBalance)
	wallet.POST("/send", walletHandler.Send, idempotent)
	wallet.GET("/transactions", walletHandler.GetTransactions)
	wallet.GET("/search", walletHandler.Search)

	// Settlement sweep is an operator action, not scoped to one merchant
	protected.POST("/merchants/settle", merchantHandler.Settle, auth.RequireRole(s.config.JWT.AdminRole, s.logger))

	merchants := protected.Group("/merchants", merchantHandler.RequireMerchant)
	merchants.GET("/balance", merchantHandler.GetBalance)
	merchants.GET("/settlements", merchantHandler.GetSettlements)
	merchants.POST("/webhooks", merchantHandler.CreateWebhook)
	merchants.GET("/webhooks", merchantHandler.ListWebhooks)
	merchants.DELETE("/webhooks/:id", merchantHandler.DeleteWebhook)
	merchants.GET("/webhooks/events", merchantHandler.ListWebhookEvents)
}
