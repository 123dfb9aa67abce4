package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	grpcHandler "github.com/wekeepgrowing/wallet-ledger/internal/adapter/handler/grpc"
	"github.com/wekeepgrowing/wallet-ledger/internal/adapter/repository"
	"github.com/wekeepgrowing/wallet-ledger/internal/config"
	domainRepo "github.com/wekeepgrowing/wallet-ledger/internal/domain/repository"
	"github.com/wekeepgrowing/wallet-ledger/internal/infrastructure/crypto"
	"github.com/wekeepgrowing/wallet-ledger/internal/infrastructure/database"
	grpcServer "github.com/wekeepgrowing/wallet-ledger/internal/infrastructure/grpc"
	httpServer "github.com/wekeepgrowing/wallet-ledger/internal/infrastructure/http"
	"github.com/wekeepgrowing/wallet-ledger/internal/infrastructure/metrics"
	"github.com/wekeepgrowing/wallet-ledger/internal/infrastructure/provider"
	"github.com/wekeepgrowing/wallet-ledger/internal/infrastructure/scheduler"
	"github.com/wekeepgrowing/wallet-ledger/internal/usecase"
	"github.com/wekeepgrowing/wallet-ledger/pkg/logger"
	"go.uber.org/zap"
)

const (
	backgroundTaskTimeout = 10 * time.Second
	healthCheckInterval   = 10 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(cfg.Log,
		zap.String("service", cfg.Service.Name),
		zap.String("version", cfg.Service.Version),
		zap.String("environment", cfg.Service.Environment))
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	repos := database.NewRepositories(db, zapLogger)

	// Redis backs the settlement lock and the idempotency cache when configured
	var (
		redisClient *redis.Client
		locker      domainRepo.Locker
		idemStore   domainRepo.IdempotencyStore
	)
	if cfg.Redis.Enabled() {
		redisClient, err = database.NewRedisClient(&cfg.Redis, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()

		cache := repository.NewRedisRepository(redisClient, zapLogger)
		locker = cache
		idemStore = cache
	} else {
		zapLogger.Warn("Redis not configured, idempotency caching and the cross-process settlement lock are disabled")
	}

	// External collaborators
	factory := provider.NewFactory(cfg, zapLogger)
	notifier := factory.Notifier()
	publisher, err := factory.Publisher(redisClient)
	if err != nil {
		zapLogger.Fatal("Failed to create event publisher", zap.Error(err))
	}

	cipher, err := crypto.NewAESGCMCipher(cfg.Service.EncryptionKey)
	if err != nil {
		zapLogger.Fatal("Invalid service.encryption_key", zap.Error(err))
	}

	maxTransfer, err := cfg.Service.MaxTransfer()
	if err != nil {
		zapLogger.Fatal("Invalid service.max_transfer_amount", zap.Error(err))
	}
	schedule, err := cfg.Settlement.Schedule()
	if err != nil {
		zapLogger.Fatal("Invalid settlement schedule", zap.Error(err))
	}

	m := metrics.New()
	tasks := usecase.NewTaskGroup(backgroundTaskTimeout, zapLogger)

	// Use cases
	dispatcher := usecase.NewWebhookDispatcher(repos.Webhook, cipher, cfg.Webhook, m, zapLogger)
	ledgerUsecase := usecase.NewLedgerUsecase(repos.Account, repos.Ledger, publisher, tasks, m, maxTransfer, zapLogger)
	paymentUsecase := usecase.NewPaymentUsecase(repos.Account, repos.Order, repos.Ledger, dispatcher, publisher, tasks, m,
		cfg.Service.DefaultCurrency, cfg.Service.FrontendURL, zapLogger)
	settlementUsecase := usecase.NewSettlementUsecase(repos.Account, repos.Settlement, locker, dispatcher, notifier, publisher, tasks, m,
		cfg.Service.DefaultCurrency, cfg.Settlement.LockTTL, zapLogger)
	merchantUsecase := usecase.NewMerchantUsecase(repos.Account, repos.Settlement, zapLogger)
	webhookUsecase := usecase.NewWebhookUsecase(repos.Webhook, cipher, zapLogger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Deliveries outlive ctx so Stop can drain the queue during shutdown
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	dispatcher.Start(dispatchCtx)

	ping := func(ctx context.Context) error { return database.Ping(ctx, db) }
	healthHandler := grpcHandler.NewHealthHandler(cfg.Service.Name, ping, zapLogger)
	go healthHandler.Run(ctx, healthCheckInterval)

	if cfg.Settlement.Enabled {
		go scheduler.NewSettlementScheduler(settlementUsecase, schedule, zapLogger).Run(ctx)
	} else {
		zapLogger.Info("Daily settlement disabled, use POST /api/v1/merchants/settle or cmd/settle")
	}

	// Initialize servers
	grpcSrv := grpcServer.NewServer(cfg, zapLogger, healthHandler)
	httpSrv := httpServer.NewServer(cfg, zapLogger, httpServer.Services{
		Wallet:      ledgerUsecase,
		Payments:    paymentUsecase,
		Merchants:   merchantUsecase,
		Settlements: settlementUsecase,
		Webhooks:    webhookUsecase,
	}, httpServer.Dependencies{
		APIKeys:     repos.APIKey,
		Idempotency: idemStore,
		Metrics:     m,
		Ping:        ping,
	})

	// Start servers
	go func() {
		if err := grpcSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start gRPC server", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down servers...")
	shutdown(cfg, zapLogger, cancel, httpSrv, grpcSrv, dispatcher, tasks, publisher)
	zapLogger.Info("Servers shut down successfully")
}

type stopper interface {
	Shutdown(ctx context.Context) error
}

type closer interface {
	Close() error
}

// shutdown stops intake first, then drains background work within the
// configured timeout
func shutdown(
	cfg *config.Config,
	zapLogger *zap.Logger,
	cancel context.CancelFunc,
	httpSrv, grpcSrv stopper,
	dispatcher *usecase.WebhookDispatcher,
	tasks *usecase.TaskGroup,
	publisher closer,
) {
	shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer done()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}
	if err := grpcSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown gRPC server", zap.Error(err))
	}

	// Cancels a scheduled settlement in flight and the health loop
	cancel()

	if err := tasks.Wait(shutdownCtx); err != nil {
		zapLogger.Warn("Background tasks did not finish before shutdown", zap.Error(err))
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		zapLogger.Warn("Webhook dispatcher did not drain before shutdown, pending events will be recovered on restart", zap.Error(err))
	}
	if err := publisher.Close(); err != nil {
		zapLogger.Error("Failed to close event publisher", zap.Error(err))
	}
}
