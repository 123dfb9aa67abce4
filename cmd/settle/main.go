// Command settle runs one settlement sweep and prints the report as JSON.
// It takes the same configuration as the server and the same Redis lock, so
// it never overlaps a scheduled run.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wekeepgrowing/wallet-ledger/internal/adapter/repository"
	"github.com/wekeepgrowing/wallet-ledger/internal/config"
	domainErrors "github.com/wekeepgrowing/wallet-ledger/internal/domain/errors"
	domainRepo "github.com/wekeepgrowing/wallet-ledger/internal/domain/repository"
	"github.com/wekeepgrowing/wallet-ledger/internal/infrastructure/crypto"
	"github.com/wekeepgrowing/wallet-ledger/internal/infrastructure/database"
	"github.com/wekeepgrowing/wallet-ledger/internal/infrastructure/metrics"
	"github.com/wekeepgrowing/wallet-ledger/internal/infrastructure/provider"
	"github.com/wekeepgrowing/wallet-ledger/internal/usecase"
	"github.com/wekeepgrowing/wallet-ledger/pkg/logger"
	"go.uber.org/zap"
)

const drainTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger. stdout carries the report, so logs go to stderr.
	logCfg := cfg.Log
	if logCfg.Output == "" || logCfg.Output == "stdout" {
		logCfg.Output = "stderr"
	}
	zapLogger, err := logger.NewZapLogger(logCfg, zap.String("service", cfg.Service.Name), zap.String("command", "settle"))
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

	repos := database.NewRepositories(db, zapLogger)

	var (
		redisClient *redis.Client
		locker      domainRepo.Locker
	)
	if cfg.Redis.Enabled() {
		redisClient, err = database.NewRedisClient(&cfg.Redis, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		locker = repository.NewRedisRepository(redisClient, zapLogger)
	}

	factory := provider.NewFactory(cfg, zapLogger)
	publisher, err := factory.Publisher(redisClient)
	if err != nil {
		zapLogger.Fatal("Failed to create event publisher", zap.Error(err))
	}
	defer publisher.Close()

	cipher, err := crypto.NewAESGCMCipher(cfg.Service.EncryptionKey)
	if err != nil {
		zapLogger.Fatal("Invalid service.encryption_key", zap.Error(err))
	}

	m := metrics.New()
	tasks := usecase.NewTaskGroup(drainTimeout, zapLogger)
	dispatcher := usecase.NewWebhookDispatcher(repos.Webhook, cipher, cfg.Webhook, m, zapLogger)
	settlements := usecase.NewSettlementUsecase(repos.Account, repos.Settlement, locker, dispatcher, factory.Notifier(), publisher, tasks, m,
		cfg.Service.DefaultCurrency, cfg.Settlement.LockTTL, zapLogger)

	// SIGINT stops the sweep between merchants
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher.Start(context.Background())

	report, err := settlements.RunSettlement(ctx)
	if err != nil {
		if errors.Is(err, domainErrors.ErrSettlementInProgress) {
			zapLogger.Warn("Another settlement run holds the lock")
		} else {
			zapLogger.Error("Settlement failed", zap.Error(err))
		}
		os.Exit(1)
	}

	// Notifications and webhooks are sent after commit; wait for them
	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := tasks.Wait(drainCtx); err != nil {
		zapLogger.Warn("Notifications still pending at exit", zap.Error(err))
	}
	if err := dispatcher.Stop(drainCtx); err != nil {
		zapLogger.Warn("Webhooks still pending at exit, the server will redeliver them", zap.Error(err))
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		zapLogger.Error("Failed to write report", zap.Error(err))
	}

	zapLogger.Info("Settlement completed",
		zap.Int("settled", len(report.Items)),
		zap.Int("failed", len(report.Errors)),
		zap.String("total_amount", report.TotalAmount.StringFixed(2)),
		zap.Bool("cancelled", report.Cancelled))
}
