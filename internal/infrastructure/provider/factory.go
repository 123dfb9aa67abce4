package provider

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/wekeepgrowing/wallet-ledger/internal/config"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/provider"
	"github.com/wekeepgrowing/wallet-ledger/internal/infrastructure/provider/email"
	"github.com/wekeepgrowing/wallet-ledger/pkg/messaging"
	"go.uber.org/zap"
)

// Factory creates external collaborators from configuration
type Factory struct {
	config *config.Config
	logger *zap.Logger
}

// NewFactory creates a new provider factory
func NewFactory(config *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		config: config,
		logger: logger,
	}
}

// Notifier returns the SMTP notifier, or a logging stand-in when SMTP is not configured
func (f *Factory) Notifier() provider.Notifier {
	if !f.config.Email.Enabled() {
		f.logger.Info("SMTP not configured, notifications will only be logged")
		return email.NewLogNotifier(f.logger)
	}
	return email.NewSMTPNotifier(f.config.Email, f.logger)
}

// Publisher returns the event bus selected by messaging.driver. The redis
// driver requires a connected client.
func (f *Factory) Publisher(client *redis.Client) (messaging.Publisher, error) {
	cfg := f.config.Messaging
	switch cfg.Driver {
	case "kafka":
		f.logger.Info("Publishing ledger events to Kafka",
			zap.Strings("brokers", cfg.Brokers),
			zap.String("topic", cfg.Topic))
		return messaging.NewKafkaPublisher(cfg.Brokers, cfg.Topic), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("messaging driver redis requires redis to be configured")
		}
		f.logger.Info("Publishing ledger events to Redis", zap.String("channel", cfg.Channel))
		return messaging.NewRedisPublisher(client, cfg.Channel), nil
	default:
		return messaging.NewNopPublisher(), nil
	}
}
