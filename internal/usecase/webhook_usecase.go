package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/wallet-ledger/internal/domain/errors"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/wallet-ledger/internal/domain/repository"
	"github.com/wekeepgrowing/wallet-ledger/internal/infrastructure/crypto"
	"go.uber.org/zap"
)

const maxEventsListed = 20

// WebhookUsecase manages a merchant's webhook endpoints
type WebhookUsecase struct {
	webhooks domainRepo.WebhookRepository
	cipher   crypto.SecretCipher
	logger   *zap.Logger
}

func NewWebhookUsecase(webhooks domainRepo.WebhookRepository, cipher crypto.SecretCipher, logger *zap.Logger) *WebhookUsecase {
	return &WebhookUsecase{webhooks: webhooks, cipher: cipher, logger: logger}
}

// CreateEndpoint registers an endpoint and returns it with its signing
// secret. The secret is never returned again.
func (u *WebhookUsecase) CreateEndpoint(ctx context.Context, merchantID uuid.UUID, rawURL string, events []string) (*entity.WebhookEndpointView, error) {
	rawURL = strings.TrimSpace(rawURL)
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") || parsed.Host == "" {
		return nil, domainErrors.NewValidationError("url", "must be an absolute http or https URL")
	}
	if len(events) == 0 {
		events = DefaultWebhookEvents
	}

	secret, err := crypto.GenerateWebhookSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate webhook secret: %w", err)
	}
	ciphertext, iv, err := u.cipher.Seal(secret, merchantID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt webhook secret: %w", err)
	}

	endpoint := &model.WebhookEndpoint{
		MerchantID:       merchantID,
		URL:              rawURL,
		SecretCiphertext: ciphertext,
		SecretIV:         iv,
		Events:           pq.StringArray(events),
		IsActive:         true,
	}
	if err := u.webhooks.CreateEndpoint(ctx, endpoint); err != nil {
		return nil, err
	}

	u.logger.Info("Webhook endpoint created",
		zap.String("merchant_id", merchantID.String()),
		zap.String("endpoint_id", endpoint.ID.String()),
		zap.Strings("events", events))

	view := endpointView(endpoint)
	view.Secret = secret
	return view, nil
}

func (u *WebhookUsecase) ListEndpoints(ctx context.Context, merchantID uuid.UUID) ([]*entity.WebhookEndpointView, error) {
	endpoints, err := u.webhooks.ListEndpoints(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	views := make([]*entity.WebhookEndpointView, 0, len(endpoints))
	for _, e := range endpoints {
		views = append(views, endpointView(e))
	}
	return views, nil
}

// DeleteEndpoint removes an endpoint. Endpoints of other merchants are
// reported as not found.
func (u *WebhookUsecase) DeleteEndpoint(ctx context.Context, merchantID, endpointID uuid.UUID) error {
	deleted, err := u.webhooks.DeleteEndpoint(ctx, merchantID, endpointID)
	if err != nil {
		return err
	}
	if !deleted {
		return domainErrors.ErrWebhookEndpointNotFound
	}
	u.logger.Info("Webhook endpoint deleted",
		zap.String("merchant_id", merchantID.String()),
		zap.String("endpoint_id", endpointID.String()))
	return nil
}

// ListEvents returns the merchant's most recent events, newest first
func (u *WebhookUsecase) ListEvents(ctx context.Context, merchantID uuid.UUID) ([]*entity.WebhookEventView, error) {
	events, err := u.webhooks.ListEvents(ctx, merchantID, maxEventsListed)
	if err != nil {
		return nil, err
	}
	views := make([]*entity.WebhookEventView, 0, len(events))
	for _, e := range events {
		views = append(views, &entity.WebhookEventView{
			EventID:      e.EventID,
			Type:         e.EventType,
			Status:       string(e.Status),
			ResponseCode: e.ResponseCode,
			Attempts:     e.Attempts,
			LastError:    e.LastError,
			DeliveredAt:  e.DeliveredAt,
			CreatedAt:    e.CreatedAt,
		})
	}
	return views, nil
}

func endpointView(e *model.WebhookEndpoint) *entity.WebhookEndpointView {
	return &entity.WebhookEndpointView{
		ID:        e.ID.String(),
		URL:       e.URL,
		Events:    []string(e.Events),
		IsActive:  e.IsActive,
		CreatedAt: e.CreatedAt,
	}
}
