package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
)

// EventOutcome is the combined result of delivering one event
type EventOutcome struct {
	Status       model.WebhookStatus
	ResponseCode *int
	ResponseBody *string
	Attempts     int
	LastError    *string
	DeliveredAt  *time.Time
}

// WebhookRepository stores endpoints, events and per-endpoint deliveries
type WebhookRepository interface {
	CreateEndpoint(ctx context.Context, endpoint *model.WebhookEndpoint) error
	ListEndpoints(ctx context.Context, merchantID uuid.UUID) ([]*model.WebhookEndpoint, error)
	ListActiveEndpoints(ctx context.Context, merchantID uuid.UUID, eventType string) ([]*model.WebhookEndpoint, error)

	// DeleteEndpoint returns false when no endpoint with that id belongs to the merchant
	DeleteEndpoint(ctx context.Context, merchantID, endpointID uuid.UUID) (bool, error)

	CreateEvent(ctx context.Context, event *model.WebhookEvent) error
	GetEvent(ctx context.Context, eventID string) (*model.WebhookEvent, error)
	ListEvents(ctx context.Context, merchantID uuid.UUID, limit int) ([]*model.WebhookEvent, error)

	// ClaimEvent moves a pending event, or a processing event last touched
	// before staleBefore, to processing. Returns false if another worker owns it.
	ClaimEvent(ctx context.Context, eventID string, staleBefore time.Time) (bool, error)

	// RefreshClaim touches a processing event so it is not seen as stale
	RefreshClaim(ctx context.Context, eventID string) error

	CompleteEvent(ctx context.Context, eventID string, outcome EventOutcome) error
	SaveDelivery(ctx context.Context, delivery *model.WebhookDelivery) error

	// ListStale returns ids of pending events created before cutoff and
	// processing events last touched before cutoff
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
}
