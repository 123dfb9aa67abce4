package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/wallet-ledger/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type webhookRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWebhookRepository creates a new webhook repository
func NewWebhookRepository(db *gorm.DB, logger *zap.Logger) domainRepo.WebhookRepository {
	return &webhookRepository{
		db:     db,
		logger: logger,
	}
}

func (r *webhookRepository) CreateEndpoint(ctx context.Context, endpoint *model.WebhookEndpoint) error {
	if endpoint.ID == uuid.Nil {
		endpoint.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(endpoint).Error; err != nil {
		return fmt.Errorf("failed to create webhook endpoint: %w", classifyError(err))
	}
	return nil
}

func (r *webhookRepository) ListEndpoints(ctx context.Context, merchantID uuid.UUID) ([]*model.WebhookEndpoint, error) {
	var endpoints []*model.WebhookEndpoint
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC").
		Find(&endpoints).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook endpoints: %w", classifyError(err))
	}
	return endpoints, nil
}

func (r *webhookRepository) ListActiveEndpoints(ctx context.Context, merchantID uuid.UUID, eventType string) ([]*model.WebhookEndpoint, error) {
	var endpoints []*model.WebhookEndpoint
	err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND is_active = ?", merchantID, true).
		Where("? = ANY(events) OR '*' = ANY(events)", eventType).
		Order("created_at").
		Find(&endpoints).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active webhook endpoints: %w", classifyError(err))
	}
	return endpoints, nil
}

func (r *webhookRepository) DeleteEndpoint(ctx context.Context, merchantID, endpointID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND merchant_id = ?", endpointID, merchantID).
		Delete(&model.WebhookEndpoint{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete webhook endpoint: %w", classifyError(result.Error))
	}
	return result.RowsAffected > 0, nil
}

func (r *webhookRepository) CreateEvent(ctx context.Context, event *model.WebhookEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		r.logger.Error("Failed to save webhook event",
			zap.String("event_id", event.EventID),
			zap.String("event_type", event.EventType),
			zap.Error(err))
		return fmt.Errorf("failed to save webhook event: %w", classifyError(err))
	}
	return nil
}

// GetEvent returns nil, nil when the event does not exist
func (r *webhookRepository) GetEvent(ctx context.Context, eventID string) (*model.WebhookEvent, error) {
	var event model.WebhookEvent
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get webhook event: %w", classifyError(err))
	}
	return &event, nil
}

func (r *webhookRepository) ListEvents(ctx context.Context, merchantID uuid.UUID, limit int) ([]*model.WebhookEvent, error) {
	var events []*model.WebhookEvent
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook events: %w", classifyError(err))
	}
	return events, nil
}

func (r *webhookRepository) ClaimEvent(ctx context.Context, eventID string, staleBefore time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Where("status = ? OR (status = ? AND updated_at < ?)",
			model.WebhookStatusPending, model.WebhookStatusProcessing, staleBefore).
		Updates(map[string]interface{}{
			"status":     model.WebhookStatusProcessing,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim webhook event: %w", classifyError(result.Error))
	}
	return result.RowsAffected == 1, nil
}

func (r *webhookRepository) RefreshClaim(ctx context.Context, eventID string) error {
	err := r.db.WithContext(ctx).
		Model(&model.WebhookEvent{}).
		Where("event_id = ? AND status = ?", eventID, model.WebhookStatusProcessing).
		Update("updated_at", time.Now().UTC()).Error
	if err != nil {
		return fmt.Errorf("failed to refresh webhook claim: %w", classifyError(err))
	}
	return nil
}

func (r *webhookRepository) CompleteEvent(ctx context.Context, eventID string, outcome domainRepo.EventOutcome) error {
	result := r.db.WithContext(ctx).
		Model(&model.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Updates(map[string]interface{}{
			"status":        outcome.Status,
			"response_code": outcome.ResponseCode,
			"response_body": outcome.ResponseBody,
			"attempts":      outcome.Attempts,
			"last_error":    outcome.LastError,
			"delivered_at":  outcome.DeliveredAt,
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		r.logger.Error("Failed to record webhook outcome",
			zap.String("event_id", eventID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to record webhook outcome: %w", classifyError(result.Error))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("webhook event not found: %s", eventID)
	}
	return nil
}

// SaveDelivery upserts on (event_id, endpoint_id) so a recovered event
// overwrites the interrupted attempt
func (r *webhookRepository) SaveDelivery(ctx context.Context, delivery *model.WebhookDelivery) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "endpoint_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"url", "status", "response_code", "response_body", "attempts", "last_error", "delivered_at"}),
		}).
		Create(delivery).Error
	if err != nil {
		return fmt.Errorf("failed to save webhook delivery: %w", classifyError(err))
	}
	return nil
}

func (r *webhookRepository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.WebhookEvent{}).
		Where("(status = ? AND created_at < ?) OR (status = ? AND updated_at < ?)",
			model.WebhookStatusPending, cutoff, model.WebhookStatusProcessing, cutoff).
		Order("created_at").
		Limit(limit).
		Pluck("event_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get stale webhook events: %w", classifyError(err))
	}
	return ids, nil
}
