package usecase

import (
	"context"

	"github.com/google/uuid"
)

// Event types delivered to merchants and published on the event bus
const (
	EventPaymentSuccess      = "payment.success"
	EventPaymentFailed       = "payment.failed"
	EventSettlementProcessed = "settlement.processed"
	EventTransferCompleted   = "transfer.completed"
)

// DefaultWebhookEvents is the subscription of an endpoint created without an
// explicit event list
var DefaultWebhookEvents = []string{EventPaymentSuccess, EventPaymentFailed}

// EventDispatcher records a merchant notification and schedules its delivery
type EventDispatcher interface {
	Dispatch(ctx context.Context, merchantID uuid.UUID, eventType string, payload interface{}) (string, error)
}
