package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// WebhookStatus represents the delivery status of a webhook event
type WebhookStatus string

const (
	WebhookStatusPending    WebhookStatus = "pending"
	WebhookStatusProcessing WebhookStatus = "processing"
	WebhookStatusSuccess    WebhookStatus = "success"
	WebhookStatusFailed     WebhookStatus = "failed"
)

// Scan implements sql.Scanner interface
func (w *WebhookStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*w = WebhookStatus(v)
	case []byte:
		*w = WebhookStatus(v)
	default:
		*w = WebhookStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (w WebhookStatus) Value() (driver.Value, error) {
	return string(w), nil
}

// IsFinal reports whether delivery of the event has concluded.
func (w WebhookStatus) IsFinal() bool {
	return w == WebhookStatusSuccess || w == WebhookStatusFailed
}

// WebhookEndpoint is a merchant's registered receiver. The signing secret is
// stored encrypted.
type WebhookEndpoint struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	MerchantID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"merchant_id"`
	URL              string         `gorm:"size:500;not null" json:"url"`
	SecretCiphertext string         `gorm:"not null" json:"-"`
	SecretIV         string         `gorm:"column:secret_iv;size:64;not null" json:"-"`
	Events           pq.StringArray `gorm:"type:text[];not null" json:"events"`
	IsActive         bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time      `gorm:"default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (WebhookEndpoint) TableName() string {
	return "webhook_endpoints"
}

// Subscribes reports whether the endpoint wants events of the given type.
func (e WebhookEndpoint) Subscribes(eventType string) bool {
	for _, t := range e.Events {
		if t == eventType || t == "*" {
			return true
		}
	}
	return false
}

// WebhookEvent is one logical notification. It fans out to every matching
// endpoint; the summary columns describe the combined outcome.
type WebhookEvent struct {
	ID           int64          `gorm:"primaryKey;autoIncrement" json:"-"`
	EventID      string         `gorm:"size:40;not null;uniqueIndex" json:"event_id"`
	MerchantID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"merchant_id"`
	EventType    string         `gorm:"column:type;size:64;not null;index" json:"type"`
	Payload      datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"`
	Status       WebhookStatus  `gorm:"type:webhook_status;not null;default:'pending';index" json:"status"`
	ResponseCode *int           `json:"response_code,omitempty"`
	ResponseBody *string        `json:"response_body,omitempty"`
	Attempts     int            `gorm:"not null;default:0" json:"attempts"`
	LastError    *string        `json:"last_error,omitempty"`
	DeliveredAt  *time.Time     `json:"delivered_at,omitempty"`
	CreatedAt    time.Time      `gorm:"default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (WebhookEvent) TableName() string {
	return "webhook_events"
}

// WebhookDelivery is the outcome of sending one event to one endpoint.
type WebhookDelivery struct {
	ID           int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID      string        `gorm:"size:40;not null;uniqueIndex:idx_webhook_delivery_event_endpoint" json:"event_id"`
	EndpointID   uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_webhook_delivery_event_endpoint" json:"endpoint_id"`
	URL          string        `gorm:"size:500;not null" json:"url"`
	Status       WebhookStatus `gorm:"type:webhook_status;not null" json:"status"`
	ResponseCode *int          `json:"response_code,omitempty"`
	ResponseBody *string       `json:"response_body,omitempty"`
	Attempts     int           `gorm:"not null;default:0" json:"attempts"`
	LastError    *string       `json:"last_error,omitempty"`
	DeliveredAt  *time.Time    `json:"delivered_at,omitempty"`
	CreatedAt    time.Time     `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (WebhookDelivery) TableName() string {
	return "webhook_deliveries"
}
