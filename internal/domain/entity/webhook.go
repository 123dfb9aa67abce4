package entity

import "time"

// WebhookEndpointView is an endpoint as returned to its merchant. Secret is
// only populated in the response that created the endpoint.
type WebhookEndpointView struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Events    []string  `json:"events"`
	IsActive  bool      `json:"is_active"`
	Secret    string    `json:"secret,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// WebhookEventView is a delivered or pending event shown to its merchant
type WebhookEventView struct {
	EventID      string     `json:"event_id"`
	Type         string     `json:"type"`
	Status       string     `json:"status"`
	ResponseCode *int       `json:"response_code,omitempty"`
	Attempts     int        `json:"attempts"`
	LastError    *string    `json:"last_error,omitempty"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
