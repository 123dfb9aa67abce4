package provider

import "context"

// Notification is a message for a person, addressed by email
type Notification struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Notifier delivers notifications on a best-effort basis. Callers log
// failures and never escalate them.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error

	// Name identifies the delivery channel in logs
	Name() string
}
