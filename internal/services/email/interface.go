// File: internal/services/email/interface.go
package email

import "context"

// Message is a single outgoing email. Text is required; HTML is optional.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
	// IdempotencyKey lets providers that support it drop duplicate sends on retry.
	IdempotencyKey string
}

// ProviderStatus represents the health status of the email provider
type ProviderStatus struct {
	IsHealthy bool
	Provider  string
	Message   string
}

type Provider interface {
	Send(ctx context.Context, msg Message) error
	Name() string
	HealthCheck(ctx context.Context) error
}

type Service interface {
	Send(ctx context.Context, msg Message) error
	GetProviderStatus(ctx context.Context) ProviderStatus
}
