// File: internal/services/email/resend_provider.go
package email

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"
)

// ResendProvider delivers through the Resend HTTP API.
type ResendProvider struct {
	config *Config
	client *resend.Client
}

func NewResendProvider(config *Config) (*ResendProvider, error) {
	if config.ResendAPIKey == "" {
		return nil, &EmailError{Type: ErrTypeConfig, Message: "resend API key is missing"}
	}
	client := resend.NewCustomClient(&http.Client{Timeout: config.Timeout}, config.ResendAPIKey)
	if config.ResendBaseURL != "" {
		base := config.ResendBaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, &EmailError{Type: ErrTypeConfig, Message: "invalid resend base URL", Cause: err}
		}
		client.BaseURL = u
	}
	return &ResendProvider{config: config, client: client}, nil
}

func (p *ResendProvider) Name() string { return "resend" }

func (p *ResendProvider) Send(ctx context.Context, msg Message) error {
	if err := validateMessage(msg); err != nil {
		return err
	}
	req := &resend.SendEmailRequest{
		From:    p.config.FromHeader(),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		Html:    msg.HTML,
	}

	var err error
	if msg.IdempotencyKey != "" {
		_, err = p.client.Emails.SendWithOptions(ctx, req, &resend.SendEmailOptions{IdempotencyKey: msg.IdempotencyKey})
	} else {
		_, err = p.client.Emails.SendWithContext(ctx, req)
	}
	if err != nil {
		return classifyResendError(err)
	}
	return nil
}

func classifyResendError(err error) error {
	if errors.Is(err, resend.ErrRateLimit) {
		return &EmailError{Type: ErrTypeRateLimit, Code: http.StatusTooManyRequests, Message: "rate limit exceeded", Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &EmailError{Type: ErrTypeNetwork, Message: "request failed", Cause: err}
	}
	return &EmailError{Type: ErrTypeProvider, Message: "resend rejected the message", Cause: err}
}

func (p *ResendProvider) HealthCheck(ctx context.Context) error {
	return nil
}
