// File: internal/services/email_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jacklvd/NEU-scheduler/internal/config"
	"github.com/jacklvd/NEU-scheduler/internal/services/email"
)

// EmailService delivers transactional mail through the configured provider.
type EmailService struct {
	provider email.Provider
	retry    *email.RetryConfig
	timeout  time.Duration
	logger   Logger
}

// EmailConfigFromApp maps application settings onto the email provider config.
func EmailConfigFromApp(cfg *config.Config) *email.Config {
	ec := email.DefaultConfig()
	ec.Provider = cfg.EmailProvider
	ec.From = cfg.MailFrom
	ec.FromName = cfg.MailFromName
	ec.ResendAPIKey = cfg.ResendAPIKey
	ec.SMTPHost = cfg.SMTPHost
	ec.SMTPPort = cfg.SMTPPort
	ec.SMTPUsername = cfg.SMTPUsername
	ec.SMTPPassword = cfg.SMTPPassword
	return ec
}

// NewEmailProvider picks the provider named in the config.
func NewEmailProvider(ec *email.Config, logger Logger) (email.Provider, error) {
	if err := ec.Validate(); err != nil {
		return nil, fmt.Errorf("email config: %w", err)
	}
	switch ec.Provider {
	case "resend":
		p, err := email.NewResendProvider(ec)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "smtp":
		p, err := email.NewSMTPProvider(ec)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return email.NewLogProvider(logger), nil
	}
}

func NewEmailService(provider email.Provider, ec *email.Config, logger Logger) *EmailService {
	return &EmailService{
		provider: provider,
		retry:    &email.RetryConfig{MaxAttempts: ec.MaxRetries, Delay: ec.RetryDelay},
		timeout:  ec.Timeout,
		logger:   logger,
	}
}

// Send delivers msg, retrying transient provider failures. Each attempt gets its own timeout.
func (s *EmailService) Send(ctx context.Context, msg email.Message) error {
	start := time.Now()
	attempts := 0
	err := email.RetryWithBackoff(ctx, s.retry, func(ctx context.Context) error {
		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.provider.Send(attemptCtx, msg)
	})
	if err != nil {
		s.logger.Error("email delivery failed",
			"provider", s.provider.Name(),
			"to", MaskEmail(msg.To),
			"attempts", attempts,
			"error", err)
		return err
	}
	s.logger.Info("email delivered",
		"provider", s.provider.Name(),
		"to", MaskEmail(msg.To),
		"attempts", attempts,
		"duration", time.Since(start))
	return nil
}

func (s *EmailService) GetProviderStatus(ctx context.Context) email.ProviderStatus {
	if err := s.provider.HealthCheck(ctx); err != nil {
		return email.ProviderStatus{IsHealthy: false, Provider: s.provider.Name(), Message: err.Error()}
	}
	return email.ProviderStatus{IsHealthy: true, Provider: s.provider.Name(), Message: "email provider reachable"}
}
