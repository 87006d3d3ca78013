// File: internal/services/email/config.go
package email

import (
	"fmt"
	"net/mail"
	"time"
)

type Config struct {
	Provider string // resend, smtp or log
	From     string
	FromName string

	ResendAPIKey  string
	ResendBaseURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

func (c *Config) Validate() error {
	if _, err := mail.ParseAddress(c.From); err != nil {
		return fmt.Errorf("MAIL_FROM is not a valid address: %w", err)
	}
	switch c.Provider {
	case "resend":
		if c.ResendAPIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required")
		}
	case "smtp":
		if c.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required")
		}
		if c.SMTPPort <= 0 {
			return fmt.Errorf("SMTP_PORT must be positive")
		}
	case "log":
	default:
		return fmt.Errorf("unknown email provider %q", c.Provider)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1")
	}
	return nil
}

// FromHeader renders the sender as "Name <address>".
func (c *Config) FromHeader() string {
	if c.FromName == "" {
		return c.From
	}
	return (&mail.Address{Name: c.FromName, Address: c.From}).String()
}

func DefaultConfig() *Config {
	return &Config{
		Provider:   "log",
		FromName:   "NEU Course Scheduler",
		SMTPPort:   587,
		Timeout:    10 * time.Second,
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
	}
}
