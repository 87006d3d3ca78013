// File: internal/services/email/log_provider.go
package email

import (
	"context"
	"strings"
)

// Logger is the logging surface the email package needs.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// LogProvider records sends instead of delivering them. The body is never
// logged since it carries the verification code.
type LogProvider struct {
	logger Logger
}

func NewLogProvider(logger Logger) *LogProvider {
	return &LogProvider{logger: logger}
}

func (p *LogProvider) Name() string { return "log" }

func (p *LogProvider) Send(ctx context.Context, msg Message) error {
	if err := validateMessage(msg); err != nil {
		return err
	}
	p.logger.Info("email delivery skipped (log provider)",
		"to", maskAddress(msg.To),
		"subject", msg.Subject,
		"html", msg.HTML != "")
	return nil
}

func (p *LogProvider) HealthCheck(ctx context.Context) error {
	return nil
}

func validateMessage(msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return &EmailError{Type: ErrTypeValidation, Message: "recipient is required"}
	}
	if strings.TrimSpace(msg.Subject) == "" || strings.TrimSpace(msg.Text) == "" {
		return &EmailError{Type: ErrTypeValidation, Message: "subject and text body are required"}
	}
	return nil
}

func maskAddress(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at <= 0 {
		return "***"
	}
	return addr[:1] + "***" + addr[at:]
}
