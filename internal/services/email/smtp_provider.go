// File: internal/services/email/smtp_provider.go
package email

import (
	"context"
	"errors"
	"net"

	"github.com/wneessen/go-mail"
)

// SMTPProvider delivers through an SMTP relay.
type SMTPProvider struct {
	config *Config
}

func NewSMTPProvider(config *Config) (*SMTPProvider, error) {
	if config.SMTPHost == "" {
		return nil, &EmailError{Type: ErrTypeConfig, Message: "SMTP host is missing"}
	}
	return &SMTPProvider{config: config}, nil
}

func (p *SMTPProvider) Name() string { return "smtp" }

func (p *SMTPProvider) Send(ctx context.Context, msg Message) error {
	m, err := p.buildMessage(msg)
	if err != nil {
		return err
	}
	client, err := p.newClient()
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) {
			return &EmailError{Type: ErrTypeNetwork, Message: "SMTP connection failed", Cause: err}
		}
		return &EmailError{Type: ErrTypeProvider, Message: "SMTP delivery failed", Cause: err}
	}
	return nil
}

func (p *SMTPProvider) buildMessage(msg Message) (*mail.Msg, error) {
	if err := validateMessage(msg); err != nil {
		return nil, err
	}
	m := mail.NewMsg()
	if err := m.FromFormat(p.config.FromName, p.config.From); err != nil {
		return nil, &EmailError{Type: ErrTypeConfig, Message: "invalid sender", Cause: err}
	}
	if err := m.To(msg.To); err != nil {
		return nil, &EmailError{Type: ErrTypeValidation, Message: "invalid recipient", Cause: err}
	}
	m.Subject(msg.Subject)
	m.SetMessageID()
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	return m, nil
}

func (p *SMTPProvider) newClient() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(p.config.SMTPPort),
		mail.WithTimeout(p.config.Timeout),
	}
	if p.config.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(p.config.SMTPUsername),
			mail.WithPassword(p.config.SMTPPassword),
			mail.WithTLSPolicy(mail.TLSMandatory),
		)
	} else {
		// unauthenticated relays (local catchers) may not offer STARTTLS
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	client, err := mail.NewClient(p.config.SMTPHost, opts...)
	if err != nil {
		return nil, &EmailError{Type: ErrTypeConfig, Message: "invalid SMTP settings", Cause: err}
	}
	return client, nil
}

func (p *SMTPProvider) HealthCheck(ctx context.Context) error {
	client, err := p.newClient()
	if err != nil {
		return err
	}
	if err := client.DialWithContext(ctx); err != nil {
		return &EmailError{Type: ErrTypeNetwork, Message: "SMTP dial failed", Cause: err}
	}
	return client.Close()
}
