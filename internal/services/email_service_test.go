package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jacklvd/NEU-scheduler/internal/config"
	"github.com/jacklvd/NEU-scheduler/internal/services/email"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Send(ctx context.Context, msg email.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func testEmailConfig() *email.Config {
	ec := email.DefaultConfig()
	ec.From = "no-reply@neu.edu"
	ec.RetryDelay = time.Millisecond
	return ec
}

func TestEmailServiceRetriesTransientErrors(t *testing.T) {
	p := &mockProvider{}
	msg := email.Message{To: "a@neu.edu", Subject: "s", Text: "t"}
	p.On("Send", mock.Anything, msg).Return(&email.EmailError{Type: email.ErrTypeNetwork}).Once()
	p.On("Send", mock.Anything, msg).Return(nil).Once()

	svc := NewEmailService(p, testEmailConfig(), &NoOpLogger{})
	require.NoError(t, svc.Send(context.Background(), msg))
	p.AssertNumberOfCalls(t, "Send", 2)
}

func TestEmailServiceStopsOnValidationError(t *testing.T) {
	p := &mockProvider{}
	p.On("Send", mock.Anything, mock.Anything).Return(&email.EmailError{Type: email.ErrTypeValidation})

	svc := NewEmailService(p, testEmailConfig(), &NoOpLogger{})
	assert.Error(t, svc.Send(context.Background(), email.Message{To: "a@neu.edu"}))
	p.AssertNumberOfCalls(t, "Send", 1)
}

func TestNewEmailProviderSelectsBackend(t *testing.T) {
	cfg := &config.Config{EmailProvider: "log", MailFrom: "no-reply@neu.edu", MailFromName: "NEU"}
	p, err := NewEmailProvider(EmailConfigFromApp(cfg), &NoOpLogger{})
	require.NoError(t, err)
	assert.Equal(t, "log", p.Name())

	cfg.EmailProvider = "resend"
	_, err = NewEmailProvider(EmailConfigFromApp(cfg), &NoOpLogger{})
	assert.Error(t, err, "resend without an API key")

	cfg.ResendAPIKey = "re_1"
	p, err = NewEmailProvider(EmailConfigFromApp(cfg), &NoOpLogger{})
	require.NoError(t, err)
	assert.Equal(t, "resend", p.Name())
}
