// File: internal/services/user_services/otp_service.go
package user_services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
	"github.com/jacklvd/NEU-scheduler/internal/metrics"
	"github.com/jacklvd/NEU-scheduler/internal/ratelimit"
	"github.com/jacklvd/NEU-scheduler/internal/repository/challenge"
	"github.com/jacklvd/NEU-scheduler/internal/services/email"
)

// OTPConfig controls code lifetime and brute-force limits.
type OTPConfig struct {
	TTL         time.Duration
	MaxAttempts int
}

// OTPService issues one-time codes and mails them.
type OTPService struct {
	store   challenge.Store
	hasher  *challenge.CodeHasher
	mailer  Mailer
	limiter *ratelimit.MemoryRateLimiter
	config  OTPConfig
	logger  Logger

	now      func() time.Time
	generate func() (string, error)
}

// NewOTPService wires the issuer. limiter may be nil to disable per-address throttling.
func NewOTPService(store challenge.Store, hasher *challenge.CodeHasher, mailer Mailer, limiter *ratelimit.MemoryRateLimiter, cfg OTPConfig, logger Logger) *OTPService {
	return &OTPService{
		store:    store,
		hasher:   hasher,
		mailer:   mailer,
		limiter:  limiter,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
		generate: generateCode,
	}
}

// generateCode returns a uniformly random six-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// RequestOTP validates the request, replaces any outstanding code for
// (email, purpose) and sends the new one. The answer never reveals whether the
// address has an account.
func (s *OTPService) RequestOTP(ctx context.Context, rawEmail, rawPurpose string) *OTPRequestResult {
	addr, ok := normalizeEmail(rawEmail)
	if !ok {
		metrics.OTPRequestsTotal.WithLabelValues("unknown", "invalid").Inc()
		return &OTPRequestResult{Message: MsgInvalidEmail}
	}
	purpose, err := domain.ParsePurpose(rawPurpose)
	if err != nil {
		metrics.OTPRequestsTotal.WithLabelValues("unknown", "invalid").Inc()
		return &OTPRequestResult{Message: MsgInvalidPurpose}
	}
	label := string(purpose)

	if s.limiter != nil {
		if allowed, info := s.limiter.Allow(addr); !allowed {
			s.logger.Warn("otp request throttled", "email", maskEmail(addr), "retry_after", info.RetryAfter)
			metrics.OTPRequestsTotal.WithLabelValues(label, "throttled").Inc()
			metrics.RateLimitedTotal.WithLabelValues("otp").Inc()
			return &OTPRequestResult{Message: MsgTooManyRequests}
		}
	}

	code, err := s.generate()
	if err != nil {
		s.logger.Error("otp generation failed", "error", err)
		metrics.OTPRequestsTotal.WithLabelValues(label, "error").Inc()
		return &OTPRequestResult{Message: MsgServiceUnavailable}
	}

	now := s.now()
	ch := &domain.OTPChallenge{
		Email:       addr,
		Purpose:     purpose,
		CodeHash:    s.hasher.Hash(addr, purpose, code),
		MaxAttempts: s.config.MaxAttempts,
		ExpiresAt:   now.Add(s.config.TTL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Put(ctx, ch); err != nil {
		s.logger.Error("storing otp challenge failed", "email", maskEmail(addr), "purpose", label, "error", err)
		metrics.OTPRequestsTotal.WithLabelValues(label, "error").Inc()
		return &OTPRequestResult{Message: MsgServiceUnavailable}
	}

	msg, err := email.VerificationMessage(addr, code, purpose == domain.PurposeRegister, s.config.TTL)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		s.logger.Error("sending otp failed", "email", maskEmail(addr), "purpose", label, "error", err)
		if delErr := s.store.DeleteIfHash(context.WithoutCancel(ctx), addr, purpose, ch.CodeHash); delErr != nil {
			s.logger.Warn("removing unsent otp challenge failed", "email", maskEmail(addr), "error", delErr)
		}
		metrics.OTPRequestsTotal.WithLabelValues(label, "send_failed").Inc()
		return &OTPRequestResult{Message: MsgSendFailed}
	}

	s.logger.Info("otp issued", "email", maskEmail(addr), "purpose", label, "expires_at", ch.ExpiresAt)
	metrics.OTPRequestsTotal.WithLabelValues(label, "sent").Inc()
	return &OTPRequestResult{Success: true, Message: MsgCodeSent}
}

// Stats reports the challenge store counters.
func (s *OTPService) Stats(ctx context.Context) (challenge.Stats, error) {
	return s.store.Stats(ctx, s.now())
}
