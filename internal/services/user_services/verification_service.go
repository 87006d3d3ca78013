// File: internal/services/user_services/verification_service.go
package user_services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jacklvd/NEU-scheduler/internal/auth"
	"github.com/jacklvd/NEU-scheduler/internal/domain"
	"github.com/jacklvd/NEU-scheduler/internal/metrics"
	"github.com/jacklvd/NEU-scheduler/internal/repository/challenge"
	"github.com/jacklvd/NEU-scheduler/internal/repository/user"
)

// VerificationService checks submitted codes and starts sessions.
type VerificationService struct {
	store    challenge.Store
	hasher   *challenge.CodeHasher
	userRepo user.UserRepository
	tokens   *auth.TokenManager
	logger   Logger
	now      func() time.Time
}

func NewVerificationService(store challenge.Store, hasher *challenge.CodeHasher, userRepo user.UserRepository, tokens *auth.TokenManager, logger Logger) *VerificationService {
	return &VerificationService{
		store:    store,
		hasher:   hasher,
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

// VerifyOTP consumes the challenge for (email, purpose) and, on a match,
// creates the account (register) or loads it (login) and issues a token.
func (s *VerificationService) VerifyOTP(ctx context.Context, in VerifyOTPInput) *AuthResult {
	addr, ok := normalizeEmail(in.Email)
	if !ok {
		return failure(MsgInvalidEmail)
	}
	purpose, err := domain.ParsePurpose(in.Purpose)
	if err != nil {
		return failure(MsgInvalidPurpose)
	}
	code := strings.TrimSpace(in.Code)
	if !codePattern.MatchString(code) {
		return failure(MsgInvalidCode)
	}

	var profile *domain.User
	if purpose == domain.PurposeRegister {
		if profile, err = registrationProfile(addr, in.RegisterData); err != nil {
			return failure(MsgRegisterDataMissing)
		}
	}

	now := s.now()
	outcome, err := s.store.Verify(ctx, addr, purpose, s.hasher.Hash(addr, purpose, code), now)
	if err != nil {
		s.logger.Error("otp verification failed", "email", maskEmail(addr), "purpose", purpose, "error", err)
		return failure(MsgServiceUnavailable)
	}
	metrics.OTPVerificationsTotal.WithLabelValues(string(purpose), outcome.String()).Inc()

	switch outcome {
	case challenge.OutcomeVerified:
	case challenge.OutcomeExpired:
		s.logger.Info("expired otp submitted", "email", maskEmail(addr), "purpose", purpose)
		return failure(MsgCodeExpired)
	default:
		s.logger.Warn("otp rejected", "email", maskEmail(addr), "purpose", purpose, "outcome", outcome.String())
		return failure(MsgInvalidCode)
	}

	var account *domain.User
	if purpose == domain.PurposeRegister {
		account, err = s.register(ctx, profile)
	} else {
		account, err = s.login(ctx, addr, now)
	}
	if err != nil {
		return s.accountFailure(addr, err)
	}

	token, expiresAt, err := s.tokens.Issue(account)
	if err != nil {
		s.logger.Error("token issue failed", "user_id", account.ID, "error", err)
		return failure(MsgServiceUnavailable)
	}

	s.logger.Info("otp verified", "user_id", account.ID, "purpose", purpose)
	return &AuthResult{
		Success:   true,
		Message:   MsgVerified,
		Token:     token,
		ExpiresAt: expiresAt,
		User:      account,
	}
}

var errLoginUnknown = errors.New("login for unknown account")

// register rejects an address that already has an account.
func (s *VerificationService) register(ctx context.Context, profile *domain.User) (*domain.User, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, profile.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, user.ErrUserExists
	}
	return s.userRepo.Create(ctx, profile)
}

func (s *VerificationService) login(ctx context.Context, addr string, now time.Time) (*domain.User, error) {
	account, err := s.userRepo.FindByEmail(ctx, addr)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, errLoginUnknown
	}
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.TouchLogin(ctx, account.ID, now); err != nil {
		s.logger.Warn("recording login time failed", "user_id", account.ID, "error", err)
	} else {
		account.LastLoginAt = &now
	}
	return account, nil
}

func (s *VerificationService) accountFailure(addr string, err error) *AuthResult {
	switch {
	case errors.Is(err, user.ErrUserExists):
		s.logger.Info("duplicate registration rejected", "email", maskEmail(addr))
		return failure(MsgAccountExists)
	case errors.Is(err, errLoginUnknown):
		s.logger.Info("login code verified for unknown account", "email", maskEmail(addr))
		return failure(MsgInvalidCode)
	}
	s.logger.Error("account lookup failed", "email", maskEmail(addr), "error", err)
	return failure(MsgServiceUnavailable)
}

func registrationProfile(addr string, data *RegisterData) (*domain.User, error) {
	if data == nil {
		return nil, errors.New("registration data is required")
	}
	u := &domain.User{
		Email:          addr,
		FirstName:      strings.TrimSpace(data.FirstName),
		LastName:       strings.TrimSpace(data.LastName),
		StudentID:      optionalString(data.StudentID),
		Major:          optionalString(data.Major),
		GraduationYear: data.GraduationYear,
		IsVerified:     true,
	}
	if err := u.IsValid(); err != nil {
		return nil, err
	}
	return u, nil
}
