// File: internal/services/user_services/session_service.go
package user_services

import (
	"context"
	"errors"
	"strings"

	"github.com/jacklvd/NEU-scheduler/internal/auth"
	"github.com/jacklvd/NEU-scheduler/internal/domain"
	"github.com/jacklvd/NEU-scheduler/internal/repository/user"
)

// SessionService resolves and refreshes session tokens. The profile always
// comes from the store, never from the token's claims.
type SessionService struct {
	userRepo user.UserRepository
	tokens   *auth.TokenManager
	logger   Logger
}

func NewSessionService(userRepo user.UserRepository, tokens *auth.TokenManager, logger Logger) *SessionService {
	return &SessionService{userRepo: userRepo, tokens: tokens, logger: logger}
}

// CurrentUser returns ErrUnauthenticated for a missing, invalid or expired
// token and for a token whose user no longer exists.
func (s *SessionService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		s.logger.Debug("session token rejected", "error", err)
		return nil, ErrUnauthenticated
	}
	account, err := s.userRepo.FindByID(ctx, claims.UserID())
	if errors.Is(err, user.ErrUserNotFound) {
		s.logger.Warn("session for missing user", "user_id", claims.UserID())
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Refresh re-issues a valid token, bounded by the absolute session lifetime.
func (s *SessionService) Refresh(ctx context.Context, token string) *AuthResult {
	token = strings.TrimSpace(token)
	claims, err := s.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return failure(MsgSessionExpired)
		}
		return failure(MsgInvalidSession)
	}

	account, err := s.userRepo.FindByID(ctx, claims.UserID())
	if errors.Is(err, user.ErrUserNotFound) {
		return failure(MsgInvalidSession)
	}
	if err != nil {
		s.logger.Error("loading session user failed", "user_id", claims.UserID(), "error", err)
		return failure(MsgServiceUnavailable)
	}

	fresh, expiresAt, err := s.tokens.Refresh(token, account)
	switch {
	case errors.Is(err, auth.ErrSessionLifetimeExceeded), errors.Is(err, auth.ErrTokenExpired):
		return failure(MsgSessionExpired)
	case err != nil:
		return failure(MsgInvalidSession)
	}

	s.logger.Info("session refreshed", "user_id", account.ID, "expires_at", expiresAt)
	return &AuthResult{
		Success:   true,
		Message:   MsgSessionRefreshed,
		Token:     fresh,
		ExpiresAt: expiresAt,
		User:      account,
	}
}
