// Package user_services implements the OTP sign-in and session workflows.
package user_services

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
	"github.com/jacklvd/NEU-scheduler/internal/services/email"
)

// Logger interface for all user services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Mailer delivers a rendered message.
type Mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

// User-visible messages. Authentication failures never say whether an
// address has an account.
const (
	MsgCodeSent            = "verification code sent"
	MsgInvalidEmail        = "invalid email address"
	MsgInvalidPurpose      = "invalid purpose, must be login or register"
	MsgTooManyRequests     = "too many requests, please try again later"
	MsgSendFailed          = "failed to send verification code, please try again"
	MsgServiceUnavailable  = "unable to process request, please try again"
	MsgInvalidCode         = "invalid code"
	MsgCodeExpired         = "code expired"
	MsgRegisterDataMissing = "first name and last name are required for registration"
	MsgAccountExists       = "an account with this email already exists"
	MsgVerified            = "verification successful"
	MsgSessionRefreshed    = "session refreshed"
	MsgSessionExpired      = "session expired"
	MsgInvalidSession      = "invalid session"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// OTPRequestResult is the answer to requestOtp.
type OTPRequestResult struct {
	Success bool
	Message string
}

// RegisterData carries the profile fields of a new account.
type RegisterData struct {
	FirstName      string
	LastName       string
	StudentID      *string
	Major          *string
	GraduationYear *int
}

// VerifyOTPInput is the verifyOtp request.
type VerifyOTPInput struct {
	Email        string
	Code         string
	Purpose      string
	RegisterData *RegisterData
}

// AuthResult is returned by verifyOtp and refreshSession.
type AuthResult struct {
	Success   bool
	Message   string
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

func failure(msg string) *AuthResult {
	return &AuthResult{Success: false, Message: msg}
}

var codePattern = regexp.MustCompile(`^\d{6}$`)

const maxEmailLength = 254

// normalizeEmail trims and lower-cases a bare address and rejects anything
// that is not one (display names, lists, over-long input).
func normalizeEmail(raw string) (string, bool) {
	addr := strings.ToLower(strings.TrimSpace(raw))
	if addr == "" || len(addr) > maxEmailLength {
		return "", false
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr || !strings.Contains(addr[strings.LastIndex(addr, "@"):], ".") {
		return "", false
	}
	return addr, true
}

func maskEmail(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at <= 0 {
		return "***"
	}
	return addr[:1] + "***" + addr[at:]
}

func optionalString(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
