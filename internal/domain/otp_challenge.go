// File: internal/domain/otp_challenge.go
package domain

import (
	"fmt"
	"strings"
	"time"
)

// OTPPurpose separates login codes from registration codes for the same address.
type OTPPurpose string

const (
	PurposeLogin    OTPPurpose = "login"
	PurposeRegister OTPPurpose = "register"
)

// ParsePurpose accepts "login" or "register" in any case.
func ParsePurpose(raw string) (OTPPurpose, error) {
	switch OTPPurpose(strings.ToLower(strings.TrimSpace(raw))) {
	case PurposeLogin:
		return PurposeLogin, nil
	case PurposeRegister:
		return PurposeRegister, nil
	}
	return "", fmt.Errorf("unknown purpose %q", raw)
}

// OTPChallenge is an issued code awaiting verification. Only a keyed hash of
// the code is kept; (Email, Purpose) is unique.
type OTPChallenge struct {
	ID          uint       `gorm:"primaryKey"`
	Email       string     `gorm:"uniqueIndex:idx_otp_challenge_key;size:254;not null"`
	Purpose     OTPPurpose `gorm:"uniqueIndex:idx_otp_challenge_key;size:16;not null"`
	CodeHash    string     `gorm:"size:128;not null"`
	Attempts    int        `gorm:"not null;default:0"`
	MaxAttempts int        `gorm:"not null;default:5"`
	ExpiresAt   time.Time  `gorm:"index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsExpired reports whether the code can no longer be used at now.
func (c *OTPChallenge) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// CanAttempt checks if more attempts are allowed
func (c *OTPChallenge) CanAttempt() bool {
	return c.Attempts < c.MaxAttempts
}
