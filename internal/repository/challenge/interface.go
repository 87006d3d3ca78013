// Package challenge stores issued OTP challenges. Every backend verifies a code
// as a single atomic step per (email, purpose) key.
package challenge

import (
	"context"
	"errors"
	"time"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
)

// Outcome is the result of a verification attempt.
type Outcome int

const (
	OutcomeVerified Outcome = iota
	OutcomeMismatch
	OutcomeExpired
	OutcomeExhausted
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeVerified:
		return "verified"
	case OutcomeMismatch:
		return "mismatch"
	case OutcomeExpired:
		return "expired"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Stats summarizes the stored challenges.
type Stats struct {
	Total   int
	Active  int
	Expired int
}

var ErrInvalidChallenge = errors.New("invalid challenge")

// Store persists challenges keyed by (email, purpose).
//
// Put replaces any earlier challenge for the same key. Verify compares the
// submitted hash and, in the same atomic step, deletes the challenge on
// success, expiry or exhaustion, or counts a failed attempt. DeleteIfHash
// removes the challenge only while it still holds codeHash, leaving a newer
// challenge for the same key in place.
type Store interface {
	Put(ctx context.Context, c *domain.OTPChallenge) error
	Verify(ctx context.Context, email string, purpose domain.OTPPurpose, codeHash string, now time.Time) (Outcome, error)
	Delete(ctx context.Context, email string, purpose domain.OTPPurpose) error
	DeleteIfHash(ctx context.Context, email string, purpose domain.OTPPurpose, codeHash string) error
	Stats(ctx context.Context, now time.Time) (Stats, error)
	PurgeExpired(ctx context.Context, before time.Time) (int, error)
}

func validate(c *domain.OTPChallenge) error {
	if c == nil || c.Email == "" || c.Purpose == "" || c.CodeHash == "" || c.MaxAttempts < 1 || c.ExpiresAt.IsZero() {
		return ErrInvalidChallenge
	}
	return nil
}

func storeKey(email string, purpose domain.OTPPurpose) string {
	return string(purpose) + ":" + email
}
