// File: internal/auth/jwt.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
)

var (
	ErrTokenInvalid            = errors.New("invalid token")
	ErrTokenExpired            = errors.New("token expired")
	ErrSessionLifetimeExceeded = errors.New("session expired")
)

// Claims is the signed session payload. Profile fields are a snapshot taken at issue time.
type Claims struct {
	Email          string  `json:"email"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	StudentID      *string `json:"studentId,omitempty"`
	Major          *string `json:"major,omitempty"`
	GraduationYear *int    `json:"graduationYear,omitempty"`
	AuthTime       int64   `json:"authTime"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *Claims) UserID() string {
	return c.Subject
}

// TokenManager issues and validates HS256 session tokens.
type TokenManager struct {
	secret      []byte
	issuer      string
	ttl         time.Duration
	maxLifetime time.Duration
	now         func() time.Time
}

func NewTokenManager(secret, issuer string, ttl, maxLifetime time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("token manager: secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("token manager: ttl must be positive")
	}
	if maxLifetime < ttl {
		maxLifetime = ttl
	}
	return &TokenManager{
		secret:      []byte(secret),
		issuer:      issuer,
		ttl:         ttl,
		maxLifetime: maxLifetime,
		now:         time.Now,
	}, nil
}

// SetClock replaces the time source.
func (m *TokenManager) SetClock(now func() time.Time) {
	m.now = now
}

// Issue starts a new session for the user.
func (m *TokenManager) Issue(user *domain.User) (string, time.Time, error) {
	if user == nil || user.ID == "" {
		return "", time.Time{}, errors.New("user ID cannot be empty")
	}
	now := m.now()
	return m.sign(user, now, now)
}

// Parse checks signature, issuer and expiry and returns the claims.
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Refresh re-issues a valid token for the given user. The new expiry never
// passes authTime + max lifetime.
func (m *TokenManager) Refresh(tokenString string, user *domain.User) (string, time.Time, error) {
	claims, err := m.Parse(tokenString)
	if err != nil {
		return "", time.Time{}, err
	}
	if user == nil || user.ID != claims.Subject {
		return "", time.Time{}, ErrTokenInvalid
	}
	authTime := time.Unix(claims.AuthTime, 0).UTC()
	if claims.AuthTime == 0 && claims.IssuedAt != nil {
		authTime = claims.IssuedAt.Time.UTC()
	}
	now := m.now()
	if !now.Before(authTime.Add(m.maxLifetime)) {
		return "", time.Time{}, ErrSessionLifetimeExceeded
	}
	return m.sign(user, authTime, now)
}

func (m *TokenManager) sign(user *domain.User, authTime, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(m.ttl)
	if limit := authTime.Add(m.maxLifetime); expiresAt.After(limit) {
		expiresAt = limit
	}

	claims := Claims{
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		StudentID:      user.StudentID,
		Major:          user.Major,
		GraduationYear: user.GraduationYear,
		AuthTime:       authTime.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
