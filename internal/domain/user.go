// File: internal/domain/user.go
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a verified student account. Email is stored normalized (trimmed, lower-case).
type User struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	Email          string     `gorm:"uniqueIndex;size:254;not null" json:"email"`
	FirstName      string     `gorm:"size:100;not null" json:"firstName"`
	LastName       string     `gorm:"size:100;not null" json:"lastName"`
	StudentID      *string    `gorm:"size:32" json:"studentId,omitempty"`
	Major          *string    `gorm:"size:120" json:"major,omitempty"`
	GraduationYear *int       `json:"graduationYear,omitempty"`
	IsVerified     bool       `gorm:"not null;default:false" json:"isVerified"`
	LastLoginAt    *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsValid checks the profile fields required for a stored account.
func (u *User) IsValid() error {
	if strings.TrimSpace(u.Email) == "" {
		return errors.New("email is required")
	}
	if strings.TrimSpace(u.FirstName) == "" || strings.TrimSpace(u.LastName) == "" {
		return errors.New("first name and last name are required")
	}
	if u.GraduationYear != nil && (*u.GraduationYear < 1900 || *u.GraduationYear > 2200) {
		return errors.New("graduation year is out of range")
	}
	return nil
}
