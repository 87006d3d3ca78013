// File: internal/repository/user/gorm_user_repository.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

type gormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

// Create stores a new account. A duplicate email yields ErrUserExists.
func (r *gormUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := user.IsValid(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	user.Email = normalizeEmail(user.Email)

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("database error creating user: %w", err)
	}
	return user, nil
}

func (r *gormUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrUserNotFound
	}
	var user domain.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return r.handleFindError(err, &user)
}

func (r *gormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	return r.handleFindError(err, &user)
}

func (r *gormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("email = ?", normalizeEmail(email)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("database error checking email: %w", err)
	}
	return count > 0, nil
}

func (r *gormUserRepository) Update(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		return errors.New("invalid user ID")
	}
	if err := user.IsValid(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("database error updating user: %w", err)
	}
	return nil
}

// TouchLogin records a successful sign-in.
func (r *gormUserRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Update("last_login_at", at)
	if result.Error != nil {
		return fmt.Errorf("database error updating last login: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *gormUserRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("database error counting users: %w", err)
	}
	return count, nil
}

func (r *gormUserRepository) handleFindError(err error, user *domain.User) (*domain.User, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return user, nil
}

// isDuplicate covers drivers opened with and without TranslateError.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
