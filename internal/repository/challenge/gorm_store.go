// File: internal/repository/challenge/gorm_store.go
package challenge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
)

// GormStore keeps challenges in the relational database. A failed attempt is
// counted with an in-place increment and exhaustion is decided from the counter
// after that increment, so overlapping guesses are each counted.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Put(ctx context.Context, c *domain.OTPChallenge) error {
	if err := validate(c); err != nil {
		return err
	}
	row := *c
	row.ID = 0
	row.Attempts = 0
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ? AND purpose = ?", c.Email, c.Purpose).
			Delete(&domain.OTPChallenge{}).Error; err != nil {
			return fmt.Errorf("replace challenge: %w", err)
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create challenge: %w", err)
		}
		return nil
	})
}

func (s *GormStore) Verify(ctx context.Context, email string, purpose domain.OTPPurpose, codeHash string, now time.Time) (Outcome, error) {
	outcome := OutcomeNotFound
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c domain.OTPChallenge
		err := tx.Where("email = ? AND purpose = ?", email, purpose).First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			outcome = OutcomeNotFound
			return nil
		}
		if err != nil {
			return err
		}

		switch {
		case c.IsExpired(now):
			if err := tx.Where("id = ?", c.ID).Delete(&domain.OTPChallenge{}).Error; err != nil {
				return err
			}
			outcome = OutcomeExpired

		case hashesEqual(c.CodeHash, codeHash):
			res := tx.Where("id = ?", c.ID).Delete(&domain.OTPChallenge{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// another verify consumed or exhausted it first
				outcome = OutcomeNotFound
				return nil
			}
			outcome = OutcomeVerified

		default:
			res := tx.Model(&domain.OTPChallenge{}).
				Where("id = ?", c.ID).
				Updates(map[string]interface{}{"attempts": gorm.Expr("attempts + 1"), "updated_at": now})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				outcome = OutcomeNotFound
				return nil
			}
			// the row is locked by the update, so this reads every committed attempt plus ours
			var attempts int
			if err := tx.Model(&domain.OTPChallenge{}).Where("id = ?", c.ID).
				Select("attempts").Scan(&attempts).Error; err != nil {
				return err
			}
			if attempts >= c.MaxAttempts {
				if err := tx.Where("id = ?", c.ID).Delete(&domain.OTPChallenge{}).Error; err != nil {
					return err
				}
				outcome = OutcomeExhausted
				return nil
			}
			outcome = OutcomeMismatch
		}
		return nil
	})
	if err != nil {
		return OutcomeNotFound, fmt.Errorf("verify challenge: %w", err)
	}
	return outcome, nil
}

func (s *GormStore) Delete(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	return s.db.WithContext(ctx).
		Where("email = ? AND purpose = ?", email, purpose).
		Delete(&domain.OTPChallenge{}).Error
}

func (s *GormStore) DeleteIfHash(ctx context.Context, email string, purpose domain.OTPPurpose, codeHash string) error {
	return s.db.WithContext(ctx).
		Where("email = ? AND purpose = ? AND code_hash = ?", email, purpose, codeHash).
		Delete(&domain.OTPChallenge{}).Error
}

func (s *GormStore) Stats(ctx context.Context, now time.Time) (Stats, error) {
	var total, active int64
	if err := s.db.WithContext(ctx).Model(&domain.OTPChallenge{}).Count(&total).Error; err != nil {
		return Stats{}, fmt.Errorf("count challenges: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&domain.OTPChallenge{}).
		Where("expires_at > ?", now).Count(&active).Error; err != nil {
		return Stats{}, fmt.Errorf("count active challenges: %w", err)
	}
	return Stats{Total: int(total), Active: int(active), Expired: int(total - active)}, nil
}

// PurgeExpired removes challenges that expired before the given time (cleanup job)
func (s *GormStore) PurgeExpired(ctx context.Context, before time.Time) (int, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&domain.OTPChallenge{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge challenges: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}
