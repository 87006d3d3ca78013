package user

import (
	"context"
	"time"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
)

// UserRepository handles student account persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *domain.User) error
	TouchLogin(ctx context.Context, id string, at time.Time) error
	CountUsers(ctx context.Context) (int64, error)
}
