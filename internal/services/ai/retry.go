// File: internal/services/ai/retry.go
package ai

import (
	"context"
	"errors"
	"time"
)

type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
	// Timeout bounds each attempt; zero leaves the caller's deadline alone.
	Timeout time.Duration
}

// RetryWithBackoff retries fn with a linearly growing delay. Config,
// validation, quota and model errors are final.
func RetryWithBackoff(ctx context.Context, config *RetryConfig, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if config.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, config.Timeout)
		}
		err := fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		var aiErr *AIError
		if errors.As(err, &aiErr) {
			switch aiErr.Type {
			case ErrTypeConfig, ErrTypeValidation, ErrTypeQuota, ErrTypeModel:
				return err
			}
		}

		if attempt < config.MaxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * config.Delay):
			}
		}
	}
	return lastErr
}
