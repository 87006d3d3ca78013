// File: internal/services/catalog/retry.go
package catalog

import (
	"context"
	"errors"
	"time"
)

type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
}

// RetryWithBackoff retries fn while the returned CatalogError is retryable.
func RetryWithBackoff(ctx context.Context, config *RetryConfig, fn func(ctx context.Context) error) error {
	var lastErr error
	delay := config.Delay

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var catErr *CatalogError
		if !errors.As(err, &catErr) || !catErr.Retryable() {
			return err
		}

		if attempt < config.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return lastErr
}
