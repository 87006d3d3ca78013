package challenge

import (
	"context"
	"time"
)

// Logger is the subset of the service logger the janitor needs.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Janitor periodically purges challenges that expired more than retention ago.
type Janitor struct {
	store     Store
	interval  time.Duration
	retention time.Duration
	logger    Logger
	now       func() time.Time
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// StartJanitor launches the purge loop. Call Close to stop it.
func StartJanitor(store Store, interval, retention time.Duration, logger Logger) *Janitor {
	j := &Janitor{
		store:     store,
		interval:  interval,
		retention: retention,
		logger:    logger,
		now:       time.Now,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	go j.cleanupLoop()
	return j
}

func (j *Janitor) cleanupLoop() {
	defer close(j.doneCh)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.RunOnce(context.Background())
		case <-j.stopCh:
			return
		}
	}
}

// RunOnce performs a single purge pass and returns the number of removed challenges.
func (j *Janitor) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	removed, err := j.store.PurgeExpired(ctx, j.now().Add(-j.retention))
	if err != nil {
		j.logger.Error("challenge purge failed", "error", err)
		return 0
	}
	if removed > 0 {
		j.logger.Info("purged expired challenges", "count", removed)
	}
	return removed
}

// Close stops the purge loop and waits for it to exit.
func (j *Janitor) Close() {
	close(j.stopCh)
	<-j.doneCh
}
