package challenge

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jacklvd/NEU-scheduler/internal/domain"
)

func newGormStore(t *testing.T) *GormStore {
	path := filepath.Join(t.TempDir(), "challenges.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&domain.OTPChallenge{}))
	return NewGormStore(db)
}

func TestGormStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return newGormStore(t) })
}

func TestGormStorePurgeExpired(t *testing.T) {
	ctx := context.Background()
	s := newGormStore(t)
	require.NoError(t, s.Put(ctx, newChallenge("a@neu.edu", domain.PurposeLogin, "h1", time.Minute, 5)))
	require.NoError(t, s.Put(ctx, newChallenge("b@neu.edu", domain.PurposeLogin, "h1", time.Hour, 5)))

	removed, err := s.PurgeExpired(ctx, testNow.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

// interleaveGuess registers an update hook that, once, counts one extra failed
// attempt for email after Verify has read the row and before it writes.
func interleaveGuess(t *testing.T, s *GormStore, email string) {
	t.Helper()
	var once sync.Once
	err := s.db.Callback().Update().Before("gorm:update").Register("test:interleave_guess", func(tx *gorm.DB) {
		once.Do(func() {
			require.NoError(t, tx.Session(&gorm.Session{NewDB: true}).
				Exec("UPDATE otp_challenges SET attempts = attempts + 1 WHERE email = ?", email).Error)
		})
	})
	require.NoError(t, err)
}

func storedAttempts(t *testing.T, s *GormStore, email string) int {
	t.Helper()
	var attempts int
	require.NoError(t, s.db.Model(&domain.OTPChallenge{}).Where("email = ?", email).Select("attempts").Scan(&attempts).Error)
	return attempts
}

func TestGormStoreCountsOverlappingGuesses(t *testing.T) {
	ctx := context.Background()
	s := newGormStore(t)
	require.NoError(t, s.Put(ctx, newChallenge("a@neu.edu", domain.PurposeLogin, "right", 10*time.Minute, 5)))
	interleaveGuess(t, s, "a@neu.edu")

	out, err := s.Verify(ctx, "a@neu.edu", domain.PurposeLogin, "wrong", testNow)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMismatch, out)
	assert.Equal(t, 2, storedAttempts(t, s, "a@neu.edu"))
}

func TestGormStoreExhaustsOnOverlappingGuesses(t *testing.T) {
	ctx := context.Background()
	s := newGormStore(t)
	require.NoError(t, s.Put(ctx, newChallenge("a@neu.edu", domain.PurposeLogin, "right", 10*time.Minute, 2)))
	interleaveGuess(t, s, "a@neu.edu")

	out, err := s.Verify(ctx, "a@neu.edu", domain.PurposeLogin, "wrong", testNow)
	require.NoError(t, err)
	assert.Equal(t, OutcomeExhausted, out)

	out, err = s.Verify(ctx, "a@neu.edu", domain.PurposeLogin, "right", testNow)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, out)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func TestJanitorRunOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, newChallenge("a@neu.edu", domain.PurposeLogin, "h1", time.Minute, 5)))

	j := StartJanitor(s, time.Hour, 10*time.Minute, nopLogger{})
	defer j.Close()

	j.now = func() time.Time { return testNow.Add(5 * time.Minute) }
	assert.Equal(t, 0, j.RunOnce(ctx), "still within retention")

	j.now = func() time.Time { return testNow.Add(20 * time.Minute) }
	assert.Equal(t, 1, j.RunOnce(ctx))
}
