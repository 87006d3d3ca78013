package user_services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jacklvd/NEU-scheduler/internal/auth"
	"github.com/jacklvd/NEU-scheduler/internal/database"
	"github.com/jacklvd/NEU-scheduler/internal/ratelimit"
	"github.com/jacklvd/NEU-scheduler/internal/repository/challenge"
	"github.com/jacklvd/NEU-scheduler/internal/repository/user"
	"github.com/jacklvd/NEU-scheduler/internal/services/email"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg email.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type harness struct {
	otp      *OTPService
	verify   *VerificationService
	sessions *SessionService
	store    challenge.Store
	users    user.UserRepository
	tokens   *auth.TokenManager
	mailer   *mockMailer
	clock    *fakeClock
	codes    []string
}

func newHarness(t *testing.T, limiter *ratelimit.MemoryRateLimiter) *harness {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "scheduler.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	h := &harness{
		store:  challenge.NewMemoryStore(),
		users:  user.NewGormUserRepository(db),
		mailer: &mockMailer{},
		clock:  &fakeClock{t: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)},
	}
	hasher, err := challenge.NewCodeHasher("test-otp-key")
	require.NoError(t, err)
	h.tokens, err = auth.NewTokenManager("test-jwt-secret", "neu-scheduler", 30*time.Minute, 2*time.Hour)
	require.NoError(t, err)
	h.tokens.SetClock(h.clock.now)

	h.otp = NewOTPService(h.store, hasher, h.mailer, limiter, OTPConfig{TTL: 10 * time.Minute, MaxAttempts: 3}, nopLogger{})
	h.otp.now = h.clock.now
	h.otp.generate = func() (string, error) {
		if len(h.codes) == 0 {
			return "", errors.New("no codes queued")
		}
		code := h.codes[0]
		h.codes = h.codes[1:]
		return code, nil
	}

	h.verify = NewVerificationService(h.store, hasher, h.users, h.tokens, nopLogger{})
	h.verify.now = h.clock.now
	h.sessions = NewSessionService(h.users, h.tokens, nopLogger{})
	return h
}

func (h *harness) request(t *testing.T, addr, purpose, code string) *OTPRequestResult {
	t.Helper()
	h.codes = append(h.codes, code)
	return h.otp.RequestOTP(context.Background(), addr, purpose)
}

func alice() *RegisterData {
	return &RegisterData{FirstName: "Alice", LastName: "Smith"}
}

func TestRegisterScenario(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

	res := h.request(t, "a@neu.edu", "register", "123456")
	require.True(t, res.Success, res.Message)

	wrong := h.verify.VerifyOTP(ctx, VerifyOTPInput{Email: "a@neu.edu", Code: "654321", Purpose: "register", RegisterData: alice()})
	assert.False(t, wrong.Success)
	assert.Equal(t, "invalid code", wrong.Message)

	ok := h.verify.VerifyOTP(ctx, VerifyOTPInput{Email: "a@neu.edu", Code: "123456", Purpose: "register", RegisterData: alice()})
	require.True(t, ok.Success, ok.Message)
	require.NotNil(t, ok.User)
	assert.True(t, ok.User.IsVerified)
	assert.Equal(t, "a@neu.edu", ok.User.Email)
	assert.NotEmpty(t, ok.Token)

	claims, err := h.tokens.Parse(ok.Token)
	require.NoError(t, err)
	assert.Equal(t, ok.User.ID, claims.UserID())
	assert.Equal(t, "Alice", claims.FirstName)

	replay := h.verify.VerifyOTP(ctx, VerifyOTPInput{Email: "a@neu.edu", Code: "123456", Purpose: "register", RegisterData: alice()})
	assert.False(t, replay.Success)
	assert.Equal(t, MsgInvalidCode, replay.Message)
}

func TestVerificationEmailContent(t *testing.T) {
	h := newHarness(t, nil)
	h.mailer.On("Send", mock.Anything, mock.MatchedBy(func(msg email.Message) bool {
		return msg.To == "bob@neu.edu" &&
			msg.Subject == email.VerificationSubject &&
			assert.Contains(t, msg.Text, "042042") &&
			assert.Contains(t, msg.Text, "10 minutes") &&
			assert.Contains(t, msg.HTML, "042042")
	})).Return(nil).Once()

	res := h.request(t, " Bob@NEU.edu ", "LOGIN", "042042")
	assert.True(t, res.Success)
	h.mailer.AssertExpectations(t)
}

func TestSecondRequestSupersedesFirstCode(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

	require.True(t, h.request(t, "a@neu.edu", "register", "111111").Success)
	require.True(t, h.request(t, "a@neu.edu", "register", "222222").Success)

	first := h.verify.VerifyOTP(ctx, VerifyOTPInput{Email: "a@neu.edu", Code: "111111", Purpose: "register", RegisterData: alice()})
	assert.False(t, first.Success)

	second := h.verify.VerifyOTP(ctx, VerifyOTPInput{Email: "a@neu.edu", Code: "222222", Purpose: "register", RegisterData: alice()})
	assert.True(t, second.Success, second.Message)
}

func TestExpiredCodeIsDistinguishable(t *testing.T) {
	h := newHarness(t, nil)
	h.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

	require.True(t, h.request(t, "a@neu.edu", "register", "123456").Success)
	h.clock.advance(10 * time.Minute)

	res := h.verify.VerifyOTP(context.Background(), VerifyOTPInput{Email: "a@neu.edu", Code: "123456", Purpose: "register", RegisterData: alice()})
	assert.False(t, res.Success)
	assert.Equal(t, MsgCodeExpired, res.Message)
}

func TestFailedAttemptsInvalidateChallenge(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

	require.True(t, h.request(t, "a@neu.edu", "register", "123456").Success)
	for i := 0; i < 3; i++ {
		res := h.verify.VerifyOTP(ctx, VerifyOTPInput{Email: "a@neu.edu", Code: "000000", Purpose: "register", RegisterData: alice()})
		assert.Equal(t, MsgInvalidCode, res.Message)
	}

	res := h.verify.VerifyOTP(ctx, VerifyOTPInput{Email: "a@neu.edu", Code: "123456", Purpose: "register", RegisterData: alice()})
	assert.False(t, res.Success)
	assert.Equal(t, MsgInvalidCode, res.Message)
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

	require.True(t, h.request(t, "a@neu.edu", "register", "123456").Success)
	require.True(t, h.verify.VerifyOTP(ctx, VerifyOTPInput{Email: "a@neu.edu", Code: "123456", Purpose: "register", RegisterData: alice()}).Success)

	require.True(t, h.request(t, "A@neu.edu", "register", "777777").Success)
	res := h.verify.VerifyOTP(ctx, VerifyOTPInput{Email: "a@neu.edu", Code: "777777", Purpose: "register", RegisterData: &RegisterData{FirstName: "Eve", LastName: "X"}})
	assert.False(t, res.Success)
	assert.Equal(t, MsgAccountExists, res.Message)

	count, err := h.users.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestLoginWithoutAccountLooksLikeWrongCode(t *testing.T) {
	h := newHarness(t, nil)
	h.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

	req := h.request(t, "ghost@neu.edu", "login", "123456")
	assert.True(t, req.Success)

	res := h.verify.VerifyOTP(context.Background(), VerifyOTPInput{Email: "ghost@neu.edu", Code: "123456", Purpose: "login"})
	assert.False(t, res.Success)
	assert.Equal(t, MsgInvalidCode, res.Message)
}

func TestLoginRecordsLastLogin(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

	require.True(t, h.request(t, "a@neu.edu", "register", "123456").Success)
	require.True(t, h.verify.VerifyOTP(ctx, VerifyOTPInput{Email: "a@neu.edu", Code: "123456", Purpose: "register", RegisterData: alice()}).Success)

	h.clock.advance(time.Hour)
	require.True(t, h.request(t, "a@neu.edu", "login", "654321").Success)
	res := h.verify.VerifyOTP(ctx, VerifyOTPInput{Email: "a@neu.edu", Code: "654321", Purpose: "login"})
	require.True(t, res.Success, res.Message)
	require.NotNil(t, res.User.LastLoginAt)
	assert.True(t, res.User.LastLoginAt.Equal(h.clock.now()))
}

func TestPurposesAreSeparate(t *testing.T) {
	h := newHarness(t, nil)
	h.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

	require.True(t, h.request(t, "a@neu.edu", "login", "123456").Success)
	res := h.verify.VerifyOTP(context.Background(), VerifyOTPInput{Email: "a@neu.edu", Code: "123456", Purpose: "register", RegisterData: alice()})
	assert.Equal(t, MsgInvalidCode, res.Message)
}

func TestValidationHappensBeforeSideEffects(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	for _, addr := range []string{"", "not-an-email", "Alice <a@neu.edu>", "a@localhost"} {
		res := h.otp.RequestOTP(ctx, addr, "login")
		assert.False(t, res.Success, addr)
		assert.Equal(t, MsgInvalidEmail, res.Message, addr)
	}
	res := h.otp.RequestOTP(ctx, "a@neu.edu", "reset")
	assert.Equal(t, MsgInvalidPurpose, res.Message)

	stats, err := h.otp.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	h.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestMissingRegisterDataKeepsChallenge(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

	require.True(t, h.request(t, "a@neu.edu", "register", "123456").Success)
	res := h.verify.VerifyOTP(ctx, VerifyOTPInput{Email: "a@neu.edu", Code: "123456", Purpose: "register"})
	assert.Equal(t, MsgRegisterDataMissing, res.Message)

	res = h.verify.VerifyOTP(ctx, VerifyOTPInput{Email: "a@neu.edu", Code: "12345", Purpose: "register", RegisterData: alice()})
	assert.Equal(t, MsgInvalidCode, res.Message)

	res = h.verify.VerifyOTP(ctx, VerifyOTPInput{Email: "a@neu.edu", Code: "123456", Purpose: "register", RegisterData: alice()})
	assert.True(t, res.Success, res.Message)
}

func TestSendFailureRemovesChallenge(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.mailer.On("Send", mock.Anything, mock.Anything).Return(&email.EmailError{Type: email.ErrTypeProvider, Message: "boom"})

	res := h.request(t, "a@neu.edu", "login", "123456")
	assert.False(t, res.Success)
	assert.Equal(t, MsgSendFailed, res.Message)
	assert.NotContains(t, res.Message, "boom")

	stats, err := h.otp.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}

func TestSendFailureKeepsNewerChallenge(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	// a second request for the same address lands while the first send is failing
	h.mailer.On("Send", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			require.True(t, h.request(t, "a@neu.edu", "register", "222222").Success)
		}).
		Return(&email.EmailError{Type: email.ErrTypeProvider, Message: "boom"}).Once()
	h.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

	res := h.request(t, "a@neu.edu", "register", "111111")
	assert.False(t, res.Success)

	ok := h.verify.VerifyOTP(ctx, VerifyOTPInput{Email: "a@neu.edu", Code: "222222", Purpose: "register", RegisterData: alice()})
	assert.True(t, ok.Success, ok.Message)
}

func TestRequestsAreThrottledPerAddress(t *testing.T) {
	limiter := ratelimit.NewMemoryRateLimiter(ratelimit.OTPRequestConfig(2, 15*time.Minute))
	t.Cleanup(limiter.Close)
	h := newHarness(t, limiter)
	h.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

	assert.True(t, h.request(t, "a@neu.edu", "login", "111111").Success)
	assert.True(t, h.request(t, "a@neu.edu", "register", "222222").Success)
	res := h.request(t, "a@neu.edu", "login", "333333")
	assert.False(t, res.Success)
	assert.Equal(t, MsgTooManyRequests, res.Message)

	assert.True(t, h.request(t, "b@neu.edu", "login", "444444").Success)
}

func registeredSession(t *testing.T, h *harness) *AuthResult {
	t.Helper()
	h.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
	require.True(t, h.request(t, "a@neu.edu", "register", "123456").Success)
	res := h.verify.VerifyOTP(context.Background(), VerifyOTPInput{Email: "a@neu.edu", Code: "123456", Purpose: "register", RegisterData: alice()})
	require.True(t, res.Success, res.Message)
	return res
}

func TestCurrentUser(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	session := registeredSession(t, h)

	u, err := h.sessions.CurrentUser(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, u.ID)

	_, err = h.sessions.CurrentUser(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = h.sessions.CurrentUser(ctx, session.Token+"x")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	h.clock.advance(31 * time.Minute)
	_, err = h.sessions.CurrentUser(ctx, session.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRefreshStopsAtMaxLifetime(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	token := registeredSession(t, h).Token

	for i := 0; i < 4; i++ {
		h.clock.advance(25 * time.Minute)
		res := h.sessions.Refresh(ctx, token)
		require.True(t, res.Success, "refresh %d: %s", i, res.Message)
		token = res.Token
	}

	// 110 minutes in; the new expiry is capped at the two hour lifetime
	h.clock.advance(10 * time.Minute)
	res := h.sessions.Refresh(ctx, token)
	require.True(t, res.Success, res.Message)
	assert.True(t, res.ExpiresAt.Equal(time.Date(2025, 9, 1, 14, 0, 0, 0, time.UTC)))

	h.clock.advance(time.Hour)
	res = h.sessions.Refresh(ctx, res.Token)
	assert.False(t, res.Success)
	assert.Equal(t, MsgSessionExpired, res.Message)

	res = h.sessions.Refresh(ctx, "garbage")
	assert.Equal(t, MsgInvalidSession, res.Message)
}
