// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wattgrid/marketplace-api/internal/audit"
	"github.com/wattgrid/marketplace-api/internal/config"
	"github.com/wattgrid/marketplace-api/internal/core"
	"github.com/wattgrid/marketplace-api/internal/notify"
)

type otpRepoStub struct {
	states     map[string]*OTPState
	increments int
	cleared    []string
	verified   bool
}

func newOTPRepoStub() *otpRepoStub {
	return &otpRepoStub{states: make(map[string]*OTPState)}
}

func (s *otpRepoStub) GetOTPState(_ context.Context, email string) (*OTPState, error) {
	st, ok := s.states[email]
	if !ok {
		return nil, fmt.Errorf("get otp state: %w", core.ErrNotFound)
	}
	cp := *st
	return &cp, nil
}

func (s *otpRepoStub) StoreOTP(_ context.Context, userID, hash string, expiresAt time.Time) error {
	for _, st := range s.states {
		if st.UserID == userID {
			st.OTPHash = &hash
			st.OTPExpiresAt = &expiresAt
			st.OTPAttempts = 0
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *otpRepoStub) IncrementOTPAttempts(_ context.Context, userID string) error {
	s.increments++
	for _, st := range s.states {
		if st.UserID == userID {
			st.OTPAttempts++
		}
	}
	return nil
}

func (s *otpRepoStub) ClearOTP(_ context.Context, userID string, markVerified bool) error {
	s.cleared = append(s.cleared, userID)
	s.verified = markVerified
	for _, st := range s.states {
		if st.UserID == userID {
			st.OTPHash = nil
			st.OTPExpiresAt = nil
			st.OTPAttempts = 0
			if markVerified {
				st.EmailVerified = true
			}
		}
	}
	return nil
}

type userProviderStub struct {
	users       map[string]*UserInfo
	createErr   error
	updateErr   error
	passwordFor map[string]string
}

func newUserProviderStub() *userProviderStub {
	return &userProviderStub{
		users:       make(map[string]*UserInfo),
		passwordFor: make(map[string]string),
	}
}

func (s *userProviderStub) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, core.ErrNotFound
	}
	return u, nil
}

func (s *userProviderStub) EmailExists(_ context.Context, email string) (bool, error) {
	_, ok := s.users[email]
	return ok, nil
}

func (s *userProviderStub) Create(_ context.Context, nu NewUser) (*UserInfo, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	u := &UserInfo{
		ID:           "user-" + nu.Email,
		Email:        nu.Email,
		Name:         nu.Name,
		PasswordHash: nu.PasswordHash,
		Role:         nu.Role,
		KYCStatus:    "pending",
		IsActive:     true,
	}
	s.users[nu.Email] = u
	return u, nil
}

func (s *userProviderStub) UpdatePassword(_ context.Context, userID, hash string) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.passwordFor[userID] = hash
	return nil
}

type tokenIssuerStub struct {
	issued []AccessTokenClaims
}

func (s *tokenIssuerStub) CreateAccessToken(c AccessTokenClaims) (string, error) {
	s.issued = append(s.issued, c)
	return "token-for-" + c.UserID, nil
}

func (s *tokenIssuerStub) ExpiresIn() time.Duration { return 24 * time.Hour }

type otpNotifierStub struct {
	mu     sync.Mutex
	events []notify.OTPIssued
}

func (s *otpNotifierStub) OTPIssued(ev notify.OTPIssued) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *otpNotifierStub) last(t *testing.T) notify.OTPIssued {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.events)
	return s.events[len(s.events)-1]
}

type auditorStub struct {
	entries []audit.Entry
}

func (s *auditorStub) Record(_ context.Context, e audit.Entry) {
	s.entries = append(s.entries, e)
}

func (s *auditorStub) actions() []string {
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Action)
	}
	return out
}

type serviceFixture struct {
	svc      *Service
	repo     *otpRepoStub
	users    *userProviderStub
	tokens   *tokenIssuerStub
	notifier *otpNotifierStub
	auditor  *auditorStub
	hasher   *core.PasswordHasher
	now      time.Time
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		repo:     newOTPRepoStub(),
		users:    newUserProviderStub(),
		tokens:   &tokenIssuerStub{},
		notifier: &otpNotifierStub{},
		auditor:  &auditorStub{},
		hasher: core.NewPasswordHasher(config.PasswordConfig{
			Memory:      8 * 1024,
			Iterations:  1,
			Parallelism: 1,
			KeyLength:   32,
			SaltLength:  16,
		}),
		now: time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.repo, f.tokens, f.users, f.notifier, f.auditor, f.hasher, config.OTPConfig{
		Expiry:      10 * time.Minute,
		MaxAttempts: 3,
		BcryptCost:  bcrypt.MinCost,
	})
	f.svc.now = func() time.Time { return f.now }
	return f
}

// seedOTP stores a known code for email as if it had just been issued.
func (f *serviceFixture) seedOTP(t *testing.T, email, code string) {
	t.Helper()
	hash, err := core.HashOTP(code, bcrypt.MinCost)
	require.NoError(t, err)
	expires := f.now.Add(10 * time.Minute)
	f.repo.states[email] = &OTPState{
		UserID:       "user-" + email,
		Email:        email,
		OTPHash:      &hash,
		OTPExpiresAt: &expires,
	}
}

func registerRequest(email string) RegisterRequest {
	return RegisterRequest{
		Email:    email,
		Password: "super-secret-1",
		Name:     " Asha ",
		Role:     "seller",
		City:     "Pune",
	}
}

func TestRegister_IssuesOTPAndAudits(t *testing.T) {
	f := newServiceFixture(t)
	f.repo.states["asha@example.com"] = &OTPState{UserID: "user-asha@example.com"}

	user, err := f.svc.Register(context.Background(), registerRequest(" Asha@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.Equal(t, "Asha", user.Name)

	ev := f.notifier.last(t)
	assert.Equal(t, notify.PurposeRegistration, ev.Purpose)
	assert.Len(t, ev.Code, 6)

	stored := f.repo.states["asha@example.com"]
	require.NotNil(t, stored.OTPHash)
	ok, err := core.CompareOTP(*stored.OTPHash, ev.Code)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, f.now.Add(10*time.Minute), *stored.OTPExpiresAt)

	assert.Equal(t, []string{audit.ActionUserRegister}, f.auditor.actions())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newServiceFixture(t)
	f.users.users["dup@example.com"] = &UserInfo{ID: "u1", Email: "dup@example.com"}

	_, err := f.svc.Register(context.Background(), registerRequest("dup@example.com"))
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestRegister_UniqueViolationRace(t *testing.T) {
	f := newServiceFixture(t)
	f.users.createErr = fmt.Errorf("create user: %w", core.ErrDuplicateKey)

	_, err := f.svc.Register(context.Background(), registerRequest("race@example.com"))
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestVerifyOTP_Sequence(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	email := "buyer@example.com"
	f.seedOTP(t, email, "123456")

	err := f.svc.VerifyOTP(ctx, email, "000000")
	require.ErrorIs(t, err, ErrOTPInvalid)
	assert.Equal(t, 1, f.repo.states[email].OTPAttempts)

	require.NoError(t, f.svc.VerifyOTP(ctx, email, "123456"))
	st := f.repo.states[email]
	assert.Nil(t, st.OTPHash)
	assert.Nil(t, st.OTPExpiresAt)
	assert.Zero(t, st.OTPAttempts)
	assert.True(t, st.EmailVerified)
	assert.True(t, f.repo.verified)

	err = f.svc.VerifyOTP(ctx, email, "123456")
	require.ErrorIs(t, err, ErrOTPNotFound)
}

func TestVerifyOTP_AttemptsExhaustedSkipsCompare(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	email := "buyer@example.com"
	f.seedOTP(t, email, "123456")

	for range 3 {
		require.ErrorIs(t, f.svc.VerifyOTP(ctx, email, "999999"), ErrOTPInvalid)
	}

	err := f.svc.VerifyOTP(ctx, email, "123456")
	require.ErrorIs(t, err, ErrOTPAttemptsExceeded)
	assert.Equal(t, 3, f.repo.increments)
}

func TestVerifyOTP_ExpiredKeepsHash(t *testing.T) {
	f := newServiceFixture(t)
	email := "buyer@example.com"
	f.seedOTP(t, email, "123456")
	f.now = f.now.Add(11 * time.Minute)

	err := f.svc.VerifyOTP(context.Background(), email, "123456")
	require.ErrorIs(t, err, ErrOTPExpired)
	assert.NotNil(t, f.repo.states[email].OTPHash)
	assert.Empty(t, f.repo.cleared)
}

func TestVerifyOTP_UnknownEmail(t *testing.T) {
	f := newServiceFixture(t)

	err := f.svc.VerifyOTP(context.Background(), "ghost@example.com", "123456")
	require.ErrorIs(t, err, ErrOTPNotFound)
}

func TestResetPassword(t *testing.T) {
	f := newServiceFixture(t)
	email := "seller@example.com"
	f.seedOTP(t, email, "424242")

	err := f.svc.ResetPassword(context.Background(), ResetPasswordRequest{
		Email:       email,
		OTP:         "424242",
		NewPassword: "brand-new-pass",
	})
	require.NoError(t, err)

	hash := f.users.passwordFor["user-"+email]
	ok, err := f.hasher.Verify("brand-new-pass", hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"user-" + email}, f.repo.cleared)
	assert.False(t, f.repo.verified)
	assert.Equal(t, []string{audit.ActionUserPasswordReset}, f.auditor.actions())
}

func TestResetPassword_StoreFailureKeepsCode(t *testing.T) {
	f := newServiceFixture(t)
	email := "seller@example.com"
	f.seedOTP(t, email, "424242")
	f.users.updateErr = errors.New("connection reset")

	req := ResetPasswordRequest{Email: email, OTP: "424242", NewPassword: "brand-new-pass"}
	err := f.svc.ResetPassword(context.Background(), req)
	require.Error(t, err)
	assert.Empty(t, f.repo.cleared)
	assert.NotNil(t, f.repo.states[email].OTPHash)
	assert.Empty(t, f.auditor.entries)

	f.users.updateErr = nil
	require.NoError(t, f.svc.ResetPassword(context.Background(), req))
	assert.Contains(t, f.users.passwordFor, "user-"+email)
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	f := newServiceFixture(t)

	require.NoError(t, f.svc.ForgotPassword(context.Background(), "ghost@example.com"))
	assert.Empty(t, f.notifier.events)
}

func TestResendOTP_VerifiedAccountIsNoop(t *testing.T) {
	f := newServiceFixture(t)
	f.users.users["done@example.com"] = &UserInfo{ID: "u1", EmailVerified: true}

	require.NoError(t, f.svc.ResendOTP(context.Background(), "done@example.com"))
	assert.Empty(t, f.notifier.events)
}

func seedLoginUser(t *testing.T, f *serviceFixture, verified, active bool) {
	t.Helper()
	hash, err := f.hasher.Hash("correct-password")
	require.NoError(t, err)
	f.users.users["login@example.com"] = &UserInfo{
		ID:            "u-login",
		Email:         "login@example.com",
		PasswordHash:  hash,
		Role:          "buyer",
		EmailVerified: verified,
		IsActive:      active,
	}
}

func TestLogin(t *testing.T) {
	cases := []struct {
		name     string
		verified bool
		active   bool
		password string
		want     error
	}{
		{"wrong password", true, true, "nope", ErrInvalidCredentials},
		{"wrong password beats unverified", false, false, "nope", ErrInvalidCredentials},
		{"unverified", false, true, "correct-password", ErrEmailNotVerified},
		{"unverified beats inactive", false, false, "correct-password", ErrEmailNotVerified},
		{"inactive", true, false, "correct-password", ErrAccountInactive},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newServiceFixture(t)
			seedLoginUser(t, f, tc.verified, tc.active)

			_, err := f.svc.Login(context.Background(), LoginRequest{
				Email:    "login@example.com",
				Password: tc.password,
			})
			require.ErrorIs(t, err, tc.want)
			assert.Empty(t, f.tokens.issued)
		})
	}
}

func TestLogin_Success(t *testing.T) {
	f := newServiceFixture(t)
	seedLoginUser(t, f, true, true)

	resp, err := f.svc.Login(context.Background(), LoginRequest{
		Email:    "LOGIN@example.com",
		Password: "correct-password",
	})
	require.NoError(t, err)

	assert.Equal(t, "token-for-u-login", resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 86400, resp.ExpiresIn)
	assert.Equal(t, "buyer", resp.User.Role)
	assert.Equal(t, []AccessTokenClaims{{UserID: "u-login", Role: "buyer"}}, f.tokens.issued)
	assert.Equal(t, []string{audit.ActionUserLogin}, f.auditor.actions())
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Login(context.Background(), LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	require.True(t, errors.Is(err, ErrInvalidCredentials))
}
