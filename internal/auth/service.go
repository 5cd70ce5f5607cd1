// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wattgrid/marketplace-api/internal/audit"
	"github.com/wattgrid/marketplace-api/internal/config"
	"github.com/wattgrid/marketplace-api/internal/core"
	"github.com/wattgrid/marketplace-api/internal/notify"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already exists")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrAccountInactive    = errors.New("account inactive")
)

type UserInfo struct {
	ID            string
	Email         string
	Name          string
	PasswordHash  string
	Role          string
	City          *string
	State         *string
	CompanyName   *string
	KYCStatus     string
	IsActive      bool
	EmailVerified bool
	CreatedAt     time.Time
}

type NewUser struct {
	Email        string
	PasswordHash string
	Name         string
	Role         string
	City         string
	State        string
	CompanyName  string
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u NewUser) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type TokenIssuer interface {
	CreateAccessToken(claims AccessTokenClaims) (string, error)
	ExpiresIn() time.Duration
}

type OTPNotifier interface {
	OTPIssued(ev notify.OTPIssued)
}

type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

type Service struct {
	repo     Repository
	tokens   TokenIssuer
	users    UserProvider
	notifier OTPNotifier
	auditor  Auditor
	hasher   *core.PasswordHasher
	otp      config.OTPConfig
	now      func() time.Time
}

func NewService(
	repo Repository,
	tokens TokenIssuer,
	users UserProvider,
	notifier OTPNotifier,
	auditor Auditor,
	hasher *core.PasswordHasher,
	otpCfg config.OTPConfig,
) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		users:    users,
		notifier: notifier,
		auditor:  auditor,
		hasher:   hasher,
		otp:      otpCfg,
		now:      time.Now,
	}
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*UserInfo, error) {
	email := normalizeEmail(req.Email)

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrEmailExists
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, NewUser{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(req.Name),
		Role:         req.Role,
		City:         strings.TrimSpace(req.City),
		State:        strings.TrimSpace(req.State),
		CompanyName:  strings.TrimSpace(req.CompanyName),
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.issueOTP(ctx, user.ID, user.Email, user.Name, notify.PurposeRegistration); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		UserID:       user.ID,
		Action:       audit.ActionUserRegister,
		ResourceType: "user",
		ResourceID:   user.ID,
		Details:      map[string]any{"role": user.Role},
	})

	return user, nil
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = s.hasher.VerifyTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := s.hasher.VerifyTimingSafe(req.Password, &user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.users.UpdatePassword(ctx, user.ID, newHash)
	}

	accessToken, err := s.tokens.CreateAccessToken(AccessTokenClaims{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	s.auditor.Record(ctx, audit.Entry{
		UserID:       user.ID,
		Action:       audit.ActionUserLogin,
		ResourceType: "user",
		ResourceID:   user.ID,
	})

	return &LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokens.ExpiresIn() / time.Second),
		User:        toUserResponse(user),
	}, nil
}

// VerifyOTP consumes a registration code and marks the email verified.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	state, err := s.checkOTP(ctx, normalizeEmail(email), code)
	if err != nil {
		return err
	}

	if err := s.repo.ClearOTP(ctx, state.UserID, true); err != nil {
		return fmt.Errorf("clear otp: %w", err)
	}

	s.auditor.Record(ctx, audit.Entry{
		UserID:       state.UserID,
		Action:       audit.ActionUserVerifyEmail,
		ResourceType: "user",
		ResourceID:   state.UserID,
	})

	return nil
}

// ForgotPassword issues a reset code when the account exists. Unknown
// emails succeed silently so the endpoint cannot be used to enumerate users.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	return s.issueOTP(ctx, user.ID, user.Email, user.Name, notify.PurposePasswordReset)
}

// ResendOTP re-issues the registration code for an unverified account.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	if user.EmailVerified {
		return nil
	}

	return s.issueOTP(ctx, user.ID, user.Email, user.Name, notify.PurposeRegistration)
}

func (s *Service) ResetPassword(
	ctx context.Context,
	req ResetPasswordRequest,
) error {
	state, err := s.checkOTP(ctx, normalizeEmail(req.Email), req.OTP)
	if err != nil {
		return err
	}

	passwordHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, state.UserID, passwordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	// The code is only spent once the new password is stored.
	if err := s.repo.ClearOTP(ctx, state.UserID, false); err != nil {
		return fmt.Errorf("clear otp: %w", err)
	}

	s.auditor.Record(ctx, audit.Entry{
		UserID:       state.UserID,
		Action:       audit.ActionUserPasswordReset,
		ResourceType: "user",
		ResourceID:   state.UserID,
	})

	return nil
}

// checkOTP is the verification routine shared by email verification and
// password reset. Only a matching code returns a state; the caller clears it.
func (s *Service) checkOTP(
	ctx context.Context,
	email, code string,
) (*OTPState, error) {
	state, err := s.repo.GetOTPState(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrOTPNotFound
		}
		return nil, fmt.Errorf("get otp state: %w", err)
	}

	if err := state.Check(s.now(), s.otp.MaxAttempts); err != nil {
		return nil, err
	}

	match, err := core.CompareOTP(*state.OTPHash, code)
	if err != nil {
		return nil, err
	}

	if !match {
		if err := s.repo.IncrementOTPAttempts(ctx, state.UserID); err != nil {
			return nil, fmt.Errorf("increment otp attempts: %w", err)
		}
		return nil, ErrOTPInvalid
	}

	return state, nil
}

func (s *Service) issueOTP(
	ctx context.Context,
	userID, email, name, purpose string,
) error {
	code, err := core.GenerateOTP()
	if err != nil {
		return err
	}

	hash, err := core.HashOTP(code, s.otp.BcryptCost)
	if err != nil {
		return err
	}

	if err := s.repo.StoreOTP(ctx, userID, hash, s.now().Add(s.otp.Expiry)); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	s.notifier.OTPIssued(notify.OTPIssued{
		Email:   email,
		Name:    name,
		Code:    code,
		Purpose: purpose,
		TTL:     s.otp.Expiry,
	})

	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
