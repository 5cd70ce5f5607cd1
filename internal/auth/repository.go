// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wattgrid/marketplace-api/internal/core"
)

// Repository stores OTP state on the users table.
type Repository interface {
	GetOTPState(ctx context.Context, email string) (*OTPState, error)
	StoreOTP(
		ctx context.Context,
		userID, otpHash string,
		expiresAt time.Time,
	) error
	IncrementOTPAttempts(ctx context.Context, userID string) error
	ClearOTP(ctx context.Context, userID string, markVerified bool) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) GetOTPState(
	ctx context.Context,
	email string,
) (*OTPState, error) {
	query := `
		SELECT id, email, name, email_verified, otp_hash, otp_expires_at, otp_attempts
		FROM users
		WHERE email = $1`

	var state OTPState
	err := r.db.GetContext(ctx, &state, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get otp state: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get otp state: %w", err)
	}

	return &state, nil
}

func (r *repository) StoreOTP(
	ctx context.Context,
	userID, otpHash string,
	expiresAt time.Time,
) error {
	query := `
		UPDATE users
		SET otp_hash = $2, otp_expires_at = $3, otp_attempts = 0, updated_at = NOW()
		WHERE id = $1`

	return core.ExecOne(ctx, r.db, "store otp", query, userID, otpHash, expiresAt)
}

func (r *repository) IncrementOTPAttempts(
	ctx context.Context,
	userID string,
) error {
	query := `
		UPDATE users
		SET otp_attempts = otp_attempts + 1, updated_at = NOW()
		WHERE id = $1`

	return core.ExecOne(ctx, r.db, "increment otp attempts", query, userID)
}

func (r *repository) ClearOTP(
	ctx context.Context,
	userID string,
	markVerified bool,
) error {
	query := `
		UPDATE users
		SET otp_hash = NULL,
		    otp_expires_at = NULL,
		    otp_attempts = 0,
		    email_verified = email_verified OR $2,
		    updated_at = NOW()
		WHERE id = $1`

	return core.ExecOne(ctx, r.db, "clear otp", query, userID, markVerified)
}
