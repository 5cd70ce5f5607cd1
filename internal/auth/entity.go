// AngelaMos | 2026
// entity.go

package auth

import (
	"errors"
	"time"
)

var (
	ErrOTPNotFound         = errors.New("no otp found")
	ErrOTPExpired          = errors.New("otp expired")
	ErrOTPAttemptsExceeded = errors.New("maximum otp attempts exceeded")
	ErrOTPInvalid          = errors.New("invalid otp")
)

// OTPState is the one-time-password slice of a users row.
//
// NONE: no hash stored. ISSUED: hash stored and unexpired. An expired hash
// is left in place; it stays inert because Check rejects it before any
// comparison, and the next issue overwrites it.
type OTPState struct {
	UserID        string     `db:"id"`
	Email         string     `db:"email"`
	Name          string     `db:"name"`
	EmailVerified bool       `db:"email_verified"`
	OTPHash       *string    `db:"otp_hash"`
	OTPExpiresAt  *time.Time `db:"otp_expires_at"`
	OTPAttempts   int        `db:"otp_attempts"`
}

// Check runs the guards that precede the hash comparison, in order: a code
// must exist, must not be expired, and must still have attempts left.
func (s *OTPState) Check(now time.Time, maxAttempts int) error {
	if s.OTPHash == nil || *s.OTPHash == "" {
		return ErrOTPNotFound
	}

	if s.OTPExpiresAt == nil || now.After(*s.OTPExpiresAt) {
		return ErrOTPExpired
	}

	if s.OTPAttempts >= maxAttempts {
		return ErrOTPAttemptsExceeded
	}

	return nil
}
