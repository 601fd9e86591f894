package repository

import (
	"context"
	"errors"
	"time"

	"fleetadmin/internal/entity"

	"github.com/google/uuid"
)

var (
	ErrOTPNotFound = errors.New("otp not found")
	ErrOTPExpired  = errors.New("otp expired")
	ErrOTPMismatch = errors.New("otp mismatch")
)

// OTPLedger holds at most one password reset code per normalised email.
// Implementations must make Put, MarkVerified and Consume atomic per email.
type OTPLedger interface {
	// Put creates or replaces the record for email, discarding any prior one.
	Put(ctx context.Context, email string, code string, issuedAt time.Time, ttl time.Duration) error
	Get(ctx context.Context, email string) (*entity.PasswordResetOTP, error)
	// MarkVerified flags the record as verified if it is still live at now
	// and still carries code. An expired record is deleted.
	MarkVerified(ctx context.Context, email string, code string, now time.Time) error
	Consume(ctx context.Context, email string) error
	// ConsumeIfCurrent deletes the record for email only while it is still
	// the one identified by id. A record issued since then is left alone.
	ConsumeIfCurrent(ctx context.Context, email string, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

func newOTPRecord(email string, codeHash string, issuedAt time.Time, ttl time.Duration) entity.PasswordResetOTP {
	return entity.PasswordResetOTP{
		Email:     email,
		CodeHash:  codeHash,
		ExpiresAt: issuedAt.Add(ttl),
		Verified:  false,
		CreatedAt: issuedAt,
	}
}
