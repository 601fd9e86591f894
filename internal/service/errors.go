package service

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")

	ErrUnknownAccount  = errors.New("no account found with this email address")
	ErrNoActiveRequest = errors.New("no active password reset request")
	ErrOTPExpired      = errors.New("otp has expired")
	ErrOTPMismatch     = errors.New("invalid otp")
	ErrNotVerified     = errors.New("otp not verified")
	ErrWeakPassword    = errors.New("password too short")
	ErrPasswordTooLong = errors.New("password too long")
	ErrStorageFailure  = errors.New("storage failure")
	ErrDeliveryFailed  = errors.New("otp delivery failed")
	ErrSenderNotReady  = errors.New("email sender not configured")
)
