package service

import (
	"context"
	"errors"
	"time"

	"fleetadmin/internal/entity"
	"fleetadmin/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

type AuthConfig struct {
	AccessTokenTTL         time.Duration
	OTPTTL                 time.Duration
	MinPasswordLength      int
	ConcealUnknownAccounts bool
}

// NotificationSender delivers an HTML message to a single recipient.
type NotificationSender interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) bool
}

type AccessTokenIssuer interface {
	IssueAccessToken(user entity.SystemUser) (string, time.Duration, error)
}

type CodeGenerator interface {
	Generate() (string, error)
}

type RandomCodeGenerator struct{}

func (RandomCodeGenerator) Generate() (string, error) {
	return utils.GenerateOTPCode()
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type BcryptPasswordHasher struct {
	Cost int
}

func (h BcryptPasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h BcryptPasswordHasher) Verify(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
