package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"fleetadmin/internal/entity"
	"fleetadmin/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	resetEmail  = "user@x.com"
	oldPassword = "OldPass1!"
)

type resetFixture struct {
	service *PasswordResetService
	users   *fakeUserRepo
	ledger  repository.OTPLedger
	audit   *fakeAuditRepo
	sender  *fakeSender
	clock   *fakeClock
	codes   *sequenceCodes
	hasher  BcryptPasswordHasher
	user    *entity.SystemUser
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newResetFixture(t *testing.T, config AuthConfig) *resetFixture {
	t.Helper()
	hasher := BcryptPasswordHasher{Cost: bcrypt.MinCost}
	hash, err := hasher.Hash(oldPassword)
	require.NoError(t, err)

	user := &entity.SystemUser{
		ID:           uuid.New(),
		FirstName:    "Amina",
		LastName:     "Otieno",
		Email:        resetEmail,
		PasswordHash: hash,
		Role:         entity.RoleSupport,
		Status:       entity.StatusActive,
	}

	f := &resetFixture{
		users:  newFakeUserRepo(user),
		ledger: repository.NewMemoryOTPLedger(),
		audit:  &fakeAuditRepo{},
		sender: &fakeSender{},
		clock:  &fakeClock{now: time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)},
		codes:  &sequenceCodes{},
		hasher: hasher,
		user:   user,
	}
	f.service = NewPasswordResetService(f.users, f.ledger, f.audit, f.sender, hasher, f.codes, f.clock, quietLogger(), config)
	return f
}

func (f *resetFixture) request(t *testing.T, code string) {
	t.Helper()
	f.codes.codes = append(f.codes.codes, code)
	require.NoError(t, f.service.RequestPasswordReset(context.Background(), resetEmail))
}

func TestVerifyOTPWithoutRequest(t *testing.T) {
	f := newResetFixture(t, AuthConfig{})
	for _, email := range []string{resetEmail, "nobody@x.com"} {
		err := f.service.VerifyOTP(context.Background(), email, "123456")
		assert.ErrorIs(t, err, ErrNoActiveRequest)
	}
}

func TestRequestPasswordResetUnknownAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("revealed", func(t *testing.T) {
		f := newResetFixture(t, AuthConfig{})
		err := f.service.RequestPasswordReset(ctx, "ghost@x.com")
		assert.ErrorIs(t, err, ErrUnknownAccount)
		assert.Empty(t, f.sender.sent)
	})

	t.Run("concealed", func(t *testing.T) {
		f := newResetFixture(t, AuthConfig{ConcealUnknownAccounts: true})
		require.NoError(t, f.service.RequestPasswordReset(ctx, "ghost@x.com"))
		assert.Empty(t, f.sender.sent)

		_, err := f.ledger.Get(ctx, "ghost@x.com")
		assert.ErrorIs(t, err, repository.ErrOTPNotFound)
	})
}

func TestRequestPasswordResetRejectsBlankEmail(t *testing.T) {
	f := newResetFixture(t, AuthConfig{})
	assert.ErrorIs(t, f.service.RequestPasswordReset(context.Background(), "  "), ErrInvalidInput)
}

func TestRequestPasswordResetSendsCode(t *testing.T) {
	f := newResetFixture(t, AuthConfig{})
	f.request(t, "482193")

	require.Len(t, f.sender.sent, 1)
	message := f.sender.sent[0]
	assert.Equal(t, resetEmail, message.To)
	assert.Equal(t, passwordResetOTPSubject, message.Subject)
	assert.Contains(t, message.Body, "482193")
	assert.Contains(t, message.Body, "Amina Otieno")
	assert.Contains(t, message.Body, "expires in 10 minutes")

	record, err := f.ledger.Get(context.Background(), resetEmail)
	require.NoError(t, err)
	assert.False(t, record.Verified)
	assert.True(t, record.ExpiresAt.Equal(f.clock.Now().Add(10*time.Minute)))
	assert.Contains(t, f.audit.actions(), entity.PasswordResetRequested)
}

func TestRequestPasswordResetSurvivesDeliveryFailure(t *testing.T) {
	f := newResetFixture(t, AuthConfig{})
	f.sender.err = errors.New("resend: 503")
	f.request(t, "482193")

	assert.Contains(t, f.audit.actions(), entity.PasswordResetDeliveryFailed)
	assert.NoError(t, f.service.VerifyOTP(context.Background(), resetEmail, "482193"))
}

func TestRequestPasswordResetWithoutSender(t *testing.T) {
	f := newResetFixture(t, AuthConfig{})
	f.service.sender = nil
	f.request(t, "482193")

	assert.Contains(t, f.audit.actions(), entity.PasswordResetDeliveryFailed)
}

func TestVerifyOTPExactCodeOnly(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t, AuthConfig{})
	f.request(t, "482193")

	for _, wrong := range []string{"482194", "100000", "999999", "283914"} {
		assert.ErrorIs(t, f.service.VerifyOTP(ctx, resetEmail, wrong), ErrOTPMismatch, wrong)
	}
	record, err := f.ledger.Get(ctx, resetEmail)
	require.NoError(t, err)
	assert.False(t, record.Verified)

	require.NoError(t, f.service.VerifyOTP(ctx, resetEmail, "482193"))
	record, err = f.ledger.Get(ctx, resetEmail)
	require.NoError(t, err)
	assert.True(t, record.Verified)
}

func TestVerifyOTPNormalizesEmail(t *testing.T) {
	f := newResetFixture(t, AuthConfig{})
	f.codes.codes = []string{"482193"}
	require.NoError(t, f.service.RequestPasswordReset(context.Background(), " User@X.com "))

	assert.NoError(t, f.service.VerifyOTP(context.Background(), "USER@x.com", "482193"))
}

func TestResetPasswordBeforeVerify(t *testing.T) {
	f := newResetFixture(t, AuthConfig{})
	ctx := context.Background()
	assert.ErrorIs(t, f.service.ResetPassword(ctx, resetEmail, "NewPass1!"), ErrNotVerified)

	f.request(t, "482193")
	assert.ErrorIs(t, f.service.ResetPassword(ctx, resetEmail, "NewPass1!"), ErrNotVerified)
	assert.Zero(t, f.users.updates)
}

func TestVerifyOTPAfterExpiry(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t, AuthConfig{})
	f.request(t, "482193")

	f.clock.Advance(10*time.Minute + time.Second)
	assert.ErrorIs(t, f.service.VerifyOTP(ctx, resetEmail, "482193"), ErrOTPExpired)
	assert.ErrorIs(t, f.service.VerifyOTP(ctx, resetEmail, "482193"), ErrNoActiveRequest)
}

func TestVerifyOTPAtExpiryBoundary(t *testing.T) {
	f := newResetFixture(t, AuthConfig{})
	f.request(t, "482193")

	f.clock.Advance(10 * time.Minute)
	assert.NoError(t, f.service.VerifyOTP(context.Background(), resetEmail, "482193"))
}

func TestResetPasswordExpiredAtCommit(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t, AuthConfig{})
	f.request(t, "482193")
	require.NoError(t, f.service.VerifyOTP(ctx, resetEmail, "482193"))

	f.clock.Advance(11 * time.Minute)
	assert.ErrorIs(t, f.service.ResetPassword(ctx, resetEmail, "NewPass1!"), ErrOTPExpired)
	assert.Zero(t, f.users.updates)
	assert.ErrorIs(t, f.service.ResetPassword(ctx, resetEmail, "NewPass1!"), ErrNotVerified)
}

func TestResetPasswordWeakPassword(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t, AuthConfig{})
	f.request(t, "482193")
	require.NoError(t, f.service.VerifyOTP(ctx, resetEmail, "482193"))
	before := f.users.passwordHash(f.user.ID)

	for _, weak := range []string{"", "short", "1234567"} {
		assert.ErrorIs(t, f.service.ResetPassword(ctx, resetEmail, weak), ErrWeakPassword)
	}
	assert.Zero(t, f.users.updates)
	assert.Equal(t, before, f.users.passwordHash(f.user.ID))

	record, err := f.ledger.Get(ctx, resetEmail)
	require.NoError(t, err)
	assert.True(t, record.Verified)
}

func TestResetPasswordFullFlow(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t, AuthConfig{})
	before := f.users.passwordHash(f.user.ID)

	f.request(t, "482193")
	require.NoError(t, f.service.VerifyOTP(ctx, resetEmail, "482193"))
	require.NoError(t, f.service.ResetPassword(ctx, resetEmail, "NewPass1!"))

	after := f.users.passwordHash(f.user.ID)
	assert.NotEqual(t, before, after)
	assert.False(t, f.hasher.Verify(after, oldPassword))
	assert.True(t, f.hasher.Verify(after, "NewPass1!"))

	_, err := f.ledger.Get(ctx, resetEmail)
	assert.ErrorIs(t, err, repository.ErrOTPNotFound)
	assert.ErrorIs(t, f.service.VerifyOTP(ctx, resetEmail, "482193"), ErrNoActiveRequest)
	assert.Contains(t, f.audit.actions(), entity.PasswordResetCompleted)
}

func TestSecondRequestSupersedesFirst(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t, AuthConfig{})
	f.request(t, "111111")
	f.request(t, "222222")

	assert.ErrorIs(t, f.service.VerifyOTP(ctx, resetEmail, "111111"), ErrOTPMismatch)
	assert.NoError(t, f.service.VerifyOTP(ctx, resetEmail, "222222"))
}

func TestRequestAfterVerifyRestartsFlow(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t, AuthConfig{})
	f.request(t, "111111")
	require.NoError(t, f.service.VerifyOTP(ctx, resetEmail, "111111"))

	f.request(t, "222222")
	assert.ErrorIs(t, f.service.ResetPassword(ctx, resetEmail, "NewPass1!"), ErrNotVerified)
}

func TestResetPasswordStorageFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t, AuthConfig{})
	f.request(t, "482193")
	require.NoError(t, f.service.VerifyOTP(ctx, resetEmail, "482193"))

	f.users.updateErr = errors.New("connection reset")
	err := f.service.ResetPassword(ctx, resetEmail, "NewPass1!")
	assert.ErrorIs(t, err, ErrStorageFailure)

	record, err := f.ledger.Get(ctx, resetEmail)
	require.NoError(t, err)
	assert.True(t, record.Verified)

	f.users.updateErr = nil
	assert.NoError(t, f.service.ResetPassword(ctx, resetEmail, "NewPass1!"))
}

func TestPasswordResetIndependentEmails(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t, AuthConfig{})
	hash := f.users.passwordHash(f.user.ID)

	const accounts = 20
	for i := 0; i < accounts; i++ {
		require.NoError(t, f.users.Create(ctx, &entity.SystemUser{
			Email:        fmt.Sprintf("staff%d@x.com", i),
			PasswordHash: hash,
			Status:       entity.StatusActive,
		}))
	}

	var wg sync.WaitGroup
	errs := make(chan error, accounts)
	for i := 0; i < accounts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := fmt.Sprintf("staff%d@x.com", i)
			if err := f.service.RequestPasswordReset(ctx, email); err != nil {
				errs <- err
				return
			}
			if err := f.service.VerifyOTP(ctx, email, "000000"); !errors.Is(err, ErrOTPMismatch) {
				errs <- fmt.Errorf("%s: unexpected verify result %v", email, err)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	assert.Len(t, f.sender.sent, accounts)
}

func newRacingResetFixture(t *testing.T) (*resetFixture, *racingLedger) {
	t.Helper()
	f := newResetFixture(t, AuthConfig{})
	ledger := &racingLedger{OTPLedger: f.ledger}
	f.service = NewPasswordResetService(f.users, ledger, f.audit, f.sender, f.hasher, f.codes, f.clock, quietLogger(), AuthConfig{})
	return f, ledger
}

func TestVerifyOTPExpiredKeepsConcurrentlyIssuedCode(t *testing.T) {
	ctx := context.Background()
	f, ledger := newRacingResetFixture(t)
	f.request(t, "111111")
	f.clock.Advance(11 * time.Minute)

	ledger.reissueOnNextGet(t, resetEmail, "222222", f.clock)
	assert.ErrorIs(t, f.service.VerifyOTP(ctx, resetEmail, "111111"), ErrOTPExpired)
	assert.NoError(t, f.service.VerifyOTP(ctx, resetEmail, "222222"))
}

func TestResetPasswordExpiredKeepsConcurrentlyIssuedCode(t *testing.T) {
	ctx := context.Background()
	f, ledger := newRacingResetFixture(t)
	f.request(t, "111111")
	require.NoError(t, f.service.VerifyOTP(ctx, resetEmail, "111111"))
	f.clock.Advance(11 * time.Minute)

	ledger.reissueOnNextGet(t, resetEmail, "222222", f.clock)
	assert.ErrorIs(t, f.service.ResetPassword(ctx, resetEmail, "NewPass1!"), ErrOTPExpired)
	assert.NoError(t, f.service.VerifyOTP(ctx, resetEmail, "222222"))
}

func TestResetPasswordCommitKeepsConcurrentlyIssuedCode(t *testing.T) {
	ctx := context.Background()
	f, ledger := newRacingResetFixture(t)
	f.request(t, "111111")
	require.NoError(t, f.service.VerifyOTP(ctx, resetEmail, "111111"))

	ledger.reissueOnNextGet(t, resetEmail, "222222", f.clock)
	require.NoError(t, f.service.ResetPassword(ctx, resetEmail, "NewPass1!"))
	assert.True(t, f.hasher.Verify(f.users.passwordHash(f.user.ID), "NewPass1!"))

	record, err := f.ledger.Get(ctx, resetEmail)
	require.NoError(t, err)
	assert.False(t, record.Verified)
	assert.NoError(t, f.service.VerifyOTP(ctx, resetEmail, "222222"))
}
