package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fleetadmin/internal/entity"
	"fleetadmin/internal/repository"
	"fleetadmin/internal/utils"

	"github.com/sirupsen/logrus"
)

const (
	defaultOTPTTL            = 10 * time.Minute
	defaultMinPasswordLength = 8
)

// PasswordResetService drives the request, verify and reset steps of the
// OTP password reset flow for system users.
type PasswordResetService struct {
	users  repository.SystemUserRepository
	ledger repository.OTPLedger
	audit  auditTrail

	sender NotificationSender
	hasher PasswordHasher
	codes  CodeGenerator
	clock  Clock
	logger logrus.FieldLogger
	config AuthConfig
}

func NewPasswordResetService(
	users repository.SystemUserRepository,
	ledger repository.OTPLedger,
	auditLogs repository.AuditLogRepository,
	sender NotificationSender,
	hasher PasswordHasher,
	codes CodeGenerator,
	clock Clock,
	logger logrus.FieldLogger,
	config AuthConfig,
) *PasswordResetService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if codes == nil {
		codes = RandomCodeGenerator{}
	}
	return &PasswordResetService{
		users:  users,
		ledger: ledger,
		audit:  auditTrail{repo: auditLogs, logger: logger},
		sender: sender,
		hasher: hasher,
		codes:  codes,
		clock:  clock,
		logger: logger,
		config: config,
	}
}

func (s *PasswordResetService) RequestPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrInvalidInput
	}
	email = utils.NormalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return storageFailure(err)
	}
	if user == nil {
		if s.config.ConcealUnknownAccounts {
			s.logger.WithField("email", email).Info("password reset requested for unknown account")
			return nil
		}
		return ErrUnknownAccount
	}

	code, err := s.codes.Generate()
	if err != nil {
		return err
	}
	if err := s.ledger.Put(ctx, email, code, s.now(), s.otpTTL()); err != nil {
		return storageFailure(err)
	}

	s.audit.record(ctx, &user.ID, entity.PasswordResetRequested, nil)
	if err := s.deliver(ctx, user, code); err != nil {
		s.logger.WithError(err).WithField("email", email).Warn("password reset otp not delivered")
		s.audit.record(ctx, &user.ID, entity.PasswordResetDeliveryFailed, map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *PasswordResetService) VerifyOTP(ctx context.Context, email string, code string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(code) == "" {
		return ErrInvalidInput
	}
	email = utils.NormalizeEmail(email)

	record, err := s.ledger.Get(ctx, email)
	if errors.Is(err, repository.ErrOTPNotFound) {
		return ErrNoActiveRequest
	}
	if err != nil {
		return storageFailure(err)
	}

	now := s.now()
	if record.IsExpired(now) {
		return s.discardExpired(ctx, email, record)
	}
	if !record.MatchesHash(utils.HashToken(code)) {
		return ErrOTPMismatch
	}

	if err := s.ledger.MarkVerified(ctx, email, code, now); err != nil {
		return translateLedgerError(err, ErrNoActiveRequest)
	}
	s.audit.record(ctx, nil, entity.PasswordResetVerified, map[string]any{"email": email})
	return nil
}

// ResetPassword commits the new password. The ledger record is consumed only
// after the credential store accepted the new hash, so a failed commit can be
// retried while the record stays verified. Only the record that was read is
// consumed; a code issued concurrently stays usable.
func (s *PasswordResetService) ResetPassword(ctx context.Context, email string, newPassword string) error {
	if strings.TrimSpace(email) == "" {
		return ErrInvalidInput
	}
	email = utils.NormalizeEmail(email)

	record, err := s.ledger.Get(ctx, email)
	if errors.Is(err, repository.ErrOTPNotFound) {
		return ErrNotVerified
	}
	if err != nil {
		return storageFailure(err)
	}
	if !record.Verified {
		return ErrNotVerified
	}

	now := s.now()
	if record.IsExpired(now) {
		return s.discardExpired(ctx, email, record)
	}
	if len([]rune(newPassword)) < s.minPasswordLength() {
		return ErrWeakPassword
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return storageFailure(err)
	}
	if user == nil {
		return ErrUnknownAccount
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash, now); err != nil {
		if errors.Is(err, repository.ErrSystemUserNotFound) {
			return ErrUnknownAccount
		}
		return storageFailure(err)
	}
	if err := s.ledger.ConsumeIfCurrent(ctx, email, record.ID); err != nil {
		return storageFailure(err)
	}

	s.audit.record(ctx, &user.ID, entity.PasswordResetCompleted, nil)
	return nil
}

// discardExpired drops the expired record that was read. A code issued by a
// concurrent request in the meantime survives.
func (s *PasswordResetService) discardExpired(ctx context.Context, email string, record *entity.PasswordResetOTP) error {
	if err := s.ledger.ConsumeIfCurrent(ctx, email, record.ID); err != nil {
		return storageFailure(err)
	}
	return ErrOTPExpired
}

func (s *PasswordResetService) deliver(ctx context.Context, user *entity.SystemUser, code string) error {
	if s.sender == nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, ErrSenderNotReady)
	}
	body, err := renderPasswordResetOTP(passwordResetOTPEmail{
		Name:          strings.TrimSpace(user.FullName()),
		Code:          code,
		ExpiryMinutes: int(s.otpTTL().Minutes()),
		Year:          s.now().Year(),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	if err := s.sender.Send(ctx, user.Email, passwordResetOTPSubject, body); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	return nil
}

func (s *PasswordResetService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

func (s *PasswordResetService) otpTTL() time.Duration {
	if s.config.OTPTTL > 0 {
		return s.config.OTPTTL
	}
	return defaultOTPTTL
}

func (s *PasswordResetService) minPasswordLength() int {
	if s.config.MinPasswordLength > 0 {
		return s.config.MinPasswordLength
	}
	return defaultMinPasswordLength
}

func translateLedgerError(err error, notFound error) error {
	switch {
	case errors.Is(err, repository.ErrOTPNotFound):
		return notFound
	case errors.Is(err, repository.ErrOTPExpired):
		return ErrOTPExpired
	case errors.Is(err, repository.ErrOTPMismatch):
		return ErrOTPMismatch
	}
	return storageFailure(err)
}

func storageFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrStorageFailure, err)
}
