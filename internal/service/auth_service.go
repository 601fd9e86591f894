package service

import (
	"context"
	"strings"

	"fleetadmin/internal/entity"
	"fleetadmin/internal/repository"
	"fleetadmin/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const dummyPasswordHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8yQbWc1x9uxw2sQ2sXUNx5x9xJ9F2S"

type AuthService struct {
	users repository.SystemUserRepository
	audit auditTrail

	passwordHash PasswordHasher
	accessTokens AccessTokenIssuer
	clock        Clock
	logger       logrus.FieldLogger
}

func NewAuthService(
	users repository.SystemUserRepository,
	auditLogs repository.AuditLogRepository,
	passwordHash PasswordHasher,
	accessTokens AccessTokenIssuer,
	clock Clock,
	logger logrus.FieldLogger,
) *AuthService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &AuthService{
		users:        users,
		audit:        auditTrail{repo: auditLogs, logger: logger},
		passwordHash: passwordHash,
		accessTokens: accessTokens,
		clock:        clock,
		logger:       logger,
	}
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}

	email := utils.NormalizeEmail(input.Email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, storageFailure(err)
	}
	if user == nil {
		_ = s.passwordHash.Verify(dummyPasswordHash, input.Password)
		s.audit.record(ctx, nil, entity.LoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}

	if !s.passwordHash.Verify(user.PasswordHash, input.Password) {
		s.audit.record(ctx, &user.ID, entity.LoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		s.audit.record(ctx, &user.ID, entity.LoginFailed, map[string]any{"email": email, "status": user.Status})
		return nil, ErrInvalidCredentials
	}

	accessToken, expiresIn, err := s.accessTokens.IssueAccessToken(*user)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("last login not recorded")
	} else {
		user.LastLogin = &now
	}

	s.audit.record(ctx, &user.ID, entity.LoginSucceeded, nil)
	return &LoginResult{
		AccessToken: accessToken,
		ExpiresIn:   int64(expiresIn.Seconds()),
		User:        user,
	}, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*entity.SystemUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storageFailure(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
