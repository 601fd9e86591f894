package repository

import (
	"context"
	"errors"
	"time"

	"fleetadmin/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrSystemUserNotFound = errors.New("system user not found")

// SystemUserRepository is the credential store for portal staff. Email
// lookups compare lower-cased addresses; soft-deleted rows are invisible.
type SystemUserRepository interface {
	Create(ctx context.Context, user *entity.SystemUser) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.SystemUser, error)
	FindByEmail(ctx context.Context, email string) (*entity.SystemUser, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string, updatedAt time.Time) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type systemUserRepository struct {
	db *gorm.DB
}

func NewSystemUserRepository(db *gorm.DB) SystemUserRepository {
	return &systemUserRepository{db: db}
}

func (r *systemUserRepository) Create(ctx context.Context, user *entity.SystemUser) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *systemUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.SystemUser, error) {
	var user entity.SystemUser
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *systemUserRepository) FindByEmail(ctx context.Context, email string) (*entity.SystemUser, error) {
	var user entity.SystemUser
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", email).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *systemUserRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string, updatedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&entity.SystemUser{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password_hash": hash,
			"updated_at":    updatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSystemUserNotFound
	}
	return nil
}

func (r *systemUserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.SystemUser{}).
		Where("id = ?", id).
		Update("last_login", at).
		Error
}
