package repository

import (
	"context"
	"errors"
	"time"

	"fleetadmin/internal/entity"
	"fleetadmin/internal/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormOTPLedger struct {
	db *gorm.DB
}

func NewGormOTPLedger(db *gorm.DB) OTPLedger {
	return &gormOTPLedger{db: db}
}

func (r *gormOTPLedger) Put(ctx context.Context, email string, code string, issuedAt time.Time, ttl time.Duration) error {
	record := newOTPRecord(email, utils.HashToken(code), issuedAt, ttl)
	record.ID = uuid.New()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"id", "code_hash", "expires_at", "verified", "created_at"}),
		}).
		Create(&record).Error
}

func (r *gormOTPLedger) Get(ctx context.Context, email string) (*entity.PasswordResetOTP, error) {
	var record entity.PasswordResetOTP
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&record).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOTPNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *gormOTPLedger) MarkVerified(ctx context.Context, email string, code string, now time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&entity.PasswordResetOTP{}).
		Where("email = ? AND code_hash = ? AND expires_at >= ?", email, utils.HashToken(code), now).
		Update("verified", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	latest, err := r.Get(ctx, email)
	if err != nil {
		return err
	}
	if latest.IsExpired(now) {
		if err := r.db.WithContext(ctx).
			Where("id = ?", latest.ID).
			Delete(&entity.PasswordResetOTP{}).Error; err != nil {
			return err
		}
		return ErrOTPExpired
	}
	return ErrOTPMismatch
}

func (r *gormOTPLedger) Consume(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).
		Where("email = ?", email).
		Delete(&entity.PasswordResetOTP{}).
		Error
}

func (r *gormOTPLedger) ConsumeIfCurrent(ctx context.Context, email string, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("email = ? AND id = ?", email, id).
		Delete(&entity.PasswordResetOTP{}).
		Error
}

func (r *gormOTPLedger) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&entity.PasswordResetOTP{})
	return res.RowsAffected, res.Error
}
