package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditAction string

const (
	PasswordResetRequested      AuditAction = "password_reset.requested"
	PasswordResetDeliveryFailed AuditAction = "password_reset.delivery_failed"
	PasswordResetVerified       AuditAction = "password_reset.verified"
	PasswordResetCompleted      AuditAction = "password_reset.completed"
	LoginSucceeded              AuditAction = "auth.login_succeeded"
	LoginFailed                 AuditAction = "auth.login_failed"
)

const EntitySystemUser = "system_user"

type AuditLog struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	SystemUserID *uuid.UUID  `gorm:"type:uuid;index"`
	SystemUser   *SystemUser `gorm:"constraint:OnDelete:SET NULL"`

	Action     AuditAction `gorm:"type:varchar(255);not null;index"`
	EntityType string      `gorm:"type:varchar(100);not null"`
	EntityID   *uuid.UUID  `gorm:"type:uuid"`

	Details   datatypes.JSON
	IPAddress *string `gorm:"type:varchar(45)"`
	UserAgent *string `gorm:"type:text"`

	CreatedAt time.Time
}

func (AuditLog) TableName() string {
	return "admin_audit_logs"
}
