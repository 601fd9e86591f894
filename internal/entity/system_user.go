package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SystemUserRole string

const (
	RoleSuperAdmin SystemUserRole = "super_admin"
	RoleAdmin      SystemUserRole = "admin"
	RoleSupport    SystemUserRole = "support"
	RoleSales      SystemUserRole = "sales"
	RoleBilling    SystemUserRole = "billing"
)

type SystemUserStatus string

const (
	StatusActive    SystemUserStatus = "active"
	StatusInactive  SystemUserStatus = "inactive"
	StatusSuspended SystemUserStatus = "suspended"
)

// SystemUser is a FleetCo staff account with access to the admin portal.
type SystemUser struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	FirstName    string    `gorm:"type:varchar(100);not null"`
	LastName     string    `gorm:"type:varchar(100);not null"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`

	Role       SystemUserRole   `gorm:"type:varchar(32);default:'support';not null;index"`
	Department *string          `gorm:"type:varchar(100)"`
	Status     SystemUserStatus `gorm:"type:varchar(32);default:'active';not null"`
	Phone      *string          `gorm:"type:varchar(50)"`

	LastLogin *time.Time
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (SystemUser) TableName() string {
	return "admin_system_users"
}

func (u SystemUser) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u SystemUser) IsActive() bool {
	return u.Status == StatusActive
}
