package entity

import (
	"crypto/subtle"
	"time"

	"github.com/google/uuid"
)

// PasswordResetOTP is the single live one-time code issued to an email
// address for the password reset flow. Only the digest of the code is kept.
type PasswordResetOTP struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	CodeHash  string    `gorm:"type:text;not null" json:"code_hash"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	Verified  bool      `gorm:"not null;default:false" json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

func (PasswordResetOTP) TableName() string {
	return "password_reset_otps"
}

// IsExpired reports whether reference lies strictly after ExpiresAt.
func (o PasswordResetOTP) IsExpired(reference time.Time) bool {
	return reference.After(o.ExpiresAt)
}

func (o PasswordResetOTP) MatchesHash(codeHash string) bool {
	return subtle.ConstantTimeCompare([]byte(o.CodeHash), []byte(codeHash)) == 1
}
