package models

import "time"

// Email verification code purposes
const (
	PurposeRegister      = "register"
	PurposeResetPassword = "reset_password"
)

// EmailVerificationCode is a short-lived 6-digit code mailed to a user
type EmailVerificationCode struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index"`
	Code      string    `json:"-" gorm:"size:6"`
	Purpose   string    `json:"purpose" gorm:"size:20"`
	IsUsed    bool      `json:"is_used" gorm:"default:false"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired reports whether the code is past its expiry time
func (c *EmailVerificationCode) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}
