package models

import (
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model  `json:"-"`
	ID          uint   `json:"id" gorm:"primaryKey"`
	Email       string `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	Password    string `json:"-"`                        // Store hashed password, ignore for JSON serialization
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Bio         string `json:"bio,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Role        string `json:"role" gorm:"size:10;default:user"` // user or admin
	IsActive    bool   `json:"is_active" gorm:"default:false"`   // Becomes true once the email code is verified
	FirebaseUID string `json:"firebase_uid,omitempty" gorm:"index"` // Empty for local accounts, so it cannot be unique
}

// DisplayName returns the user's full name, falling back to the email local part
func (u *User) DisplayName() string {
	if u.FirstName != "" && u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return strings.SplitN(u.Email, "@", 2)[0]
}

// UserCompact is the short profile shape embedded in feeds and notifications
type UserCompact struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio,omitempty"`
}

// ToCompact converts a User to its compact representation
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName(),
		Bio:         u.Bio,
	}
}

type SignupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,min=2,max=50"`
	LastName  string `json:"last_name" validate:"required,min=2,max=50"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirmRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type UpdateUserRequest struct {
	FirstName   string `json:"first_name,omitempty" validate:"omitempty,min=2,max=50"`
	LastName    string `json:"last_name,omitempty" validate:"omitempty,min=2,max=50"`
	Bio         string `json:"bio,omitempty" validate:"omitempty,max=500"`
	PhoneNumber string `json:"phone_number,omitempty" validate:"omitempty,max=13"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
