package identity

import (
	"time"

	"github.com/google/uuid"
)

// RegisterInput contains the input for user registration
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// LoginInput contains the input for user login
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult contains the tokens and user info returned after
// registration, login or refresh
type AuthResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
	User                  UserInfo
}

// UserInfo contains basic user information
type UserInfo struct {
	ID            uuid.UUID
	Email         string
	FirstName     string
	LastName      string
	EmailVerified bool
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// ResetPasswordInput contains the input for completing a password reset
type ResetPasswordInput struct {
	Token       string
	NewPassword string
}
