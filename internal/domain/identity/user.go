package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/moneta/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// UserStatus represents the status of a user account
type UserStatus string

const (
	UserStatusActive UserStatus = "active"
	UserStatusLocked UserStatus = "locked"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// User represents an application user.
// It is the aggregate root for authentication and token flows.
type User struct {
	shared.BaseAggregateRoot
	Email           string     `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash    string     `gorm:"type:varchar(100);not null"`
	FirstName       string     `gorm:"type:varchar(100)"`
	LastName        string     `gorm:"type:varchar(100)"`
	Status          UserStatus `gorm:"type:varchar(20);not null;default:'active'"`
	EmailVerifiedAt *time.Time
	// TokenVersion is embedded in refresh tokens; bumping it invalidates
	// every outstanding refresh token, e.g. after a password reset.
	TokenVersion int `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NewUser creates a new user with a bcrypt-hashed password
func NewUser(email, password, firstName, lastName string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateUserEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		PasswordHash:      string(hash),
		FirstName:         firstName,
		LastName:          lastName,
		Status:            UserStatusActive,
		TokenVersion:      1,
	}, nil
}

// CheckPassword verifies the given password against the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ChangePassword re-hashes the password and invalidates outstanding refresh tokens
func (u *User) ChangePassword(newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.TokenVersion++
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// MarkEmailVerified records the email verification timestamp.
// Verifying twice is a no-op.
func (u *User) MarkEmailVerified() {
	if u.EmailVerifiedAt != nil {
		return
	}
	now := time.Now()
	u.EmailVerifiedAt = &now
	u.UpdatedAt = now
	u.IncrementVersion()
}

// IsEmailVerified returns true if the user confirmed their email address
func (u *User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// Lock locks the user account
func (u *User) Lock() error {
	if u.Status == UserStatusLocked {
		return shared.NewDomainError("ALREADY_LOCKED", "User is already locked")
	}
	u.Status = UserStatusLocked
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// Unlock unlocks the user account
func (u *User) Unlock() error {
	if u.Status == UserStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "User is already active")
	}
	u.Status = UserStatusActive
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// IsActive returns true if the user may authenticate
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// FullName returns the display name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func validateUserEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

// ValidatePassword enforces the password policy
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		// bcrypt truncates input beyond 72 bytes
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	return nil
}
