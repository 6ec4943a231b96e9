package models

import (
	"database/sql/driver"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost used by SetPassword.
var PasswordCost = bcrypt.DefaultCost

// User represents a user account
type User struct {
	ID          int        `json:"id" db:"id"`
	Username    string     `json:"username" db:"username"`
	Password    string     `json:"-" db:"password_hash"` // Never expose in JSON
	Class       Class      `json:"class" db:"class"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at" db:"last_login_at"`
	IsActive    bool       `json:"is_active" db:"is_active"`
}

// SignupRequest represents the request to create a new user
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Class    string `json:"class"`
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies a password against the user's hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// Value implements the driver.Valuer interface for database storage
func (u *User) Value() (driver.Value, error) {
	return int64(u.ID), nil
}

// Profile is the signed-in user's view of themselves.
type Profile struct {
	User     *User            `json:"user"`
	Progress LeaderboardEntry `json:"progress"`
	NextXP   int              `json:"next_level_xp"`
}
