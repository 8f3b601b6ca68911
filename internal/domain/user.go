package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 8
)

// User is an account that owns applications and history entries.
// PasswordHash holds a bcrypt hash, never the plain password.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// ValidateCredentials checks username and password before registration
func ValidateCredentials(username, password string) error {
	if utf8.RuneCountInString(strings.TrimSpace(username)) < MinUsernameLength {
		return NewValidationError("username", "must be at least 3 characters")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return NewValidationError("password", "must be at least 8 characters")
	}
	return nil
}
