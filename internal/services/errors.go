package services

import (
	"errors"
	"fmt"
)

// Errors returned by the services. Handlers map them onto HTTP statuses
// with errors.Is; everything else is an internal failure.
var (
	ErrValidation         = errors.New("validation error")
	ErrDuplicateUser      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrUserNotFound       = errors.New("user not found")

	ErrPostNotFound = errors.New("post not found")
	ErrZoneLocked   = errors.New("zone is locked at your level")

	ErrQuestNotFound  = errors.New("quest not found")
	ErrQuestCompleted = errors.New("quest already completed")
	ErrQuestExpired   = errors.New("quest has expired")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
