package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when a user doesn't have permission for an action
	ErrForbidden = errors.New("forbidden")
)

// Per-entity not found errors. Each one matches ErrNotFound with errors.Is.
var (
	ErrUserNotFound         = fmt.Errorf("user not found: %w", ErrNotFound)
	ErrBusinessUnitNotFound = fmt.Errorf("business unit not found: %w", ErrNotFound)
	ErrIndustryNotFound     = fmt.Errorf("industry not found: %w", ErrNotFound)
	ErrClientNotFound       = fmt.Errorf("client not found: %w", ErrNotFound)
	ErrServiceNotFound      = fmt.Errorf("service not found: %w", ErrNotFound)
	ErrOpportunityNotFound  = fmt.Errorf("opportunity not found: %w", ErrNotFound)
	ErrTaskNotFound         = fmt.Errorf("task not found: %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification not found: %w", ErrNotFound)
)

var (
	// ErrInvalidCredentials is returned when login fails
	ErrInvalidCredentials = fmt.Errorf("invalid username or password: %w", ErrUnauthorized)

	// ErrRegistrationDisabled is returned when self registration is turned off
	ErrRegistrationDisabled = fmt.Errorf("registration is disabled: %w", ErrForbidden)

	// ErrNotificationNotOwned is returned when trying to access a notification owned by another user
	ErrNotificationNotOwned = fmt.Errorf("notification does not belong to current user: %w", ErrForbidden)

	// ErrUserContextRequired is returned when user context is not available
	ErrUserContextRequired = fmt.Errorf("user context required: %w", ErrUnauthorized)

	// ErrUserInUse is returned when deleting a user that still owns or is assigned work
	ErrUserInUse = fmt.Errorf("user still owns clients or has assigned work: %w", ErrConflict)

	// ErrCellOccupied is returned when creating from a matrix cell the client already uses
	ErrCellOccupied = fmt.Errorf("client already uses this service: %w", ErrConflict)
)

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// notFoundOr maps gorm.ErrRecordNotFound to sentinel and wraps anything else
func notFoundOr(err, sentinel error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}
