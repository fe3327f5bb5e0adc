package application

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced to the HTTP layer, which translates each outcome
// to a status code. Repository-level absence is converted to ErrNotFound at
// this boundary.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateUser      = errors.New("user already exists with this email or username")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports a field-level constraint violation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func invalidField(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
