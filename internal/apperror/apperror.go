package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrWrongPassword      = errors.New("wrong password")
	ErrProvider           = errors.New("provider error")
)

type AppError struct {
	Err     error  // sentinel identifying the error class
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// DuplicateEmail is the registration-time uniqueness failure. It is a
// validation error on the email field, so handlers map it to 422 like any
// other invalid registration input.
func DuplicateEmail(email string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: fmt.Sprintf("the email %s is already registered", email),
		Field:   "email",
	}
}

// InvalidCredentials covers a password that does not match the stored hash.
// HTTP handlers map this to 401 Unauthorized.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "invalid credentials",
	}
}

// Unauthenticated covers a missing, malformed, or revoked token.
func Unauthenticated() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: "unauthenticated",
	}
}

// WrongPassword is the password-change failure when the supplied current
// password does not match. Mapped to 400, not 401 — the caller is
// authenticated, the old password they typed is simply wrong.
func WrongPassword() *AppError {
	return &AppError{
		Err:     ErrWrongPassword,
		Message: "current password is incorrect",
	}
}

// ProviderError wraps a failure from the OAuth identity provider.
// The underlying cause stays in the server logs; only Message reaches the browser.
func ProviderError(message string) *AppError {
	return &AppError{
		Err:     ErrProvider,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}
