package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bishowshrestha9/code-fyp/internal/apperror"
)

// ErrorResponse is the standard error shape returned by every API endpoint,
// regardless of status code.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable class, e.g. "validation_error"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // offending input field, when known
}

// writeJSON sends a JSON response with the given status code.
// Headers must be set before WriteHeader; WriteHeader before the body.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already gone; logging is all that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error onto HTTP and sends it.
//
// The service layer speaks apperror sentinels; this is the single place
// they become status codes:
//
//	ErrNotFound           → 404  (unknown email on login, missing user)
//	ErrInvalidCredentials → 401  (password mismatch)
//	ErrUnauthenticated    → 401  (missing/invalid/revoked token)
//	ErrValidation         → 422  (bad registration/profile input, duplicate email)
//	ErrWrongPassword      → 400  (password change with wrong current password)
//	ErrForbidden          → 403
//	ErrConflict           → 409
//	everything else       → 500 with a generic body — raw internals never
//	                        reach the client
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusUnprocessableEntity
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrInvalidCredentials):
			status = http.StatusUnauthorized
			errorType = "invalid_credentials"
		case errors.Is(err, apperror.ErrUnauthenticated):
			status = http.StatusUnauthorized
			errorType = "unauthenticated"
		case errors.Is(err, apperror.ErrWrongPassword):
			status = http.StatusBadRequest
			errorType = "wrong_password"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrProvider):
			status = http.StatusInternalServerError
			errorType = "provider_error"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Field:   appErr.Field,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
