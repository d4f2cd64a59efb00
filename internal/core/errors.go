// CanineKind | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenInvalid      = errors.New("token invalid")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrCycleRejected     = errors.New("prerequisite cycle rejected")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// StoreError tags a backing-store failure so handlers can map it to 503
// while keeping the driver error in the chain.
func StoreError(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func UnauthorizedError(message string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: message, Status: 401}
}

func ForbiddenError(message string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: message, Status: 403}
}

func TokenExpiredError() *AppError {
	return &AppError{Code: "TOKEN_EXPIRED", Message: "access token expired", Status: 401}
}

func TokenInvalidError() *AppError {
	return &AppError{Code: "TOKEN_INVALID", Message: "access token invalid", Status: 401}
}
