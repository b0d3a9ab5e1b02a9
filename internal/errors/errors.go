package errors

import (
	"errors"
	"fmt"
)

// ErrCode represents an error code
type ErrCode string

const (
	ErrCodeNotFound            ErrCode = "NOT_FOUND"
	ErrCodeProcessFailed       ErrCode = "PROCESS_FAILED"
	ErrCodeProcessHung         ErrCode = "PROCESS_HUNG"
	ErrCodeServicesUnavailable ErrCode = "SERVICES_UNAVAILABLE"
	ErrCodeUnauthorized        ErrCode = "UNAUTHORIZED"
	ErrCodeInternal            ErrCode = "INTERNAL_ERROR"
)

// AppError represents an application error
type AppError struct {
	Code    ErrCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewProcessFailedError reports a subprocess whose exit code the tool's
// policy does not accept.
func NewProcessFailedError(exitCode int, cmdline string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeProcessFailed,
		Message: fmt.Sprintf("ERROR CODE [%d].  Failed to execute: %s", exitCode, cmdline),
		Err:     err,
	}
}

// NewProcessHungError reports a subprocess that did not finish, or whose
// output streams did not drain, within the timeout.
func NewProcessHungError(cmdline string) *AppError {
	return &AppError{
		Code:    ErrCodeProcessHung,
		Message: fmt.Sprintf("Process hung: %s", cmdline),
	}
}

// NewServicesUnavailableError reports the legacy server refusing service.
func NewServicesUnavailableError(cmdline string) *AppError {
	return &AppError{
		Code:    ErrCodeServicesUnavailable,
		Message: fmt.Sprintf("Team Foundation services are not available from server: %s", cmdline),
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeUnauthorized,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

func hasCode(err error, code ErrCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsProcessFailed checks if the error is a rejected exit code
func IsProcessFailed(err error) bool {
	return hasCode(err, ErrCodeProcessFailed)
}

// IsProcessHung checks if the error is a process timeout
func IsProcessHung(err error) bool {
	return hasCode(err, ErrCodeProcessHung)
}

// IsServicesUnavailable checks if the error is a legacy server outage
func IsServicesUnavailable(err error) bool {
	return hasCode(err, ErrCodeServicesUnavailable)
}

// IsUnauthorized checks if the error is an authentication failure
func IsUnauthorized(err error) bool {
	return hasCode(err, ErrCodeUnauthorized)
}
