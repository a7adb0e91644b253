package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	ErrCodeStorage       ErrorCode = "STORAGE_ERROR"
	ErrCodeExport        ErrorCode = "EXPORT_ERROR"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with an AppError
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf returns the code of the outermost AppError in err's chain,
// or ErrCodeInternalError when there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// IsStorage checks if error is a storage failure
func IsStorage(err error) bool {
	return hasCode(err, ErrCodeStorage)
}

// IsExport checks if error is an export log failure
func IsExport(err error) bool {
	return hasCode(err, ErrCodeExport)
}

// IsForbidden checks if error is Forbidden
func IsForbidden(err error) bool {
	return hasCode(err, ErrCodeForbidden)
}

// IsBadRequest checks if error is BadRequest
func IsBadRequest(err error) bool {
	return hasCode(err, ErrCodeBadRequest)
}

func hasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	for err != nil {
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Err
	}
	return false
}
