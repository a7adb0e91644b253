package services

import (
	"net/http"

	goa "goa.design/goa/v3/pkg"

	apperrors "chengdumed/pkg/errors"
)

// Surface builds the user-visible fault for a failed operation, for example
// "Error submitting inquiry: failed to save inquiry: ...". The underlying
// message is kept verbatim.
func Surface(action, noun string, err error) *goa.ServiceError {
	return goa.Fault("Error %s %s: %s", action, noun, err.Error())
}

// StatusOf maps an error to the HTTP status returned to the caller.
// Storage and export failures are both server errors.
func StatusOf(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeBadRequest:
		return http.StatusBadRequest
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
