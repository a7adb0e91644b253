package services

import (
	"net/http"

	apperrors "chengdumed/pkg/errors"
)

// Authorizer decides whether a request may reach an admin route.
// A nil error allows the request.
type Authorizer interface {
	Authorize(r *http.Request) error
}

// AuthorizerFunc adapts a function to Authorizer
type AuthorizerFunc func(r *http.Request) error

// Authorize calls f(r)
func (f AuthorizerFunc) Authorize(r *http.Request) error {
	return f(r)
}

// AllowAll admits every request. The admin listing ships without
// authentication; deployments plug a real Authorizer in here.
var AllowAll Authorizer = AuthorizerFunc(func(*http.Request) error { return nil })

// Authorize runs the gate and converts a denial into a forbidden error
func Authorize(a Authorizer, r *http.Request) error {
	if a == nil {
		a = AllowAll
	}
	if err := a.Authorize(r); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeForbidden, "access denied", err)
	}
	return nil
}
