// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError is a missing or malformed required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}

func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// AuthError is a missing or invalid credential.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("unauthorized: %s", e.Reason)
}

func NewAuth(reason string) error {
	return &AuthError{Reason: reason}
}

// ForbiddenError is an authenticated principal lacking a required role.
type ForbiddenError struct {
	Role string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: requires role %s", e.Role)
}

func NewForbidden(role string) error {
	return &ForbiddenError{Role: role}
}

// NotFoundError is an explicitly identified resource that is absent or
// inactive. A lookup-style miss (no sequence matches a trigger) is not
// a NotFoundError.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found or inactive", e.Resource, e.ID)
}

func NewNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// StoreError wraps an underlying persistence failure. Not retried here;
// the message passes through to the caller.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func NewStore(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// HTTPStatus maps the taxonomy onto response codes.
func HTTPStatus(err error) int {
	var (
		validation *ValidationError
		auth       *AuthError
		forbidden  *ForbiddenError
		notFound   *NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &auth):
		return http.StatusUnauthorized
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
