// Package derr defines the sentinel errors shared by the domain services
// and their mapping to HTTP status codes.
package derr

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation marks a request that fails input validation.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateIdentity marks a registration that collides with an
	// existing email or license number.
	ErrDuplicateIdentity = errors.New("identity already exists")
	// ErrInvalidCredentials covers both unknown email and password
	// mismatch so that login failures are indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden marks an action on a resource the caller does not own.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound marks a lookup of a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrSlotFull marks a reservation against an exhausted time slot.
	ErrSlotFull = errors.New("time slot is fully booked")
	// ErrInvalidTransition marks a disallowed appointment status change.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// HTTPStatus maps a service error to its HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrDuplicateIdentity):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSlotFull), errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
