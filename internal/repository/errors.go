// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the booking engine to distinguish between different
// failure scenarios. For example, ErrForbidden indicates that the
// current account is not authorized to act on a resource owned by
// someone else, while ErrConflict signals that an operation cannot
// proceed due to existing dependent records (e.g. deleting a tour
// that already has attendees).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot be performed
// because of conflicting state, such as deleting a tour that
// already has bookings or favouriting the same tour twice.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrTourNotFound indicates that a tour was not located in the DB.
var ErrTourNotFound = errors.New("tour not found")

// ErrTourInactive indicates that the tour exists but no longer accepts
// reservations.
var ErrTourInactive = errors.New("tour inactive")

// ErrAccountNotFound indicates that an account was not located in the DB.
var ErrAccountNotFound = errors.New("account not found")

// ErrAccountExists is returned when registration collides with an
// existing email or username.
var ErrAccountExists = errors.New("email or username already exists")
