// Package stores holds the domain logic of the marketplace: session
// handling, the trip/booking pair with its space accounting, and
// package requests. Stores are explicit injected objects constructed
// once at startup; every method returns a typed error the handler
// layer maps to an HTTP status.
package stores

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTripNotActive      = errors.New("trip is not active")
	ErrInvalidStatus      = errors.New("invalid status value")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrNotAllowed         = errors.New("operation not allowed for this user")
	ErrValidation         = errors.New("validation failed")
)
