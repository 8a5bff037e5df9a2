package models

import "errors"

// Domain error taxonomy. Call sites wrap these with fmt.Errorf("...: %w", ...)
// and the HTTP layer maps them to status codes with errors.Is.
var (
	// ErrNotFound means an entity id did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the acting user lacks the role or ownership
	// required for the operation.
	ErrForbidden = errors.New("not authorized")

	// ErrInvalidTransition means the requested status is not reachable from
	// the order's current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInsufficientStock means crop stock was below the requested quantity
	// at confirmation time.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrAlreadyTaken means another vendor claimed the order first.
	ErrAlreadyTaken = errors.New("order already taken")

	// ErrValidation means the request carried malformed or missing fields.
	ErrValidation = errors.New("validation failed")
)
