package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
//
// ErrNotEligible is deliberately distinct from ErrNotFound: the message
// exists but the recipient has no entry in its state map (typically a user
// created after the broadcast). Both map to 404 at the HTTP boundary, but
// logs keep them apart so historical-leakage regressions stay visible.
var (
	ErrNotFound        = errors.New("not found")
	ErrNotEligible     = errors.New("recipient not eligible")
	ErrConflict        = errors.New("conflict")
	ErrInvalidAudience = errors.New("invalid audience")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrBadRequest      = errors.New("bad request")
)
