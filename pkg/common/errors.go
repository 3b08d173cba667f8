package common

import "errors"

// Sentinel errors shared by repositories, services and the HTTP layer.
// Wrap them with fmt.Errorf("...: %w", ErrX) and test with errors.Is.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrUpstream        = errors.New("upstream provider failure")
	ErrUpstreamTimeout = errors.New("upstream provider timeout")
	ErrUnavailable     = errors.New("service unavailable")
)
