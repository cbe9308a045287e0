package app

import "errors"

// Sentinel kinds for service errors. The HTTP layer translates these to
// status codes; domain packages never see them.
var (
	ErrNotFound     = errors.New("user not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
)
