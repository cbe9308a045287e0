package provider

import "errors"

// Sentinel kinds for provider errors.
var (
	ErrUnavailable      = errors.New("analysis provider unavailable")
	ErrInvalidItem      = errors.New("invalid item")
	ErrMalformedPayload = errors.New("malformed provider payload")
)
