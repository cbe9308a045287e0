// Package provider talks to the external environmental-analysis backend.
//
// The impact score itself is an opaque external input to the progression
// engine; this package's job is transport, strict boundary validation of the
// loosely-typed payload, and caching of repeat lookups.
package provider

import (
	"context"

	"github.com/ecolens/ecolens/internal/domain/model"
)

// Provider produces an environmental-impact analysis for an item name.
type Provider interface {
	// Analyze resolves an item name to a validated analysis. It fails with
	// ErrInvalidItem for empty or rejected items, ErrUnavailable when the
	// backend cannot be reached, and ErrMalformedPayload when the backend's
	// response does not survive validation.
	Analyze(ctx context.Context, item string) (model.Analysis, error)
}
