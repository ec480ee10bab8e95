package providers

import "errors"

// Provider is the base interface for all feed publishers.
type Provider interface {
	// Key returns the unique identifier for the provider (e.g., "tokyo").
	Key() string
	// Name returns the human-readable name of the provider.
	Name() string
	// Region returns the service area the feed covers.
	Region() string
}

// Common errors shared across providers.
var (
	ErrProviderNotFound = errors.New("provider not found")
)
