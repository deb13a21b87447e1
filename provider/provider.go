package provider

import "context"

// Provider is the base interface every swappable backend implements.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
}

// Factory creates a provider instance from its typed configuration.
type Factory[T Provider, C any] func(ctx context.Context, cfg C) (T, error)
