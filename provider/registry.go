package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry maps backend names to factories. Backends register themselves
// from an init function; the application picks one by its configured name.
type Registry[T Provider, C any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]Factory[T, C]
}

// NewRegistry creates an empty registry. kind names the provider family in errors.
func NewRegistry[T Provider, C any](kind string) *Registry[T, C] {
	return &Registry[T, C]{
		kind:      kind,
		factories: make(map[string]Factory[T, C]),
	}
}

// RegisterFactory registers a named factory. Registering a name twice replaces it.
func (r *Registry[T, C]) RegisterFactory(name string, factory Factory[T, C]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create instantiates the named provider.
func (r *Registry[T, C]) Create(ctx context.Context, name string, cfg C) (T, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s provider %q not registered (available: %v)", r.kind, name, r.List())
	}
	p, err := factory(ctx, cfg)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s provider %q: %w", r.kind, name, err)
	}
	return p, nil
}

// Has reports whether a factory is registered under name.
func (r *Registry[T, C]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// List returns sorted names of all registered factories.
func (r *Registry[T, C]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
