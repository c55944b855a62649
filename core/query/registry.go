package query

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Registration binds a query type to its single handler and caching
// policy. Registrations are created during startup assembly and read-only
// afterwards.
type Registration struct {
	Handler Handler
	Config  Config
}

// Registry maps query names to their single registration. Mutable during
// startup assembly, immutable after Freeze; frozen lookups take no locks.
type Registry struct {
	mu       sync.RWMutex
	frozen   atomic.Bool
	handlers map[string]Registration
}

// NewRegistry creates an empty query registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Registration)}
}

// Register binds a handler with its caching policy. Fails with
// ErrDuplicateHandler if the query type is already bound, and with
// ErrRegistryFrozen after startup assembly completed.
func (r *Registry) Register(handler Handler, opts ...ConfigOption) error {
	if r.frozen.Load() {
		return fmt.Errorf("%w: %s", ErrRegistryFrozen, handler.Name())
	}

	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := handler.Name()
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, name)
	}

	r.handlers[name] = Registration{Handler: handler, Config: cfg}
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(handler Handler, opts ...ConfigOption) {
	if err := r.Register(handler, opts...); err != nil {
		panic(err)
	}
}

// Freeze completes startup assembly. Further Register calls fail and
// Resolve switches to lock-free reads.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen.Store(true)
	r.mu.Unlock()
}

// Resolve returns the registration for the query name.
// Fails with ErrHandlerNotFound when the type was never bound.
func (r *Registry) Resolve(name string) (Registration, error) {
	if !r.frozen.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}

	reg, ok := r.handlers[name]
	if !ok {
		return Registration{}, fmt.Errorf("%w: %s", ErrHandlerNotFound, name)
	}
	return reg, nil
}

// evictors returns the registrations declaring cmdName as an evicting
// command, keyed by query name.
func (r *Registry) evictors(cmdName string) map[string]Registration {
	if !r.frozen.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}

	var matches map[string]Registration
	for name, reg := range r.handlers {
		for _, rule := range reg.Config.EvictOn {
			if rule.Command == cmdName {
				if matches == nil {
					matches = make(map[string]Registration)
				}
				matches[name] = reg
				break
			}
		}
	}
	return matches
}
