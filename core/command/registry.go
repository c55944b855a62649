package command

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Registration binds a command type to its single handler and execution
// policy. Registrations are created during startup assembly and read-only
// afterwards.
type Registration struct {
	Handler Handler
	Config  Config
}

// Registry maps command names to their single registration. It is mutable
// during startup assembly and immutable after Freeze; frozen lookups take
// no locks, so Resolve scales to unbounded concurrent callers.
type Registry struct {
	mu       sync.RWMutex
	frozen   atomic.Bool
	handlers map[string]Registration
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Registration)}
}

// Register binds a handler with its execution policy. Fails with
// ErrDuplicateHandler if the command type is already bound, and with
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

// MustRegister is Register that panics on error. Intended for startup
// assembly where a duplicate registration is a configuration defect.
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

// Resolve returns the registration for the command name.
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
