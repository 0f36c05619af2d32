package preamble

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/jonwraymond/gokernel/protocol"
)

// entry is one named registration.
type entry struct {
	name     string
	preamble Preamble
}

// Registry holds preambles in registration order. It owns the registered
// instances and releases them on Close.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds p under name. Registering an existing name replaces the
// preamble in place and keeps its position.
func (r *Registry) Register(name string, p Preamble) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if p == nil {
		return fmt.Errorf("%w: %s is nil", ErrInvalid, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].name == name {
			r.entries[i].preamble = p
			return nil
		}
	}
	r.entries = append(r.entries, entry{name: name, preamble: p})
	return nil
}

// Get retrieves a preamble by name.
func (r *Registry) Get(name string) (Preamble, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.name == name {
			return e.preamble, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Names returns preamble names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.name
	}
	return out
}

// Len returns the number of registered preambles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Match returns the name and preamble of the first registration matching
// code.
func (r *Registry) Match(code string) (string, Preamble, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.preamble.Match(code) {
			return e.name, e.preamble, true
		}
	}
	return "", nil, false
}

// Dispatch applies the first matching preamble to code and returns its
// registry name with its reply. It reports false, and does nothing, when no
// preamble matches.
func (r *Registry) Dispatch(ctx context.Context, code string) (string, protocol.Reply, bool) {
	name, p, ok := r.Match(code)
	if !ok {
		return "", protocol.Reply{}, false
	}
	// Applied outside the lock so a preamble may consult the registry.
	return name, p.Apply(ctx, code), true
}

// Close releases every preamble that implements io.Closer, in reverse
// registration order, and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	entries := r.entries
	r.entries = nil
	r.mu.Unlock()

	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		if c, ok := entries[i].preamble.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", entries[i].name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Extend registers ext as sub-command sub of the preamble registered under
// name. It fails with ErrNotFound when name is unknown and ErrNotExtensible
// when that preamble does not accept extensions of type T.
func Extend[T any](r *Registry, name, sub string, ext T) error {
	p, err := r.Get(name)
	if err != nil {
		return err
	}
	x, ok := p.(Extensible[T])
	if !ok {
		return fmt.Errorf("%w: %s (%T)", ErrNotExtensible, name, p)
	}
	return x.Extend(sub, ext)
}
