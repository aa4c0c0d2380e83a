// Package registry provides a name-to-instance binding used for wiring at the
// composition root. Core components get their dependencies injected through
// constructors; the registry is a convenience layer for debug surfaces and
// startup code, never an implicit lookup inside game logic.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrServiceNotFound = errors.New("service not found")

// Registry maps service names to live instances for the life of the process.
// Re-registering a name overwrites the previous binding; last write wins. The
// shadowing is silent, which keeps test setup simple.
type Registry struct {
	mu       sync.RWMutex
	services map[string]any
}

func New() *Registry {
	return &Registry{services: make(map[string]any)}
}

func (r *Registry) Register(name string, instance any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[name] = instance
}

// Get returns the instance bound to name, or an error wrapping
// ErrServiceNotFound when the name was never registered.
func (r *Registry) Get(name string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	instance, ok := r.services[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrServiceNotFound, name)
	}
	return instance, nil
}

// Names returns the registered service names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
