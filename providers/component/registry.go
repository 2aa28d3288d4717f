package component

import (
	"errors"
	"fmt"
)

// ErrDuplicateComponent is returned when two components share an id.
var ErrDuplicateComponent = errors.New("component: duplicate component id")

// Registry is the process-wide mapping from component id to instance. The
// registry owns its components for the lifetime of the simulation; everything
// else holds ids and looks instances up on demand, which keeps the object
// graph cycle-free.
//
// All access happens between scheduler suspension points, so no locking is
// needed.
type Registry struct {
	comps map[string]Component
	order []string
}

// NewRegistry creates an empty component registry.
func NewRegistry() *Registry {
	return &Registry{comps: make(map[string]Component)}
}

// Add registers a component under its id.
func (r *Registry) Add(comp Component) error {
	id := comp.ID()
	if _, exists := r.comps[id]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateComponent, id)
	}
	r.comps[id] = comp
	r.order = append(r.order, id)
	return nil
}

// Get returns the component registered under id.
func (r *Registry) Get(id string) (Component, bool) {
	comp, ok := r.comps[id]
	return comp, ok
}

// IDs returns every registered id in registration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of registered components.
func (r *Registry) Len() int {
	return len(r.comps)
}
