package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/vk/dqgrid/internal/component"
)

// Module is the interface that all component modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the descriptors of one application instance.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]*component.Descriptor
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{descriptors: make(map[string]*component.Descriptor)}
}

// Load registers every module in order.
func Load(modules ...Module) *Registry {
	r := New()
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Register adds a descriptor. Registering a name twice is a programming
// error and panics.
func (r *Registry) Register(d *component.Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.descriptors[d.Name]; exists {
		panic(fmt.Sprintf("component descriptor with name '%s' already registered", d.Name))
	}
	slog.Debug("Registering component descriptor.", "name", d.Name, "kind", d.Kind)
	r.descriptors[d.Name] = d
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*component.Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[name]
	return d, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.descriptors))
	for n := range r.descriptors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns all descriptors sorted by name.
func (r *Registry) Descriptors() []*component.Descriptor {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*component.Descriptor, len(names))
	for i, n := range names {
		out[i] = r.descriptors[n]
	}
	return out
}
