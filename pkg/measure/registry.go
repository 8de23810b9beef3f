package measure

import (
	"sort"
	"sync"
)

// Registry holds compiled-in measures keyed by manifest class name.
type Registry struct {
	mu       sync.RWMutex
	measures map[string]Measure
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		measures: make(map[string]Measure),
	}
}

// Register adds a measure under className.
// If a measure with the same class name exists, it is overwritten.
func (r *Registry) Register(className string, m Measure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.measures[className] = m
}

// Lookup returns the measure registered under className.
func (r *Registry) Lookup(className string) (Measure, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.measures[className]
	return m, ok
}

// ClassNames lists registered class names in sorted order.
func (r *Registry) ClassNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.measures))
	for n := range r.measures {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
