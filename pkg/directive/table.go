package directive

import (
	"fmt"
	"sort"
	"sync"
)

// Table maps route names to their PDF directives.
//
// Routes are registered while the router is built. Lookups happen on every
// request and are safe for concurrent use.
type Table struct {
	mu     sync.RWMutex
	routes map[string]Directive
}

// NewTable creates an empty directive table.
func NewTable() *Table {
	return &Table{
		routes: make(map[string]Directive),
	}
}

// Register declares the directive for a route.
// Returns ErrDuplicateRoute if the route already has a directive.
func (t *Table) Register(route string, d Directive) error {
	if route == "" {
		return fmt.Errorf("%w: route name is required", ErrInvalidDirective)
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("route %q: %w", route, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.routes[route]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateRoute, route)
	}
	t.routes[route] = d.Clone()
	return nil
}

// MustRegister is like Register but panics on error.
func (t *Table) MustRegister(route string, d Directive) {
	if err := t.Register(route, d); err != nil {
		panic(err)
	}
}

// Resolve returns the directive declared for route.
// The boolean is false when the route has no directive.
func (t *Table) Resolve(route string) (*Directive, bool, error) {
	t.mu.RLock()
	d, ok := t.routes[route]
	t.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	c := d.Clone()
	return &c, true, nil
}

// Routes returns the registered route names, sorted.
func (t *Table) Routes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.routes))
	for name := range t.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered routes.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}
