// Package hostfn provides the name -> callable registry behind the
// expression language's extern() bridge. Host functions receive the already
// evaluated argument values and return a single value or an error; the
// registry is the only integration point for capabilities outside the
// expression language itself.
package hostfn

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/gridcell/internal/value"
)

// Func is a host-provided callable invoked via extern(name, ...args).
type Func func(args []value.Value) (value.Value, error)

// Registry maps extern names to callables. Registration happens during
// startup, before the engine evaluates anything; lookups are read-only
// afterwards.
type Registry struct {
	fns map[string]Func
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{fns: make(map[string]Func)}
}

// Register adds a callable under the given name. Registering the same name
// twice is a programmer error and panics.
func (r *Registry) Register(name string, fn Func) {
	if _, exists := r.fns[name]; exists {
		panic(fmt.Sprintf("host function %q already registered", name))
	}
	slog.Debug("Registering host function.", "name", name)
	r.fns[name] = fn
}

// Lookup resolves a name to its callable.
func (r *Registry) Lookup(name string) (Func, bool) {
	fn, ok := r.fns[name]
	return fn, ok
}

// Names returns the registered function names, sorted, for diagnostics.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Module is the interface host-function bundles implement to be registered
// at application startup.
type Module interface {
	Register(r *Registry)
}
