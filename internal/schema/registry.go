package schema

import (
	"sort"

	"github.com/coursemark/coursemark/internal/model"
)

// QueryFunc computes a read-only value for a query component from the owning
// assignment. Implementations must not mutate the assignment.
type QueryFunc func(a *model.Assignment) string

// QueryRegistry is an explicit mapping from query name to handler. Schemas
// are validated against it at load time, so a schema that parsed can always
// resolve every query it names.
type QueryRegistry struct {
	fns map[string]QueryFunc
}

func NewQueryRegistry() *QueryRegistry {
	return &QueryRegistry{fns: make(map[string]QueryFunc)}
}

// Register adds or replaces a handler under the given name.
func (r *QueryRegistry) Register(name string, fn QueryFunc) {
	r.fns[name] = fn
}

// Has reports whether a handler is registered under the given name.
func (r *QueryRegistry) Has(name string) bool {
	_, ok := r.fns[name]
	return ok
}

// Resolve returns the handler registered under the given name.
func (r *QueryRegistry) Resolve(name string) (QueryFunc, bool) {
	fn, ok := r.fns[name]
	return fn, ok
}

// Names returns the registered query names in sorted order.
func (r *QueryRegistry) Names() []string {
	names := make([]string, 0, len(r.fns))
	for n := range r.fns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
