package udf

import (
	"reflect"
	"sort"
	"sync"

	perr "udfhost/internal/platform/errors"
)

// Function is a registered callable plus its reflected signature
type Function struct {
	sig      Signature
	fn       reflect.Value
	takesCtx bool
}

// Signature returns the SQL-facing signature
func (f *Function) Signature() Signature { return f.sig }

// Registry holds named functions for one hosting server
type Registry struct {
	mu  sync.RWMutex
	fns map[string]*Function
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{fns: make(map[string]*Function)}
}

// Default is the process-wide registry used by package-level Register
var Default = NewRegistry()

// Register adds fn under name and returns its reflected signature
// registering a name twice is a conflict
func (r *Registry) Register(name string, fn any) (Signature, error) {
	sig, takesCtx, err := reflectSignature(name, fn)
	if err != nil {
		return Signature{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.fns[sig.Name]; exists {
		return Signature{}, perr.Conflictf("function %q already registered", sig.Name)
	}
	r.fns[sig.Name] = &Function{sig: sig, fn: reflect.ValueOf(fn), takesCtx: takesCtx}
	return sig, nil
}

// MustRegister is Register that panics on error, for init-time wiring
func (r *Registry) MustRegister(name string, fn any) Signature {
	sig, err := r.Register(name, fn)
	if err != nil {
		panic(err)
	}
	return sig
}

// Lookup returns the function registered under name
func (r *Registry) Lookup(name string) (*Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fns[NormalizeName(name)]
	return f, ok
}

// Info returns all signatures sorted by name
func (r *Registry) Info() []Signature {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Signature, 0, len(r.fns))
	for _, f := range r.fns {
		out = append(out, f.sig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns registered names sorted
func (r *Registry) Names() []string {
	sigs := r.Info()
	out := make([]string, len(sigs))
	for i, s := range sigs {
		out[i] = s.Name
	}
	return out
}

// Reset drops all registrations, for tests and interactive re-runs
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fns = make(map[string]*Function)
}

// Len reports the number of registered functions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fns)
}

// Register adds fn to the Default registry
func Register(name string, fn any) (Signature, error) { return Default.Register(name, fn) }

// MustRegister adds fn to the Default registry and panics on error
func MustRegister(name string, fn any) Signature { return Default.MustRegister(name, fn) }
