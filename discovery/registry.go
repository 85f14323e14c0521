package discovery

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/getpup/seeder"
	"golang.org/x/text/unicode/norm"
)

// Factory constructs a fresh seed unit.
type Factory func() seeder.Unit

type registration struct {
	factory Factory
	group   string
}

// Registry maps seed identifiers to compiled units.
//
// Each registration belongs to a group, the name of the seed directory it
// lives in ("all" or an environment). Scan reports registered units of the
// scanned directory even when the source file is not shipped with the binary.
type Registry struct {
	mu    sync.RWMutex
	units map[string]registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		units: make(map[string]registration),
	}
}

// DefaultRegistry is the registry used by the package-level Register functions.
var DefaultRegistry = NewRegistry()

// Register adds a unit to the default registry. The group is the directory
// of the calling source file, so seed files call it from init().
func Register(id string, factory Factory) error {
	return DefaultRegistry.RegisterIn(callerGroup(), id, factory)
}

// MustRegister is like Register but panics on error.
func MustRegister(id string, factory Factory) {
	if err := DefaultRegistry.RegisterIn(callerGroup(), id, factory); err != nil {
		panic(err)
	}
}

// Register adds a unit whose group is the directory of the calling source file.
func (r *Registry) Register(id string, factory Factory) error {
	return r.RegisterIn(callerGroup(), id, factory)
}

// RegisterIn adds a unit to the named group. Identifiers are stored in NFC.
// Returns seeder.ErrDuplicateSeed if the identifier is already registered.
func (r *Registry) RegisterIn(group, id string, factory Factory) error {
	id = norm.NFC.String(id)
	if id == "" {
		return fmt.Errorf("seed identifier cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("seed %s: factory cannot be nil", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.units[id]; exists {
		return fmt.Errorf("%w: %s", seeder.ErrDuplicateSeed, id)
	}
	r.units[id] = registration{factory: factory, group: group}
	return nil
}

// Lookup returns a new unit for id.
func (r *Registry) Lookup(id string) (seeder.Unit, bool) {
	r.mu.RLock()
	reg, ok := r.units[norm.NFC.String(id)]
	r.mu.RUnlock()

	if !ok {
		return nil, false
	}
	return reg.factory(), true
}

// Group returns the identifiers registered in group, sorted ascending.
func (r *Registry) Group(group string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0)
	for id, reg := range r.units {
		if reg.group == group {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func callerGroup() string {
	// 0 is callerGroup, 1 is Register, 2 is the seed file.
	_, file, _, ok := runtime.Caller(2)
	if !ok {
		return ""
	}
	return filepath.Base(filepath.Dir(file))
}
