package core

import (
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
)

// Version is the framework version modules declare compatibility against.
const Version = "v0.3.0"

// Module describes an installable backend module: metadata plus a factory
// producing configured backend instances. Modules register themselves in an
// init function, like database/sql drivers.
type Module struct {
	Name         string
	Description  string
	Version      string
	RequiresCore string
	Capabilities []string
	New          func(params map[string]string) (any, error)
}

// HasCapability reports whether the module implements the named capability.
func (m *Module) HasCapability(name string) bool {
	for _, c := range m.Capabilities {
		if c == name {
			return true
		}
	}
	return false
}

var (
	modulesMu sync.RWMutex
	modules   = make(map[string]*Module)
)

// RegisterModule makes a module available to registries by name. It panics
// if the module is nil, has no factory, or the name is already taken.
func RegisterModule(m *Module) {
	modulesMu.Lock()
	defer modulesMu.Unlock()
	if m == nil || m.New == nil {
		panic("core: RegisterModule with nil module or factory")
	}
	if _, dup := modules[m.Name]; dup {
		panic("core: RegisterModule called twice for module " + m.Name)
	}
	modules[m.Name] = m
}

// LookupModule returns the registered module with the given name.
func LookupModule(name string) (*Module, bool) {
	modulesMu.RLock()
	defer modulesMu.RUnlock()
	m, ok := modules[name]
	return m, ok
}

// Modules returns all registered modules, sorted by name.
func Modules() []*Module {
	modulesMu.RLock()
	defer modulesMu.RUnlock()
	out := make([]*Module, 0, len(modules))
	for _, m := range modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// BackendHandle is one configured backend instance. The registry owns it;
// dispatch workers borrow it by locking it for the duration of a single
// operation call, so concurrent dispatches against the same handle
// serialize.
type BackendHandle struct {
	name     string
	module   *Module
	instance any
	logger   *log.Logger

	mu sync.Mutex
}

func newBackendHandle(name string, module *Module, instance any) *BackendHandle {
	return &BackendHandle{
		name:     name,
		module:   module,
		instance: instance,
		logger:   log.New(os.Stderr, fmt.Sprintf("backend.%s: ", name), log.LstdFlags),
	}
}

// Name returns the configured instance name (unique within a registry).
func (h *BackendHandle) Name() string { return h.name }

// Module returns the module this backend was instantiated from.
func (h *BackendHandle) Module() *Module { return h.module }

// Instance returns the module-created backend value. Callers assert it to
// the capability interface they need.
func (h *BackendHandle) Instance() any { return h.instance }

// Logger returns the handle's prefixed logger.
func (h *BackendHandle) Logger() *log.Logger { return h.logger }

func (h *BackendHandle) String() string { return h.name }

// acquire/release implement the exclusive-ownership protocol used by
// dispatch workers.
func (h *BackendHandle) acquire() { h.mu.Lock() }
func (h *BackendHandle) release() { h.mu.Unlock() }
