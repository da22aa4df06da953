package core

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/mod/semver"

	"scour/config"
)

// Registry owns the live backend handles of one application. It
// instantiates backends from persisted configuration and hands out handle
// sets filtered by capability or explicit names, ready to be passed to
// NewDispatch.
type Registry struct {
	mu      sync.RWMutex
	handles []*BackendHandle
	byName  map[string]*BackendHandle
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*BackendHandle)}
}

// AddBackend instantiates one backend from the named module. Module lookup,
// version compatibility and configuration failures are load-time errors,
// distinct from the call-time errors a dispatch aggregates.
func (r *Registry) AddBackend(name, moduleName string, params map[string]string) (*BackendHandle, error) {
	m, ok := LookupModule(moduleName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, moduleName)
	}
	if err := checkCoreVersion(m); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byName[name]; dup {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateBackend, name)
	}

	instance, err := m.New(params)
	if err != nil {
		return nil, fmt.Errorf("configuring backend %q (module %s): %w", name, m.Name, err)
	}

	h := newBackendHandle(name, m, instance)
	r.handles = append(r.handles, h)
	r.byName[name] = h
	return h, nil
}

// LoadBackends instantiates every backend in cfg. The first failing entry
// aborts the load.
func (r *Registry) LoadBackends(cfg *config.Config) error {
	for _, b := range cfg.Backends {
		if _, err := r.AddBackend(b.Name, b.Module, b.Params); err != nil {
			return err
		}
	}
	return nil
}

// Backend returns the handle with the given instance name.
func (r *Registry) Backend(name string) (*BackendHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byName[name]
	return h, ok
}

// Backends returns the handles implementing the given capability, in
// configuration order. An empty capability matches every backend. If names
// are given, only those instances are returned.
func (r *Registry) Backends(capability string, names ...string) []*BackendHandle {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*BackendHandle
	for _, h := range r.handles {
		if capability != "" && !h.Module().HasCapability(capability) {
			continue
		}
		if len(wanted) > 0 && !wanted[h.Name()] {
			continue
		}
		out = append(out, h)
	}
	return out
}

// Dispatch runs op across every backend matching the capability and name
// filters. It is the usual entry point for front-ends.
func (r *Registry) Dispatch(op Operation, capability string, names ...string) *Dispatch {
	return NewDispatch(r.Backends(capability, names...), op)
}

func checkCoreVersion(m *Module) error {
	if m.RequiresCore == "" {
		return nil
	}
	req := m.RequiresCore
	if !strings.HasPrefix(req, "v") {
		req = "v" + req
	}
	if !semver.IsValid(req) {
		return fmt.Errorf("module %s: invalid required core version %q", m.Name, m.RequiresCore)
	}
	if semver.Compare(req, Version) > 0 {
		return fmt.Errorf("%w: module %s requires core %s, have %s",
			ErrVersionMismatch, m.Name, req, Version)
	}
	return nil
}
