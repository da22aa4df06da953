// Package capability defines the named interfaces backends implement and
// the result records they produce. It also holds the lookup table that
// turns (capability, operation) name pairs into dispatchable operations, so
// string-based dispatch stays at this boundary and never reaches the
// dispatcher itself.
package capability

import (
	"fmt"
	"sort"
	"sync"

	"scour/core"
)

// Record is the embeddable base for result records. Source is filled in by
// the dispatcher with the name of the backend that produced the record.
type Record struct {
	Source string
}

// SetSource implements core.Sourced.
func (r *Record) SetSource(name string) { r.Source = name }

// OpBuilder turns front-end string arguments into a dispatchable operation.
type OpBuilder func(args []string) (core.Operation, error)

var (
	opsMu sync.RWMutex
	ops   = make(map[string]map[string]OpBuilder)
)

// RegisterOp registers an operation builder under a capability and
// operation name. Capability packages call it from init.
func RegisterOp(capability, op string, build OpBuilder) {
	opsMu.Lock()
	defer opsMu.Unlock()
	if build == nil {
		panic("capability: RegisterOp with nil builder")
	}
	byOp := ops[capability]
	if byOp == nil {
		byOp = make(map[string]OpBuilder)
		ops[capability] = byOp
	}
	if _, dup := byOp[op]; dup {
		panic(fmt.Sprintf("capability: RegisterOp called twice for %s.%s", capability, op))
	}
	byOp[op] = build
}

// BuildOp resolves an operation by name and builds it from args.
func BuildOp(capability, op string, args []string) (core.Operation, error) {
	opsMu.RLock()
	byOp, ok := ops[capability]
	var build OpBuilder
	if ok {
		build = byOp[op]
	}
	opsMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown capability %q", capability)
	}
	if build == nil {
		return nil, fmt.Errorf("capability %q has no operation %q", capability, op)
	}
	return build(args)
}

// Ops lists the operation names registered under a capability.
func Ops(capability string) []string {
	opsMu.RLock()
	defer opsMu.RUnlock()
	out := make([]string, 0, len(ops[capability]))
	for name := range ops[capability] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
