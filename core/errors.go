package core

import (
	"errors"
	"fmt"
	"strings"
)

// Load-time errors reported by the registry. They surface before a dispatch
// is constructed and are never part of a CallError.
var (
	ErrModuleNotFound   = errors.New("module not found")
	ErrDuplicateBackend = errors.New("backend name already in use")
	ErrVersionMismatch  = errors.New("module requires a newer core")
)

// ErrorRecord captures one backend failure from a dispatch: which backend
// failed, how, and the goroutine backtrace at the point the failure was
// recorded.
type ErrorRecord struct {
	Backend   *BackendHandle
	Err       error
	Backtrace string
}

func (r ErrorRecord) String() string {
	return fmt.Sprintf("%s: %v", r.Backend, r.Err)
}

// CallError batches every ErrorRecord produced by one dispatch. It is
// returned once all workers have finished, so callers can inspect individual
// backend failures (retry one backend, prompt for a credential) instead of
// treating the whole dispatch as fatal.
type CallError struct {
	records []ErrorRecord
}

// NewCallError builds an aggregate over the given records. The slice is
// copied; the aggregate never changes after construction.
func NewCallError(records []ErrorRecord) *CallError {
	cp := make([]ErrorRecord, len(records))
	copy(cp, records)
	return &CallError{records: cp}
}

func (e *CallError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d backend call(s) failed:", len(e.records))
	for _, r := range e.records {
		fmt.Fprintf(&b, "\n%v(%v): %v", r.Backend, r.Backend.Module().Name, r.Err)
		if r.Backtrace != "" {
			fmt.Fprintf(&b, "\n%s", r.Backtrace)
		}
	}
	return b.String()
}

// Records returns the error records in the order they were collected.
func (e *CallError) Records() []ErrorRecord {
	cp := make([]ErrorRecord, len(e.records))
	copy(cp, e.records)
	return cp
}

// Len reports the number of failed backends.
func (e *CallError) Len() int { return len(e.records) }

// Unwrap exposes the underlying errors to errors.Is and errors.As.
func (e *CallError) Unwrap() []error {
	errs := make([]error, len(e.records))
	for i, r := range e.records {
		errs[i] = r.Err
	}
	return errs
}
