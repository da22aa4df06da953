package core

import (
	"context"
	"fmt"
	"iter"
	"reflect"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
)

// Operation is one call to perform against a backend. The dispatch worker
// invokes it while holding the handle's lock. The returned value may be:
//
//   - nil (including a typed nil pointer): nothing is published;
//   - an iter.Seq2[any, error]: a lazy stream, pulled item by item until
//     exhausted, the stream yields an error, or the dispatch is stopped;
//   - a slice or array (except []byte): each element is published;
//   - anything else: published once.
//
// Returning a non-nil error produces exactly one ErrorRecord for the
// backend and publishes nothing.
type Operation func(ctx context.Context, h *BackendHandle) (any, error)

// Sourced is implemented by result records that carry their originating
// backend's name. The dispatcher tags every published value that implements
// it before publication.
type Sourced interface {
	SetSource(name string)
}

// Result is one published value together with the backend that produced it.
type Result struct {
	Backend *BackendHandle
	Value   any
}

// Dispatch runs one operation against a set of backends concurrently, one
// worker goroutine per backend. Results from different backends interleave
// in completion order; results from the same backend keep that backend's
// own order. Errors accumulate per backend and surface as a single
// *CallError once all workers have finished.
//
// Pick one consumption style per dispatch: pull iteration (Next/Result/Err),
// blocking Wait, or Callback. Mixing pull iteration with Wait drains the
// same queue from two sides and leaves result ordering undefined.
type Dispatch struct {
	id    string
	op    Operation
	queue *resultQueue

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	errMu sync.Mutex
	errs  []ErrorRecord

	cur Result
}

// NewDispatch starts one worker per handle immediately and returns without
// blocking. A dispatch is single-use: create a new one to re-run the
// operation.
func NewDispatch(handles []*BackendHandle, op Operation) *Dispatch {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatch{
		id:     uuid.NewString(),
		op:     op,
		queue:  newResultQueue(),
		ctx:    ctx,
		cancel: cancel,
	}
	d.wg.Add(len(handles))
	for _, h := range handles {
		go d.worker(h)
	}
	go func() {
		d.wg.Wait()
		d.queue.close()
	}()
	return d
}

// ID returns the dispatch's unique identifier, used in log lines.
func (d *Dispatch) ID() string { return d.id }

func (d *Dispatch) worker(h *BackendHandle) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			d.recordError(h, fmt.Errorf("panic: %v", r))
		}
	}()

	// Exclusive ownership of the handle for the whole call, released on
	// every exit path including panics.
	h.acquire()
	defer h.release()

	v, err := d.op(d.ctx, h)
	if err != nil {
		d.recordError(h, err)
		return
	}
	d.publishValue(h, v)
}

// publishValue expands the operation's return value into zero or more
// published results, checking the stop flag between items.
func (d *Dispatch) publishValue(h *BackendHandle, v any) {
	switch vv := v.(type) {
	case nil:
		return
	case iter.Seq2[any, error]:
		d.publishSeq(h, vv)
	case func(yield func(any, error) bool):
		d.publishSeq(h, vv)
	default:
		rv := reflect.ValueOf(v)
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) &&
			rv.Type().Elem().Kind() != reflect.Uint8 {
			for i := 0; i < rv.Len(); i++ {
				d.publish(h, rv.Index(i).Interface())
				if d.ctx.Err() != nil {
					return
				}
			}
			return
		}
		d.publish(h, v)
	}
}

// publishSeq drains a lazy stream. The stop flag is checked once per item,
// so at most one in-flight item can surface after a stop request. An error
// yielded mid-stream ends this backend's stream only.
func (d *Dispatch) publishSeq(h *BackendHandle, seq iter.Seq2[any, error]) {
	for item, err := range seq {
		if err != nil {
			d.recordError(h, err)
			return
		}
		d.publish(h, item)
		if d.ctx.Err() != nil {
			return
		}
	}
}

func (d *Dispatch) publish(h *BackendHandle, v any) {
	if isNilValue(v) {
		return
	}
	if s, ok := v.(Sourced); ok {
		s.SetSource(h.Name())
	}
	d.queue.push(Result{Backend: h, Value: v})
}

func (d *Dispatch) recordError(h *BackendHandle, err error) {
	h.Logger().Printf("dispatch %s: call failed: %v", d.id, err)
	rec := ErrorRecord{Backend: h, Err: err, Backtrace: string(debug.Stack())}
	d.errMu.Lock()
	d.errs = append(d.errs, rec)
	d.errMu.Unlock()
}

// Next advances the pull iteration. It returns false once every worker has
// finished and the queue is drained, or as soon as Stop has been called,
// even if unconsumed results remain queued. After Next returns false, check
// Err for the aggregate.
func (d *Dispatch) Next() bool {
	r, ok := d.queue.pop(d.ctx)
	if !ok {
		return false
	}
	d.cur = r
	return true
}

// Result returns the result fetched by the last successful call to Next.
func (d *Dispatch) Result() Result { return d.cur }

// Err returns the *CallError aggregating every backend failure collected so
// far, or nil if there were none. The aggregate is complete once pull
// iteration has ended normally or Wait has returned.
func (d *Dispatch) Err() error {
	d.errMu.Lock()
	defer d.errMu.Unlock()
	if len(d.errs) == 0 {
		return nil
	}
	return NewCallError(d.errs)
}

// Wait blocks until every worker has finished, without consuming the result
// queue, then returns the aggregate error if any backend failed. Callers
// either consume results concurrently or do not care about them.
func (d *Dispatch) Wait() error {
	d.wg.Wait()
	return d.Err()
}

// Stop asks the dispatch to halt cooperatively. Workers stop publishing at
// their next item boundary; a worker blocked inside a single backend call
// finishes that call first. At most one more in-flight item per active
// backend may still surface. To block until the drain completes, follow
// Stop with Wait.
func (d *Dispatch) Stop() {
	d.cancel()
}

// Callback consumes the dispatch on a supervisory goroutine. onResult is
// invoked for each result until the queue is exhausted or Stop is called;
// then onError is invoked once per ErrorRecord in accumulation order, and
// finally onDone exactly once. Unlike pull iteration and Wait, this style
// never surfaces the aggregate: errors reach the caller only through
// onError. Any callback may be nil.
func (d *Dispatch) Callback(onResult func(Result), onError func(ErrorRecord), onDone func()) {
	go func() {
		for {
			r, ok := d.queue.pop(d.ctx)
			if !ok {
				break
			}
			if onResult != nil {
				onResult(r)
			}
		}
		d.wg.Wait()
		if onError != nil {
			d.errMu.Lock()
			recs := make([]ErrorRecord, len(d.errs))
			copy(recs, d.errs)
			d.errMu.Unlock()
			for _, rec := range recs {
				onError(rec)
			}
		}
		if onDone != nil {
			onDone()
		}
	}()
}

// isNilValue reports whether v is nil, including typed nil pointers and
// similar kinds wrapped in a non-nil interface.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// resultQueue is an unbounded FIFO shared by workers and one consumer.
// Publication never blocks, so a Wait-only caller cannot deadlock a
// producing worker.
type resultQueue struct {
	mu     sync.Mutex
	items  []Result
	closed bool
	notify chan struct{}
}

func newResultQueue() *resultQueue {
	return &resultQueue{notify: make(chan struct{}, 1)}
}

func (q *resultQueue) push(r Result) {
	q.mu.Lock()
	q.items = append(q.items, r)
	q.mu.Unlock()
	q.wake()
}

func (q *resultQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wake()
}

func (q *resultQueue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// pop blocks until an item is available, the queue is closed and drained,
// or ctx is cancelled. Cancellation wins over queued items, so a stopped
// consumer quits early even with results still buffered.
func (q *resultQueue) pop(ctx context.Context) (Result, bool) {
	for {
		if ctx.Err() != nil {
			return Result{}, false
		}
		q.mu.Lock()
		if len(q.items) > 0 {
			r := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return r, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return Result{}, false
		}
		select {
		case <-q.notify:
		case <-ctx.Done():
			return Result{}, false
		}
	}
}
