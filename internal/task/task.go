// Package task runs long operations off the UI update loop and hands their
// results back through channels that the loop polls without blocking.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atomicstack/notemancy/internal/logging"
	"github.com/atomicstack/notemancy/internal/logging/events"
	"github.com/google/uuid"
)

// Kind identifies an operation. At most one handle per kind is outstanding.
type Kind int

const (
	KindScan Kind = iota
	KindIndex
	KindVectorIndex
	KindRelated
)

func (k Kind) String() string {
	switch k {
	case KindScan:
		return "scan"
	case KindIndex:
		return "index"
	case KindVectorIndex:
		return "vector-index"
	case KindRelated:
		return "related"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Status is the outcome of a non-blocking receive.
type Status int

const (
	// Empty means the worker has not sent anything new yet.
	Empty Status = iota
	// Ready means a value was received.
	Ready
	// Disconnected means the worker is gone and nothing more will arrive.
	Disconnected
)

func (s Status) String() string {
	switch s {
	case Empty:
		return "empty"
	case Ready:
		return "ready"
	case Disconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

var (
	// ErrBusy is returned by Spawn when a handle of the same kind is still
	// outstanding.
	ErrBusy = errors.New("task already running")
	// ErrDisconnected describes a worker that exited without a terminal
	// message.
	ErrDisconnected = errors.New("task channel disconnected")
)

// Runner starts fn. The default runner uses a goroutine.
type Runner func(fn func())

// Orchestrator tracks outstanding handles per kind. It is owned by the UI
// update loop and is not safe for concurrent use.
type Orchestrator struct {
	run         Runner
	ctx         context.Context
	cancel      context.CancelFunc
	outstanding map[Kind]string
	wg          sync.WaitGroup
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRunner replaces the goroutine runner, e.g. with an inline runner in
// tests.
func WithRunner(r Runner) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.run = r
		}
	}
}

// Inline runs workers synchronously on the caller's goroutine.
func Inline(fn func()) { fn() }

// NewOrchestrator creates an orchestrator whose workers are cancelled by
// Shutdown.
func NewOrchestrator(opts ...Option) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		run:         func(fn func()) { go fn() },
		ctx:         ctx,
		cancel:      cancel,
		outstanding: make(map[Kind]string),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Busy reports whether a handle of kind is outstanding.
func (o *Orchestrator) Busy(kind Kind) bool {
	_, ok := o.outstanding[kind]
	return ok
}

// Shutdown cancels every worker context. Wait blocks until they return.
func (o *Orchestrator) Shutdown() {
	o.cancel()
}

// Wait blocks until every spawned worker has returned.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) release(kind Kind, id string) {
	if current, ok := o.outstanding[kind]; ok && current == id {
		delete(o.outstanding, kind)
	}
}

// Handle is the receiving end of one background operation.
type Handle[T any] struct {
	kind   Kind
	id     string
	ch     <-chan T
	cancel context.CancelFunc
	owner  *Orchestrator
	closed bool
}

// Spawn starts work and returns its handle without waiting. work receives
// a send function that reports false once the context is cancelled; the
// channel is closed when work returns. buffer sizes the channel so that a
// worker can finish without the loop draining it.
func Spawn[T any](o *Orchestrator, kind Kind, buffer int, work func(ctx context.Context, send func(T) bool)) (*Handle[T], error) {
	if o.Busy(kind) {
		events.Task.Busy(kind.String())
		return nil, fmt.Errorf("%s: %w", kind, ErrBusy)
	}
	if buffer < 1 {
		buffer = 1
	}
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(o.ctx)
	ch := make(chan T, buffer)
	h := &Handle[T]{kind: kind, id: id, ch: ch, cancel: cancel, owner: o}
	o.outstanding[kind] = id
	events.Task.Spawn(kind.String(), id)

	send := func(v T) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		select {
		case <-ctx.Done():
			return false
		case ch <- v:
			return true
		}
	}

	o.wg.Add(1)
	o.run(func() {
		defer o.wg.Done()
		defer close(ch)
		defer func() {
			if r := recover(); r != nil {
				events.Task.Panic(kind.String(), id, fmt.Sprint(r))
				logging.Errorf("%s task %s panicked: %v", kind, id, r)
			}
		}()
		work(ctx, send)
	})
	return h, nil
}

// Kind returns the operation kind.
func (h *Handle[T]) Kind() Kind { return h.kind }

// ID returns the handle's trace identifier.
func (h *Handle[T]) ID() string { return h.id }

// TryRecv polls the channel without blocking.
func (h *Handle[T]) TryRecv() (T, Status) {
	var zero T
	if h == nil || h.closed {
		return zero, Disconnected
	}
	select {
	case v, ok := <-h.ch:
		if !ok {
			h.closed = true
			events.Task.Disconnected(h.kind.String(), h.id)
			return zero, Disconnected
		}
		return v, Ready
	default:
		return zero, Empty
	}
}

// Release frees the kind slot once the loop has consumed the terminal
// message.
func (h *Handle[T]) Release() {
	if h == nil || h.owner == nil {
		return
	}
	events.Task.Done(h.kind.String(), h.id)
	h.owner.release(h.kind, h.id)
	h.owner = nil
	h.cancel()
}

// Cancel stops the worker's context and releases the handle. Anything the
// worker still sends is dropped.
func (h *Handle[T]) Cancel() {
	if h == nil {
		return
	}
	events.Task.Cancel(h.kind.String(), h.id)
	h.cancel()
	if h.owner != nil {
		h.owner.release(h.kind, h.id)
		h.owner = nil
	}
}
