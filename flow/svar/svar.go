// Package svar implements the Stream Variable: the scheduler that underlies
// svarflow's concurrent merge operators (coparallel, parallel). An SVar is a
// bounded mailbox of output events fed by one or more dispatched producers,
// with a worker pool that controls how many producers run concurrently and
// in what order newly-arriving producers are picked up.
//
// The four Style values name a tag axis (Serial: producers run one at a
// time, their outputs concatenated; Parallel: producers run concurrently,
// their outputs fairly or greedily interleaved) crossed with a scheduling
// axis (LIFO: newest-parked producer runs next, biasing toward depth-first
// drain of the most recently spawned branch; FIFO: producers run in arrival
// order, biasing toward breadth-first fairness).
package svar

import (
	"context"
	"sync"
	"sync/atomic"
)

// Style selects an SVar's tag axis (Serial/Parallel) and scheduling axis
// (LIFO/FIFO).
type Style int

const (
	SerialLIFO Style = iota
	SerialFIFO
	ParallelLIFO
	ParallelFIFO
)

func (s Style) String() string {
	switch s {
	case SerialLIFO:
		return "Serial_LIFO"
	case SerialFIFO:
		return "Serial_FIFO"
	case ParallelLIFO:
		return "Parallel_LIFO"
	case ParallelFIFO:
		return "Parallel_FIFO"
	default:
		return "Style(?)"
	}
}

func (s Style) isSerial() bool {
	return s == SerialLIFO || s == SerialFIFO
}

func (s Style) isLIFO() bool {
	return s == SerialLIFO || s == ParallelLIFO
}

// EventKind distinguishes the three event shapes an SVar's output queue
// carries.
type EventKind int

const (
	// EventValue carries one produced item.
	EventValue EventKind = iota
	// EventException carries an error raised by a producer. Per the
	// exception-then-abort rule, the consumer drains the output queue up to
	// and including the exception event, then treats the SVar as done -
	// any values queued behind it from other producers are discarded.
	EventException
	// EventChildStop is bookkeeping: a producer finished without error. It
	// never represents a value and is never surfaced by Next; it only
	// drives the active-producer count so the consumer can tell real
	// completion (no producers left, queue empty) from a lull.
	EventChildStop
)

// Event is one entry in an SVar's output queue.
type Event[T any] struct {
	Kind    EventKind
	Value   T
	Err     error
	ChildID uint64
}

// Producer is a unit of work dispatched onto an SVar. It streams zero or
// more values by calling emit, in order, stopping (without error) by simply
// returning nil. emit returns false once the SVar has moved past Open -
// a well-behaved producer must stop promptly when it does. A non-nil
// return is surfaced as EventException.
type Producer[T any] func(ctx context.Context, emit func(T) bool) error

type runState int32

const (
	stateOpen runState = iota
	stateDraining
	stateClosed
)

var accountSeq atomic.Uint64

// SVar is the bounded, scheduled mailbox described above. The zero value is
// not usable; construct with New.
type SVar[T any] struct {
	style       Style
	accountID   uint64
	workerLimit int

	// mu guards state, workQ, nextChild and live. Every Dispatch/run
	// completion "rings the doorbell" by calling pump directly rather than
	// signaling a dedicated waiting goroutine via sync.Cond - with
	// goroutines this cheap, a scheduler that only ever wakes on a real
	// state change is simpler than one that parks an idle waiter.
	mu        sync.Mutex
	state     runState
	workQ     []Producer[T] // pending producers, ordered per style's sched axis
	active    int32         // accessed via sync/atomic
	nextChild uint64
	live      uint64 // producers dispatched but not yet ChildStop/exception-terminal

	out       chan Event[T]
	closeOnce sync.Once
	metrics   Telemetry
}

// Telemetry receives SVar scheduling events for observability (see
// flow/svar/otel.go for an OpenTelemetry-backed implementation). All methods
// must be safe to call concurrently and must not block.
type Telemetry interface {
	WorkerStarted(accountID uint64)
	WorkerFinished(accountID uint64)
	QueueDepth(accountID uint64, depth int)
}

type noopTelemetry struct{}

func (noopTelemetry) WorkerStarted(uint64)     {}
func (noopTelemetry) WorkerFinished(uint64)    {}
func (noopTelemetry) QueueDepth(uint64, int) {}

// Option configures an SVar at construction.
type Option func(*config)

type config struct {
	outputBound int
	workerLimit int
	telemetry   Telemetry
}

// WithOutputBound sets the output queue's capacity. Producers block (in the
// Go-idiomatic sense - the dispatching goroutine parks on a channel send)
// once the queue is full, rather than growing it unboundedly.
func WithOutputBound(n int) Option {
	return func(c *config) { c.outputBound = n }
}

// WithWorkerLimit caps how many producers the SVar runs concurrently. For
// Serial styles this is pinned to 1 regardless of what is passed. For
// Parallel styles, 0 or negative means "unbounded" (every dispatched
// producer starts immediately).
func WithWorkerLimit(n int) Option {
	return func(c *config) { c.workerLimit = n }
}

// WithTelemetry attaches a Telemetry sink. If not supplied, telemetry calls
// are no-ops.
func WithTelemetry(t Telemetry) Option {
	return func(c *config) { c.telemetry = t }
}

// New constructs an SVar with the given style and options.
func New[T any](style Style, opts ...Option) *SVar[T] {
	cfg := config{outputBound: 64, workerLimit: 0, telemetry: noopTelemetry{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if style.isSerial() {
		cfg.workerLimit = 1
	}

	sv := &SVar[T]{
		style:       style,
		accountID:   accountSeq.Add(1),
		workerLimit: cfg.workerLimit,
		out:         make(chan Event[T], cfg.outputBound),
		metrics:     cfg.telemetry,
	}
	return sv
}

// AccountID is an opaque identifier for this SVar, stable for its lifetime,
// suitable for tagging telemetry and log lines. It carries no semantic
// meaning beyond "same SVar" / "different SVar".
func (sv *SVar[T]) AccountID() uint64 { return sv.accountID }

// Style reports the SVar's merge discipline.
func (sv *SVar[T]) Style() Style { return sv.style }

// Dispatch enqueues a producer for scheduling. If a worker slot is free
// (spawn-race permitting), the producer starts immediately on its own
// goroutine; otherwise it is parked in the work queue until a slot frees
// up, per the style's scheduling axis.
//
// Dispatch is safe to call concurrently, including from within a running
// producer (a producer may dispatch children onto the same SVar).
func (sv *SVar[T]) Dispatch(ctx context.Context, p Producer[T]) {
	sv.mu.Lock()
	if sv.state != stateOpen {
		sv.mu.Unlock()
		return
	}
	sv.live++
	sv.workQ = append(sv.workQ, p)
	sv.mu.Unlock()

	sv.pump(ctx)
}

// pump tries to spawn workers for queued producers until the worker limit
// is reached or the queue empties. The activeWorkers increment is a CAS-style
// reservation taken under the lock so two concurrent pump calls can never
// both dispatch past workerLimit (the spawn race named in the scheduling
// contract).
func (sv *SVar[T]) pump(ctx context.Context) {
	for {
		sv.mu.Lock()
		if sv.state != stateOpen || len(sv.workQ) == 0 {
			sv.mu.Unlock()
			return
		}
		limit := sv.workerLimit
		if limit > 0 && int(atomic.LoadInt32(&sv.active)) >= limit {
			sv.mu.Unlock()
			return
		}

		var p Producer[T]
		if sv.style.isLIFO() {
			last := len(sv.workQ) - 1
			p = sv.workQ[last]
			sv.workQ = sv.workQ[:last]
		} else {
			p = sv.workQ[0]
			sv.workQ = sv.workQ[1:]
		}
		atomic.AddInt32(&sv.active, 1)
		childID := sv.nextChild
		sv.nextChild++
		sv.mu.Unlock()

		sv.metrics.WorkerStarted(sv.accountID)
		go sv.run(ctx, p, childID)
	}
}

func (sv *SVar[T]) run(ctx context.Context, p Producer[T], childID uint64) {
	defer func() {
		atomic.AddInt32(&sv.active, -1)
		sv.metrics.WorkerFinished(sv.accountID)
		sv.pump(ctx)
		sv.checkDone()
	}()

	emit := func(v T) bool {
		return sv.push(ctx, Event[T]{Kind: EventValue, Value: v, ChildID: childID})
	}

	if err := p(ctx, emit); err != nil {
		sv.push(ctx, Event[T]{Kind: EventException, Err: err, ChildID: childID})
		sv.abort()
		sv.mu.Lock()
		sv.live--
		sv.mu.Unlock()
		return
	}
	sv.push(ctx, Event[T]{Kind: EventChildStop, ChildID: childID})

	sv.mu.Lock()
	sv.live--
	sv.mu.Unlock()
}

// push enqueues ev onto the bounded output channel. It blocks (parking this
// goroutine, the Go-idiomatic analogue of parking a continuation) until
// there is room, the context is cancelled, or the SVar has moved past Open.
// Returns false if the caller should stop producing.
//
// The reference scheduler parks a producer's remaining continuation into
// workQueue and lets its goroutine exit on a full queue, so a follow-up
// dispatch from the consumer resumes it later on a fresh worker. Go's
// Producer is a plain closure, not a resumable continuation, and its
// goroutines are cheap (unlike the OS threads that design is written
// against), so this SVar instead leaves the producer's own goroutine
// blocked here - no thread is being held hostage, just a goroutine, and
// the bounded channel still caps how much gets buffered. What the
// scheduler does NOT reproduce on its own is the resulting elasticity
// (idle capacity pulling in more concurrency); combinators that need that
// implement it themselves by watching Events() drain to empty and
// dispatching a deferred branch at that point - see
// flow/combine.Coparallel, and DESIGN.md's entry on this tradeoff.
func (sv *SVar[T]) push(ctx context.Context, ev Event[T]) bool {
	sv.mu.Lock()
	open := sv.state == stateOpen
	sv.mu.Unlock()
	if !open {
		return false
	}

	select {
	case sv.out <- ev:
		sv.metrics.QueueDepth(sv.accountID, len(sv.out))
		return true
	case <-ctx.Done():
		return false
	}
}

func (sv *SVar[T]) abort() {
	sv.mu.Lock()
	if sv.state == stateOpen {
		sv.state = stateDraining
	}
	sv.mu.Unlock()
}

// checkDone transitions Open to Draining once every dispatched producer has
// terminated and nothing is queued, then attempts the actual channel close.
func (sv *SVar[T]) checkDone() {
	sv.mu.Lock()
	if sv.live == 0 && len(sv.workQ) == 0 && sv.state == stateOpen {
		sv.state = stateDraining
	}
	sv.mu.Unlock()
	sv.tryClose()
}

// tryClose closes the output channel exactly once, and only once it is safe
// to do so: the SVar must be past Open, with no producer queued or running.
// Gating on activeWorkers==0 rather than closing eagerly from Close is what
// prevents a send-on-closed-channel race against an in-flight push - a
// producer's own goroutine still counts itself active for the duration of
// any push it is making.
func (sv *SVar[T]) tryClose() {
	sv.mu.Lock()
	ready := sv.state != stateOpen && len(sv.workQ) == 0 && atomic.LoadInt32(&sv.active) == 0
	sv.mu.Unlock()
	if ready {
		sv.closeOnce.Do(func() { close(sv.out) })
	}
}

// Poke retries dispatching queued producers without waiting for a Dispatch
// call or a producer's own completion to trigger it. Call this after
// observing Events() drain to empty while producers are still running: that
// is the consumer-driven half of the scheduling contract ("if queue empty
// ... dispatch one more from workQueue"), and no generic Events() reader can
// trigger it on its own since pump otherwise only runs from Dispatch and
// from a producer's own exit. A demand-driven combinator (flow/combine.
// Coparallel) uses this to bring a deferred branch online exactly when the
// consumer has shown it can keep up, rather than starting it eagerly.
func (sv *SVar[T]) Poke(ctx context.Context) { sv.pump(ctx) }

// Events returns the SVar's output channel. The channel is closed once
// every dispatched producer has terminated (ChildStop or exception) and no
// further producers are queued or running. Per the exception-then-abort
// rule, a consumer that reads an EventException should stop reading further
// - any values still queued from sibling producers are stale and may be
// silently discarded once the SVar closes.
func (sv *SVar[T]) Events() <-chan Event[T] { return sv.out }

// Close marks the end of outside dispatching. If no producer is queued or
// running, it closes the output channel at once and later Dispatch calls are
// ignored. Otherwise every producer already dispatched still runs to
// completion and emits all its values, and the output channel closes when
// the last of them terminates (see checkDone). It does not cancel producers
// still in flight; callers that need that should cancel the context passed
// to Dispatch instead.
func (sv *SVar[T]) Close() {
	sv.mu.Lock()
	if sv.live == 0 && len(sv.workQ) == 0 {
		sv.state = stateClosed
	}
	sv.mu.Unlock()
	sv.tryClose()
}
