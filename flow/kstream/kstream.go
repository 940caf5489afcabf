// Package kstream implements KStream, the continuation-passing-style
// counterpart to flow/fast's direct-form DStream. Where a DStream answers
// "what is my next Step and State", a KStream answers "given a way to stop,
// a way to yield-one-value-and-continue, and a way to hand off to a
// concurrent SVar, how do you drive me". That sink-based shape is what lets
// merge operators dispatch work onto an svar.SVar without first forcing the
// whole stream into a direct-form Step.
package kstream

import (
	"context"

	"github.com/lguimbarda/svarflow/flow/svar"
)

// SinkKind tags which of a Sink's shapes is populated.
type SinkKind int

const (
	// StopSink: the stream is finished, no more values follow.
	StopSink SinkKind = iota
	// SingleSink: exactly one final value, then the stream stops.
	SingleSink
	// YieldSink: one value now, with a way to continue - either a plain
	// KStream tail, or (for SVar-backed streams) an SVar to keep draining.
	YieldSink
)

// Sink is the tagged continuation a KStream hands to its consumer: one of
// "stop", "exactly one more value then stop", or "one value plus a way to
// keep pulling". A conceptual fourth shape - handing control to an SVar
// context - is represented by Ctx being non-nil alongside a YieldSink
// rather than as its own SinkKind: an SVar-backed KStream still ultimately
// yields values or stops, it just sources them from a scheduler instead of
// a single goroutine's call stack.
type Sink[T any] struct {
	Kind  SinkKind
	Value T
	Err   error
	Tail  KStream[T]
	Ctx   *svar.SVar[T]
}

// Stop builds a StopSink, optionally carrying a terminal error.
func Stop[T any](err error) Sink[T] {
	return Sink[T]{Kind: StopSink, Err: err}
}

// Single builds a SingleSink.
func Single[T any](v T) Sink[T] {
	return Sink[T]{Kind: SingleSink, Value: v}
}

// Yield builds a YieldSink with the given tail.
func Yield[T any](v T, tail KStream[T]) Sink[T] {
	return Sink[T]{Kind: YieldSink, Value: v, Tail: tail}
}

// FromSVar builds a YieldSink whose continuation is driven by an SVar
// rather than a plain KStream - used by the Parallel/Coparallel merge
// operators once at least one branch has been dispatched onto the
// scheduler.
func FromSVar[T any](v T, ctx *svar.SVar[T]) Sink[T] {
	return Sink[T]{Kind: YieldSink, Value: v, Ctx: ctx}
}

// KStream is a continuation-passing stream: calling it with a context
// drives it exactly one step, producing a Sink that describes what
// happened and, for YieldSink, how to continue.
type KStream[T any] func(ctx context.Context) Sink[T]

// Nil is the empty KStream: it stops immediately.
func Nil[T any]() KStream[T] {
	return func(context.Context) Sink[T] { return Stop[T](nil) }
}

// Cons prepends a value to an existing KStream.
func Cons[T any](head T, tail KStream[T]) KStream[T] {
	return func(context.Context) Sink[T] { return Yield(head, tail) }
}

// FromSlice builds a KStream that yields every element of xs in order.
func FromSlice[T any](xs []T) KStream[T] {
	var build func(i int) KStream[T]
	build = func(i int) KStream[T] {
		return func(context.Context) Sink[T] {
			if i >= len(xs) {
				return Stop[T](nil)
			}
			return Yield(xs[i], build(i+1))
		}
	}
	return build(0)
}

// FromSVarDrain builds a KStream that drains an already-dispatched SVar's
// Events channel, translating svar.Event into Sink values. ChildStop events
// are bookkeeping and are skipped transparently; an EventException stops
// the stream (per the exception-then-abort rule, nothing queued behind it
// is surfaced).
func FromSVarDrain[T any](sv *svar.SVar[T]) KStream[T] {
	var pull func() KStream[T]
	pull = func() KStream[T] {
		return func(ctx context.Context) Sink[T] {
			for {
				select {
				case ev, ok := <-sv.Events():
					if !ok {
						return Stop[T](nil)
					}
					switch ev.Kind {
					case svar.EventChildStop:
						continue
					case svar.EventException:
						return Stop[T](ev.Err)
					default:
						return Yield(ev.Value, pull())
					}
				case <-ctx.Done():
					return Stop[T](ctx.Err())
				}
			}
		}
	}
	return pull()
}

// resolve drives one step of k, normalizing an SVar-backed YieldSink into
// one with a plain KStream Tail so the rest of this package only ever has
// to reason about StopSink/SingleSink/YieldSink-with-Tail.
func resolve[T any](ctx context.Context, k KStream[T]) Sink[T] {
	sink := k(ctx)
	if sink.Kind == YieldSink && sink.Tail == nil && sink.Ctx != nil {
		sink.Tail = FromSVarDrain(sink.Ctx)
	}
	return sink
}

// ToSlice drains a KStream fully into a slice. It is meant for small
// streams and tests; production pipelines should prefer bridging to
// flow/core's channel-based Stream instead of materializing everything.
func ToSlice[T any](ctx context.Context, k KStream[T]) ([]T, error) {
	var out []T
	for {
		sink := resolve(ctx, k)
		switch sink.Kind {
		case StopSink:
			return out, sink.Err
		case SingleSink:
			out = append(out, sink.Value)
			return out, nil
		default:
			out = append(out, sink.Value)
			k = sink.Tail
		}
	}
}

// appendThen walks stream to exhaustion and then, on a clean StopSink,
// continues into cont. An error StopSink short-circuits cont entirely,
// matching the exception-then-abort rule used throughout the merge layer.
func appendThen[T any](ctx context.Context, stream KStream[T], cont func(context.Context) Sink[T]) Sink[T] {
	sink := resolve(ctx, stream)
	switch sink.Kind {
	case StopSink:
		if sink.Err != nil {
			return Stop[T](sink.Err)
		}
		return cont(ctx)
	case SingleSink:
		return Yield(sink.Value, func(ctx context.Context) Sink[T] { return cont(ctx) })
	default:
		tail := sink.Tail
		return Yield(sink.Value, func(ctx context.Context) Sink[T] {
			return appendThen(ctx, tail, cont)
		})
	}
}

// Bind sequences two KStreams: every value yielded by k is replaced by the
// full stream f produces for it, concatenated in order (monadic bind /
// flatMap over the stream).
func Bind[IN, OUT any](k KStream[IN], f func(IN) KStream[OUT]) KStream[OUT] {
	var step func(k KStream[IN]) func(context.Context) Sink[OUT]
	stop := func(context.Context) Sink[OUT] { return Stop[OUT](nil) }
	step = func(k KStream[IN]) func(context.Context) Sink[OUT] {
		return func(ctx context.Context) Sink[OUT] {
			sink := resolve(ctx, k)
			switch sink.Kind {
			case StopSink:
				return Stop[OUT](sink.Err)
			case SingleSink:
				return appendThen(ctx, f(sink.Value), stop)
			default:
				return appendThen(ctx, f(sink.Value), step(sink.Tail))
			}
		}
	}
	return step(k)
}

// Map transforms every value a KStream yields.
func Map[IN, OUT any](k KStream[IN], f func(IN) OUT) KStream[OUT] {
	return func(ctx context.Context) Sink[OUT] {
		sink := resolve(ctx, k)
		switch sink.Kind {
		case StopSink:
			return Stop[OUT](sink.Err)
		case SingleSink:
			return Single(f(sink.Value))
		default:
			return Yield(f(sink.Value), Map(sink.Tail, f))
		}
	}
}

// Filter keeps only values satisfying pred.
func Filter[T any](k KStream[T], pred func(T) bool) KStream[T] {
	return func(ctx context.Context) Sink[T] {
		cur := k
		for {
			sink := resolve(ctx, cur)
			switch sink.Kind {
			case StopSink:
				return Stop[T](sink.Err)
			case SingleSink:
				if pred(sink.Value) {
					return sink
				}
				return Stop[T](nil)
			default:
				if pred(sink.Value) {
					return Yield(sink.Value, Filter(sink.Tail, pred))
				}
				cur = sink.Tail
			}
		}
	}
}
