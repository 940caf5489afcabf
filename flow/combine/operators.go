package combine

import (
	"context"
	"sync"

	"github.com/lguimbarda/svarflow/flow/core"
	"github.com/lguimbarda/svarflow/flow/kstream"
	"github.com/lguimbarda/svarflow/flow/svar"
)

// streamToKStream lifts a core.Stream into a kstream.KStream by draining its
// channel lazily. Each pull reads exactly one Result off the underlying
// channel, translating an error Result into a terminal error and a sentinel
// Result into a clean stop.
func streamToKStream[T any](s core.Stream[T]) kstream.KStream[T] {
	var pull func(ch <-chan core.Result[T]) kstream.KStream[T]
	pull = func(ch <-chan core.Result[T]) kstream.KStream[T] {
		return func(ctx context.Context) kstream.Sink[T] {
			select {
			case res, ok := <-ch:
				if !ok {
					return kstream.Stop[T](nil)
				}
				if res.IsError() {
					return kstream.Stop[T](res.Error())
				}
				if res.IsSentinel() {
					return kstream.Stop[T](nil)
				}
				return kstream.Yield(res.Value(), pull(ch))
			case <-ctx.Done():
				return kstream.Stop[T](ctx.Err())
			}
		}
	}
	return func(ctx context.Context) kstream.Sink[T] {
		return pull(s.Emit(ctx))(ctx)
	}
}

// kstreamToChannel drains a KStream onto a Result channel, the inverse of
// streamToKStream, so the spec-level merge operators can be exposed with
// the same core.Stream-returning signature as the rest of this package.
func kstreamToChannel[T any](ctx context.Context, k kstream.KStream[T]) <-chan core.Result[T] {
	out := make(chan core.Result[T])
	go func() {
		defer close(out)
		for {
			sink := k(ctx)
			switch sink.Kind {
			case kstream.StopSink:
				if sink.Err != nil {
					select {
					case out <- core.Err[T](sink.Err):
					case <-ctx.Done():
					}
				}
				return
			case kstream.SingleSink:
				select {
				case out <- core.Ok(sink.Value):
				case <-ctx.Done():
				}
				return
			default:
				select {
				case out <- core.Ok(sink.Value):
				case <-ctx.Done():
					return
				}
				if sink.Tail != nil {
					k = sink.Tail
				} else {
					k = kstream.FromSVarDrain(sink.Ctx)
				}
			}
		}
	}()
	return out
}

// Serial concatenates streams strictly in order, without involving an SVar:
// the second stream is not even started until the first has stopped. This
// is the spec's `serial` merge discipline.
func Serial[T any](streams ...core.Stream[T]) core.Stream[T] {
	return Concat(streams...)
}

// Coparallel merges streams with demand-driven, left-biased parallelism:
// only the first (leftmost) branch is dispatched up front. Every later
// branch is held back - not even queued on the SVar - until the consumer
// itself drains the output queue to empty while an earlier branch is still
// live, at which point it calls Poke to bring the next one in. This is the
// consumer-driven half of the scheduling contract ("if queue empty ...
// dispatch one more from workQueue"): a consumer draining faster than one
// branch produces sees the queue go empty often, so later branches are
// woken quickly and several end up running together; a consumer slower
// than one branch produces rarely sees the queue empty out before that
// branch finishes on its own, so later branches stay parked until then and
// only one branch runs at a time. workerLimit caps how many may run at
// once regardless of how many have been woken.
func Coparallel[T any](ctx context.Context, workerLimit int, streams ...core.Stream[T]) core.Stream[T] {
	return core.Emit(func(ctx context.Context) <-chan core.Result[T] {
		out := make(chan core.Result[T])
		if len(streams) == 0 {
			close(out)
			return out
		}

		sv := svar.New[T](svar.ParallelLIFO, svar.WithWorkerLimit(workerLimit))

		var mu sync.Mutex
		nextIdx := 1 // streams[0] is dispatched eagerly below; the rest wait
		dispatchNext := func() {
			mu.Lock()
			defer mu.Unlock()
			if nextIdx >= len(streams) {
				return
			}
			branch := streamToKStream(streams[nextIdx])
			nextIdx++
			sv.Dispatch(ctx, kstreamProducer(branch))
		}
		sv.Dispatch(ctx, kstreamProducer(streamToKStream(streams[0])))

		go func() {
			defer close(out)
			for {
				select {
				case ev, ok := <-sv.Events():
					if !ok {
						return
					}
					switch ev.Kind {
					case svar.EventChildStop:
						// bookkeeping only
					case svar.EventException:
						select {
						case out <- core.Err[T](ev.Err):
						case <-ctx.Done():
						}
						return
					default:
						select {
						case out <- core.Ok(ev.Value):
						case <-ctx.Done():
							return
						}
					}
					// The queue going empty right after a drain is the
					// consumer-driven dispatch signal: wake the next
					// parked branch, if any are left. sv.Poke is a no-op
					// once every branch has already been dispatched.
					if len(sv.Events()) == 0 {
						dispatchNext()
						sv.Poke(ctx)
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		return out
	})
}

// Parallel merges streams fairly: every branch is dispatched onto a
// Parallel_FIFO SVar at construction, so all of them start producing
// immediately (bounded only by the SVar's output queue) and no branch is
// starved in favor of another. This is the spec's `parallel` merge
// discipline, and is what Merge is now built on.
func Parallel[T any](ctx context.Context, streams ...core.Stream[T]) core.Stream[T] {
	return core.Emit(func(ctx context.Context) <-chan core.Result[T] {
		sv := svar.New[T](svar.ParallelFIFO, svar.WithWorkerLimit(len(streams)))
		for _, s := range streams {
			branch := streamToKStream(s)
			sv.Dispatch(ctx, kstreamProducer(branch))
		}
		return kstreamToChannel(ctx, kstream.FromSVarDrain(sv))
	})
}

// kstreamProducer adapts a KStream into an svar.Producer, driving it to
// exhaustion and feeding every value through emit. A StopSink carrying an
// error becomes the producer's returned error, which the SVar surfaces as
// an EventException and uses to trigger the exception-then-abort sequence.
func kstreamProducer[T any](k kstream.KStream[T]) svar.Producer[T] {
	return func(ctx context.Context, emit func(T) bool) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			sink := k(ctx)
			switch sink.Kind {
			case kstream.StopSink:
				return sink.Err
			case kstream.SingleSink:
				emit(sink.Value)
				return nil
			default:
				if !emit(sink.Value) {
					return nil
				}
				if sink.Tail != nil {
					k = sink.Tail
				} else {
					k = kstream.FromSVarDrain(sink.Ctx)
				}
			}
		}
	}
}
