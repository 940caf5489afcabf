package parallel

import (
	"context"

	"github.com/lguimbarda/svarflow/flow/core"
	"github.com/lguimbarda/svarflow/flow/svar"
)

// Async creates a Transformer that applies an async mapper function to each
// item, dispatching one producer per item onto a Parallel_LIFO SVar that
// runs up to workerLimit producers at once from the start; it does not begin
// with a single worker and add more on demand. Unlike AsyncMap, whose SVar
// has no worker limit and so starts a goroutine for every item at once,
// Async with workerLimit > 0 parks further producers in the SVar's work
// queue until a running one finishes.
//
// Results are emitted as they complete, so order is not preserved - use
// Ordered for an order-preserving parallel map.
func Async[IN, OUT any](workerLimit int, mapper func(context.Context, IN) (OUT, error)) core.Transformer[IN, OUT] {
	return core.Transmit(func(ctx context.Context, in <-chan core.Result[IN]) <-chan core.Result[OUT] {
		out := make(chan core.Result[OUT])

		go func() {
			defer close(out)

			sv := svar.New[core.Result[OUT]](svar.ParallelLIFO, svar.WithWorkerLimit(workerLimit))

			go func() {
				for res := range in {
					if res.IsError() {
						sv.Dispatch(ctx, oneShot(core.Err[OUT](res.Error())))
						continue
					}
					if res.IsSentinel() {
						sv.Dispatch(ctx, oneShot(core.Sentinel[OUT](res.Sentinel())))
						continue
					}
					value := res.Value()
					sv.Dispatch(ctx, func(ctx context.Context, emit func(core.Result[OUT]) bool) error {
						mapped, err := mapper(ctx, value)
						if err != nil {
							emit(core.Err[OUT](err))
							return nil
						}
						emit(core.Ok(mapped))
						return nil
					})
				}
				sv.Close()
			}()

			for ev := range sv.Events() {
				if ev.Kind != svar.EventValue {
					continue
				}
				select {
				case <-ctx.Done():
					return
				case out <- ev.Value:
				}
			}
		}()

		return out
	})
}

func oneShot[T any](v T) svar.Producer[T] {
	return func(_ context.Context, emit func(T) bool) error {
		emit(v)
		return nil
	}
}
