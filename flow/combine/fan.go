package combine

import (
	"context"
	"fmt"
	"sync"

	"github.com/lguimbarda/svarflow/flow/core"
	"github.com/lguimbarda/svarflow/flow/svar"
)

// safeMap wraps a mapper function with panic recovery
func safeMap[IN, OUT any](mapper func(IN) OUT, value IN) (result core.Result[OUT]) {
	defer func() {
		if r := recover(); r != nil {
			result = core.Err[OUT](fmt.Errorf("panic in mapper: %v", r))
		}
	}()
	return core.Ok(mapper(value))
}

// FanOut splits a stream into n identical output streams.
// Each output stream receives all items from the input.
// Returns a slice of n streams that can be consumed independently.
// Uses internal buffering to prevent slow consumers from blocking others.
func FanOut[T any](n int, stream core.Stream[T]) []core.Stream[T] {
	if n <= 0 {
		return nil
	}

	outputs := make([]core.Stream[T], n)
	channels := make([]chan core.Result[T], n)

	for i := 0; i < n; i++ {
		ch := make(chan core.Result[T], 16) // Buffer to reduce blocking
		channels[i] = ch
		outputs[i] = core.Emit(func(ctx context.Context) <-chan core.Result[T] {
			return ch
		})
	}

	// Start distributor that sends to all output channels
	go func() {
		defer func() {
			for _, ch := range channels {
				close(ch)
			}
		}()

		ctx := context.Background()
		for res := range stream.Emit(ctx) {
			for _, ch := range channels {
				ch <- res
			}
		}
	}()

	return outputs
}

// FanOutWith splits a stream using a router function to determine which output receives each item.
// The router returns an index (0 to n-1) for each item. Items with out-of-range indices are dropped.
func FanOutWith[T any](n int, router func(T) int, stream core.Stream[T]) []core.Stream[T] {
	if n <= 0 {
		return nil
	}

	outputs := make([]core.Stream[T], n)
	channels := make([]chan core.Result[T], n)

	for i := 0; i < n; i++ {
		ch := make(chan core.Result[T], 16)
		channels[i] = ch
		outputs[i] = core.Emit(func(ctx context.Context) <-chan core.Result[T] {
			return ch
		})
	}

	go func() {
		defer func() {
			for _, ch := range channels {
				close(ch)
			}
		}()

		ctx := context.Background()
		for res := range stream.Emit(ctx) {
			if res.IsValue() {
				idx := router(res.Value())
				if idx >= 0 && idx < n {
					channels[idx] <- res
				}
			} else {
				// Broadcast errors and sentinels to all
				for _, ch := range channels {
					ch <- res
				}
			}
		}
	}()

	return outputs
}

// FanIn merges multiple streams into a single stream.
// This is an alias for Merge for semantic clarity in fan-out/fan-in patterns.
func FanIn[T any](streams ...core.Stream[T]) core.Stream[T] {
	return Merge(streams...)
}

// Broadcast sends each item to all provided handler functions concurrently.
// Returns a stream of the original items after broadcasting.
// Useful for side effects like logging, metrics, or caching.
func Broadcast[T any](handlers ...func(T)) core.Transformer[T, T] {
	return core.Transmit(func(ctx context.Context, in <-chan core.Result[T]) <-chan core.Result[T] {
		out := make(chan core.Result[T])

		go func() {
			defer close(out)

			for res := range in {
				if res.IsValue() {
					// Broadcast to all handlers concurrently
					var wg sync.WaitGroup
					wg.Add(len(handlers))
					for _, handler := range handlers {
						go func(h func(T)) {
							defer wg.Done()
							h(res.Value())
						}(handler)
					}
					wg.Wait()
				}

				select {
				case <-ctx.Done():
					return
				case out <- res:
				}
			}
		}()

		return out
	})
}

// RoundRobin runs worker over the input with at most n calls in flight at
// once, each call dispatched as its own single-value producer onto a
// Parallel_FIFO SVar - the same scheduler flow/combine.Parallel merges
// branches through, just with one branch per input item instead of one
// branch per stream. Results may complete out of input order: n concurrent
// workers were always going to finish in whatever order their calls to
// worker happened to take, SVar-backed or not.
func RoundRobin[IN, OUT any](n int, worker func(IN) OUT) core.Transformer[IN, OUT] {
	if n <= 0 {
		n = 1
	}

	return core.Transmit(func(ctx context.Context, in <-chan core.Result[IN]) <-chan core.Result[OUT] {
		sv := svar.New[OUT](svar.ParallelFIFO, svar.WithWorkerLimit(n))

		go func() {
			for res := range in {
				item := res
				sv.Dispatch(ctx, func(ctx context.Context, emit func(OUT) bool) error {
					if item.IsError() {
						return item.Error()
					}
					if item.IsSentinel() {
						return nil
					}
					result := safeMap(worker, item.Value())
					if result.IsError() {
						return result.Error()
					}
					emit(result.Value())
					return nil
				})
			}
			sv.Close()
		}()

		out := make(chan core.Result[OUT])
		go func() {
			defer close(out)
			for ev := range sv.Events() {
				switch ev.Kind {
				case svar.EventChildStop:
					// bookkeeping only
				case svar.EventException:
					select {
					case out <- core.Err[OUT](ev.Err):
					case <-ctx.Done():
					}
				default:
					select {
					case out <- core.Ok(ev.Value):
					case <-ctx.Done():
						return
					}
				}
			}
		}()

		return out
	})
}

// Tee creates two identical streams from one input stream.
// Both output streams receive all items. Equivalent to FanOut(2, stream).
func Tee[T any](stream core.Stream[T]) (core.Stream[T], core.Stream[T]) {
	outputs := FanOut(2, stream)
	return outputs[0], outputs[1]
}

// PartitionStream creates two streams based on a predicate.
// Items matching the predicate go to the first stream, others to the second.
// Unlike the Partition transformer which collects all items, this streams items immediately.
func PartitionStream[T any](predicate func(T) bool, stream core.Stream[T]) (matched core.Stream[T], unmatched core.Stream[T]) {
	outputs := FanOutWith(2, func(v T) int {
		if predicate(v) {
			return 0
		}
		return 1
	}, stream)
	return outputs[0], outputs[1]
}

// Balance distributes items across n output streams for load balancing.
// Balance sends each item to the first output, in index order, that has
// buffer space available; if none has, it blocks on the first output.
func Balance[T any](n int, stream core.Stream[T]) []core.Stream[T] {
	if n <= 0 {
		return nil
	}

	outputs := make([]core.Stream[T], n)
	channels := make([]chan core.Result[T], n)

	for i := 0; i < n; i++ {
		ch := make(chan core.Result[T], 1) // Small buffer for balancing
		channels[i] = ch
		outputs[i] = core.Emit(func(ctx context.Context) <-chan core.Result[T] {
			return ch
		})
	}

	go func() {
		defer func() {
			for _, ch := range channels {
				close(ch)
			}
		}()

		ctx := context.Background()
		for res := range stream.Emit(ctx) {
			// Try to send to any available channel
			sent := false
			for _, ch := range channels {
				select {
				case ch <- res:
					sent = true
				default:
				}
				if sent {
					break
				}
			}
			if !sent {
				// If no channel is immediately available, block on first
				channels[0] <- res
			}
		}
	}()

	return outputs
}
