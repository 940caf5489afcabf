package core

import (
	"context"
	"fmt"
	"iter"
)

// DefaultBufferSize is the default buffer size for internal channels.
// A small buffer reduces goroutine synchronization overhead without
// consuming excessive memory.
const DefaultBufferSize = 64

// TransformConfig holds configuration options for transform operations.
type TransformConfig struct {
	BufferSize int
}

// TransformOption is a functional option for configuring transforms.
type TransformOption func(*TransformConfig)

// WithBufferSize sets the buffer size for the transform's output channel.
// A larger buffer can improve throughput for CPU-bound operations by reducing
// goroutine synchronization, while a smaller buffer reduces memory usage.
// Use 0 for unbuffered (synchronous) operation.
func WithBufferSize(size int) TransformOption {
	return func(c *TransformConfig) {
		c.BufferSize = size
	}
}

// defaultConfig returns a TransformConfig with default values.
func defaultConfig() TransformConfig {
	return TransformConfig{
		BufferSize: DefaultBufferSize,
	}
}

// applyOptions applies functional options to a config.
func applyOptions(opts ...TransformOption) TransformConfig {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Mapper defines a function that maps a Result of type IN to a Result of type OUT. It represents a transformation
// that maintains the cardinality of the flow (one input item produces one output item).
// The mapper function is at the lowest level of abstraction in the flow processing pipeline.
// It answers the question: "What is done to each item in the flow?"
type Mapper[IN, OUT any] func(Result[IN]) (Result[OUT], error)

// Map creates a Mapper from a transformation function. The returned Mapper
// uses DefaultBufferSize for its output channel. Use MapWith for custom buffer sizes.
func Map[IN, OUT any](mapFunc func(IN) (OUT, error)) Mapper[IN, OUT] {
	return func(res Result[IN]) (out Result[OUT], err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in Map function: %v", r)
			}
		}()

		if res.IsError() {
			return Err[OUT](res.Error()), nil
		}
		mappedValue, err := mapFunc(res.Value())
		if err != nil {
			return Err[OUT](err), nil
		}
		return Ok(mappedValue), nil
	}
}

// Apply transforms a stream using this Mapper with default configuration.
// If the context carries a Registry (see WithRegistry), matching interceptors
// are invoked for StreamStart/StreamEnd and for each item received/emitted.
func (m Mapper[IN, OUT]) Apply(ctx context.Context, s Stream[IN]) Stream[OUT] {
	return m.ApplyWith(ctx, s)
}

// ApplyWith transforms a stream using this Mapper with custom options.
func (m Mapper[IN, OUT]) ApplyWith(ctx context.Context, s Stream[IN], opts ...TransformOption) Stream[OUT] {
	cfg := applyOptions(opts...)
	return Emit(func(ctx context.Context) <-chan Result[OUT] {
		outChan := make(chan Result[OUT], cfg.BufferSize)
		dispatch := newInterceptorDispatch(ctx)
		go func() {
			defer close(outChan)
			hooks := newHookInvoker[OUT](ctx)
			hooks.invokeStart()
			defer hooks.invokeComplete()
			dispatch.invokeNoArg(ctx, StreamStart)
			defer dispatch.invokeNoArg(ctx, StreamEnd)

			for resIn := range s.Emit(ctx) {
				select {
				case <-ctx.Done():
					return
				default:
				}

				dispatch.invokeOneArg(ctx, ItemReceived, resIn)

				resOut, err := m(resIn)
				if err != nil {
					resOut = Err[OUT](err)
				}
				dispatch.invokeResult(ctx, toAnyResult(resOut))
				switch {
				case resOut.IsValue():
					hooks.invokeValue(resOut.Value())
				case resOut.IsError():
					hooks.invokeError(resOut.Error())
				case resOut.IsSentinel():
					hooks.invokeSentinel(resOut.Sentinel())
				}

				select {
				case <-ctx.Done():
					return
				case outChan <- resOut:
					dispatch.invokeOneArg(ctx, ItemEmitted, resOut)
				}
			}
		}()
		return outChan
	})
}

// FlatMapper defines a function that maps a Result of type IN to a Result containing a slice of Results of type OUT.
// It represents a transformation that can change the cardinality of the flow (one input item can produce zero or more output items).
// The flat mapper function is at the lowest level of abstraction in the flow processing pipeline.
// It answers the question: "How are items in the flow reduced or expanded?"
type FlatMapper[IN, OUT any] func(Result[IN]) ([]Result[OUT], error)

// FlatMap creates a FlatMapper from a transformation function. The returned FlatMapper
// uses DefaultBufferSize for its output channel. Use ApplyWith for custom buffer sizes.
func FlatMap[IN, OUT any](flatMapFunc func(IN) ([]OUT, error)) FlatMapper[IN, OUT] {
	return func(res Result[IN]) (outs []Result[OUT], err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in FlatMap function: %v", r)
			}
		}()

		if res.IsError() {
			return []Result[OUT]{Err[OUT](res.Error())}, nil
		}
		mappedValues, err := flatMapFunc(res.Value())
		if err != nil {
			return []Result[OUT]{Err[OUT](err)}, nil
		}
		results := make([]Result[OUT], len(mappedValues))
		for i, v := range mappedValues {
			results[i] = Ok(v)
		}
		return results, nil
	}
}

// Apply transforms a stream using this FlatMapper with default configuration.
func (fm FlatMapper[IN, OUT]) Apply(ctx context.Context, s Stream[IN]) Stream[OUT] {
	return fm.ApplyWith(ctx, s)
}

// ApplyWith transforms a stream using this FlatMapper with custom options.
func (fm FlatMapper[IN, OUT]) ApplyWith(ctx context.Context, s Stream[IN], opts ...TransformOption) Stream[OUT] {
	cfg := applyOptions(opts...)
	return Emit(func(ctx context.Context) <-chan Result[OUT] {
		outChan := make(chan Result[OUT], cfg.BufferSize)
		dispatch := newInterceptorDispatch(ctx)
		go func() {
			defer close(outChan)
			hooks := newHookInvoker[OUT](ctx)
			hooks.invokeStart()
			defer hooks.invokeComplete()
			dispatch.invokeNoArg(ctx, StreamStart)
			defer dispatch.invokeNoArg(ctx, StreamEnd)

			for resIn := range s.Emit(ctx) {
				select {
				case <-ctx.Done():
					return
				default:
				}

				dispatch.invokeOneArg(ctx, ItemReceived, resIn)

				resOuts, err := fm(resIn)
				if err != nil {
					resOuts = []Result[OUT]{Err[OUT](err)}
				}
				for _, resOut := range resOuts {
					dispatch.invokeResult(ctx, toAnyResult(resOut))
					switch {
					case resOut.IsValue():
						hooks.invokeValue(resOut.Value())
					case resOut.IsError():
						hooks.invokeError(resOut.Error())
					case resOut.IsSentinel():
						hooks.invokeSentinel(resOut.Sentinel())
					}
					select {
					case <-ctx.Done():
						return
					case outChan <- resOut:
						dispatch.invokeOneArg(ctx, ItemEmitted, resOut)
					}
				}
			}
		}()
		return outChan
	})
}

// IterFlatMapper is a FlatMapper variant whose mapping function produces an
// iter.Seq rather than a materialized slice, letting the mapping function
// stream its expansion of a single item instead of allocating upfront.
type IterFlatMapper[IN, OUT any] func(Result[IN]) (iter.Seq[Result[OUT]], error)

// IterFlatMap creates an IterFlatMapper from a function producing an iter.Seq
// of output values per input item.
func IterFlatMap[IN, OUT any](flatMapFunc func(IN) iter.Seq[OUT]) IterFlatMapper[IN, OUT] {
	return func(res Result[IN]) (seq iter.Seq[Result[OUT]], err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in IterFlatMap function: %v", r)
			}
		}()

		if res.IsError() {
			resErr := res.Error()
			return func(yield func(Result[OUT]) bool) {
				yield(Err[OUT](resErr))
			}, nil
		}
		inner := flatMapFunc(res.Value())
		return func(yield func(Result[OUT]) bool) {
			for v := range inner {
				if !yield(Ok(v)) {
					return
				}
			}
		}, nil
	}
}

// IterFlatMapSlice creates an IterFlatMapper from a function that returns a
// slice and an error, adapting it to the iter.Seq-based mapper shape so it
// can share IterFlatMapper's Apply implementation.
func IterFlatMapSlice[IN, OUT any](flatMapFunc func(IN) ([]OUT, error)) IterFlatMapper[IN, OUT] {
	return func(res Result[IN]) (seq iter.Seq[Result[OUT]], err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in IterFlatMapSlice function: %v", r)
			}
		}()

		if res.IsError() {
			resErr := res.Error()
			return func(yield func(Result[OUT]) bool) {
				yield(Err[OUT](resErr))
			}, nil
		}
		values, mapErr := flatMapFunc(res.Value())
		if mapErr != nil {
			return func(yield func(Result[OUT]) bool) {
				yield(Err[OUT](mapErr))
			}, nil
		}
		return func(yield func(Result[OUT]) bool) {
			for _, v := range values {
				if !yield(Ok(v)) {
					return
				}
			}
		}, nil
	}
}

// Apply transforms a stream using this IterFlatMapper with default configuration.
func (fm IterFlatMapper[IN, OUT]) Apply(ctx context.Context, s Stream[IN]) Stream[OUT] {
	return fm.ApplyWith(ctx, s)
}

// ApplyWith transforms a stream using this IterFlatMapper with custom options.
func (fm IterFlatMapper[IN, OUT]) ApplyWith(ctx context.Context, s Stream[IN], opts ...TransformOption) Stream[OUT] {
	cfg := applyOptions(opts...)
	return Emit(func(ctx context.Context) <-chan Result[OUT] {
		outChan := make(chan Result[OUT], cfg.BufferSize)
		dispatch := newInterceptorDispatch(ctx)
		go func() {
			defer close(outChan)
			dispatch.invokeNoArg(ctx, StreamStart)
			defer dispatch.invokeNoArg(ctx, StreamEnd)

			for resIn := range s.Emit(ctx) {
				select {
				case <-ctx.Done():
					return
				default:
				}

				dispatch.invokeOneArg(ctx, ItemReceived, resIn)

				seq, err := fm(resIn)
				if err != nil {
					dispatch.invokeResult(ctx, toAnyResult(Err[OUT](err)))
					select {
					case <-ctx.Done():
						return
					case outChan <- Err[OUT](err):
						dispatch.invokeOneArg(ctx, ItemEmitted, Err[OUT](err))
					}
					continue
				}

				stop := false
				seq(func(resOut Result[OUT]) bool {
					dispatch.invokeResult(ctx, toAnyResult(resOut))
					select {
					case <-ctx.Done():
						stop = true
						return false
					case outChan <- resOut:
						dispatch.invokeOneArg(ctx, ItemEmitted, resOut)
						return true
					}
				})
				if stop {
					return
				}
			}
		}()
		return outChan
	})
}
