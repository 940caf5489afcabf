package fast

import (
	"context"

	"github.com/lguimbarda/svarflow/flow/kstream"
)

// StepKind tags which outcome a DStream's Step function produced.
type StepKind int

const (
	// StepYield carries a value: the driver should surface it and continue
	// with the returned state.
	StepYield StepKind = iota
	// StepSkip produces no element this step but the stream is not done -
	// filter, concat and take-like combinators use this to avoid recursing
	// into the driver just to say "nothing yet".
	StepSkip
	// StepStop ends the stream; no further Step calls are made.
	StepStop
)

// Step is the outcome of advancing a DStream by one element: Yield(x),
// Skip, or Stop. It carries no next-state field - DStream.Step returns the
// next state alongside the Step so combinators can be written as plain
// state machines without a wrapper type per combinator.
type Step[T any] struct {
	Kind  StepKind
	Value T
}

// Yield builds a StepYield outcome.
func Yield[T any](v T) Step[T] {
	return Step[T]{Kind: StepYield, Value: v}
}

// Skip builds a StepSkip outcome.
func Skip[T any]() Step[T] {
	return Step[T]{Kind: StepSkip}
}

// StopAt builds a StepStop outcome.
func StopAt[T any]() Step[T] {
	return Step[T]{Kind: StepStop}
}

// DStream is the direct-form, fusion-friendly stream representation: State
// is driven through Step to produce Steps without allocating an
// intermediate channel or closure per element. Combinators on DStream
// compose their Step functions directly, so a pipeline of map/filter/take
// fuses into a single state machine instead of a chain of goroutines.
type DStream[S, T any] struct {
	State S
	Step  func(S) (Step[T], S)
}

// DStreamFromSlice builds a DStream that yields every element of xs in order.
func DStreamFromSlice[T any](xs []T) DStream[int, T] {
	return DStream[int, T]{
		State: 0,
		Step: func(i int) (Step[T], int) {
			if i >= len(xs) {
				return StopAt[T](), i
			}
			return Yield(xs[i]), i + 1
		},
	}
}

// EnumerateFromStep builds an infinite DStream counting up from start,
// stepping by delta each time.
func EnumerateFromStep(start, delta int) DStream[int, int] {
	return DStream[int, int]{
		State: start,
		Step: func(n int) (Step[int], int) {
			return Yield(n), n + delta
		},
	}
}

// MapD applies f to every element a DStream yields, fusing into the same
// state machine rather than composing a separate stage.
func MapD[S, IN, OUT any](d DStream[S, IN], f func(IN) OUT) DStream[S, OUT] {
	return DStream[S, OUT]{
		State: d.State,
		Step: func(s S) (Step[OUT], S) {
			step, next := d.Step(s)
			switch step.Kind {
			case StepYield:
				return Yield(f(step.Value)), next
			case StepSkip:
				return Skip[OUT](), next
			default:
				return StopAt[OUT](), next
			}
		},
	}
}

// MapMD is MapD for a fallible mapper: an error stops the stream, carrying
// no way to surface the error through Step itself - callers that need the
// error should capture it in a closure variable, matching the "errors are
// reported out of band by the direct-form layer" design of fusion-style
// combinators.
func MapMD[S, IN, OUT any](d DStream[S, IN], f func(IN) (OUT, error), onErr func(error)) DStream[S, OUT] {
	return DStream[S, OUT]{
		State: d.State,
		Step: func(s S) (Step[OUT], S) {
			step, next := d.Step(s)
			switch step.Kind {
			case StepYield:
				out, err := f(step.Value)
				if err != nil {
					if onErr != nil {
						onErr(err)
					}
					return StopAt[OUT](), next
				}
				return Yield(out), next
			case StepSkip:
				return Skip[OUT](), next
			default:
				return StopAt[OUT](), next
			}
		},
	}
}

// FilterD keeps only elements satisfying pred, using Skip for rejected
// elements so the driver loop never recurses.
func FilterD[S, T any](d DStream[S, T], pred func(T) bool) DStream[S, T] {
	return DStream[S, T]{
		State: d.State,
		Step: func(s S) (Step[T], S) {
			step, next := d.Step(s)
			if step.Kind == StepYield && !pred(step.Value) {
				return Skip[T](), next
			}
			return step, next
		},
	}
}

// FilterMD is FilterD for a fallible predicate.
func FilterMD[S, T any](d DStream[S, T], pred func(T) (bool, error), onErr func(error)) DStream[S, T] {
	return DStream[S, T]{
		State: d.State,
		Step: func(s S) (Step[T], S) {
			step, next := d.Step(s)
			if step.Kind != StepYield {
				return step, next
			}
			ok, err := pred(step.Value)
			if err != nil {
				if onErr != nil {
					onErr(err)
				}
				return StopAt[T](), next
			}
			if !ok {
				return Skip[T](), next
			}
			return step, next
		},
	}
}

// takeState pairs an inner state with a remaining-count so TakeD and
// TakeWhileD can wrap any DStream without mutating shared state.
type takeState[S any] struct {
	inner S
	n     int
}

// TakeD limits a DStream to its first n elements.
func TakeD[S, T any](d DStream[S, T], n int) DStream[takeState[S], T] {
	return DStream[takeState[S], T]{
		State: takeState[S]{inner: d.State, n: n},
		Step: func(s takeState[S]) (Step[T], takeState[S]) {
			if s.n <= 0 {
				return StopAt[T](), s
			}
			step, next := d.Step(s.inner)
			s.inner = next
			if step.Kind == StepYield {
				s.n--
			}
			return step, s
		},
	}
}

// TakeWhileD yields elements until pred first returns false, then stops.
func TakeWhileD[S, T any](d DStream[S, T], pred func(T) bool) DStream[S, T] {
	return DStream[S, T]{
		State: d.State,
		Step: func(s S) (Step[T], S) {
			step, next := d.Step(s)
			if step.Kind == StepYield && !pred(step.Value) {
				return StopAt[T](), next
			}
			return step, next
		},
	}
}

// zipState tracks both inner streams' states side by side.
type zipState[A, B any] struct {
	a A
	b B
}

// ZipWith combines two DStreams pairwise with f, stopping as soon as
// either side stops or skips (a Skip on one side with no matching element
// on the other has no well-defined pairing, so it is treated as a stop -
// callers that need skip-tolerant zipping should pre-filter their skips
// away with FilterD first).
func ZipWith[SA, SB, A, B, OUT any](da DStream[SA, A], db DStream[SB, B], f func(A, B) OUT) DStream[zipState[SA, SB], OUT] {
	return DStream[zipState[SA, SB], OUT]{
		State: zipState[SA, SB]{a: da.State, b: db.State},
		Step: func(s zipState[SA, SB]) (Step[OUT], zipState[SA, SB]) {
			stepA, nextA := da.Step(s.a)
			s.a = nextA
			if stepA.Kind != StepYield {
				return StopAt[OUT](), s
			}
			stepB, nextB := db.Step(s.b)
			s.b = nextB
			if stepB.Kind != StepYield {
				return StopAt[OUT](), s
			}
			return Yield(f(stepA.Value, stepB.Value)), s
		},
	}
}

// concatMapState tracks the outer stream plus an optional in-progress
// inner DStream produced for the current outer element.
type concatMapState[S, T any] struct {
	outer S
	inner *DStream[any, T]
}

// ConcatMap expands every element into a sub-stream and concatenates the
// results in order, fully draining each inner stream before advancing the
// outer one.
func ConcatMap[S, IN, T any](d DStream[S, IN], f func(IN) DStream[any, T]) DStream[concatMapState[S, T], T] {
	return DStream[concatMapState[S, T], T]{
		State: concatMapState[S, T]{outer: d.State},
		Step: func(s concatMapState[S, T]) (Step[T], concatMapState[S, T]) {
			for {
				if s.inner != nil {
					step, next := s.inner.Step(s.inner.State)
					s.inner.State = next
					switch step.Kind {
					case StepYield:
						return step, s
					case StepSkip:
						return Skip[T](), s
					default:
						s.inner = nil
						continue
					}
				}
				outStep, nextOuter := d.Step(s.outer)
				s.outer = nextOuter
				switch outStep.Kind {
				case StepYield:
					sub := f(outStep.Value)
					s.inner = &sub
					continue
				case StepSkip:
					return Skip[T](), s
				default:
					return StopAt[T](), s
				}
			}
		},
	}
}

// FoldlStrict drives a DStream to exhaustion, strictly accumulating via fn.
// The prime in the spec's foldl' names strict accumulation; Go has no lazy
// thunks to force, so FoldlStrict's loop already evaluates fn eagerly on
// every Yield.
func FoldlStrict[S, T, ACC any](d DStream[S, T], initial ACC, fn func(ACC, T) ACC) ACC {
	acc := initial
	state := d.State
	for {
		step, next := d.Step(state)
		state = next
		switch step.Kind {
		case StepYield:
			acc = fn(acc, step.Value)
		case StepSkip:
			continue
		default:
			return acc
		}
	}
}

// FoldlStrictM is FoldlStrict for a fallible accumulator; it stops on the
// first error and returns it.
func FoldlStrictM[S, T, ACC any](d DStream[S, T], initial ACC, fn func(ACC, T) (ACC, error)) (ACC, error) {
	acc := initial
	state := d.State
	for {
		step, next := d.Step(state)
		state = next
		switch step.Kind {
		case StepYield:
			out, err := fn(acc, step.Value)
			if err != nil {
				return acc, err
			}
			acc = out
		case StepSkip:
			continue
		default:
			return acc, nil
		}
	}
}

// Foldr folds right-associatively and lazily: fn's second argument is a
// thunk producing the fold of the rest of the stream, only evaluated if
// fn chooses to call it. This lets fn short-circuit on an infinite or
// very long DStream (e.g. implementing an "any"/"all" via Foldr without
// materializing the whole stream).
func Foldr[S, T, ACC any](d DStream[S, T], base ACC, fn func(T, func() ACC) ACC) ACC {
	var walk func(state S) ACC
	walk = func(state S) ACC {
		step, next := d.Step(state)
		switch step.Kind {
		case StepYield:
			return fn(step.Value, func() ACC { return walk(next) })
		case StepSkip:
			return walk(next)
		default:
			return base
		}
	}
	return walk(d.State)
}

// EqBy reports whether two DStreams yield elementwise-equal sequences
// under eq, stopping as soon as a difference (or a length mismatch) is
// found.
func EqBy[SA, SB, T any](da DStream[SA, T], db DStream[SB, T], eq func(T, T) bool) bool {
	sa, sb := da.State, db.State
	for {
		var av, bv T
		var aDone, bDone bool
		for {
			step, next := da.Step(sa)
			sa = next
			if step.Kind == StepSkip {
				continue
			}
			if step.Kind == StepStop {
				aDone = true
			} else {
				av = step.Value
			}
			break
		}
		for {
			step, next := db.Step(sb)
			sb = next
			if step.Kind == StepSkip {
				continue
			}
			if step.Kind == StepStop {
				bDone = true
			} else {
				bv = step.Value
			}
			break
		}
		if aDone || bDone {
			return aDone == bDone
		}
		if !eq(av, bv) {
			return false
		}
	}
}

// CmpBy lexicographically compares two DStreams under cmp, returning a
// negative, zero, or positive int the way a standard Go comparator would.
// A stream that runs out first is considered smaller, matching ordinary
// lexicographic sequence comparison.
func CmpBy[SA, SB, T any](da DStream[SA, T], db DStream[SB, T], cmp func(T, T) int) int {
	sa, sb := da.State, db.State
	for {
		var av, bv T
		var aDone, bDone bool
		for {
			step, next := da.Step(sa)
			sa = next
			if step.Kind == StepSkip {
				continue
			}
			if step.Kind == StepStop {
				aDone = true
			} else {
				av = step.Value
			}
			break
		}
		for {
			step, next := db.Step(sb)
			sb = next
			if step.Kind == StepSkip {
				continue
			}
			if step.Kind == StepStop {
				bDone = true
			} else {
				bv = step.Value
			}
			break
		}
		switch {
		case aDone && bDone:
			return 0
		case aDone:
			return -1
		case bDone:
			return 1
		}
		if c := cmp(av, bv); c != 0 {
			return c
		}
	}
}

// groupsState carries the inner stream's state plus whether it has stopped.
type groupsState[S, T any] struct {
	inner S
	done  bool
}

// GroupsOf folds every n consecutive elements with foldSpec (initial,
// combine), yielding one accumulated value per full group. A trailing
// partial group (fewer than n elements left when the stream stops) is
// still yielded, folded over whatever it collected.
func GroupsOf[S, T, ACC any](d DStream[S, T], n int, initial ACC, combine func(ACC, T) ACC) DStream[groupsState[S, T], ACC] {
	if n <= 0 {
		n = 1
	}
	return DStream[groupsState[S, T], ACC]{
		State: groupsState[S, T]{inner: d.State},
		Step: func(s groupsState[S, T]) (Step[ACC], groupsState[S, T]) {
			if s.done {
				return StopAt[ACC](), s
			}
			acc := initial
			count := 0
			for count < n {
				step, next := d.Step(s.inner)
				s.inner = next
				switch step.Kind {
				case StepYield:
					acc = combine(acc, step.Value)
					count++
				case StepSkip:
					continue
				default:
					s.done = true
					if count == 0 {
						return StopAt[ACC](), s
					}
					return Yield(acc), s
				}
			}
			return Yield(acc), s
		},
	}
}

// FromStreamK adapts a kstream.KStream into a DStream whose state is the
// remaining continuation. Draining the DStream to completion and
// converting it back with ToStreamK (see TestStreamKFusionIdentity) reproduces
// the original KStream's element sequence - the fusion identity
// toStreamK(fromStreamK(s)) == s that SPEC's bridging functions exist to
// witness.
func FromStreamK[T any](ctx context.Context, k kstream.KStream[T]) DStream[kstream.KStream[T], T] {
	return DStream[kstream.KStream[T], T]{
		State: k,
		Step: func(cur kstream.KStream[T]) (Step[T], kstream.KStream[T]) {
			sink := cur(ctx)
			switch sink.Kind {
			case kstream.StopSink:
				return StopAt[T](), cur
			case kstream.SingleSink:
				return Yield(sink.Value), kstream.Nil[T]()
			default:
				tail := sink.Tail
				if tail == nil {
					tail = kstream.FromSVarDrain(sink.Ctx)
				}
				return Yield(sink.Value), tail
			}
		},
	}
}

// ToStreamK adapts a DStream back into a kstream.KStream, the inverse of
// FromStreamK. Skip steps are absorbed transparently - KStream has no
// Skip concept, so ToStreamK keeps pulling until it gets a Yield or Stop.
func ToStreamK[S, T any](d DStream[S, T]) kstream.KStream[T] {
	var build func(state S) kstream.KStream[T]
	build = func(state S) kstream.KStream[T] {
		return func(context.Context) kstream.Sink[T] {
			s := state
			for {
				step, next := d.Step(s)
				switch step.Kind {
				case StepYield:
					return kstream.Yield(step.Value, build(next))
				case StepSkip:
					s = next
					continue
				default:
					return kstream.Stop[T](nil)
				}
			}
		}
	}
	return build(d.State)
}

// ToChannelStream bridges a DStream back onto the teacher's pre-fusion
// Stream[T]/channel layer, draining the state machine on a goroutine.
func ToChannelStream[S, T any](d DStream[S, T]) Stream[T] {
	return Emitter[T](func(ctx context.Context) <-chan T {
		out := make(chan T, DefaultBufferSize)
		go func() {
			defer close(out)
			state := d.State
			for {
				step, next := d.Step(state)
				state = next
				switch step.Kind {
				case StepYield:
					select {
					case <-ctx.Done():
						return
					case out <- step.Value:
					}
				case StepSkip:
					continue
				default:
					return
				}
			}
		}()
		return out
	})
}

// FuseStream lifts a channel-based Stream into a DStream, letting
// downstream combinators (MapD, FilterD, TakeD, ...) fuse with code that
// still only knows how to produce a Stream.
func FuseStream[T any](ctx context.Context, s Stream[T]) DStream[<-chan T, T] {
	return DStream[<-chan T, T]{
		State: s.Emit(ctx),
		Step: func(ch <-chan T) (Step[T], <-chan T) {
			v, ok := <-ch
			if !ok {
				return StopAt[T](), ch
			}
			return Yield(v), ch
		},
	}
}

// ToList drains a DStream fully into a slice - meant for small streams and
// tests (in particular, witnessing the toStreamK(fromStreamK(s)) == s
// fusion identity), not production pipelines.
func ToList[S, T any](d DStream[S, T]) []T {
	var out []T
	state := d.State
	for {
		step, next := d.Step(state)
		state = next
		switch step.Kind {
		case StepYield:
			out = append(out, step.Value)
		case StepSkip:
			continue
		default:
			return out
		}
	}
}
