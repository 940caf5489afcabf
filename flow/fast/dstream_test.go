package fast

import (
	"context"
	"testing"

	"github.com/lguimbarda/svarflow/flow/kstream"
)

func TestDStreamFromSlice(t *testing.T) {
	got := ToList(DStreamFromSlice([]int{1, 2, 3}))
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestMapD(t *testing.T) {
	d := MapD(DStreamFromSlice([]int{1, 2, 3}), func(n int) int { return n * 2 })
	got := ToList(d)
	want := []int{2, 4, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestFilterD(t *testing.T) {
	d := FilterD(DStreamFromSlice([]int{1, 2, 3, 4, 5, 6}), func(n int) bool { return n%2 == 0 })
	got := ToList(d)
	want := []int{2, 4, 6}
	if len(got) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestTakeD(t *testing.T) {
	d := TakeD(DStreamFromSlice([]int{1, 2, 3, 4, 5}), 3)
	got := ToList(d)
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestTakeWhileD(t *testing.T) {
	d := TakeWhileD(DStreamFromSlice([]int{1, 2, 3, 10, 1, 2}), func(n int) bool { return n < 5 })
	got := ToList(d)
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestZipWith(t *testing.T) {
	a := DStreamFromSlice([]int{1, 2, 3})
	b := DStreamFromSlice([]string{"a", "b", "c", "d"})
	d := ZipWith(a, b, func(n int, s string) string {
		return s + string(rune('0'+n))
	})
	got := ToList(d)
	want := []string{"a1", "b2", "c3"}
	if len(got) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestConcatMap(t *testing.T) {
	d := ConcatMap(DStreamFromSlice([]int{1, 2, 3}), func(n int) DStream[any, int] {
		inner := DStreamFromSlice([]int{n, n})
		return DStream[any, int]{
			State: 0,
			Step: func(s any) (Step[int], any) {
				step, next := inner.Step(s.(int))
				return step, next
			},
		}
	})
	got := ToList(d)
	want := []int{1, 1, 2, 2, 3, 3}
	if len(got) != len(want) {
		t.Fatalf("expected %d elements, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestFoldlStrict(t *testing.T) {
	sum := FoldlStrict(DStreamFromSlice([]int{1, 2, 3, 4}), 0, func(acc, n int) int { return acc + n })
	if sum != 10 {
		t.Errorf("expected 10, got %d", sum)
	}
}

func TestFoldrShortCircuits(t *testing.T) {
	seen := 0
	result := Foldr(EnumerateFromStep(1, 1), false, func(n int, rest func() bool) bool {
		seen++
		if n == 3 {
			return true
		}
		return rest()
	})
	if !result {
		t.Fatalf("expected Foldr to find a match")
	}
	if seen != 3 {
		t.Errorf("expected Foldr to stop after 3 elements, saw %d", seen)
	}
}

func TestEqBy(t *testing.T) {
	a := DStreamFromSlice([]int{1, 2, 3})
	b := DStreamFromSlice([]int{1, 2, 3})
	if !EqBy(a, b, func(x, y int) bool { return x == y }) {
		t.Errorf("expected equal streams to compare equal")
	}

	c := DStreamFromSlice([]int{1, 2})
	d := DStreamFromSlice([]int{1, 2, 3})
	if EqBy(c, d, func(x, y int) bool { return x == y }) {
		t.Errorf("expected streams of different length to compare unequal")
	}
}

func TestCmpBy(t *testing.T) {
	a := DStreamFromSlice([]int{1, 2, 3})
	b := DStreamFromSlice([]int{1, 2, 4})
	if CmpBy(a, b, func(x, y int) int { return x - y }) >= 0 {
		t.Errorf("expected a < b")
	}
	if CmpBy(a, a, func(x, y int) int { return x - y }) != 0 {
		t.Errorf("expected equal streams to compare equal")
	}
}

func TestGroupsOf(t *testing.T) {
	d := GroupsOf(DStreamFromSlice([]int{1, 2, 3, 4, 5}), 2, 0, func(acc, n int) int { return acc + n })
	got := ToList(d)
	want := []int{3, 7, 5} // (1+2), (3+4), trailing (5)
	if len(got) != len(want) {
		t.Fatalf("expected %d groups, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("group %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestFuseStreamIdentity(t *testing.T) {
	ctx := context.Background()
	original := []int{1, 2, 3, 4}
	s := FromSlice(original)
	fused := FuseStream(ctx, s)
	got := Slice(ctx, ToChannelStream(fused))
	if len(got) != len(original) {
		t.Fatalf("expected %d elements, got %d", len(original), len(got))
	}
	for i := range original {
		if got[i] != original[i] {
			t.Errorf("index %d: expected %d, got %d", i, original[i], got[i])
		}
	}
}

// TestStreamKFusionIdentity witnesses toStreamK(fromStreamK(s)) == s: driving
// a KStream through FromStreamK and back through ToStreamK must reproduce
// the original element sequence.
func TestStreamKFusionIdentity(t *testing.T) {
	ctx := context.Background()
	original := []int{10, 20, 30}
	k := kstream.FromSlice(original)

	direct := FromStreamK(ctx, k)
	roundTripped := ToStreamK(direct)

	got, err := kstream.ToSlice(ctx, roundTripped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(original) {
		t.Fatalf("expected %d elements, got %d", len(original), len(got))
	}
	for i := range original {
		if got[i] != original[i] {
			t.Errorf("index %d: expected %d, got %d", i, original[i], got[i])
		}
	}
}
