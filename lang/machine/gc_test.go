package machine

import (
	"math/big"
	"testing"
)

// TestGCReclaimsUnreferencedValues checks that releasing a value from every
// stack that referenced it, then forcing a cycle, drops the live count by
// exactly one: the collector neither leaks (the value stays tracked forever)
// nor over-collects (something still live gets swept too).
func TestGCReclaimsUnreferencedValues(t *testing.T) {
	vm := New()
	before := vm.LiveObjects()

	s := NewString("temporary")
	vm.Track(s)
	vm.Stack().Push(s)
	if got, want := vm.LiveObjects(), before+1; got != want {
		t.Fatalf("after tracking one value: LiveObjects() = %d, want %d", got, want)
	}

	vm.Stack().Pop(1) // nothing still references s
	vm.GC()

	if got := vm.LiveObjects(); got != before {
		t.Fatalf("after releasing and collecting: LiveObjects() = %d, want %d (back to baseline)", got, before)
	}
}

// TestGCRetainsValuesReachableFromTheStack mirrors the positive case: a
// value still sitting on a live stack must survive a cycle.
func TestGCRetainsValuesReachableFromTheStack(t *testing.T) {
	vm := New()
	before := vm.LiveObjects()

	s := NewString("kept")
	vm.Track(s)
	vm.Stack().Push(s)

	vm.GC()

	if got, want := vm.LiveObjects(), before+1; got != want {
		t.Fatalf("LiveObjects() after a cycle with s still on stack = %d, want %d", got, want)
	}
	if vm.Stack().Top() != Value(s) {
		t.Fatal("GC must not mutate what a live stack references")
	}
}

// TestGCReclaimsExactCountAcrossSeveralValues exercises the "exactly the
// number of such values" part of the live-count invariant with more than
// one released object, some of which are reachable through a container
// rather than pushed directly.
func TestGCReclaimsExactCountAcrossSeveralValues(t *testing.T) {
	vm := New()
	before := vm.LiveObjects()

	arr := NewArray(nil)
	vm.Track(arr)
	for i := 0; i < 3; i++ {
		e := NewString("elem")
		vm.Track(e)
		if err := arr.Append(e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	vm.Stack().Push(arr)
	if got, want := vm.LiveObjects(), before+4; got != want { // array + 3 strings
		t.Fatalf("LiveObjects() with array and its 3 elements tracked = %d, want %d", got, want)
	}

	vm.Stack().Pop(1)
	vm.GC()

	if got := vm.LiveObjects(); got != before {
		t.Fatalf("LiveObjects() after releasing the array and collecting = %d, want %d", got, before)
	}
}

// TestGCPinnedSmallIntsAreNeverTrackedOrSwept checks the "accounting for
// pinned singletons" clause: values in the shared small-int cache never join
// the GC chain in the first place, so pushing, releasing and collecting one
// must not move the live count at all.
func TestGCPinnedSmallIntsAreNeverTrackedOrSwept(t *testing.T) {
	vm := New()
	before := vm.LiveObjects()

	small := NewInt(big.NewInt(5))
	vm.TrackOnce(small) // a no-op for a pinned singleton
	vm.Stack().Push(small)
	vm.Stack().Pop(1)
	vm.GC()

	if got := vm.LiveObjects(); got != before {
		t.Fatalf("LiveObjects() after round-tripping a small int = %d, want %d (pinned singletons are never tracked)", got, before)
	}
}

// TestSmallIntSingletonIdentity checks that any integer literal in the
// shared small-int range resolves to the same *Int instance every time it is
// constructed, the identity the parser's literal cache and every subsequent
// NewInt call both rely on.
func TestSmallIntSingletonIdentity(t *testing.T) {
	for _, n := range []int64{-1024, -7, -1, 0, 1, 42, 1024} {
		a := NewInt(big.NewInt(n))
		b := NewInt(big.NewInt(n))
		if a != b {
			t.Fatalf("NewInt(%d) returned distinct instances %p and %p, want the shared singleton", n, a, b)
		}
		if !a.pinned {
			t.Fatalf("NewInt(%d): shared singleton must be pinned", n)
		}
		if a.tracked {
			t.Fatalf("NewInt(%d): shared singleton must never be tracked", n)
		}
	}
}

// TestSmallIntSingletonBoundary checks that values just outside the cached
// range are NOT shared: NewInt must allocate a fresh Int once magnitude
// exceeds the cache, and two such out-of-range calls must not alias.
func TestSmallIntSingletonBoundary(t *testing.T) {
	a := NewInt(big.NewInt(1025))
	b := NewInt(big.NewInt(1025))
	if a == b {
		t.Fatal("NewInt(1025) is outside the small-int cache and must not be a shared singleton")
	}
	if a.pinned {
		t.Fatal("an out-of-range Int must not start out pinned")
	}
}

func TestZeroAndOneAreTheSmallIntSingletons(t *testing.T) {
	if Zero != NewInt(big.NewInt(0)) {
		t.Fatal("Zero must be the same instance NewInt(0) returns")
	}
	if One != NewInt(big.NewInt(1)) {
		t.Fatal("One must be the same instance NewInt(1) returns")
	}
}
