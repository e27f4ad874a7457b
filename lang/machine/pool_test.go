package machine

import (
	"math/big"
	"testing"
)

// TestDestroyNowRecyclesIntoThePool checks the allocation round trip: with
// recycling enabled, a destroyed object is zeroed, returned to its type's
// pool, and handed back out by the next matching constructor call.
func TestDestroyNowRecyclesIntoThePool(t *testing.T) {
	vm := New()
	vm.FreelistCap = 8

	s := NewString("scratch")
	vm.Track(s)
	before := vm.LiveObjects()
	vm.DestroyNow(s)

	if got, want := vm.LiveObjects(), before-1; got != want {
		t.Fatalf("LiveObjects() after DestroyNow = %d, want %d", got, want)
	}
	if s.tracked || s.pinned || s.next != nil || s.prev != nil {
		t.Fatal("a recycled object's header must be fully reset for reuse")
	}

	s2 := NewString("next")
	if s2 != s {
		t.Fatalf("NewString after a recycle returned %p, want the pooled slot %p", s2, s)
	}
	if s2.Go() != "next" {
		t.Fatalf("reused String holds %q, want %q", s2.Go(), "next")
	}
}

// TestIntPoolReusesOutOfRangeInts: ints outside the shared small-int cache
// go through the pool round trip too; the pinned singletons never do.
func TestIntPoolReusesOutOfRangeInts(t *testing.T) {
	vm := New()
	vm.FreelistCap = 8

	i := NewInt(big.NewInt(5000))
	vm.Track(i)
	vm.DestroyNow(i)

	i2 := NewInt(big.NewInt(6000))
	if i2 != i {
		t.Fatalf("NewInt after a recycle returned %p, want the pooled slot %p", i2, i)
	}
	if i2.Big().Int64() != 6000 {
		t.Fatalf("reused Int holds %s, want 6000", i2.Big())
	}

	small := NewInt(big.NewInt(7))
	vm.TrackOnce(small)
	vm.DestroyNow(small) // pinned: must be a no-op
	if NewInt(big.NewInt(7)) != small {
		t.Fatal("a small-int singleton must never be destroyed or replaced")
	}
}

// TestFreelistCapZeroDisablesRecycling: with the gate off, DestroyNow still
// destroys and unlinks, but the object is left to the Go collector rather
// than zeroed into a pool — its header keeps the tracked mark it died with.
func TestFreelistCapZeroDisablesRecycling(t *testing.T) {
	vm := New() // FreelistCap defaults to 0
	s := NewString("untouched")
	vm.Track(s)
	before := vm.LiveObjects()
	vm.DestroyNow(s)

	if got, want := vm.LiveObjects(), before-1; got != want {
		t.Fatalf("LiveObjects() after DestroyNow = %d, want %d", got, want)
	}
	if !s.tracked {
		t.Fatal("with recycling disabled the dead object must not be zeroed for reuse")
	}
}

// TestSweepRecyclesFunctionAndItsOwnStack: collecting an own-stack function
// reclaims both the FunctionData and its per-invocation Stack, so the next
// NewFunction gets both slots back.
func TestSweepRecyclesFunctionAndItsOwnStack(t *testing.T) {
	vm := New()
	vm.FreelistCap = 8

	fn := NewFunction("worker", nil, true)
	st := fn.Stack
	vm.Track(fn)
	vm.GC() // fn is referenced by nothing: swept and recycled

	fn2 := NewFunction("worker2", nil, true)
	if fn2 != fn {
		t.Fatalf("NewFunction after a sweep returned %p, want the pooled slot %p", fn2, fn)
	}
	if fn2.Stack != st {
		t.Fatalf("the recycled function's stack is %p, want the pooled slot %p", fn2.Stack, st)
	}
	if fn2.Stack.Len() != 0 || fn2.Stack.FrameBase() != -1 || fn2.Stack.CommitIndex() != -1 {
		t.Fatal("a reused stack must come back empty with the root frame base and initial commit")
	}
}
