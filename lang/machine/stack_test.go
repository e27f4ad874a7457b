package machine

import (
	"math/big"
	"testing"
)

// TestPushPopIdentity checks that popping N values off a stack that just had
// a longer run of pushes always uncovers, as the new top, whatever was
// pushed pushed-1-N positions back: `push P0..Pn; pop N` leaves Pn-N-1 (0
// indexed from the deepest of the run) on top.
func TestPushPopIdentity(t *testing.T) {
	st := NewStack()
	pushed := make([]*Int, 10)
	for i := range pushed {
		pushed[i] = NewInt(big.NewInt(int64(i)))
		st.Push(pushed[i])
	}

	for n := 1; n <= len(pushed); n++ {
		got := st.Top()
		want := pushed[len(pushed)-n]
		if got != Value(want) {
			t.Fatalf("pop %d: top is %v, want the value pushed at position %d (%v)", n-1, got, len(pushed)-n, want)
		}
		st.Pop(1)
	}
	if st.Len() != 0 {
		t.Fatalf("stack should be empty after popping every pushed value, has %d left", st.Len())
	}
}

// TestPopNReturnsDeepestFirst exercises the batch form: Pop(n) must return
// the n values in the order they were pushed, deepest first.
func TestPopNReturnsDeepestFirst(t *testing.T) {
	st := NewStack()
	a, b, c := NewIntFromInt64(1), NewIntFromInt64(2), NewIntFromInt64(3)
	st.Push(a)
	st.Push(b)
	st.Push(c)

	got := st.Pop(3)
	want := []Value{a, b, c}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Pop(3)[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if st.Len() != 0 {
		t.Fatalf("stack should be empty, has %d", st.Len())
	}
}

// TestCommitRevertRoundTrip checks that `commit; <arbitrary ops>; revert`
// always leaves the stack at the exact size it had when commit ran,
// regardless of what happened in between (pushes, pops, or a mix).
func TestCommitRevertRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Stack)
	}{
		{"only pushes", func(s *Stack) {
			s.Push(NewIntFromInt64(1))
			s.Push(NewIntFromInt64(2))
			s.Push(NewIntFromInt64(3))
		}},
		{"push then pop below the commit size", func(s *Stack) {
			s.Push(NewIntFromInt64(1))
			s.Pop(1)
			s.Push(NewIntFromInt64(2))
			s.Push(NewIntFromInt64(3))
			s.Pop(2)
		}},
		{"no-op", func(s *Stack) {}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := NewStack()
			st.Push(NewIntFromInt64(100))
			st.Push(NewIntFromInt64(200))
			sizeAtCommit := st.Len()

			st.Commit()
			tc.mutate(st)
			st.Revert()

			if st.Len() != sizeAtCommit {
				t.Fatalf("after commit/revert: size %d, want %d (size at commit)", st.Len(), sizeAtCommit)
			}
		})
	}
}

// TestRevertNeverGrowsPastACommitThatShrankBelowIt checks the documented
// edge case: if the stack has already shrunk below the committed size by
// the time revert runs, revert leaves it alone rather than restoring lost
// values out of nowhere.
func TestRevertNeverGrowsPastACommitThatShrankBelowIt(t *testing.T) {
	st := NewStack()
	st.Push(NewIntFromInt64(1))
	st.Push(NewIntFromInt64(2))
	st.Push(NewIntFromInt64(3))
	st.Commit() // committed size is 3

	st.Pop(2) // drop to size 1, below the commit
	st.Revert()

	if st.Len() != 1 {
		t.Fatalf("revert below a shrunk stack should leave it alone, got size %d", st.Len())
	}
}

func TestFrameBaseTracksPushFrame(t *testing.T) {
	st := NewStack()
	st.Push(NewIntFromInt64(42))
	st.PushFrame()
	if got, want := st.FrameBase(), 0; got != want {
		t.Fatalf("FrameBase() = %d, want %d", got, want)
	}
	st.Push(NewIntFromInt64(7))
	st.PopFrame()
	if got, want := st.FrameBase(), -1; got != want {
		t.Fatalf("FrameBase() after pop = %d, want the root base %d", got, want)
	}
}
