package machine

// sentinel is the type of the pointer-identity control-flow singletons.
// Each one is distinct even though several carry no payload: the evaluator
// dispatches on identity (==), never on a shared zero-value, so
// RepeatIfTrue and RepeatIfFalse must never be coalesced into the same
// instance despite having identical structure.
type sentinel struct {
	gcHeader
	name string
}

func (s *sentinel) header() *gcHeader { return &s.gcHeader }
func (s *sentinel) Walk(func(Value))  {}
func (s *sentinel) destroy()          {}
func (s *sentinel) String() string    { return s.name }
func (s *sentinel) Type() string      { return "sentinel" }

func newSentinel(name string) *sentinel {
	s := &sentinel{name: name}
	s.pinned = true
	return s
}

// The control-flow sentinels. Every evaluator comparison against these must
// use Same (pointer identity), never Equal.
var (
	ExitScope      Value = newSentinel("exit-scope")
	Repeat         Value = newSentinel("repeat")
	RepeatIfTrue   Value = newSentinel("repeat-if-true")
	RepeatIfFalse  Value = newSentinel("repeat-if-false")
	TailcallReq    Value = newSentinel("tailcall-request")
	ExitRequest    Value = newSentinel("exit-request")
	RaiseRequest   Value = newSentinel("raise-request")
	ErrorLabel     Value = newSentinel("error-label")
)

// IsSentinel reports whether v is one of the control-flow sentinels above.
func IsSentinel(v Value) bool {
	_, ok := v.(*sentinel)
	return ok
}
