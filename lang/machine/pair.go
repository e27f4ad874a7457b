package machine

// Pair holds exactly two value slots.
type Pair struct {
	gcHeader
	A, B Value
}

var _ trackedValue = (*Pair)(nil)
var _ Container = (*Pair)(nil)

func (p *Pair) header() *gcHeader { return &p.gcHeader }
func (p *Pair) Walk(visit func(Value)) {
	visit(p.A)
	visit(p.B)
}
func (p *Pair) destroy()      { p.A, p.B = nil, nil }
func (p *Pair) String() string {
	return "(" + safeString(p.A) + " . " + safeString(p.B) + ")"
}
func (p *Pair) Type() string { return "pair" }

func safeString(v Value) string {
	if v == nil {
		return "null"
	}
	return v.String()
}

// NewPair returns an untracked Pair, drawn from the pair pool.
func NewPair(a, b Value) *Pair {
	p := pairPool.Get().(*Pair)
	p.A, p.B = a, b
	return p
}

// NullPair is the pinned, variant-typed null for pair.
var NullPair = &Pair{}

func init() { NullPair.pinned = true; NullPair.isNull = true }
