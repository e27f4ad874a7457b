package machine

// Projection is a read-only (collection, start, end) view into an array.
// Mutating operations on a projection are undefined; copying one
// materializes a new Array sliced by the bounds.
type Projection struct {
	gcHeader
	Collection *Array
	Start, End int
}

var _ trackedValue = (*Projection)(nil)
var _ Container = (*Projection)(nil)

func (p *Projection) header() *gcHeader { return &p.gcHeader }
func (p *Projection) Walk(visit func(Value)) {
	if p.Collection != nil {
		visit(p.Collection)
	}
}
func (p *Projection) destroy()      { p.Collection = nil }
func (p *Projection) String() string { return "projection" }
func (p *Projection) Type() string   { return "projection" }
func (p *Projection) Len() int       { return p.End - p.Start }

func (p *Projection) Index(i int) Value {
	return p.Collection.elems[p.Start+i]
}

// Materialize copies the view into a new, untracked Array.
func (p *Projection) Materialize() *Array {
	elems := make([]Value, p.Len())
	copy(elems, p.Collection.elems[p.Start:p.End])
	return NewArray(elems)
}

// NewProjection returns an untracked Projection over coll[start:end],
// drawn from the projection pool.
func NewProjection(coll *Array, start, end int) *Projection {
	p := projectionPool.Get().(*Projection)
	p.Collection, p.Start, p.End = coll, start, end
	return p
}
