package machine

import "unsafe"

// Pointer is an opaque foreign pointer. When Foreign is true, the collector
// must not attempt to free the underlying storage: it is owned by foreign
// code.
type Pointer struct {
	gcHeader
	Addr    unsafe.Pointer
	ownedBy *FFILib // non-nil if this pointer must be closed through its library
}

var _ trackedValue = (*Pointer)(nil)

func (p *Pointer) header() *gcHeader { return &p.gcHeader }
func (p *Pointer) Walk(func(Value))  {}
func (p *Pointer) destroy() {
	if p.header().foreign {
		return // foreign-owned storage: the collector must not free it
	}
	p.Addr = nil
}
func (p *Pointer) String() string { return "ptr" }
func (p *Pointer) Type() string   { return "ptr" }

// NewPointer returns a fresh, untracked Pointer. foreign marks storage the
// collector must not attempt to release.
func NewPointer(addr unsafe.Pointer, foreign bool) *Pointer {
	p := &Pointer{Addr: addr}
	p.gcHeader.foreign = foreign
	return p
}

// NullPointer is the pinned, variant-typed null for ptr.
var NullPointer = &Pointer{}

func init() { NullPointer.pinned = true; NullPointer.isNull = true }
