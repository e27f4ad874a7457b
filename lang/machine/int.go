package machine

import "math/big"

// Int is an arbitrary-precision signed integer.
type Int struct {
	gcHeader
	v *big.Int
}

var _ trackedValue = (*Int)(nil)
var _ Ordered = (*Int)(nil)

func (i *Int) header() *gcHeader        { return &i.gcHeader }
func (i *Int) Walk(func(Value))         {}
func (i *Int) destroy()                 { i.v = nil }
func (i *Int) String() string           { return i.v.String() }
func (i *Int) Type() string             { return "int" }
func (i *Int) Big() *big.Int            { return i.v }
func (i *Int) Cmp(_ *VM, y Value) (int, error) {
	yi, ok := y.(*Int)
	if !ok {
		return 0, typeError("int", y)
	}
	return i.v.Cmp(yi.v), nil
}

// smallInts caches the pinned, untracked Int singletons for literal values in
// -1024..1024. They are shared across every VM: pinned values never join a
// collectable chain, so sharing them process-wide is safe.
// It is filled by its initializer expression rather than by an init
// function, so that package-level variables such as Zero and One see the
// populated cache.
var smallInts = func() (c [2049]*Int) {
	for i := range c {
		c[i] = &Int{v: big.NewInt(int64(i - 1024))}
		c[i].pinned = true
	}
	return c
}()

// NewInt returns an Int wrapping n. If n falls in the shared small-integer
// range, the pinned singleton is returned untracked; otherwise an Int drawn
// from the int pool is returned and the caller is responsible for calling
// vm.track on it once it is retained.
func NewInt(n *big.Int) *Int {
	if n.IsInt64() {
		v := n.Int64()
		if v >= -1024 && v <= 1024 {
			return smallInts[v+1024]
		}
	}
	i := intPool.Get().(*Int)
	i.v = new(big.Int).Set(n)
	return i
}

// NewIntFromInt64 is a convenience wrapper around NewInt for native int64
// constants used internally by opcodes (e.g. `size`, `coll size`).
func NewIntFromInt64(n int64) *Int { return NewInt(big.NewInt(n)) }

// Zero and One are the two pinned Int singletons most often referenced by
// name, alongside True/False and the variant nulls.
var (
	Zero = smallInts[1024]
	One  = smallInts[1025]
)

// NullInt is the pinned, variant-typed null for int.
var NullInt = &Int{v: big.NewInt(0)}

func init() { NullInt.pinned = true; NullInt.isNull = true }
