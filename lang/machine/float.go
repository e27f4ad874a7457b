package machine

import "math/big"

// DefaultPrecision is the default mantissa precision, in bits, for a Float
// that does not otherwise inherit one.
const DefaultPrecision = 53

// Float is an arbitrary-precision binary floating point value.
type Float struct {
	gcHeader
	v *big.Float
}

var _ trackedValue = (*Float)(nil)
var _ Ordered = (*Float)(nil)

func (f *Float) header() *gcHeader { return &f.gcHeader }
func (f *Float) Walk(func(Value))  {}
func (f *Float) destroy()          { f.v = nil }
func (f *Float) String() string    { return f.v.Text('g', -1) }
func (f *Float) Type() string      { return "float" }
func (f *Float) Big() *big.Float   { return f.v }

// Cmp performs a relative-difference comparison against vm's configured
// epsilon: x and y compare equal if
// |x-y| <= epsilon * max(|x|, |y|, 1).
func (f *Float) Cmp(vm *VM, y Value) (int, error) {
	yf, ok := y.(*Float)
	if !ok {
		return 0, typeError("float", y)
	}
	if vm.floatsEqual(f.v, yf.v) {
		return 0, nil
	}
	return f.v.Cmp(yf.v), nil
}

// floatsEqual implements the relative-epsilon comparison used by eq/ne and by
// Cmp above.
func (vm *VM) floatsEqual(x, y *big.Float) bool {
	if x.Cmp(y) == 0 {
		return true
	}
	diff := new(big.Float).Sub(x, y)
	diff.Abs(diff)
	ax, ay := new(big.Float).Abs(x), new(big.Float).Abs(y)
	scale := ax
	if ay.Cmp(scale) > 0 {
		scale = ay
	}
	one := big.NewFloat(1)
	if scale.Cmp(one) < 0 {
		scale = one
	}
	bound := new(big.Float).Mul(scale, vm.Epsilon)
	return diff.Cmp(bound) <= 0
}

// NewFloat returns a Float wrapping v at the VM's configured precision.
func NewFloat(vm *VM, v *big.Float) *Float {
	prec := vm.FloatPrecision
	if prec == 0 {
		prec = DefaultPrecision
	}
	f := floatPool.Get().(*Float)
	f.v = new(big.Float).SetPrec(prec).Set(v)
	return f
}

// DefaultEpsilon is the VM's default relative-difference comparison
// tolerance, approximately 2.22e-16 at 512-bit precision.
func DefaultEpsilon() *big.Float {
	return new(big.Float).SetPrec(512).SetFloat64(2.220446049250313e-16)
}

// NullFloat is the pinned, variant-typed null for float.
var NullFloat = &Float{v: big.NewFloat(0)}

func init() { NullFloat.pinned = true; NullFloat.isNull = true }
