// Package fixed provides the unsigned and signed fixed-point scalars the
// engine computes with. All amounts, prices and factors are 256-bit
// unsigned integers; factors carry Decimals fractional digits. Every
// operation is checked: the boolean result reports whether the value is
// usable, mirroring how callers decide between overflow, underflow and
// division-by-zero errors.
package fixed

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Decimals is the number of fractional digits carried by factors and
// USD values.
const Decimals = 20

// Uint is an unsigned fixed-point scalar. The zero value is 0.
type Uint struct {
	u uint256.Int
}

// NewUint returns a Uint holding v.
func NewUint(v uint64) *Uint {
	z := &Uint{}
	z.u.SetUint64(v)
	return z
}

// UintZero returns a fresh zero.
func UintZero() *Uint {
	return &Uint{}
}

// UintFromBig converts b. It reports false when b is negative or does
// not fit in 256 bits.
func UintFromBig(b *big.Int) (*Uint, bool) {
	u, overflow := uint256.FromBig(b)
	if overflow || b.Sign() < 0 {
		return nil, false
	}
	z := &Uint{}
	z.u.Set(u)
	return z, true
}

// UintFromString parses a base-10 string.
func UintFromString(s string) (*Uint, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("fixed: bad uint literal %q", s)
	}
	z, ok := UintFromBig(b)
	if !ok {
		return nil, fmt.Errorf("fixed: uint literal out of range %q", s)
	}
	return z, nil
}

// MustUintFromString parses a base-10 string and panics on failure. It
// exists for constants and tests.
func MustUintFromString(s string) *Uint {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("fixed: bad uint literal " + s)
	}
	z, ok := UintFromBig(b)
	if !ok {
		panic("fixed: uint literal out of range " + s)
	}
	return z
}

// Clone returns an independent copy of x.
func (x *Uint) Clone() *Uint {
	z := &Uint{}
	z.u.Set(&x.u)
	return z
}

// IsZero reports whether x == 0.
func (x *Uint) IsZero() bool {
	return x.u.IsZero()
}

// Cmp returns -1, 0 or +1 comparing x against y.
func (x *Uint) Cmp(y *Uint) int {
	return x.u.Cmp(&y.u)
}

// LT reports x < y.
func (x *Uint) LT(y *Uint) bool { return x.u.Lt(&y.u) }

// GT reports x > y.
func (x *Uint) GT(y *Uint) bool { return x.u.Gt(&y.u) }

// LTE reports x <= y.
func (x *Uint) LTE(y *Uint) bool { return !x.u.Gt(&y.u) }

// GTE reports x >= y.
func (x *Uint) GTE(y *Uint) bool { return !x.u.Lt(&y.u) }

// EQ reports x == y.
func (x *Uint) EQ(y *Uint) bool { return x.u.Eq(&y.u) }

// CheckedAdd returns x+y, or false on overflow.
func (x *Uint) CheckedAdd(y *Uint) (*Uint, bool) {
	z := &Uint{}
	if _, overflow := z.u.AddOverflow(&x.u, &y.u); overflow {
		return nil, false
	}
	return z, true
}

// CheckedSub returns x-y, or false when y > x.
func (x *Uint) CheckedSub(y *Uint) (*Uint, bool) {
	z := &Uint{}
	if _, underflow := z.u.SubOverflow(&x.u, &y.u); underflow {
		return nil, false
	}
	return z, true
}

// CheckedMul returns x*y, or false on overflow.
func (x *Uint) CheckedMul(y *Uint) (*Uint, bool) {
	z := &Uint{}
	if _, overflow := z.u.MulOverflow(&x.u, &y.u); overflow {
		return nil, false
	}
	return z, true
}

// CheckedDiv returns x/y truncated, or false when y == 0.
func (x *Uint) CheckedDiv(y *Uint) (*Uint, bool) {
	if y.u.IsZero() {
		return nil, false
	}
	z := &Uint{}
	z.u.Div(&x.u, &y.u)
	return z, true
}

// CheckedMulDiv returns x*y/d with a 512-bit intermediate product,
// truncated. It reports false when d == 0 or the quotient does not fit
// in 256 bits.
func (x *Uint) CheckedMulDiv(y, d *Uint) (*Uint, bool) {
	if d.u.IsZero() {
		return nil, false
	}
	p := new(big.Int).Mul(x.u.ToBig(), y.u.ToBig())
	p.Quo(p, d.u.ToBig())
	return UintFromBig(p)
}

// CheckedMulDivCeil is CheckedMulDiv rounding the quotient up.
func (x *Uint) CheckedMulDivCeil(y, d *Uint) (*Uint, bool) {
	if d.u.IsZero() {
		return nil, false
	}
	p := new(big.Int).Mul(x.u.ToBig(), y.u.ToBig())
	q, r := new(big.Int).QuoRem(p, d.u.ToBig(), new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return UintFromBig(q)
}

// CheckedDivCeil returns x/y rounded up, or false when y == 0.
func (x *Uint) CheckedDivCeil(y *Uint) (*Uint, bool) {
	if y.u.IsZero() {
		return nil, false
	}
	q, r := new(big.Int).QuoRem(x.u.ToBig(), y.u.ToBig(), new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return UintFromBig(q)
}

// Diff returns |x-y|.
func (x *Uint) Diff(y *Uint) *Uint {
	z := &Uint{}
	if x.u.Lt(&y.u) {
		z.u.Sub(&y.u, &x.u)
	} else {
		z.u.Sub(&x.u, &y.u)
	}
	return z
}

// Min returns the smaller of x and y as a copy.
func (x *Uint) Min(y *Uint) *Uint {
	if x.u.Gt(&y.u) {
		return y.Clone()
	}
	return x.Clone()
}

// CheckedAddSigned returns x+d where d is signed, reporting false on
// overflow or when the result would be negative.
func (x *Uint) CheckedAddSigned(d *Int) (*Uint, bool) {
	if d.neg {
		return x.CheckedSub(&d.abs)
	}
	return x.CheckedAdd(&d.abs)
}

// CheckedMulSigned returns x*n keeping n's sign, or false when the
// magnitude overflows.
func (x *Uint) CheckedMulSigned(n *Int) (*Int, bool) {
	mag, ok := x.CheckedMul(&n.abs)
	if !ok {
		return nil, false
	}
	return IntFromUint(mag, n.neg), true
}

// CheckedMulDivSigned returns n*x/d keeping n's sign. The magnitude
// uses a 512-bit intermediate. It reports false when d == 0 or the
// magnitude overflows.
func (x *Uint) CheckedMulDivSigned(n *Int, d *Uint) (*Int, bool) {
	mag, ok := x.CheckedMulDiv(&n.abs, d)
	if !ok {
		return nil, false
	}
	return IntFromUint(mag, n.neg), true
}

// ToSigned returns x as a non-negative Int. Sign-magnitude storage
// means every Uint is representable.
func (x *Uint) ToSigned() *Int {
	return IntFromUint(x.Clone(), false)
}

// ToBig returns x as a fresh big.Int.
func (x *Uint) ToBig() *big.Int {
	return x.u.ToBig()
}

// Uint64 returns the low 64 bits of x and whether x fits in 64 bits.
func (x *Uint) Uint64() (uint64, bool) {
	return x.u.Uint64(), x.u.IsUint64()
}

// String renders x in base 10.
func (x *Uint) String() string {
	return x.u.Dec()
}
