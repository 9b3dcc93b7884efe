package fixed

// Int is a signed fixed-point scalar stored as sign and magnitude.
// The invariant neg => !abs.IsZero() keeps zero unsigned so that
// comparisons and String have a single representation.
type Int struct {
	abs Uint
	neg bool
}

// NewInt returns an Int holding v.
func NewInt(v int64) *Int {
	z := &Int{}
	if v < 0 {
		z.neg = true
		z.abs.u.SetUint64(uint64(-v))
	} else {
		z.abs.u.SetUint64(uint64(v))
	}
	return z
}

// IntZero returns a fresh zero.
func IntZero() *Int {
	return &Int{}
}

// IntFromUint builds an Int from a magnitude and a sign. A zero
// magnitude is always non-negative.
func IntFromUint(abs *Uint, negative bool) *Int {
	z := &Int{}
	z.abs.u.Set(&abs.u)
	z.neg = negative && !z.abs.u.IsZero()
	return z
}

// Clone returns an independent copy of x.
func (x *Int) Clone() *Int {
	z := &Int{neg: x.neg}
	z.abs.u.Set(&x.abs.u)
	return z
}

// IsZero reports whether x == 0.
func (x *Int) IsZero() bool { return x.abs.u.IsZero() }

// IsNegative reports whether x < 0.
func (x *Int) IsNegative() bool { return x.neg }

// IsPositive reports whether x > 0.
func (x *Int) IsPositive() bool { return !x.neg && !x.abs.u.IsZero() }

// Abs returns |x| as a copy.
func (x *Int) Abs() *Uint { return x.abs.Clone() }

// Neg returns -x.
func (x *Int) Neg() *Int {
	return IntFromUint(x.abs.Clone(), !x.neg)
}

// Cmp returns -1, 0 or +1 comparing x against y.
func (x *Int) Cmp(y *Int) int {
	switch {
	case x.neg && !y.neg:
		return -1
	case !x.neg && y.neg:
		return 1
	case x.neg:
		return y.abs.Cmp(&x.abs)
	default:
		return x.abs.Cmp(&y.abs)
	}
}

// CheckedAdd returns x+y, or false when the magnitude overflows.
func (x *Int) CheckedAdd(y *Int) (*Int, bool) {
	if x.neg == y.neg {
		sum, ok := x.abs.CheckedAdd(&y.abs)
		if !ok {
			return nil, false
		}
		return IntFromUint(sum, x.neg), true
	}
	// Opposite signs: subtract the smaller magnitude, keep the sign of
	// the larger one.
	if x.abs.GTE(&y.abs) {
		d, _ := x.abs.CheckedSub(&y.abs)
		return IntFromUint(d, x.neg), true
	}
	d, _ := y.abs.CheckedSub(&x.abs)
	return IntFromUint(d, y.neg), true
}

// CheckedSub returns x-y, or false when the magnitude overflows.
func (x *Int) CheckedSub(y *Int) (*Int, bool) {
	return x.CheckedAdd(y.Neg())
}

// CheckedMul returns x*y, or false when the magnitude overflows.
func (x *Int) CheckedMul(y *Int) (*Int, bool) {
	mag, ok := x.abs.CheckedMul(&y.abs)
	if !ok {
		return nil, false
	}
	return IntFromUint(mag, x.neg != y.neg), true
}

// CheckedDiv returns x/y truncated toward zero, or false when y == 0.
func (x *Int) CheckedDiv(y *Int) (*Int, bool) {
	mag, ok := x.abs.CheckedDiv(&y.abs)
	if !ok {
		return nil, false
	}
	return IntFromUint(mag, x.neg != y.neg), true
}

// CheckedToUint returns the magnitude when x >= 0 and reports false
// for negative x.
func (x *Int) CheckedToUint() (*Uint, bool) {
	if x.neg {
		return nil, false
	}
	return x.abs.Clone(), true
}

// String renders x in base 10 with a leading minus for negative
// values.
func (x *Int) String() string {
	if x.neg {
		return "-" + x.abs.String()
	}
	return x.abs.String()
}
