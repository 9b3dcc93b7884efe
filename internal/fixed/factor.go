package fixed

import (
	"github.com/shopspring/decimal"
)

// Unit returns 1.0 in factor scale, i.e. 10^Decimals.
func Unit() *Uint {
	return MustUintFromString("100000000000000000000")
}

var unit = Unit()

// CheckedFixedMul returns x*y/Unit, a multiplication of two
// unit-scaled values.
func CheckedFixedMul(x, y *Uint) (*Uint, bool) {
	return x.CheckedMulDiv(y, unit)
}

// CheckedFixedDiv returns x*Unit/y, a division of two unit-scaled
// values.
func CheckedFixedDiv(x, y *Uint) (*Uint, bool) {
	return x.CheckedMulDiv(unit, y)
}

// ApplyFactor scales value by a unit-scaled factor: value*factor/Unit.
func ApplyFactor(value, factor *Uint) (*Uint, bool) {
	return value.CheckedMulDiv(factor, unit)
}

// ApplyExponentFactor raises a unit-scaled value to a unit-scaled
// exponent. Values below one collapse to zero so that impact curves
// never amplify dust; a value of exactly one returns one for any
// exponent.
func ApplyExponentFactor(value, exponent *Uint) (*Uint, bool) {
	switch value.Cmp(unit) {
	case -1:
		return UintZero(), true
	case 0:
		return unit.Clone(), true
	}
	if exponent.IsZero() {
		return unit.Clone(), true
	}
	if exponent.EQ(unit) {
		return value.Clone(), true
	}
	return checkedPowFixed(value, exponent)
}

// ApplyFactors composes the impact curve: value^exponent scaled by
// factor.
func ApplyFactors(value, factor, exponent *Uint) (*Uint, bool) {
	powed, ok := ApplyExponentFactor(value, exponent)
	if !ok {
		return nil, false
	}
	return ApplyFactor(powed, factor)
}

// CheckedPow raises a unit-scaled value to a unit-scaled exponent
// without the below-one collapse of ApplyExponentFactor, for curves
// whose input is a ratio in [0,1].
func CheckedPow(value, exponent *Uint) (*Uint, bool) {
	if value.IsZero() {
		return UintZero(), true
	}
	if exponent.IsZero() {
		return unit.Clone(), true
	}
	if exponent.EQ(unit) {
		return value.Clone(), true
	}
	return checkedPowFixed(value, exponent)
}

// checkedPowFixed computes value^exponent for unit-scaled operands.
// The whole part of the exponent uses repeated fixed multiplication so
// the common squared-impact path stays in pure integer arithmetic; the
// fractional remainder goes through arbitrary-precision decimal pow
// and truncates back to Decimals digits. Both paths are deterministic.
func checkedPowFixed(value, exponent *Uint) (*Uint, bool) {
	q, _ := exponent.CheckedDiv(unit)
	n, fits := q.Uint64()
	if !fits {
		return nil, false
	}
	ans := unit.Clone()
	var ok bool
	for i := uint64(0); i < n; i++ {
		ans, ok = CheckedFixedMul(ans, value)
		if !ok {
			return nil, false
		}
	}
	whole, ok := q.CheckedMul(unit)
	if !ok {
		return nil, false
	}
	rem, ok := exponent.CheckedSub(whole)
	if !ok {
		return nil, false
	}
	if rem.IsZero() {
		return ans, true
	}

	base := decimal.NewFromBigInt(value.ToBig(), -Decimals)
	exp := decimal.NewFromBigInt(rem.ToBig(), -Decimals)
	res, err := base.PowWithPrecision(exp, Decimals+10)
	if err != nil {
		return nil, false
	}
	scaled := res.Truncate(Decimals).Shift(Decimals)
	frac, ok := UintFromBig(scaled.BigInt())
	if !ok {
		return nil, false
	}
	return CheckedFixedMul(ans, frac)
}
