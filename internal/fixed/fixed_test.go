package fixed

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckedAddSub(t *testing.T) {
	a := NewUint(100)
	b := NewUint(42)

	sum, ok := a.CheckedAdd(b)
	require.True(t, ok)
	require.Equal(t, "142", sum.String())

	diff, ok := a.CheckedSub(b)
	require.True(t, ok)
	require.Equal(t, "58", diff.String())

	_, ok = b.CheckedSub(a)
	require.False(t, ok)
}

func TestCheckedSubOverflowBoundary(t *testing.T) {
	max := MustUintFromString("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	one := NewUint(1)

	_, ok := max.CheckedAdd(one)
	require.False(t, ok)

	_, ok = max.CheckedMul(NewUint(2))
	require.False(t, ok)
}

func TestCheckedMulDiv(t *testing.T) {
	// Products beyond 256 bits stay exact through the widened
	// intermediate.
	big := MustUintFromString("100000000000000000000000000000000000000000000000000000000000000000000000000")
	q, ok := big.CheckedMulDiv(NewUint(300), NewUint(100))
	require.True(t, ok)
	require.Equal(t, "300000000000000000000000000000000000000000000000000000000000000000000000000", q.String())

	_, ok = big.CheckedMulDiv(NewUint(300), UintZero())
	require.False(t, ok)
}

func TestCheckedMulDivCeil(t *testing.T) {
	q, ok := NewUint(10).CheckedMulDivCeil(NewUint(1), NewUint(3))
	require.True(t, ok)
	require.Equal(t, "4", q.String())

	q, ok = NewUint(9).CheckedMulDivCeil(NewUint(1), NewUint(3))
	require.True(t, ok)
	require.Equal(t, "3", q.String())
}

func TestDiff(t *testing.T) {
	require.Equal(t, "7", NewUint(10).Diff(NewUint(3)).String())
	require.Equal(t, "7", NewUint(3).Diff(NewUint(10)).String())
	require.Equal(t, "0", NewUint(5).Diff(NewUint(5)).String())
}

func TestFixedMul(t *testing.T) {
	// 128 * 256.00000000000000000001 at 20 decimals.
	a := MustUintFromString("12800000000000000000000")
	b := MustUintFromString("25600000000000000000001")
	got, ok := CheckedFixedMul(a, b)
	require.True(t, ok)
	require.Equal(t, "3276800000000000000000128", got.String())
}

func TestApplyExponentFactorEdges(t *testing.T) {
	u := Unit()

	// Below one collapses to zero.
	small, _ := u.CheckedSub(NewUint(1))
	got, ok := ApplyExponentFactor(small, u)
	require.True(t, ok)
	require.True(t, got.IsZero())

	// Exactly one is one for any exponent.
	got, ok = ApplyExponentFactor(u, MustUintFromString("987654321000000000000000000000"))
	require.True(t, ok)
	require.True(t, got.EQ(u))

	// Zero exponent is one.
	v := MustUintFromString("500000000000000000000")
	got, ok = ApplyExponentFactor(v, UintZero())
	require.True(t, ok)
	require.True(t, got.EQ(u))

	// Unit exponent is identity.
	got, ok = ApplyExponentFactor(v, u)
	require.True(t, ok)
	require.True(t, got.EQ(v))
}

func TestApplyExponentFactorWhole(t *testing.T) {
	// 5^2 = 25 via the integer path.
	five, _ := Unit().CheckedMul(NewUint(5))
	two, _ := Unit().CheckedMul(NewUint(2))
	got, ok := ApplyExponentFactor(five, two)
	require.True(t, ok)
	require.Equal(t, "2500000000000000000000", got.String())
}

func TestApplyExponentFactorFractional(t *testing.T) {
	// 12345.6 ^ 1.1, checked against the reference value truncated
	// to 9 fractional digits: 31671.119999767.
	v := MustUintFromString("1234560000000000000000000")
	e := MustUintFromString("110000000000000000000")
	got, ok := ApplyExponentFactor(v, e)
	require.True(t, ok)

	atNine, ok := got.CheckedDiv(MustUintFromString("100000000000"))
	require.True(t, ok)
	require.Equal(t, "31671119999767", atNine.String())
}

func TestApplyFactor(t *testing.T) {
	// 120000 USD * 5e-4 = 60 USD.
	value := MustUintFromString("12000000000000000000000000")
	factor := MustUintFromString("50000000000000000")
	got, ok := ApplyFactor(value, factor)
	require.True(t, ok)
	require.Equal(t, "6000000000000000000000", got.String())
}

func TestSignedArithmetic(t *testing.T) {
	a := NewInt(10)
	b := NewInt(-4)

	sum, ok := a.CheckedAdd(b)
	require.True(t, ok)
	require.Equal(t, "6", sum.String())

	sum, ok = b.CheckedAdd(a.Neg())
	require.True(t, ok)
	require.Equal(t, "-14", sum.String())

	diff, ok := b.CheckedSub(a)
	require.True(t, ok)
	require.Equal(t, "-14", diff.String())

	prod, ok := a.CheckedMul(b)
	require.True(t, ok)
	require.Equal(t, "-40", prod.String())

	q, ok := prod.CheckedDiv(NewInt(-3))
	require.True(t, ok)
	require.Equal(t, "13", q.String())
}

func TestSignedZeroNormalization(t *testing.T) {
	z := IntFromUint(UintZero(), true)
	require.False(t, z.IsNegative())
	require.True(t, z.IsZero())
	require.Equal(t, "0", z.String())

	sum, ok := NewInt(5).CheckedAdd(NewInt(-5))
	require.True(t, ok)
	require.False(t, sum.IsNegative())
	require.True(t, sum.IsZero())
}

func TestCheckedAddSigned(t *testing.T) {
	v := NewUint(100)

	got, ok := v.CheckedAddSigned(NewInt(-30))
	require.True(t, ok)
	require.Equal(t, "70", got.String())

	_, ok = v.CheckedAddSigned(NewInt(-101))
	require.False(t, ok)
}

func TestCheckedMulDivSigned(t *testing.T) {
	// 100 * -3 / 7 keeps the numerator sign, magnitude truncates.
	got, ok := NewUint(100).CheckedMulDivSigned(NewInt(-3), NewUint(7))
	require.True(t, ok)
	require.Equal(t, "-42", got.String())
}
