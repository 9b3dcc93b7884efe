package position_test

import (
	"testing"

	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
	"PerpEngine/internal/memmarket"
	"PerpEngine/internal/position"

	"github.com/stretchr/testify/require"
)

func newMarket() *memmarket.Market {
	return memmarket.New(memmarket.DefaultConfig(), market.ClockFunc(func() int64 { return 1_700_000_000 }))
}

func bump(t *testing.T, m *memmarket.Market, kind market.PoolKind, isLong bool, amount *fixed.Uint) {
	t.Helper()
	pool, err := m.PoolMut(kind)
	require.NoError(t, err)
	require.NoError(t, pool.ApplyDelta(isLong, amount.ToSigned()))
}

func TestCloneIsIndependent(t *testing.T) {
	p := position.New("p1", true, true)
	p.SizeInUSD = fixed.NewUint(100)
	p.CollateralAmount = fixed.NewUint(50)

	c := p.Clone()
	next, ok := c.SizeInUSD.CheckedAdd(fixed.NewUint(1))
	require.True(t, ok)
	c.SizeInUSD = next
	c.CollateralAmount = fixed.UintZero()

	require.True(t, p.SizeInUSD.EQ(fixed.NewUint(100)))
	require.True(t, p.CollateralAmount.EQ(fixed.NewUint(50)))
}

func TestStateAndValidate(t *testing.T) {
	p := position.New("p1", true, true)
	require.Equal(t, position.StateClosed, p.State())
	require.True(t, p.IsEmpty())
	require.NoError(t, p.Validate())

	p.SizeInUSD = fixed.NewUint(1)
	require.Equal(t, position.StateOpen, p.State())
	require.Error(t, p.Validate())

	p.SizeInTokens = fixed.NewUint(1)
	require.NoError(t, p.Validate())
}

func TestPendingBorrowingFee(t *testing.T) {
	m := newMarket()
	bump(t, m, market.PoolBorrowingFactor, true, fixed.MustUintFromString("2820000000000"))

	p := position.New("p1", true, true)
	p.SizeInUSD = fixed.MustUintFromString("1000000000000000000000000")

	fee, err := p.PendingBorrowingFee(m)
	require.NoError(t, err)
	require.Equal(t, "28200000000000000", fee.String())
}

func TestPendingBorrowingFeeRejectsStaleSnapshot(t *testing.T) {
	m := newMarket()
	p := position.New("p1", true, true)
	p.BorrowingFactor = fixed.NewUint(1)
	_, err := p.PendingBorrowingFee(m)
	require.Error(t, err)
}

func TestPendingFundingFees(t *testing.T) {
	m := newMarket()
	// Integrators for the long side: the fee bucket is keyed by the
	// collateral token, the claimables by payout token.
	bump(t, m, market.PoolFundingAmountPerSizeForLong, true, fixed.MustUintFromString("5000000000000000"))
	bump(t, m, market.PoolClaimableFundingAmountPerSizeForLong, true, fixed.MustUintFromString("3000000000000000"))
	bump(t, m, market.PoolClaimableFundingAmountPerSizeForLong, false, fixed.MustUintFromString("1000000000000000"))

	p := position.New("p1", true, true)
	p.SizeInUSD = fixed.MustUintFromString("1000000000000000000000000")

	fees, err := p.PendingFundingFees(m)
	require.NoError(t, err)
	require.Equal(t, "50000000000000000000", fees.FeeAmount.String())
	require.Equal(t, "30000000000000000000", fees.ClaimableLongAmount.String())
	require.Equal(t, "10000000000000000000", fees.ClaimableShortAmount.String())
}

func TestSnapshotIntegrators(t *testing.T) {
	m := newMarket()
	bump(t, m, market.PoolBorrowingFactor, true, fixed.NewUint(7))
	bump(t, m, market.PoolFundingAmountPerSizeForLong, true, fixed.NewUint(11))
	bump(t, m, market.PoolClaimableFundingAmountPerSizeForLong, true, fixed.NewUint(13))
	bump(t, m, market.PoolClaimableFundingAmountPerSizeForLong, false, fixed.NewUint(17))

	p := position.New("p1", true, true)
	require.NoError(t, p.SnapshotIntegrators(m))
	require.True(t, p.BorrowingFactor.EQ(fixed.NewUint(7)))
	require.True(t, p.FundingFeeAmountPerSize.EQ(fixed.NewUint(11)))
	require.True(t, p.ClaimableFundingAmountPerSizeLong.EQ(fixed.NewUint(13)))
	require.True(t, p.ClaimableFundingAmountPerSizeShort.EQ(fixed.NewUint(17)))

	// A position settled at the snapshot owes nothing.
	p.SizeInUSD = fixed.MustUintFromString("1000000000000000000000000")
	p.SizeInTokens = fixed.NewUint(1)
	fee, err := p.PendingBorrowingFee(m)
	require.NoError(t, err)
	require.True(t, fee.IsZero())
	fees, err := p.PendingFundingFees(m)
	require.NoError(t, err)
	require.True(t, fees.FeeAmount.IsZero())
	require.True(t, fees.ClaimableLongAmount.IsZero())
	require.True(t, fees.ClaimableShortAmount.IsZero())
}
