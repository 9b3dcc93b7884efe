package revertible_test

import (
	"testing"

	"PerpEngine/internal/action"
	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
	"PerpEngine/internal/memmarket"
	"PerpEngine/internal/revertible"

	"github.com/stretchr/testify/require"
)

func newBase(now *int64) *memmarket.Market {
	return memmarket.New(memmarket.DefaultConfig(), market.ClockFunc(func() int64 { return *now }))
}

func dollar(d uint64) *fixed.Uint {
	p, _ := fixed.NewUint(d).CheckedMul(fixed.NewUint(100_000_000_000))
	return p
}

func singlePrices(index, long, short uint64) market.Prices {
	return market.Prices{
		Index: market.SinglePrice(dollar(index)),
		Long:  market.SinglePrice(dollar(long)),
		Short: market.SinglePrice(dollar(short)),
	}
}

func TestStagedWritesStayOffBaseUntilCommit(t *testing.T) {
	now := int64(1_700_000_000)
	base := newBase(&now)

	staged := revertible.New(base)
	dep, err := action.NewDeposit(staged,
		fixed.MustUintFromString("1000000000000"),
		fixed.MustUintFromString("1000000000000"),
		singlePrices(1, 1, 1))
	require.NoError(t, err)
	report, err := dep.Execute()
	require.NoError(t, err)
	require.False(t, report.MintedMarketTokens.IsZero())

	// The base has seen nothing yet.
	basePrimary, err := base.Pool(market.PoolPrimary)
	require.NoError(t, err)
	require.True(t, basePrimary.LongAmount().IsZero())
	require.True(t, base.TotalSupply().IsZero())

	// The wrapper reads its own staged state.
	stagedPrimary, err := staged.Pool(market.PoolPrimary)
	require.NoError(t, err)
	require.False(t, stagedPrimary.LongAmount().IsZero())

	require.NoError(t, staged.Commit())

	basePrimary, err = base.Pool(market.PoolPrimary)
	require.NoError(t, err)
	require.True(t, basePrimary.LongAmount().EQ(stagedPrimary.LongAmount()))
	require.True(t, basePrimary.ShortAmount().EQ(stagedPrimary.ShortAmount()))
	require.True(t, base.TotalSupply().EQ(report.MintedMarketTokens))
}

func TestDroppedWrapperDiscardsEverything(t *testing.T) {
	now := int64(1_700_000_000)
	base := newBase(&now)

	seed := revertible.New(base)
	dep, err := action.NewDeposit(seed,
		fixed.MustUintFromString("10000000000000"),
		fixed.MustUintFromString("10000000000000"),
		singlePrices(1, 1, 1))
	require.NoError(t, err)
	_, err = dep.Execute()
	require.NoError(t, err)
	require.NoError(t, seed.Commit())

	supplyBefore := base.TotalSupply()
	longBefore, err := base.Pool(market.PoolPrimary)
	require.NoError(t, err)

	// Run a swap on a fresh wrapper and drop it without committing.
	dropped := revertible.New(base)
	swap, err := action.NewSwap(dropped, true, fixed.MustUintFromString("1000000000000"), singlePrices(1, 1, 1))
	require.NoError(t, err)
	_, err = swap.Execute()
	require.NoError(t, err)

	after, err := base.Pool(market.PoolPrimary)
	require.NoError(t, err)
	require.True(t, after.LongAmount().EQ(longBefore.LongAmount()))
	require.True(t, after.ShortAmount().EQ(longBefore.ShortAmount()))
	require.True(t, base.TotalSupply().EQ(supplyBefore))
}

func TestCommitCarriesClocksAndFundingRate(t *testing.T) {
	now := int64(1_700_000_000)
	base := newBase(&now)

	staged := revertible.New(base)
	now += 60
	elapsed, err := staged.JustPassedInSecondsForFunding()
	require.NoError(t, err)
	require.Equal(t, uint64(60), elapsed)

	rate := fixed.IntFromUint(fixed.NewUint(12345), true)
	staged.SetFundingFactorPerSecond(rate)

	// The base clock and rate are untouched until commit.
	baseClock, err := base.ClockUnix(market.ClockFunding)
	require.NoError(t, err)
	require.Equal(t, now-60, baseClock)
	require.True(t, base.FundingFactorPerSecond().IsZero())

	require.NoError(t, staged.Commit())

	baseClock, err = base.ClockUnix(market.ClockFunding)
	require.NoError(t, err)
	require.Equal(t, now, baseClock)
	require.Equal(t, 0, base.FundingFactorPerSecond().Cmp(rate))
}

func TestSupplyDeltaCommitsAsMintOrBurn(t *testing.T) {
	now := int64(1_700_000_000)
	base := newBase(&now)
	require.NoError(t, base.Mint(fixed.NewUint(1000)))

	staged := revertible.New(base)
	require.NoError(t, staged.Burn(fixed.NewUint(400)))
	require.NoError(t, staged.Mint(fixed.NewUint(100)))
	require.NoError(t, staged.Commit())

	require.True(t, base.TotalSupply().EQ(fixed.NewUint(700)))
}
