package market_test

import (
	"testing"

	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
	"PerpEngine/internal/memmarket"

	"github.com/stretchr/testify/require"
)

func newTestMarket(t *testing.T, now *int64) *memmarket.Market {
	t.Helper()
	return memmarket.New(memmarket.DefaultConfig(), market.ClockFunc(func() int64 { return *now }))
}

func dollarPrices() market.Prices {
	band := market.SinglePrice(dollarPrice)
	return market.Prices{Index: band, Long: band, Short: band}
}

func seedPool(t *testing.T, m *memmarket.Market, kind market.PoolKind, long, short *fixed.Uint) {
	t.Helper()
	pool, err := m.PoolMut(kind)
	require.NoError(t, err)
	require.NoError(t, pool.ApplyDeltaToLongAmount(long.ToSigned()))
	require.NoError(t, pool.ApplyDeltaToShortAmount(short.ToSigned()))
}

func TestUsdToMarketTokenAmount(t *testing.T) {
	divisor := fixed.MustUintFromString("100000000000")

	// first deposit prices off the divisor
	amount, err := market.UsdToMarketTokenAmount(
		fixed.MustUintFromString("100000000000000000000000"),
		fixed.UintZero(), fixed.UintZero(), divisor)
	require.NoError(t, err)
	require.Equal(t, "1000000000000", amount.String())

	// zero supply with residual pool value prices both together
	amount, err = market.UsdToMarketTokenAmount(
		fixed.MustUintFromString("100000000000000000000000"),
		fixed.MustUintFromString("100000000000000000000000"),
		fixed.UintZero(), divisor)
	require.NoError(t, err)
	require.Equal(t, "2000000000000", amount.String())

	// pro rata against supply
	amount, err = market.UsdToMarketTokenAmount(
		fixed.MustUintFromString("100000000000000000000000"),
		fixed.MustUintFromString("200000000000000000000000"),
		fixed.MustUintFromString("1000000000000"), divisor)
	require.NoError(t, err)
	require.Equal(t, "500000000000", amount.String())

	_, err = market.UsdToMarketTokenAmount(fixed.Unit(), fixed.UintZero(), fixed.UintZero(), fixed.UintZero())
	require.ErrorIs(t, err, market.ErrDividedByZero)
}

func TestMarketTokenAmountToUSD(t *testing.T) {
	usd, err := market.MarketTokenAmountToUSD(
		fixed.MustUintFromString("500000000000"),
		fixed.MustUintFromString("200000000000000000000000"),
		fixed.MustUintFromString("1000000000000"))
	require.NoError(t, err)
	require.Equal(t, "100000000000000000000000", usd.String())

	_, err = market.MarketTokenAmountToUSD(fixed.NewUint(1), fixed.Unit(), fixed.UintZero())
	require.ErrorIs(t, err, market.ErrInvalidPoolValue)
}

func TestSwapImpactAmountWithCap(t *testing.T) {
	now := int64(1_000_000)
	m := newTestMarket(t, &now)
	seedPool(t, m, market.PoolSwapImpact, fixed.NewUint(7), fixed.UintZero())

	price := market.SinglePrice(dollarPrice)

	// positive impact is floored and capped by the pool side
	bigUSD := fixed.MustUintFromString("100000000000000000000")
	amount, err := market.SwapImpactAmountWithCap(m, true, price, bigUSD.ToSigned())
	require.NoError(t, err)
	requireIntEq(t, fixed.NewUint(7).ToSigned(), amount)

	// negative impact rounds the charge up and ignores the cap
	negUSD := fixed.IntFromUint(fixed.MustUintFromString("100000000001"), true)
	amount, err = market.SwapImpactAmountWithCap(m, true, price, negUSD)
	require.NoError(t, err)
	requireIntEq(t, fixed.IntFromUint(fixed.NewUint(2), true), amount)

	amount, err = market.SwapImpactAmountWithCap(m, true, price, fixed.IntZero())
	require.NoError(t, err)
	require.True(t, amount.IsZero())
}

func TestApplySwapImpactAntiSymmetry(t *testing.T) {
	now := int64(1_000_000)
	m := newTestMarket(t, &now)
	seedPool(t, m, market.PoolSwapImpact, tokens(100), tokens(100))

	price := market.SinglePrice(dollarPrice)
	usd := fixed.MustUintFromString("500000000000000000000") // $5, exactly 5 tokens

	before, err := m.Pool(market.PoolSwapImpact)
	require.NoError(t, err)

	moved, err := market.ApplySwapImpactValueWithCap(m, true, price, usd.ToSigned())
	require.NoError(t, err)
	require.Equal(t, tokens(5).String(), moved.String())

	moved, err = market.ApplySwapImpactValueWithCap(m, true, price, fixed.IntFromUint(usd, true))
	require.NoError(t, err)
	require.Equal(t, tokens(5).String(), moved.String())

	after, err := m.Pool(market.PoolSwapImpact)
	require.NoError(t, err)
	require.True(t, before.LongAmount().EQ(after.LongAmount()))
	require.True(t, before.ShortAmount().EQ(after.ShortAmount()))
}

func TestPendingPositionImpactPoolDistribution(t *testing.T) {
	now := int64(1_000_000)
	m := newTestMarket(t, &now)

	// pool floor is 1e9; everything above it releases within a second
	// at the default distribute factor
	seedPool(t, m, market.PoolPositionImpact, fixed.NewUint(5_000_000_000), fixed.UintZero())

	amount, next, err := market.PendingPositionImpactPoolDistributionAmount(m, 1)
	require.NoError(t, err)
	require.Equal(t, "4000000000", amount.String())
	require.Equal(t, "1000000000", next.String())

	amount, next, err = market.PendingPositionImpactPoolDistributionAmount(m, 0)
	require.NoError(t, err)
	require.True(t, amount.IsZero())
	require.Equal(t, "5000000000", next.String())
}

func TestPendingDistributionRespectsFloor(t *testing.T) {
	now := int64(1_000_000)
	m := newTestMarket(t, &now)
	seedPool(t, m, market.PoolPositionImpact, fixed.NewUint(500_000_000), fixed.UintZero())

	amount, next, err := market.PendingPositionImpactPoolDistributionAmount(m, 60)
	require.NoError(t, err)
	require.True(t, amount.IsZero())
	require.Equal(t, "500000000", next.String())
}

func TestNextFundingFactorPerSecond(t *testing.T) {
	now := int64(1_000_000)
	m := newTestMarket(t, &now)

	// no open interest: rate is zero
	rate, err := market.NextFundingFactorPerSecond(m)
	require.NoError(t, err)
	require.True(t, rate.IsZero())

	// long OI $30k, short OI $10k: imbalance ratio 0.5 drives the
	// magnitude onto the max clamp, longs pay
	seedPool(t, m, market.PoolOpenInterestForLong, fixed.MustUintFromString("3000000000000000000000000"), fixed.UintZero())
	seedPool(t, m, market.PoolOpenInterestForShort, fixed.MustUintFromString("1000000000000000000000000"), fixed.UintZero())

	rate, err = market.NextFundingFactorPerSecond(m)
	require.NoError(t, err)
	requireIntEq(t, fixed.MustUintFromString("1000000000000").ToSigned(), rate)
}

func TestNextFundingFactorPerSecondMinClamp(t *testing.T) {
	now := int64(1_000_000)
	m := newTestMarket(t, &now)

	// near-balanced book: raw magnitude underflows the min clamp
	seedPool(t, m, market.PoolOpenInterestForLong, fixed.UintZero(), fixed.MustUintFromString("1000001000000000000000000"))
	seedPool(t, m, market.PoolOpenInterestForShort, fixed.MustUintFromString("999999000000000000000000"), fixed.UintZero())

	rate, err := market.NextFundingFactorPerSecond(m)
	require.NoError(t, err)
	requireIntEq(t, fixed.MustUintFromString("30000000000").ToSigned(), rate)
}

func TestNextCumulativeBorrowingFactor(t *testing.T) {
	now := int64(1_000_000)
	m := newTestMarket(t, &now)

	// $1M of short-side liquidity, $500k reserved by short OI
	seedPool(t, m, market.PoolPrimary, fixed.UintZero(), fixed.MustUintFromString("1000000000000000"))
	seedPool(t, m, market.PoolOpenInterestForShort, fixed.UintZero(), fixed.MustUintFromString("50000000000000000000000000"))

	next, delta, err := market.NextCumulativeBorrowingFactor(m, false, dollarPrices(), 10)
	require.NoError(t, err)
	require.Equal(t, "14100000000000", delta.String())
	require.Equal(t, "14100000000000", next.String())

	// nothing reserved on the long side: factor does not move
	next, delta, err = market.NextCumulativeBorrowingFactor(m, true, dollarPrices(), 10)
	require.NoError(t, err)
	require.True(t, delta.IsZero())
	require.True(t, next.IsZero())
}
