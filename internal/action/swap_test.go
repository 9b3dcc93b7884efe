package action_test

import (
	"testing"

	"PerpEngine/internal/action"
	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
	"PerpEngine/internal/memmarket"

	"github.com/stretchr/testify/require"
)

func TestSwapChargesFeeIntoPool(t *testing.T) {
	e := newEnv(flatConfig())
	seedPoolSide(t, e.m, market.PoolPrimary, true, fixed.MustUintFromString("10000000000000"))
	seedPoolSide(t, e.m, market.PoolPrimary, false, fixed.MustUintFromString("10000000000000"))
	prices := pricesAt(1, 1, 1)

	amountIn := fixed.MustUintFromString("1000000000000")
	swap, err := action.NewSwap(e.m, true, amountIn, prices)
	require.NoError(t, err)
	report, err := swap.Execute()
	require.NoError(t, err)

	// At equal dollar prices the user receives the input minus the
	// 5bps fee; the fee stays in the pool's in side.
	requireUintEq(t, "999500000000", report.AmountOut)
	requireUintEq(t, "500000000", report.Fees.FeeAmountForPool)
	require.True(t, report.Fees.FeeReceiverAmount.IsZero())
	require.True(t, report.PriceImpactUSD.IsZero())

	long, short := poolAmounts(t, e.m, market.PoolPrimary)
	requireUintEq(t, "11000000000000", long)
	requireUintEq(t, "9000500000000", short)

	// USD conservation at equal prices: the combined pool grows by
	// exactly the fee kept for the pool.
	total, ok := long.CheckedAdd(short)
	require.True(t, ok)
	requireUintEq(t, "20000500000000", total)
}

func TestSwapRejectsEmpty(t *testing.T) {
	e := newEnv(flatConfig())
	_, err := action.NewSwap(e.m, true, fixed.UintZero(), pricesAt(1, 1, 1))
	require.ErrorIs(t, err, market.ErrEmptySwap)
}

func TestSwapCapsPositiveImpactAtPoolBalance(t *testing.T) {
	e := newEnv(memmarket.DefaultConfig())
	seedPoolSide(t, e.m, market.PoolPrimary, true, fixed.MustUintFromString("10000000000000"))
	seedPoolSide(t, e.m, market.PoolPrimary, false, fixed.MustUintFromString("2000000000000"))
	seedPoolSide(t, e.m, market.PoolSwapImpact, true, fixed.NewUint(7))
	prices := pricesAt(1, 1, 1)

	// Swapping short tokens in rebalances the pool, so impact is
	// positive and far larger than the 7 long tokens the impact pool
	// can pay.
	amountIn := fixed.MustUintFromString("4000000000000")
	swap, err := action.NewSwap(e.m, false, amountIn, prices)
	require.NoError(t, err)
	report, err := swap.Execute()
	require.NoError(t, err)

	require.True(t, report.PriceImpactUSD.IsPositive())

	// Fee is 5bps of the input with the receiver taking its cut.
	requireUintEq(t, "740000000", report.Fees.FeeReceiverAmount)
	requireUintEq(t, "1260000000", report.Fees.FeeAmountForPool)

	// Output is the after-fee conversion plus the capped 7 tokens.
	requireUintEq(t, "3998000000007", report.AmountOut)

	impactLong, _ := poolAmounts(t, e.m, market.PoolSwapImpact)
	require.True(t, impactLong.IsZero())

	long, short := poolAmounts(t, e.m, market.PoolPrimary)
	requireUintEq(t, "6002000000000", long)
	requireUintEq(t, "5999260000000", short)
}
