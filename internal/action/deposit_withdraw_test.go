package action_test

import (
	"testing"

	"PerpEngine/internal/action"
	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
	"PerpEngine/internal/memmarket"

	"github.com/stretchr/testify/require"
)

func TestFirstDepositSeedsPrimaryPools(t *testing.T) {
	e := newEnv(flatConfig())
	prices := pricesAt(120, 120, 1)

	longIn := fixed.MustUintFromString("1000000000000")
	shortIn := fixed.MustUintFromString("100000000000000")

	dep, err := action.NewDeposit(e.m, longIn, shortIn, prices)
	require.NoError(t, err)
	report, err := dep.Execute()
	require.NoError(t, err)

	// The whole deposit lands in the primary pool; the pool's share
	// of the fee stays inside it.
	long, short := poolAmounts(t, e.m, market.PoolPrimary)
	requireUintEq(t, "1000000000000", long)
	requireUintEq(t, "100000000000000", short)

	// Fee is 5bps of each leg, all of it for the pool with the
	// receiver cut disabled.
	requireUintEq(t, "500000000", report.LongTokenFees.FeeAmountForPool)
	require.True(t, report.LongTokenFees.FeeReceiverAmount.IsZero())
	requireUintEq(t, "50000000000", report.ShortTokenFees.FeeAmountForPool)

	// Minted against an empty market: per-leg USD after fees divided
	// by the usd-to-amount divisor.
	requireUintEq(t, "219890000000000", report.MintedMarketTokens)
	requireUintEq(t, "219890000000000", e.m.TotalSupply())
	require.True(t, report.LongPriceImpactUSD.IsZero())
	require.True(t, report.ShortPriceImpactUSD.IsZero())
}

func TestDepositPositiveImpactMovesTokensIntoPrimary(t *testing.T) {
	e := newEnv(memmarket.DefaultConfig())
	seedPoolSide(t, e.m, market.PoolPrimary, true, fixed.MustUintFromString("10000000000000"))
	seedPoolSide(t, e.m, market.PoolPrimary, false, fixed.MustUintFromString("2000000000000"))
	seedPoolSide(t, e.m, market.PoolSwapImpact, true, fixed.NewUint(1_000_000_000))
	require.NoError(t, e.m.Mint(fixed.MustUintFromString("12000000000000")))
	prices := pricesAt(1, 1, 1)

	// Depositing short tokens rebalances the pool, so the impact is
	// positive and paid in long tokens out of the swap impact pool.
	dep, err := action.NewDeposit(e.m, fixed.UintZero(), fixed.MustUintFromString("4000000000000"), prices)
	require.NoError(t, err)
	report, err := dep.Execute()
	require.NoError(t, err)

	require.True(t, report.ShortPriceImpactUSD.IsPositive())
	requireUintEq(t, "740000000", report.ShortTokenFees.FeeReceiverAmount)
	requireUintEq(t, "1260000000", report.ShortTokenFees.FeeAmountForPool)

	// The long tokens drained from the impact pool move into the
	// primary pool and back the extra minted market tokens.
	impactLong, _ := poolAmounts(t, e.m, market.PoolSwapImpact)
	requireUintEq(t, "808000000", impactLong)
	long, short := poolAmounts(t, e.m, market.PoolPrimary)
	requireUintEq(t, "10000192000000", long)
	requireUintEq(t, "5999260000000", short)

	// Minted tokens cover the after-fee deposit plus the impact
	// payout, both priced pro rata against pool value.
	requireUintEq(t, "3998192000000", report.MintedMarketTokens)
	requireUintEq(t, "15998192000000", e.m.TotalSupply())
}

func TestDepositRejectsEmpty(t *testing.T) {
	e := newEnv(flatConfig())
	_, err := action.NewDeposit(e.m, fixed.UintZero(), fixed.UintZero(), pricesAt(1, 1, 1))
	require.ErrorIs(t, err, market.ErrEmptyDeposit)
}

func TestWithdrawalRejectsEmpty(t *testing.T) {
	e := newEnv(flatConfig())
	_, err := action.NewWithdrawal(e.m, fixed.UintZero(), pricesAt(1, 1, 1))
	require.ErrorIs(t, err, market.ErrEmptyWithdrawal)
}

func TestDepositWithdrawRoundTrip(t *testing.T) {
	e := newEnv(flatConfig())
	prices := pricesAt(2, 2, 1)
	amount := fixed.MustUintFromString("1000000000000")

	dep, err := action.NewDeposit(e.m, amount, amount, prices)
	require.NoError(t, err)
	depReport, err := dep.Execute()
	require.NoError(t, err)

	wd, err := action.NewWithdrawal(e.m, depReport.MintedMarketTokens, prices)
	require.NoError(t, err)
	wdReport, err := wd.Execute()
	require.NoError(t, err)

	// Burning the entire supply redeems the entire pool, including
	// the deposit's pool fee, so only the withdrawal fee is lost.
	requireUintEq(t, "999500000000", wdReport.LongTokenOut)
	requireUintEq(t, "999500000000", wdReport.ShortTokenOut)
	require.True(t, e.m.TotalSupply().IsZero())

	// The withdrawal's pool fee is stranded as pool dust once supply
	// hits zero.
	long, short := poolAmounts(t, e.m, market.PoolPrimary)
	requireUintEq(t, "500000000", long)
	requireUintEq(t, "500000000", short)
}

func TestWithdrawalFromEmptyMarketFails(t *testing.T) {
	e := newEnv(flatConfig())
	wd, err := action.NewWithdrawal(e.m, fixed.NewUint(1), pricesAt(1, 1, 1))
	require.NoError(t, err)
	_, err = wd.Execute()
	require.Error(t, err)
}
