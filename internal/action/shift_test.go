package action_test

import (
	"testing"

	"PerpEngine/internal/action"
	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
	"PerpEngine/internal/memmarket"

	"github.com/stretchr/testify/require"
)

func TestShiftMovesLiquidityBetweenMarkets(t *testing.T) {
	from := newEnv(flatConfig())

	toCfg := flatConfig()
	toCfg.Meta.MarketToken = "market-b"
	toCfg.Meta.IndexToken = "index-b"
	to := newEnv(toCfg)

	prices := pricesAt(2, 2, 1)
	amount := fixed.MustUintFromString("10000000000000")
	seedDeposit(t, from, prices, amount, amount)

	supplyBefore := from.m.TotalSupply()
	half, ok := supplyBefore.CheckedDiv(fixed.NewUint(2))
	require.True(t, ok)

	shift, err := action.NewShift(from.m, to.m, half, prices)
	require.NoError(t, err)
	report, err := shift.Execute()
	require.NoError(t, err)

	// The withdrawal leg's proceeds fund the deposit leg in full.
	require.True(t, report.Withdrawal.LongTokenOut.EQ(report.Deposit.LongTokenAmount))
	require.True(t, report.Withdrawal.ShortTokenOut.EQ(report.Deposit.ShortTokenAmount))
	require.False(t, report.ToMarketTokenAmount.IsZero())

	burned, ok := supplyBefore.CheckedSub(from.m.TotalSupply())
	require.True(t, ok)
	require.True(t, burned.EQ(half))
	require.True(t, to.m.TotalSupply().EQ(report.ToMarketTokenAmount))

	toLong, toShort := poolAmounts(t, to.m, market.PoolPrimary)
	require.True(t, toLong.EQ(report.Deposit.LongTokenAmount))
	require.True(t, toShort.EQ(report.Deposit.ShortTokenAmount))
}

func TestShiftRejectsMismatchedTokenSets(t *testing.T) {
	from := newEnv(flatConfig())

	toCfg := memmarket.DefaultConfig()
	toCfg.Meta.LongToken = "other-long"
	to := newEnv(toCfg)

	_, err := action.NewShift(from.m, to.m, fixed.NewUint(1), pricesAt(1, 1, 1))
	require.Error(t, err)
}
