package action_test

import (
	"testing"

	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
	"PerpEngine/internal/memmarket"

	"github.com/stretchr/testify/require"
)

// env owns a market and its simulated clock.
type env struct {
	now int64
	m   *memmarket.Market
}

func newEnv(cfg memmarket.Config) *env {
	e := &env{now: 1_700_000_000}
	e.m = memmarket.New(cfg, market.ClockFunc(func() int64 { return e.now }))
	return e
}

// flatConfig disables swap impact, the receiver cut and the position
// minimums so scenario amounts come out exact.
func flatConfig() memmarket.Config {
	cfg := memmarket.DefaultConfig()
	cfg.SwapImpact.PositiveFactor = fixed.UintZero()
	cfg.SwapImpact.NegativeFactor = fixed.UintZero()
	cfg.SwapFees.ReceiverFactor = fixed.UintZero()
	cfg.Position.MinPositionSizeUSD = fixed.UintZero()
	cfg.Position.MinCollateralValue = fixed.UintZero()
	cfg.Position.MinCollateralFactor = fixed.UintZero()
	cfg.PositionImpactDistribution.MinPositionImpactPoolAmount = fixed.UintZero()
	return cfg
}

// dollarsPerToken converts a whole-dollar price into the multiplier
// for 9-decimal token base units.
func dollarsPerToken(d uint64) *fixed.Uint {
	p, ok := fixed.NewUint(d).CheckedMul(fixed.NewUint(100_000_000_000))
	if !ok {
		panic("price overflow")
	}
	return p
}

func pricesAt(index, long, short uint64) market.Prices {
	return market.Prices{
		Index: market.SinglePrice(dollarsPerToken(index)),
		Long:  market.SinglePrice(dollarsPerToken(long)),
		Short: market.SinglePrice(dollarsPerToken(short)),
	}
}

func poolAmounts(t *testing.T, m *memmarket.Market, kind market.PoolKind) (*fixed.Uint, *fixed.Uint) {
	t.Helper()
	pool, err := m.Pool(kind)
	require.NoError(t, err)
	return pool.LongAmount(), pool.ShortAmount()
}

func seedPoolSide(t *testing.T, m *memmarket.Market, kind market.PoolKind, isLong bool, amount *fixed.Uint) {
	t.Helper()
	pool, err := m.PoolMut(kind)
	require.NoError(t, err)
	require.NoError(t, pool.ApplyDelta(isLong, amount.ToSigned()))
}

func requireUintEq(t *testing.T, want string, got *fixed.Uint) {
	t.Helper()
	require.Equal(t, want, got.String())
}
