package memmarket_test

import (
	"testing"

	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
	"PerpEngine/internal/memmarket"

	"github.com/stretchr/testify/require"
)

func TestNewMarketHasEveryPoolAndClock(t *testing.T) {
	now := int64(1_700_000_000)
	m := memmarket.New(memmarket.DefaultConfig(), market.ClockFunc(func() int64 { return now }))

	for _, kind := range market.AllPoolKinds() {
		pool, err := m.Pool(kind)
		require.NoError(t, err, "pool %s", kind)
		require.True(t, pool.LongAmount().IsZero())
		require.True(t, pool.ShortAmount().IsZero())
	}
	for _, kind := range market.AllClockKinds() {
		ts, err := m.ClockUnix(kind)
		require.NoError(t, err, "clock %s", kind)
		require.Equal(t, now, ts)
	}
	require.True(t, m.TotalSupply().IsZero())
	require.True(t, m.FundingFactorPerSecond().IsZero())
}

func TestPoolReturnsSnapshotPoolMutReturnsLive(t *testing.T) {
	now := int64(1_700_000_000)
	m := memmarket.New(memmarket.DefaultConfig(), market.ClockFunc(func() int64 { return now }))

	snapshot, err := m.Pool(market.PoolPrimary)
	require.NoError(t, err)
	require.NoError(t, snapshot.ApplyDelta(true, fixed.NewUint(100).ToSigned()))

	fresh, err := m.Pool(market.PoolPrimary)
	require.NoError(t, err)
	require.True(t, fresh.LongAmount().IsZero())

	live, err := m.PoolMut(market.PoolPrimary)
	require.NoError(t, err)
	require.NoError(t, live.ApplyDelta(true, fixed.NewUint(100).ToSigned()))

	fresh, err = m.Pool(market.PoolPrimary)
	require.NoError(t, err)
	require.True(t, fresh.LongAmount().EQ(fixed.NewUint(100)))
}

func TestMintAndBurn(t *testing.T) {
	now := int64(1_700_000_000)
	m := memmarket.New(memmarket.DefaultConfig(), market.ClockFunc(func() int64 { return now }))

	require.NoError(t, m.Mint(fixed.NewUint(1000)))
	require.NoError(t, m.Burn(fixed.NewUint(400)))
	require.True(t, m.TotalSupply().EQ(fixed.NewUint(600)))

	require.ErrorIs(t, m.Burn(fixed.NewUint(601)), market.ErrUnderflow)
	require.True(t, m.TotalSupply().EQ(fixed.NewUint(600)))
}

func TestClockTicksSnapToNow(t *testing.T) {
	now := int64(1_700_000_000)
	m := memmarket.New(memmarket.DefaultConfig(), market.ClockFunc(func() int64 { return now }))

	now += 60
	elapsed, err := m.JustPassedInSecondsForBorrowing()
	require.NoError(t, err)
	require.Equal(t, uint64(60), elapsed)

	// Same instant again: nothing has passed.
	elapsed, err = m.JustPassedInSecondsForBorrowing()
	require.NoError(t, err)
	require.Zero(t, elapsed)

	// Snap the funding clock to the current time before winding the
	// clock back; each kind keeps its own last tick.
	elapsed, err = m.JustPassedInSecondsForFunding()
	require.NoError(t, err)
	require.Equal(t, uint64(60), elapsed)

	// A clock running backwards never yields negative elapsed time
	// and leaves the stored tick alone.
	now -= 30
	elapsed, err = m.JustPassedInSecondsForFunding()
	require.NoError(t, err)
	require.Zero(t, elapsed)
	ts, err := m.ClockUnix(market.ClockFunding)
	require.NoError(t, err)
	require.Equal(t, int64(1_700_000_060), ts)
}

func TestClockUnixUnknownKind(t *testing.T) {
	m := memmarket.New(memmarket.DefaultConfig(), market.ClockFunc(func() int64 { return 0 }))

	_, err := m.ClockUnix(market.ClockKind(99))
	require.ErrorIs(t, err, market.ErrMissingClockKind)
	require.Equal(t, "missing_clock_kind", market.ErrorKind(err))
}

func TestMarketMeta(t *testing.T) {
	cfg := memmarket.DefaultConfig()
	cfg.Meta.MarketToken = "eth-usdc"
	m := memmarket.New(cfg, market.ClockFunc(func() int64 { return 0 }))
	require.Equal(t, "eth-usdc", m.MarketMeta().MarketToken)
}
