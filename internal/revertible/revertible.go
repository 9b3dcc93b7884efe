// Package revertible provides a staging wrapper over a market.
// Actions run against the wrapper mutate a shadow buffer; Commit
// flushes the buffer into the base market in one pass, and dropping
// the wrapper without committing discards every change. This is the
// engine's only multi-action atomicity primitive.
package revertible

import (
	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
)

// Market is a copy-on-write view over a base market. Pools, clocks,
// supply and the funding rate are staged on first touch; untouched
// state reads through to the base.
type Market struct {
	base market.FullMarketMut

	pools  map[market.PoolKind]*market.Pool
	clocks map[market.ClockKind]int64

	supply  *fixed.Uint
	funding *fixed.Int
}

var _ market.FullMarketMut = (*Market)(nil)

// New wraps a base market with empty staging.
func New(base market.FullMarketMut) *Market {
	return &Market{
		base:    base,
		pools:   make(map[market.PoolKind]*market.Pool),
		clocks:  make(map[market.ClockKind]int64),
		supply:  base.TotalSupply(),
		funding: base.FundingFactorPerSecond(),
	}
}

// Commit flushes the staged state into the base market. The wrapper
// must not be used afterwards.
func (m *Market) Commit() error {
	for kind, staged := range m.pools {
		live, err := m.base.PoolMut(kind)
		if err != nil {
			return err
		}
		*live = *staged.Clone()
	}
	for kind, ts := range m.clocks {
		m.base.SetClockUnix(kind, ts)
	}

	baseSupply := m.base.TotalSupply()
	switch m.supply.Cmp(baseSupply) {
	case 1:
		diff, _ := m.supply.CheckedSub(baseSupply)
		if err := m.base.Mint(diff); err != nil {
			return err
		}
	case -1:
		diff, _ := baseSupply.CheckedSub(m.supply)
		if err := m.base.Burn(diff); err != nil {
			return err
		}
	}

	m.base.SetFundingFactorPerSecond(m.funding)
	return nil
}

// MarketMeta implements market.HasMarketMeta.
func (m *Market) MarketMeta() market.MarketMeta { return m.base.MarketMeta() }

// Pool returns the staged pool when present, the base pool otherwise.
func (m *Market) Pool(kind market.PoolKind) (*market.Pool, error) {
	if staged, ok := m.pools[kind]; ok {
		return staged.Clone(), nil
	}
	return m.base.Pool(kind)
}

// PoolMut stages the pool on first touch and returns the staged copy.
func (m *Market) PoolMut(kind market.PoolKind) (*market.Pool, error) {
	if staged, ok := m.pools[kind]; ok {
		return staged, nil
	}
	snapshot, err := m.base.Pool(kind)
	if err != nil {
		return nil, err
	}
	m.pools[kind] = snapshot
	return snapshot, nil
}

// UsdToAmountDivisor implements market.BaseMarket.
func (m *Market) UsdToAmountDivisor() *fixed.Uint { return m.base.UsdToAmountDivisor() }

// SwapImpactParams implements market.SwapMarket.
func (m *Market) SwapImpactParams() market.PriceImpactParams { return m.base.SwapImpactParams() }

// SwapFeeParams implements market.SwapMarket.
func (m *Market) SwapFeeParams() market.FeeParams { return m.base.SwapFeeParams() }

// PositionImpactParams implements market.PositionImpactMarket.
func (m *Market) PositionImpactParams() market.PriceImpactParams {
	return m.base.PositionImpactParams()
}

// PositionImpactDistributionParams implements market.PositionImpactMarket.
func (m *Market) PositionImpactDistributionParams() market.PositionImpactDistributionParams {
	return m.base.PositionImpactDistributionParams()
}

// PositionParams implements market.PerpMarket.
func (m *Market) PositionParams() market.PositionParams { return m.base.PositionParams() }

// BorrowingFeeParams implements market.PerpMarket.
func (m *Market) BorrowingFeeParams() market.BorrowingFeeParams { return m.base.BorrowingFeeParams() }

// FundingFeeParams implements market.PerpMarket.
func (m *Market) FundingFeeParams() market.FundingFeeParams { return m.base.FundingFeeParams() }

// FundingAmountPerSizeAdjustment implements market.PerpMarket.
func (m *Market) FundingAmountPerSizeAdjustment() *fixed.Uint {
	return m.base.FundingAmountPerSizeAdjustment()
}

// FundingFactorPerSecond returns the staged rate.
func (m *Market) FundingFactorPerSecond() *fixed.Int { return m.funding.Clone() }

// SetFundingFactorPerSecond stages the rate.
func (m *Market) SetFundingFactorPerSecond(rate *fixed.Int) { m.funding = rate.Clone() }

// TotalSupply returns the staged supply.
func (m *Market) TotalSupply() *fixed.Uint { return m.supply.Clone() }

// Mint stages a supply increase.
func (m *Market) Mint(amount *fixed.Uint) error {
	next, ok := m.supply.CheckedAdd(amount)
	if !ok {
		return market.ErrOverflow
	}
	m.supply = next
	return nil
}

// Burn stages a supply decrease.
func (m *Market) Burn(amount *fixed.Uint) error {
	next, ok := m.supply.CheckedSub(amount)
	if !ok {
		return market.ErrUnderflow
	}
	m.supply = next
	return nil
}

// ClockUnix reads the staged clock when present.
func (m *Market) ClockUnix(kind market.ClockKind) (int64, error) {
	if ts, ok := m.clocks[kind]; ok {
		return ts, nil
	}
	return m.base.ClockUnix(kind)
}

// SetClockUnix stages a clock write.
func (m *Market) SetClockUnix(kind market.ClockKind, ts int64) {
	m.clocks[kind] = ts
}

// Now implements market.ClockState.
func (m *Market) Now() int64 { return m.base.Now() }

func (m *Market) justPassed(kind market.ClockKind) (uint64, error) {
	last, err := m.ClockUnix(kind)
	if err != nil {
		return 0, err
	}
	elapsed, snapped := market.JustPassed(m.Now(), last)
	m.SetClockUnix(kind, snapped)
	return elapsed, nil
}

// JustPassedInSecondsForPositionImpactDistribution implements
// market.PositionImpactMarketMut against the staged clocks.
func (m *Market) JustPassedInSecondsForPositionImpactDistribution() (uint64, error) {
	return m.justPassed(market.ClockPriceImpactDistribution)
}

// JustPassedInSecondsForBorrowing implements market.PerpMarketMut.
func (m *Market) JustPassedInSecondsForBorrowing() (uint64, error) {
	return m.justPassed(market.ClockBorrowing)
}

// JustPassedInSecondsForFunding implements market.PerpMarketMut.
func (m *Market) JustPassedInSecondsForFunding() (uint64, error) {
	return m.justPassed(market.ClockFunding)
}
