// Package memmarket provides an in-memory market implementing the
// full capability set. It backs the test suites and the scenario
// simulator; hosts with real storage implement the same interfaces.
package memmarket

import (
	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
)

// Config carries every parameter a market needs. Zero values are not
// usable; start from DefaultConfig.
type Config struct {
	Meta market.MarketMeta

	UsdToAmountDivisor *fixed.Uint

	SwapImpact market.PriceImpactParams
	SwapFees   market.FeeParams

	PositionImpact             market.PriceImpactParams
	PositionImpactDistribution market.PositionImpactDistributionParams

	Position  market.PositionParams
	Borrowing market.BorrowingFeeParams
	Funding   market.FundingFeeParams

	FundingAmountPerSizeAdjustment *fixed.Uint
}

// DefaultConfig returns production-style parameters for a market with
// 9-decimal tokens at the engine's 20 working decimals.
func DefaultConfig() Config {
	unit := fixed.Unit()
	twoUnits, _ := unit.CheckedMul(fixed.NewUint(2))
	return Config{
		Meta: market.MarketMeta{
			MarketToken: "market",
			IndexToken:  "index",
			LongToken:   "long",
			ShortToken:  "short",
		},
		UsdToAmountDivisor: fixed.MustUintFromString("100000000000"),
		SwapImpact: market.PriceImpactParams{
			PositiveFactor: fixed.MustUintFromString("400000000000"),
			NegativeFactor: fixed.MustUintFromString("800000000000"),
			ExponentFactor: twoUnits,
		},
		SwapFees: market.FeeParams{
			PositiveImpactFactor: fixed.MustUintFromString("50000000000000000"),
			NegativeImpactFactor: fixed.MustUintFromString("70000000000000000"),
			ReceiverFactor:       fixed.MustUintFromString("37000000000000000000"),
		},
		PositionImpact: market.PriceImpactParams{
			PositiveFactor: fixed.MustUintFromString("9000000000"),
			NegativeFactor: fixed.MustUintFromString("15000000000"),
			ExponentFactor: twoUnits.Clone(),
		},
		PositionImpactDistribution: market.PositionImpactDistributionParams{
			DistributeFactor:            unit.Clone(),
			MinPositionImpactPoolAmount: fixed.NewUint(1_000_000_000),
		},
		Position: market.PositionParams{
			MinPositionSizeUSD:  unit.Clone(),
			MinCollateralValue:  unit.Clone(),
			MinCollateralFactor: fixed.MustUintFromString("1000000000000000000"),
		},
		Borrowing: market.BorrowingFeeParams{
			FactorForLong:  fixed.MustUintFromString("2820000000000"),
			FactorForShort: fixed.MustUintFromString("2820000000000"),
			ExponentFactor: unit.Clone(),
		},
		Funding: market.FundingFeeParams{
			FundingFactor:      fixed.MustUintFromString("2000000000000"),
			ExponentFactor:     unit.Clone(),
			MaxFactorPerSecond: fixed.MustUintFromString("1000000000000"),
			MinFactorPerSecond: fixed.MustUintFromString("30000000000"),
		},
		FundingAmountPerSizeAdjustment: unit.Clone(),
	}
}

// Market is an in-memory market. It is not safe for concurrent use;
// the engine assumes exclusive ownership per action.
type Market struct {
	cfg   Config
	clock market.Clock

	pools  map[market.PoolKind]*market.Pool
	clocks map[market.ClockKind]int64

	totalSupply            *fixed.Uint
	fundingFactorPerSecond *fixed.Int
}

var _ market.FullMarketMut = (*Market)(nil)

// New builds an empty market with every pool present and all clocks
// snapped to the current time.
func New(cfg Config, clock market.Clock) *Market {
	m := &Market{
		cfg:                    cfg,
		clock:                  clock,
		pools:                  make(map[market.PoolKind]*market.Pool),
		clocks:                 make(map[market.ClockKind]int64),
		totalSupply:            fixed.UintZero(),
		fundingFactorPerSecond: fixed.IntZero(),
	}
	for _, kind := range market.AllPoolKinds() {
		m.pools[kind] = market.NewPool(fixed.UintZero(), fixed.UintZero())
	}
	now := clock.NowUnixSeconds()
	for _, kind := range market.AllClockKinds() {
		m.clocks[kind] = now
	}
	return m
}

// MarketMeta implements market.HasMarketMeta.
func (m *Market) MarketMeta() market.MarketMeta { return m.cfg.Meta }

// Pool returns a snapshot of a pool.
func (m *Market) Pool(kind market.PoolKind) (*market.Pool, error) {
	p, ok := m.pools[kind]
	if !ok {
		return nil, market.MissingPoolKindErr(kind)
	}
	return p.Clone(), nil
}

// PoolMut returns the live pool.
func (m *Market) PoolMut(kind market.PoolKind) (*market.Pool, error) {
	p, ok := m.pools[kind]
	if !ok {
		return nil, market.MissingPoolKindErr(kind)
	}
	return p, nil
}

// UsdToAmountDivisor implements market.BaseMarket.
func (m *Market) UsdToAmountDivisor() *fixed.Uint { return m.cfg.UsdToAmountDivisor.Clone() }

// SwapImpactParams implements market.SwapMarket.
func (m *Market) SwapImpactParams() market.PriceImpactParams { return m.cfg.SwapImpact }

// SwapFeeParams implements market.SwapMarket.
func (m *Market) SwapFeeParams() market.FeeParams { return m.cfg.SwapFees }

// PositionImpactParams implements market.PositionImpactMarket.
func (m *Market) PositionImpactParams() market.PriceImpactParams { return m.cfg.PositionImpact }

// PositionImpactDistributionParams implements market.PositionImpactMarket.
func (m *Market) PositionImpactDistributionParams() market.PositionImpactDistributionParams {
	return m.cfg.PositionImpactDistribution
}

// PositionParams implements market.PerpMarket.
func (m *Market) PositionParams() market.PositionParams { return m.cfg.Position }

// BorrowingFeeParams implements market.PerpMarket.
func (m *Market) BorrowingFeeParams() market.BorrowingFeeParams { return m.cfg.Borrowing }

// FundingFeeParams implements market.PerpMarket.
func (m *Market) FundingFeeParams() market.FundingFeeParams { return m.cfg.Funding }

// FundingAmountPerSizeAdjustment implements market.PerpMarket.
func (m *Market) FundingAmountPerSizeAdjustment() *fixed.Uint {
	return m.cfg.FundingAmountPerSizeAdjustment.Clone()
}

// FundingFactorPerSecond implements market.PerpMarket.
func (m *Market) FundingFactorPerSecond() *fixed.Int { return m.fundingFactorPerSecond.Clone() }

// SetFundingFactorPerSecond implements market.PerpMarketMut.
func (m *Market) SetFundingFactorPerSecond(rate *fixed.Int) {
	m.fundingFactorPerSecond = rate.Clone()
}

// TotalSupply implements market.LiquidityMarket.
func (m *Market) TotalSupply() *fixed.Uint { return m.totalSupply.Clone() }

// Mint implements market.LiquidityMarketMut.
func (m *Market) Mint(amount *fixed.Uint) error {
	next, ok := m.totalSupply.CheckedAdd(amount)
	if !ok {
		return market.ErrOverflow
	}
	m.totalSupply = next
	return nil
}

// Burn implements market.LiquidityMarketMut.
func (m *Market) Burn(amount *fixed.Uint) error {
	next, ok := m.totalSupply.CheckedSub(amount)
	if !ok {
		return market.ErrUnderflow
	}
	m.totalSupply = next
	return nil
}

// ClockUnix implements market.ClockState.
func (m *Market) ClockUnix(kind market.ClockKind) (int64, error) {
	ts, ok := m.clocks[kind]
	if !ok {
		return 0, market.MissingClockKindErr(kind)
	}
	return ts, nil
}

// SetClockUnix implements market.ClockState.
func (m *Market) SetClockUnix(kind market.ClockKind, ts int64) {
	m.clocks[kind] = ts
}

// Now implements market.ClockState.
func (m *Market) Now() int64 { return m.clock.NowUnixSeconds() }

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
// market.PositionImpactMarketMut.
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
