package market

import "PerpEngine/internal/fixed"

// MarketMeta identifies the tokens a market trades. Token identifiers
// are opaque strings chosen by the host.
type MarketMeta struct {
	MarketToken string
	IndexToken  string
	LongToken   string
	ShortToken  string
}

// PnlToken returns the token profits settle in for a position side.
func (m MarketMeta) PnlToken(isLong bool) string {
	if isLong {
		return m.LongToken
	}
	return m.ShortToken
}

// HasMarketMeta is implemented by markets that expose token identity.
type HasMarketMeta interface {
	MarketMeta() MarketMeta
}

// BaseMarket is the read capability every action needs. Pool returns
// a snapshot; mutating it does not touch market state.
type BaseMarket interface {
	Pool(kind PoolKind) (*Pool, error)
	UsdToAmountDivisor() *fixed.Uint
}

// BaseMarketMut adds pool mutation. PoolMut returns the live pool;
// deltas applied to it are market state changes.
type BaseMarketMut interface {
	BaseMarket
	PoolMut(kind PoolKind) (*Pool, error)
}

// SwapMarket can price swaps.
type SwapMarket interface {
	BaseMarket
	SwapImpactParams() PriceImpactParams
	SwapFeeParams() FeeParams
}

// SwapMarketMut is a mutable SwapMarket.
type SwapMarketMut interface {
	SwapMarket
	BaseMarketMut
}

// PositionImpactMarket exposes the position impact curve and its
// distribution schedule.
type PositionImpactMarket interface {
	BaseMarket
	PositionImpactParams() PriceImpactParams
	PositionImpactDistributionParams() PositionImpactDistributionParams
}

// PositionImpactMarketMut adds the distribution clock tick.
type PositionImpactMarketMut interface {
	PositionImpactMarket
	BaseMarketMut
	JustPassedInSecondsForPositionImpactDistribution() (uint64, error)
}

// PerpMarket can price positions.
type PerpMarket interface {
	SwapMarket
	PositionImpactMarket
	PositionParams() PositionParams
	BorrowingFeeParams() BorrowingFeeParams
	FundingFeeParams() FundingFeeParams
	FundingAmountPerSizeAdjustment() *fixed.Uint
	FundingFactorPerSecond() *fixed.Int
}

// PerpMarketMut adds the accrual clock ticks and funding state.
type PerpMarketMut interface {
	PerpMarket
	SwapMarketMut
	PositionImpactMarketMut
	JustPassedInSecondsForBorrowing() (uint64, error)
	JustPassedInSecondsForFunding() (uint64, error)
	SetFundingFactorPerSecond(*fixed.Int)
}

// LiquidityMarket can price market tokens.
type LiquidityMarket interface {
	SwapMarket
	PositionImpactMarket
	TotalSupply() *fixed.Uint
}

// LiquidityMarketMut adds mint and burn.
type LiquidityMarketMut interface {
	LiquidityMarket
	SwapMarketMut
	PositionImpactMarketMut
	Mint(amount *fixed.Uint) error
	Burn(amount *fixed.Uint) error
}

// ClockState exposes raw clock storage. The revertible wrapper stages
// timestamps through this interface instead of the JustPassed methods
// so that discarded actions leave clocks untouched.
type ClockState interface {
	ClockUnix(kind ClockKind) (int64, error)
	SetClockUnix(kind ClockKind, ts int64)
	Now() int64
}

// FullMarketMut is the complete capability set. The revertible
// wrapper requires it so that any action can run against the staged
// view.
type FullMarketMut interface {
	LiquidityMarketMut
	PerpMarketMut
	HasMarketMeta
	ClockState
}
