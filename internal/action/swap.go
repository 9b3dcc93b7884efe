package action

import (
	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
)

// SwapReport describes a completed swap.
type SwapReport struct {
	IsTokenInLong bool
	AmountIn      *fixed.Uint

	AmountOut *fixed.Uint

	Fees           market.Fees
	PriceImpactUSD *fixed.Int

	Distribution *DistributePositionImpactReport
}

// SwapMarket is the capability set a swap needs: swap pricing plus
// the distribution tick every pricing action performs first.
type SwapMarket interface {
	market.SwapMarketMut
	market.PositionImpactMarketMut
}

// Swap exchanges one side's token for the other through the primary
// pool.
type Swap struct {
	market        SwapMarket
	isTokenInLong bool
	amountIn      *fixed.Uint
	prices        market.Prices
}

// NewSwap builds the action. Swapping zero is rejected up front.
func NewSwap(m SwapMarket, isTokenInLong bool, amountIn *fixed.Uint, prices market.Prices) (*Swap, error) {
	if amountIn.IsZero() {
		return nil, market.ErrEmptySwap
	}
	if err := prices.Validate(); err != nil {
		return nil, err
	}
	return &Swap{market: m, isTokenInLong: isTokenInLong, amountIn: amountIn.Clone(), prices: prices}, nil
}

// priceImpact models the rebalance: the in side grows by the swapped
// value, the out side shrinks by the same value at its own price.
func (a *Swap) priceImpact() (*fixed.Int, error) {
	inPrice := a.prices.SidePrice(a.isTokenInLong)
	outPrice := a.prices.SidePrice(!a.isTokenInLong)

	outEquivalent, ok := a.amountIn.CheckedMulDiv(inPrice.Max, outPrice.Max)
	if !ok {
		return nil, market.ComputationErr("swap out equivalent")
	}

	longDelta := a.amountIn.ToSigned()
	shortDelta := fixed.IntFromUint(outEquivalent, true)
	if !a.isTokenInLong {
		longDelta, shortDelta = shortDelta, longDelta
	}

	primary, err := a.market.Pool(market.PoolPrimary)
	if err != nil {
		return nil, err
	}
	delta, err := market.NewPoolDelta(primary, longDelta, shortDelta, a.prices.Long.Max, a.prices.Short.Max)
	if err != nil {
		return nil, err
	}
	return delta.PriceImpact(a.market.SwapImpactParams())
}

// Execute runs the swap. Positive impact pays extra out-tokens from
// the swap impact pool; negative impact charges extra in-tokens into
// it.
func (a *Swap) Execute() (*SwapReport, error) {
	distribution, err := NewDistributePositionImpact(a.market).Execute()
	if err != nil {
		return nil, err
	}

	impact, err := a.priceImpact()
	if err != nil {
		return nil, err
	}

	inPrice := a.prices.SidePrice(a.isTokenInLong)
	outPrice := a.prices.SidePrice(!a.isTokenInLong)

	afterFees, fees, err := a.market.SwapFeeParams().ApplyFees(!impact.IsNegative(), a.amountIn)
	if err != nil {
		return nil, err
	}

	claimable, err := a.market.PoolMut(market.PoolClaimableFee)
	if err != nil {
		return nil, err
	}
	if err := claimable.ApplyDelta(a.isTokenInLong, fees.FeeReceiverAmount.ToSigned()); err != nil {
		return nil, err
	}

	var amountOut, poolAmountOut *fixed.Uint
	if impact.IsPositive() {
		impactAmount, err := market.ApplySwapImpactValueWithCap(a.market, !a.isTokenInLong, outPrice, impact)
		if err != nil {
			return nil, err
		}
		base, ok := afterFees.CheckedMulDiv(inPrice.Min, outPrice.Max)
		if !ok {
			return nil, market.ComputationErr("swap amount out")
		}
		amountOut, ok = base.CheckedAdd(impactAmount)
		if !ok {
			return nil, market.ErrOverflow
		}
		// The impact portion is paid by the swap impact pool, so the
		// primary pool only covers the base amount.
		poolAmountOut = base
	} else {
		impactAmount, err := market.ApplySwapImpactValueWithCap(a.market, a.isTokenInLong, inPrice, impact)
		if err != nil {
			return nil, err
		}
		next, ok := afterFees.CheckedSub(impactAmount)
		if !ok {
			return nil, market.ErrUnderflow
		}
		afterFees = next
		amountOut, ok = afterFees.CheckedMulDiv(inPrice.Min, outPrice.Max)
		if !ok {
			return nil, market.ComputationErr("swap amount out")
		}
		poolAmountOut = amountOut
	}

	poolIn, ok := afterFees.CheckedAdd(fees.FeeAmountForPool)
	if !ok {
		return nil, market.ErrOverflow
	}
	primary, err := a.market.PoolMut(market.PoolPrimary)
	if err != nil {
		return nil, err
	}
	if err := primary.ApplyDelta(a.isTokenInLong, poolIn.ToSigned()); err != nil {
		return nil, err
	}
	if err := primary.ApplyDelta(!a.isTokenInLong, fixed.IntFromUint(poolAmountOut, true)); err != nil {
		return nil, err
	}

	return &SwapReport{
		IsTokenInLong:  a.isTokenInLong,
		AmountIn:       a.amountIn.Clone(),
		AmountOut:      amountOut,
		Fees:           fees,
		PriceImpactUSD: impact,
		Distribution:   distribution,
	}, nil
}
