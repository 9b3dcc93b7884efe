package market

import "PerpEngine/internal/fixed"

// Derived computations shared by the actions. These are free
// functions over the capability interfaces so that any host market
// gains them without embedding.

// LiquidityPoolValue prices the primary pool per side. maximize picks
// the max price bound, used when valuing deposits; withdrawals value
// at the min bound.
func LiquidityPoolValue(m BaseMarket, prices Prices, maximize bool) (*PoolValue, error) {
	pool, err := m.Pool(PoolPrimary)
	if err != nil {
		return nil, err
	}
	return NewPoolValue(pool, prices.Long.PickPrice(maximize), prices.Short.PickPrice(maximize))
}

// UsdToMarketTokenAmount converts a USD value into market tokens to
// mint. The first deposit prices tokens off the divisor alone; later
// deposits mint pro rata against pool value.
func UsdToMarketTokenAmount(usd, poolValue, supply, divisor *fixed.Uint) (*fixed.Uint, error) {
	if divisor == nil || divisor.IsZero() {
		return nil, ErrDividedByZero
	}
	if supply.IsZero() && poolValue.IsZero() {
		amount, _ := usd.CheckedDiv(divisor)
		return amount, nil
	}
	if supply.IsZero() {
		total, ok := poolValue.CheckedAdd(usd)
		if !ok {
			return nil, ErrOverflow
		}
		amount, _ := total.CheckedDiv(divisor)
		return amount, nil
	}
	amount, ok := supply.CheckedMulDiv(usd, poolValue)
	if !ok {
		return nil, ComputationErr("usd to market token amount")
	}
	return amount, nil
}

// MarketTokenAmountToUSD converts market tokens into their share of
// pool value.
func MarketTokenAmountToUSD(amount, poolValue, supply *fixed.Uint) (*fixed.Uint, error) {
	if supply.IsZero() {
		return nil, InvalidPoolValueErr("burn from zero supply")
	}
	usd, ok := amount.CheckedMulDiv(poolValue, supply)
	if !ok {
		return nil, ComputationErr("market token amount to usd")
	}
	return usd, nil
}

// SwapImpactAmountWithCap converts a signed USD impact into a token
// amount for one side. Positive impact pays out of the swap impact
// pool and is capped by its balance; negative impact rounds the charge
// up and is uncapped.
func SwapImpactAmountWithCap(m BaseMarket, isLongToken bool, price Price, usdImpact *fixed.Int) (*fixed.Int, error) {
	if price.HasZero() {
		return nil, ErrDividedByZero
	}
	switch {
	case usdImpact.IsPositive():
		amount, ok := usdImpact.Abs().CheckedDiv(price.Max)
		if !ok {
			return nil, ErrDividedByZero
		}
		pool, err := m.Pool(PoolSwapImpact)
		if err != nil {
			return nil, err
		}
		amount = amount.Min(pool.Amount(isLongToken))
		return amount.ToSigned(), nil
	case usdImpact.IsNegative():
		amount, ok := usdImpact.Abs().CheckedDivCeil(price.Min)
		if !ok {
			return nil, ErrDividedByZero
		}
		return fixed.IntFromUint(amount, true), nil
	default:
		return fixed.IntZero(), nil
	}
}

// ApplySwapImpactValueWithCap converts and applies an impact to the
// swap impact pool, returning the unsigned token amount moved. A
// positive impact drains the pool side; a negative one accrues to it.
func ApplySwapImpactValueWithCap(m BaseMarketMut, isLongToken bool, price Price, usdImpact *fixed.Int) (*fixed.Uint, error) {
	amount, err := SwapImpactAmountWithCap(m, isLongToken, price, usdImpact)
	if err != nil {
		return nil, err
	}
	pool, err := m.PoolMut(PoolSwapImpact)
	if err != nil {
		return nil, err
	}
	if err := pool.ApplyDelta(isLongToken, amount.Neg()); err != nil {
		return nil, err
	}
	return amount.Abs(), nil
}

// PositionImpactPoolAmount reads the position impact pool. The pool is
// single-sided; the balance lives on the long side.
func PositionImpactPoolAmount(m BaseMarket) (*fixed.Uint, error) {
	pool, err := m.Pool(PoolPositionImpact)
	if err != nil {
		return nil, err
	}
	return pool.LongAmount(), nil
}

// ApplyDeltaToPositionImpactPool mutates the single-sided position
// impact pool.
func ApplyDeltaToPositionImpactPool(m BaseMarketMut, delta *fixed.Int) error {
	pool, err := m.PoolMut(PoolPositionImpact)
	if err != nil {
		return err
	}
	return pool.ApplyDeltaToLongAmount(delta)
}

// PositionImpactAmountWithCap converts a signed position impact USD
// into index tokens, capping positive impact by the position impact
// pool balance.
func PositionImpactAmountWithCap(m PositionImpactMarket, indexPrice Price, usdImpact *fixed.Int) (*fixed.Int, error) {
	if indexPrice.HasZero() {
		return nil, ErrDividedByZero
	}
	switch {
	case usdImpact.IsPositive():
		amount, ok := usdImpact.Abs().CheckedDiv(indexPrice.Max)
		if !ok {
			return nil, ErrDividedByZero
		}
		poolAmount, err := PositionImpactPoolAmount(m)
		if err != nil {
			return nil, err
		}
		amount = amount.Min(poolAmount)
		return amount.ToSigned(), nil
	case usdImpact.IsNegative():
		amount, ok := usdImpact.Abs().CheckedDivCeil(indexPrice.Min)
		if !ok {
			return nil, ErrDividedByZero
		}
		return fixed.IntFromUint(amount, true), nil
	default:
		return fixed.IntZero(), nil
	}
}

// PendingPositionImpactPoolDistributionAmount computes the linear
// release of the position impact pool over a duration, clamped so the
// pool never drops below its configured floor. It returns the amount
// to distribute and the resulting pool balance.
func PendingPositionImpactPoolDistributionAmount(m PositionImpactMarket, durationSeconds uint64) (*fixed.Uint, *fixed.Uint, error) {
	poolAmount, err := PositionImpactPoolAmount(m)
	if err != nil {
		return nil, nil, err
	}
	params := m.PositionImpactDistributionParams()

	distributable, ok := poolAmount.CheckedSub(params.MinPositionImpactPoolAmount)
	if !ok || durationSeconds == 0 || params.DistributeFactor.IsZero() {
		return fixed.UintZero(), poolAmount, nil
	}

	perSecond, ok := fixed.ApplyFactor(poolAmount, params.DistributeFactor)
	if !ok {
		return nil, nil, ComputationErr("distribution rate")
	}
	amount, ok := perSecond.CheckedMul(fixed.NewUint(durationSeconds))
	if !ok {
		return nil, nil, ErrOverflow
	}
	amount = amount.Min(distributable)

	next, ok := poolAmount.CheckedSub(amount)
	if !ok {
		return nil, nil, ErrUnderflow
	}
	return amount, next, nil
}

// OpenInterestUSD sums both collateral buckets of a side's open
// interest pool.
func OpenInterestUSD(m BaseMarket, isLong bool) (*fixed.Uint, error) {
	pool, err := m.Pool(PoolOpenInterest(isLong))
	if err != nil {
		return nil, err
	}
	total, err := pool.TotalAmount()
	if err != nil {
		return nil, err
	}
	return total, nil
}

// OpenInterestInTokens sums both collateral buckets of a side's
// token-denominated open interest pool.
func OpenInterestInTokens(m BaseMarket, isLong bool) (*fixed.Uint, error) {
	pool, err := m.Pool(PoolOpenInterestInTokens(isLong))
	if err != nil {
		return nil, err
	}
	total, err := pool.TotalAmount()
	if err != nil {
		return nil, err
	}
	return total, nil
}

// ReservedUSD is the value a side's open positions could draw from
// the pool. Longs reserve their token exposure at the max index
// price; shorts reserve their USD size.
func ReservedUSD(m BaseMarket, isLong bool, prices Prices) (*fixed.Uint, error) {
	if isLong {
		inTokens, err := OpenInterestInTokens(m, true)
		if err != nil {
			return nil, err
		}
		reserved, ok := inTokens.CheckedMul(prices.Index.Max)
		if !ok {
			return nil, ErrOverflow
		}
		return reserved, nil
	}
	return OpenInterestUSD(m, false)
}

// NextCumulativeBorrowingFactor integrates the borrowing rate for one
// side over a duration. It returns the next cumulative factor and the
// delta applied.
func NextCumulativeBorrowingFactor(m PerpMarket, isLong bool, prices Prices, durationSeconds uint64) (*fixed.Uint, *fixed.Uint, error) {
	pool, err := m.Pool(PoolBorrowingFactor)
	if err != nil {
		return nil, nil, err
	}
	current := pool.Amount(isLong)

	reserved, err := ReservedUSD(m, isLong, prices)
	if err != nil {
		return nil, nil, err
	}
	if reserved.IsZero() || durationSeconds == 0 {
		return current, fixed.UintZero(), nil
	}

	value, err := LiquidityPoolValue(m, prices, false)
	if err != nil {
		return nil, nil, err
	}
	var sideUSD *fixed.Uint
	if isLong {
		sideUSD = value.LongUSD
	} else {
		sideUSD = value.ShortUSD
	}
	if sideUSD.IsZero() {
		return nil, nil, InvalidPoolValueErr("borrowing against empty pool")
	}

	params := m.BorrowingFeeParams()
	scaledReserve, ok := fixed.ApplyFactors(reserved, params.Factor(isLong), params.ExponentFactor)
	if !ok {
		return nil, nil, ComputationErr("borrowing rate numerator")
	}
	ratePerSecond, ok := fixed.CheckedFixedDiv(scaledReserve, sideUSD)
	if !ok {
		return nil, nil, ErrDividedByZero
	}
	delta, ok := ratePerSecond.CheckedMul(fixed.NewUint(durationSeconds))
	if !ok {
		return nil, nil, ErrOverflow
	}
	next, ok := current.CheckedAdd(delta)
	if !ok {
		return nil, nil, ErrOverflow
	}
	return next, delta, nil
}

// NextFundingFactorPerSecond derives the funding rate from open
// interest imbalance. The sign follows the heavier side: positive
// means longs pay shorts.
func NextFundingFactorPerSecond(m PerpMarket) (*fixed.Int, error) {
	oiLong, err := OpenInterestUSD(m, true)
	if err != nil {
		return nil, err
	}
	oiShort, err := OpenInterestUSD(m, false)
	if err != nil {
		return nil, err
	}
	total, ok := oiLong.CheckedAdd(oiShort)
	if !ok {
		return nil, ErrOverflow
	}
	diff := oiLong.Diff(oiShort)
	if total.IsZero() || diff.IsZero() {
		return fixed.IntZero(), nil
	}

	ratio, ok := fixed.CheckedFixedDiv(diff, total)
	if !ok {
		return nil, ErrDividedByZero
	}
	params := m.FundingFeeParams()
	// The imbalance ratio sits in [0,1], below the collapse threshold
	// of the impact curve helper, so the exponent applies directly.
	powed, ok := fixed.CheckedPow(ratio, params.ExponentFactor)
	if !ok {
		return nil, ComputationErr("funding ratio exponent")
	}
	magnitude, ok := fixed.ApplyFactor(powed, params.FundingFactor)
	if !ok {
		return nil, ComputationErr("funding factor per second")
	}
	if magnitude.LT(params.MinFactorPerSecond) {
		magnitude = params.MinFactorPerSecond.Clone()
	}
	if magnitude.GT(params.MaxFactorPerSecond) {
		magnitude = params.MaxFactorPerSecond.Clone()
	}
	return fixed.IntFromUint(magnitude, oiLong.LT(oiShort)), nil
}
