package action

import (
	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
	"PerpEngine/internal/position"
)

// settledFees are the integrator charges and credits accrued since a
// position's last touch, in token amounts.
type settledFees struct {
	borrowingFeeAmount   *fixed.Uint
	fundingFeeAmount     *fixed.Uint
	claimableLongAmount  *fixed.Uint
	claimableShortAmount *fixed.Uint
}

// settlePosition converts the pending integrator deltas into
// collateral-token charges and claimable credits. It does not mutate
// anything; charging happens when fees are credited and the position
// snapshots are refreshed.
func settlePosition(m market.PerpMarket, pos *position.Position, prices market.Prices) (*settledFees, error) {
	borrowUSD, err := pos.PendingBorrowingFee(m)
	if err != nil {
		return nil, err
	}
	collateralPrice := pos.CollateralPrice(prices)
	borrowAmount, ok := borrowUSD.CheckedDiv(collateralPrice.Min)
	if !ok {
		return nil, market.ErrDividedByZero
	}

	funding, err := pos.PendingFundingFees(m)
	if err != nil {
		return nil, err
	}
	return &settledFees{
		borrowingFeeAmount:   borrowAmount,
		fundingFeeAmount:     funding.FeeAmount,
		claimableLongAmount:  funding.ClaimableLongAmount,
		claimableShortAmount: funding.ClaimableShortAmount,
	}, nil
}

// positionPriceImpact evaluates the open interest rebalance curve for
// a signed size delta on one side, returning the capped USD impact
// and the index-token impact amount.
func positionPriceImpact(m market.PerpMarket, isLong bool, sizeDeltaUSD *fixed.Int, prices market.Prices) (*fixed.Int, *fixed.Int, error) {
	oiLong, err := market.OpenInterestUSD(m, true)
	if err != nil {
		return nil, nil, err
	}
	oiShort, err := market.OpenInterestUSD(m, false)
	if err != nil {
		return nil, nil, err
	}

	longDelta, shortDelta := sizeDeltaUSD, fixed.IntZero()
	if !isLong {
		longDelta, shortDelta = shortDelta, longDelta
	}
	delta, err := market.NewPoolDeltaFromValues(
		market.PoolValue{LongUSD: oiLong, ShortUSD: oiShort},
		longDelta, shortDelta,
	)
	if err != nil {
		return nil, nil, err
	}
	impactUSD, err := delta.PriceImpact(m.PositionImpactParams())
	if err != nil {
		return nil, nil, err
	}

	impactAmount, err := market.PositionImpactAmountWithCap(m, prices.Index, impactUSD)
	if err != nil {
		return nil, nil, err
	}
	if impactUSD.IsPositive() {
		// The cap may have reduced the payout; reprice the impact
		// from the capped amount.
		capped, ok := impactAmount.Abs().CheckedMul(prices.Index.Max)
		if !ok {
			return nil, nil, market.ErrOverflow
		}
		impactUSD = capped.ToSigned()
	}
	return impactUSD, impactAmount, nil
}

// applyPositionImpactToPool moves the impact amount against the
// position impact pool: positive impact drains it, negative accrues.
func applyPositionImpactToPool(m market.BaseMarketMut, impactAmount *fixed.Int) error {
	return market.ApplyDeltaToPositionImpactPool(m, impactAmount.Neg())
}

// increaseExecutionPrice prices an increase off the worse index bound
// for the trader, shifted by impact per token.
func increaseExecutionPrice(isLong bool, index market.Price, sizeDeltaUSD *fixed.Uint, impactUSD *fixed.Int) (*fixed.Uint, *fixed.Uint, error) {
	base := index.PickPrice(isLong)
	if sizeDeltaUSD.IsZero() {
		return base.Clone(), fixed.UintZero(), nil
	}
	exec, err := adjustPriceByImpact(isLong, base, sizeDeltaUSD, impactUSD)
	if err != nil {
		return nil, nil, err
	}
	tokens, ok := sizeDeltaUSD.CheckedDiv(exec)
	if !ok {
		return nil, nil, market.ErrDividedByZero
	}
	return exec, tokens, nil
}

// adjustPriceByImpact shifts a base price by impact/size tokens.
// Positive impact always improves the trader's price: lower for
// longs, higher for shorts.
func adjustPriceByImpact(isLong bool, base *fixed.Uint, sizeDeltaUSD *fixed.Uint, impactUSD *fixed.Int) (*fixed.Uint, error) {
	tokens0, ok := sizeDeltaUSD.CheckedDiv(base)
	if !ok {
		return nil, market.ErrDividedByZero
	}
	if tokens0.IsZero() || impactUSD.IsZero() {
		return base.Clone(), nil
	}
	perToken, ok := impactUSD.Abs().CheckedDiv(tokens0)
	if !ok {
		return nil, market.ErrDividedByZero
	}
	improve := impactUSD.IsPositive()
	lower := (isLong && improve) || (!isLong && !improve)
	if lower {
		exec, ok := base.CheckedSub(perToken)
		if !ok || exec.IsZero() {
			return nil, market.ComputationErr("impact collapsed execution price")
		}
		return exec, nil
	}
	exec, ok := base.CheckedAdd(perToken)
	if !ok {
		return nil, market.ErrOverflow
	}
	return exec, nil
}

// checkAcceptablePrice enforces the optional execution bound: a
// ceiling for longs, a floor for shorts.
func checkAcceptablePrice(isLong bool, exec, acceptable *fixed.Uint) error {
	if acceptable == nil {
		return nil
	}
	if isLong && exec.GT(acceptable) {
		return market.InvalidPositionErr("execution price above acceptable price")
	}
	if !isLong && exec.LT(acceptable) {
		return market.InvalidPositionErr("execution price below acceptable price")
	}
	return nil
}

// creditPositionFees routes the receiver cut to the claimable fee
// pool and everything the pool earns into primary, both on the
// collateral token side.
func creditPositionFees(m market.BaseMarketMut, pos *position.Position, fees market.PositionFees) error {
	claimable, err := m.PoolMut(market.PoolClaimableFee)
	if err != nil {
		return err
	}
	if err := claimable.ApplyDelta(pos.IsCollateralLong, fees.FeeReceiverAmount.ToSigned()); err != nil {
		return err
	}

	poolShare := fees.FeeAmountForPool.Clone()
	for _, extra := range []*fixed.Uint{fees.BorrowingFeeAmount, fees.FundingFeeAmount} {
		if extra == nil {
			continue
		}
		next, ok := poolShare.CheckedAdd(extra)
		if !ok {
			return market.ErrOverflow
		}
		poolShare = next
	}
	primary, err := m.PoolMut(market.PoolPrimary)
	if err != nil {
		return err
	}
	return primary.ApplyDelta(pos.IsCollateralLong, poolShare.ToSigned())
}

// applyOpenInterestDelta updates both open interest pools; the bucket
// within a side is the position's collateral token.
func applyOpenInterestDelta(m market.BaseMarketMut, pos *position.Position, sizeDeltaUSD, sizeDeltaTokens *fixed.Int) error {
	oi, err := m.PoolMut(market.PoolOpenInterest(pos.IsLong))
	if err != nil {
		return err
	}
	if err := oi.ApplyDelta(pos.IsCollateralLong, sizeDeltaUSD); err != nil {
		return err
	}
	oiTokens, err := m.PoolMut(market.PoolOpenInterestInTokens(pos.IsLong))
	if err != nil {
		return err
	}
	return oiTokens.ApplyDelta(pos.IsCollateralLong, sizeDeltaTokens)
}

// applyCollateralSumDelta tracks aggregate position collateral per
// side and token.
func applyCollateralSumDelta(m market.BaseMarketMut, pos *position.Position, delta *fixed.Int) error {
	pool, err := m.PoolMut(market.PoolCollateralSum(pos.IsLong))
	if err != nil {
		return err
	}
	return pool.ApplyDelta(pos.IsCollateralLong, delta)
}

// updateTotalBorrowing replaces the position's contribution to the
// total borrowing pool: out with the old size at the old snapshot, in
// with the next size at the current cumulative factor.
func updateTotalBorrowing(m market.BaseMarketMut, pos *position.Position, nextSizeUSD *fixed.Uint) error {
	factors, err := m.Pool(market.PoolBorrowingFactor)
	if err != nil {
		return err
	}
	current := factors.Amount(pos.IsLong)

	old, ok := fixed.ApplyFactor(pos.SizeInUSD, pos.BorrowingFactor)
	if !ok {
		return market.ComputationErr("old borrowing contribution")
	}
	next, ok := fixed.ApplyFactor(nextSizeUSD, current)
	if !ok {
		return market.ComputationErr("next borrowing contribution")
	}
	delta, ok := next.ToSigned().CheckedSub(old.ToSigned())
	if !ok {
		return market.ErrOverflow
	}
	pool, err := m.PoolMut(market.PoolTotalBorrowing)
	if err != nil {
		return err
	}
	return pool.ApplyDelta(pos.IsLong, delta)
}
