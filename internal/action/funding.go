package action

import (
	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
)

// UpdateFundingReport describes one funding accrual tick.
type UpdateFundingReport struct {
	DurationInSeconds      uint64
	FundingFactorPerSecond *fixed.Int

	NextFundingAmountPerSizeForLong  *market.Pool
	NextFundingAmountPerSizeForShort *market.Pool
}

// UpdateFundingState derives the funding rate from open interest
// imbalance and accrues it into the per-size integrators. The paying
// side's integrator charges; the receiving side's claimable
// integrator credits, split per collateral token so that payments and
// claims conserve USD.
type UpdateFundingState struct {
	market market.PerpMarketMut
	prices market.Prices
}

// NewUpdateFundingState builds the action.
func NewUpdateFundingState(m market.PerpMarketMut, prices market.Prices) (*UpdateFundingState, error) {
	if err := prices.Validate(); err != nil {
		return nil, err
	}
	return &UpdateFundingState{market: m, prices: prices}, nil
}

// Execute ticks the funding clock, refreshes the stored rate, and
// accrues rate*duration across the integrators.
func (a *UpdateFundingState) Execute() (*UpdateFundingReport, error) {
	duration, err := a.market.JustPassedInSecondsForFunding()
	if err != nil {
		return nil, err
	}

	rate, err := market.NextFundingFactorPerSecond(a.market)
	if err != nil {
		return nil, err
	}
	a.market.SetFundingFactorPerSecond(rate)

	if duration > 0 && !rate.IsZero() {
		if err := a.accrue(rate, duration); err != nil {
			return nil, err
		}
	}

	longPool, err := a.market.Pool(market.PoolFundingAmountPerSizeForLong)
	if err != nil {
		return nil, err
	}
	shortPool, err := a.market.Pool(market.PoolFundingAmountPerSizeForShort)
	if err != nil {
		return nil, err
	}
	return &UpdateFundingReport{
		DurationInSeconds:                duration,
		FundingFactorPerSecond:           rate,
		NextFundingAmountPerSizeForLong:  longPool,
		NextFundingAmountPerSizeForShort: shortPool,
	}, nil
}

func (a *UpdateFundingState) accrue(rate *fixed.Int, duration uint64) error {
	payingIsLong := rate.IsPositive()

	payPool, err := a.market.Pool(market.PoolOpenInterest(payingIsLong))
	if err != nil {
		return err
	}
	oiPay, err := payPool.TotalAmount()
	if err != nil {
		return err
	}
	if oiPay.IsZero() {
		return nil
	}
	oiRecv, err := market.OpenInterestUSD(a.market, !payingIsLong)
	if err != nil {
		return err
	}

	factor, ok := rate.Abs().CheckedMul(fixed.NewUint(duration))
	if !ok {
		return market.ErrOverflow
	}
	fundingUSD, ok := fixed.ApplyFactor(oiPay, factor)
	if !ok {
		return market.ComputationErr("funding usd")
	}
	if fundingUSD.IsZero() {
		return nil
	}

	adj := a.market.FundingAmountPerSizeAdjustment()

	chargePool, err := a.market.PoolMut(market.PoolFundingAmountPerSize(payingIsLong))
	if err != nil {
		return err
	}
	claimPool, err := a.market.PoolMut(market.PoolClaimableFundingAmountPerSize(!payingIsLong))
	if err != nil {
		return err
	}

	for _, tokenIsLong := range []bool{true, false} {
		price := a.prices.SidePrice(tokenIsLong)

		// Charge payers at the min price so the charged token amount
		// covers the USD obligation.
		denom, ok := oiPay.CheckedMul(price.Min)
		if !ok {
			return market.ErrOverflow
		}
		chargeDelta, ok := fundingUSD.CheckedMulDiv(adj, denom)
		if !ok {
			return market.ComputationErr("funding charge per size")
		}
		if err := chargePool.ApplyDelta(tokenIsLong, chargeDelta.ToSigned()); err != nil {
			return err
		}

		if oiRecv.IsZero() {
			continue
		}
		// Receivers claim the slice of funding backed by payers
		// holding this collateral token, at the max price.
		portion, ok := fundingUSD.CheckedMulDiv(payPool.Amount(tokenIsLong), oiPay)
		if !ok {
			return market.ComputationErr("funding portion")
		}
		claimDenom, ok := oiRecv.CheckedMul(price.Max)
		if !ok {
			return market.ErrOverflow
		}
		claimDelta, ok := portion.CheckedMulDiv(adj, claimDenom)
		if !ok {
			return market.ComputationErr("funding claim per size")
		}
		if err := claimPool.ApplyDelta(tokenIsLong, claimDelta.ToSigned()); err != nil {
			return err
		}
	}
	return nil
}
