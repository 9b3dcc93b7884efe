package action

import (
	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
)

// WithdrawalReport describes a completed withdrawal.
type WithdrawalReport struct {
	MarketTokenAmount *fixed.Uint

	LongTokenOut  *fixed.Uint
	ShortTokenOut *fixed.Uint

	LongTokenFees  market.Fees
	ShortTokenFees market.Fees

	LongPriceImpactUSD  *fixed.Int
	ShortPriceImpactUSD *fixed.Int

	Distribution *DistributePositionImpactReport
}

// Withdrawal burns market tokens and redeems the holder's share of
// the pool, split across both sides pro rata to pool value.
type Withdrawal struct {
	market market.LiquidityMarketMut
	amount *fixed.Uint
	prices market.Prices
}

// NewWithdrawal builds the action. Burning zero tokens is rejected up
// front.
func NewWithdrawal(m market.LiquidityMarketMut, marketTokenAmount *fixed.Uint, prices market.Prices) (*Withdrawal, error) {
	if marketTokenAmount.IsZero() {
		return nil, market.ErrEmptyWithdrawal
	}
	if err := prices.Validate(); err != nil {
		return nil, err
	}
	return &Withdrawal{market: m, amount: marketTokenAmount.Clone(), prices: prices}, nil
}

// Execute redeems, applies impact and fees per side, burns, and
// reports the token amounts owed to the holder.
func (a *Withdrawal) Execute() (*WithdrawalReport, error) {
	distribution, err := NewDistributePositionImpact(a.market).Execute()
	if err != nil {
		return nil, err
	}

	value, err := market.LiquidityPoolValue(a.market, a.prices, false)
	if err != nil {
		return nil, err
	}
	poolValue, err := value.TotalUSD()
	if err != nil {
		return nil, err
	}
	if poolValue.IsZero() {
		return nil, market.InvalidPoolValueErr("withdraw from market with no pool value")
	}

	redeemedUSD, err := market.MarketTokenAmountToUSD(a.amount, poolValue, a.market.TotalSupply())
	if err != nil {
		return nil, err
	}

	longUSD, ok := redeemedUSD.CheckedMulDiv(value.LongUSD, poolValue)
	if !ok {
		return nil, market.ComputationErr("long withdrawal split")
	}
	shortUSD, ok := redeemedUSD.CheckedSub(longUSD)
	if !ok {
		return nil, market.ErrUnderflow
	}

	longOut, ok := longUSD.CheckedDiv(a.prices.Long.Max)
	if !ok {
		return nil, market.ErrDividedByZero
	}
	shortOut, ok := shortUSD.CheckedDiv(a.prices.Short.Max)
	if !ok {
		return nil, market.ErrDividedByZero
	}

	longImpact, shortImpact, err := a.priceImpact(longOut, shortOut)
	if err != nil {
		return nil, err
	}

	report := &WithdrawalReport{
		MarketTokenAmount:   a.amount.Clone(),
		LongTokenOut:        fixed.UintZero(),
		ShortTokenOut:       fixed.UintZero(),
		LongTokenFees:       market.ZeroFees(),
		ShortTokenFees:      market.ZeroFees(),
		LongPriceImpactUSD:  longImpact,
		ShortPriceImpactUSD: shortImpact,
		Distribution:        distribution,
	}

	if !longOut.IsZero() {
		out, fees, err := a.withdrawSide(true, longOut, longImpact)
		if err != nil {
			return nil, err
		}
		report.LongTokenOut = out
		report.LongTokenFees = fees
	}
	if !shortOut.IsZero() {
		out, fees, err := a.withdrawSide(false, shortOut, shortImpact)
		if err != nil {
			return nil, err
		}
		report.ShortTokenOut = out
		report.ShortTokenFees = fees
	}

	if err := a.market.Burn(a.amount); err != nil {
		return nil, err
	}
	return report, nil
}

// priceImpact mirrors the deposit split with negated deltas.
func (a *Withdrawal) priceImpact(longOut, shortOut *fixed.Uint) (*fixed.Int, *fixed.Int, error) {
	primary, err := a.market.Pool(market.PoolPrimary)
	if err != nil {
		return nil, nil, err
	}
	delta, err := market.NewPoolDelta(
		primary,
		fixed.IntFromUint(longOut, true),
		fixed.IntFromUint(shortOut, true),
		a.prices.Long.Max,
		a.prices.Short.Max,
	)
	if err != nil {
		return nil, nil, err
	}
	impact, err := delta.PriceImpact(a.market.SwapImpactParams())
	if err != nil {
		return nil, nil, err
	}

	longUSD, ok := longOut.CheckedMul(a.prices.Long.Max)
	if !ok {
		return nil, nil, market.ErrOverflow
	}
	shortUSD, ok := shortOut.CheckedMul(a.prices.Short.Max)
	if !ok {
		return nil, nil, market.ErrOverflow
	}
	totalUSD, ok := longUSD.CheckedAdd(shortUSD)
	if !ok {
		return nil, nil, market.ErrOverflow
	}
	if totalUSD.IsZero() {
		return fixed.IntZero(), fixed.IntZero(), nil
	}

	longImpact, ok := longUSD.CheckedMulDivSigned(impact, totalUSD)
	if !ok {
		return nil, nil, market.ComputationErr("long withdrawal impact")
	}
	shortImpact, ok := shortUSD.CheckedMulDivSigned(impact, totalUSD)
	if !ok {
		return nil, nil, market.ComputationErr("short withdrawal impact")
	}
	return longImpact, shortImpact, nil
}

// withdrawSide settles impact and fees for one leg and debits the
// primary pool by exactly what leaves it.
func (a *Withdrawal) withdrawSide(isLong bool, out *fixed.Uint, impact *fixed.Int) (*fixed.Uint, market.Fees, error) {
	price := a.prices.SidePrice(isLong)

	afterFees, fees, err := a.market.SwapFeeParams().ApplyFees(!impact.IsNegative(), out)
	if err != nil {
		return nil, market.Fees{}, err
	}

	claimable, err := a.market.PoolMut(market.PoolClaimableFee)
	if err != nil {
		return nil, market.Fees{}, err
	}
	if err := claimable.ApplyDelta(isLong, fees.FeeReceiverAmount.ToSigned()); err != nil {
		return nil, market.Fees{}, err
	}

	impactAmount, err := market.ApplySwapImpactValueWithCap(a.market, isLong, price, impact)
	if err != nil {
		return nil, market.Fees{}, err
	}
	if impact.IsPositive() {
		next, ok := afterFees.CheckedAdd(impactAmount)
		if !ok {
			return nil, market.Fees{}, market.ErrOverflow
		}
		afterFees = next
	} else if impact.IsNegative() {
		next, ok := afterFees.CheckedSub(impactAmount)
		if !ok {
			return nil, market.Fees{}, market.ErrUnderflow
		}
		afterFees = next
	}

	// The pool loses the gross redemption minus the portion retained
	// as pool fee. Positive impact is paid by the swap impact pool,
	// not primary.
	poolOut, ok := out.CheckedSub(fees.FeeAmountForPool)
	if !ok {
		return nil, market.Fees{}, market.ErrUnderflow
	}
	primary, err := a.market.PoolMut(market.PoolPrimary)
	if err != nil {
		return nil, market.Fees{}, err
	}
	if err := primary.ApplyDelta(isLong, fixed.IntFromUint(poolOut, true)); err != nil {
		return nil, market.Fees{}, err
	}

	return afterFees, fees, nil
}
