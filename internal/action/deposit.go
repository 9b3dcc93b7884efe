package action

import (
	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
)

// DepositReport describes a completed deposit.
type DepositReport struct {
	LongTokenAmount  *fixed.Uint
	ShortTokenAmount *fixed.Uint

	MintedMarketTokens *fixed.Uint

	LongTokenFees  market.Fees
	ShortTokenFees market.Fees

	LongPriceImpactUSD  *fixed.Int
	ShortPriceImpactUSD *fixed.Int

	Distribution *DistributePositionImpactReport
}

// Deposit adds liquidity to a market and mints market tokens pro rata
// against pool value.
type Deposit struct {
	market      market.LiquidityMarketMut
	longAmount  *fixed.Uint
	shortAmount *fixed.Uint
	prices      market.Prices
}

// NewDeposit builds the action. Depositing nothing on both sides is
// rejected up front.
func NewDeposit(m market.LiquidityMarketMut, longAmount, shortAmount *fixed.Uint, prices market.Prices) (*Deposit, error) {
	if longAmount.IsZero() && shortAmount.IsZero() {
		return nil, market.ErrEmptyDeposit
	}
	if err := prices.Validate(); err != nil {
		return nil, err
	}
	return &Deposit{
		market:      m,
		longAmount:  longAmount.Clone(),
		shortAmount: shortAmount.Clone(),
		prices:      prices,
	}, nil
}

// priceImpact values both legs at max price and splits the primary
// pool impact between them pro rata.
func (a *Deposit) priceImpact() (longImpact, shortImpact *fixed.Int, err error) {
	primary, err := a.market.Pool(market.PoolPrimary)
	if err != nil {
		return nil, nil, err
	}
	delta, err := market.NewPoolDelta(
		primary,
		a.longAmount.ToSigned(),
		a.shortAmount.ToSigned(),
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

	longUSD, ok := a.longAmount.CheckedMul(a.prices.Long.Max)
	if !ok {
		return nil, nil, market.ErrOverflow
	}
	shortUSD, ok := a.shortAmount.CheckedMul(a.prices.Short.Max)
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

	longImpact, ok = longUSD.CheckedMulDivSigned(impact, totalUSD)
	if !ok {
		return nil, nil, market.ComputationErr("long deposit impact")
	}
	shortImpact, ok = shortUSD.CheckedMulDivSigned(impact, totalUSD)
	if !ok {
		return nil, nil, market.ComputationErr("short deposit impact")
	}
	return longImpact, shortImpact, nil
}

// Execute runs the deposit and mints in one shot at the end.
func (a *Deposit) Execute() (*DepositReport, error) {
	distribution, err := NewDistributePositionImpact(a.market).Execute()
	if err != nil {
		return nil, err
	}

	longImpact, shortImpact, err := a.priceImpact()
	if err != nil {
		return nil, err
	}

	value, err := market.LiquidityPoolValue(a.market, a.prices, true)
	if err != nil {
		return nil, err
	}
	poolValue, err := value.TotalUSD()
	if err != nil {
		return nil, err
	}
	supply := a.market.TotalSupply()
	if poolValue.IsZero() && !supply.IsZero() {
		return nil, market.InvalidPoolValueErr("deposit into market with supply but no pool value")
	}

	report := &DepositReport{
		LongTokenAmount:     a.longAmount.Clone(),
		ShortTokenAmount:    a.shortAmount.Clone(),
		MintedMarketTokens:  fixed.UintZero(),
		LongTokenFees:       market.ZeroFees(),
		ShortTokenFees:      market.ZeroFees(),
		LongPriceImpactUSD:  longImpact,
		ShortPriceImpactUSD: shortImpact,
		Distribution:        distribution,
	}

	if !a.longAmount.IsZero() {
		minted, fees, err := a.depositSide(true, a.longAmount, longImpact, poolValue, supply)
		if err != nil {
			return nil, err
		}
		report.LongTokenFees = fees
		next, ok := report.MintedMarketTokens.CheckedAdd(minted)
		if !ok {
			return nil, market.ErrOverflow
		}
		report.MintedMarketTokens = next
	}
	if !a.shortAmount.IsZero() {
		minted, fees, err := a.depositSide(false, a.shortAmount, shortImpact, poolValue, supply)
		if err != nil {
			return nil, err
		}
		report.ShortTokenFees = fees
		next, ok := report.MintedMarketTokens.CheckedAdd(minted)
		if !ok {
			return nil, market.ErrOverflow
		}
		report.MintedMarketTokens = next
	}

	if err := a.market.Mint(report.MintedMarketTokens); err != nil {
		return nil, err
	}
	return report, nil
}

// depositSide charges fees, settles impact and accumulates the mint
// amount for one leg. Positive impact mints extra tokens backed by
// the swap impact pool's opposite-token balance; negative impact
// diverts part of the deposit into the swap impact pool.
func (a *Deposit) depositSide(isLong bool, amount *fixed.Uint, impact *fixed.Int, poolValue, supply *fixed.Uint) (*fixed.Uint, market.Fees, error) {
	price := a.prices.SidePrice(isLong)
	divisor := a.market.UsdToAmountDivisor()

	afterFees, fees, err := a.market.SwapFeeParams().ApplyFees(!impact.IsNegative(), amount)
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

	// Extra mint against a fresh market has nothing to price impact
	// into; drop it rather than minting unbacked tokens.
	if impact.IsPositive() && supply.IsZero() {
		impact = fixed.IntZero()
	}

	mintAmount := fixed.UintZero()
	switch {
	case impact.IsPositive():
		oppositePrice := a.prices.SidePrice(!isLong)
		impactAmount, err := market.ApplySwapImpactValueWithCap(a.market, !isLong, oppositePrice, impact)
		if err != nil {
			return nil, market.Fees{}, err
		}
		// The impact pool pays out in the opposite token, so the
		// primary pool receives it on that side.
		primary, err := a.market.PoolMut(market.PoolPrimary)
		if err != nil {
			return nil, market.Fees{}, err
		}
		if err := primary.ApplyDelta(!isLong, impactAmount.ToSigned()); err != nil {
			return nil, market.Fees{}, err
		}
		impactUSD, ok := impactAmount.CheckedMul(oppositePrice.Max)
		if !ok {
			return nil, market.Fees{}, market.ErrOverflow
		}
		extra, err := market.UsdToMarketTokenAmount(impactUSD, poolValue, supply, divisor)
		if err != nil {
			return nil, market.Fees{}, err
		}
		mintAmount = extra
	case impact.IsNegative():
		impactAmount, err := market.ApplySwapImpactValueWithCap(a.market, isLong, price, impact)
		if err != nil {
			return nil, market.Fees{}, err
		}
		next, ok := afterFees.CheckedSub(impactAmount)
		if !ok {
			return nil, market.Fees{}, market.ErrUnderflow
		}
		afterFees = next
	}

	usd, ok := afterFees.CheckedMul(price.Max)
	if !ok {
		return nil, market.Fees{}, market.ErrOverflow
	}
	minted, err := market.UsdToMarketTokenAmount(usd, poolValue, supply, divisor)
	if err != nil {
		return nil, market.Fees{}, err
	}
	total, ok := mintAmount.CheckedAdd(minted)
	if !ok {
		return nil, market.Fees{}, market.ErrOverflow
	}

	poolIn, ok := afterFees.CheckedAdd(fees.FeeAmountForPool)
	if !ok {
		return nil, market.Fees{}, market.ErrOverflow
	}
	primary, err := a.market.PoolMut(market.PoolPrimary)
	if err != nil {
		return nil, market.Fees{}, err
	}
	if err := primary.ApplyDelta(isLong, poolIn.ToSigned()); err != nil {
		return nil, market.Fees{}, err
	}

	return total, fees, nil
}
