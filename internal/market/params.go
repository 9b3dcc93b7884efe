package market

import "PerpEngine/internal/fixed"

// PriceImpactParams is the impact curve A*x^E with separate scale
// factors for balancing and imbalancing trades.
type PriceImpactParams struct {
	PositiveFactor *fixed.Uint
	NegativeFactor *fixed.Uint
	ExponentFactor *fixed.Uint
}

// PriceImpactParamsBuilder assembles PriceImpactParams; Build fails
// when a field is missing.
type PriceImpactParamsBuilder struct {
	positive *fixed.Uint
	negative *fixed.Uint
	exponent *fixed.Uint
}

// NewPriceImpactParams returns an empty builder.
func NewPriceImpactParams() *PriceImpactParamsBuilder {
	return &PriceImpactParamsBuilder{}
}

// WithPositiveFactor sets the factor for rebalancing trades.
func (b *PriceImpactParamsBuilder) WithPositiveFactor(f *fixed.Uint) *PriceImpactParamsBuilder {
	b.positive = f
	return b
}

// WithNegativeFactor sets the factor for imbalancing trades.
func (b *PriceImpactParamsBuilder) WithNegativeFactor(f *fixed.Uint) *PriceImpactParamsBuilder {
	b.negative = f
	return b
}

// WithExponentFactor sets the curve exponent.
func (b *PriceImpactParamsBuilder) WithExponentFactor(f *fixed.Uint) *PriceImpactParamsBuilder {
	b.exponent = f
	return b
}

// Build validates and returns the params.
func (b *PriceImpactParamsBuilder) Build() (PriceImpactParams, error) {
	if b.positive == nil || b.negative == nil || b.exponent == nil {
		return PriceImpactParams{}, BuildParamsErr("price impact params incomplete")
	}
	return PriceImpactParams{
		PositiveFactor: b.positive.Clone(),
		NegativeFactor: b.negative.Clone(),
		ExponentFactor: b.exponent.Clone(),
	}, nil
}

// FeeParams scales fees by whether the trade had positive price
// impact, with a receiver cut taken out of every fee.
type FeeParams struct {
	PositiveImpactFactor *fixed.Uint
	NegativeImpactFactor *fixed.Uint
	ReceiverFactor       *fixed.Uint
}

// FeeParamsBuilder assembles FeeParams.
type FeeParamsBuilder struct {
	positive *fixed.Uint
	negative *fixed.Uint
	receiver *fixed.Uint
}

// NewFeeParams returns an empty builder.
func NewFeeParams() *FeeParamsBuilder {
	return &FeeParamsBuilder{}
}

// WithPositiveImpactFactor sets the fee factor for positive-impact
// trades.
func (b *FeeParamsBuilder) WithPositiveImpactFactor(f *fixed.Uint) *FeeParamsBuilder {
	b.positive = f
	return b
}

// WithNegativeImpactFactor sets the fee factor for negative-impact
// trades.
func (b *FeeParamsBuilder) WithNegativeImpactFactor(f *fixed.Uint) *FeeParamsBuilder {
	b.negative = f
	return b
}

// WithReceiverFactor sets the cut routed to the fee receiver.
func (b *FeeParamsBuilder) WithReceiverFactor(f *fixed.Uint) *FeeParamsBuilder {
	b.receiver = f
	return b
}

// Build validates and returns the params.
func (b *FeeParamsBuilder) Build() (FeeParams, error) {
	if b.positive == nil || b.negative == nil || b.receiver == nil {
		return FeeParams{}, BuildParamsErr("fee params incomplete")
	}
	return FeeParams{
		PositiveImpactFactor: b.positive.Clone(),
		NegativeImpactFactor: b.negative.Clone(),
		ReceiverFactor:       b.receiver.Clone(),
	}, nil
}

func (p FeeParams) factor(isPositiveImpact bool) *fixed.Uint {
	if isPositiveImpact {
		return p.PositiveImpactFactor
	}
	return p.NegativeImpactFactor
}

// Fee returns the raw fee for an amount.
func (p FeeParams) Fee(isPositiveImpact bool, amount *fixed.Uint) (*fixed.Uint, error) {
	fee, ok := fixed.ApplyFactor(amount, p.factor(isPositiveImpact))
	if !ok {
		return nil, ComputationErr("fee")
	}
	return fee, nil
}

// ApplyFees splits an amount into the remainder, the pool fee and the
// receiver fee.
func (p FeeParams) ApplyFees(isPositiveImpact bool, amount *fixed.Uint) (*fixed.Uint, Fees, error) {
	fee, err := p.Fee(isPositiveImpact, amount)
	if err != nil {
		return nil, Fees{}, err
	}
	receiver, ok := fixed.ApplyFactor(fee, p.ReceiverFactor)
	if !ok {
		return nil, Fees{}, ComputationErr("receiver fee")
	}
	after, ok := amount.CheckedSub(fee)
	if !ok {
		return nil, Fees{}, ErrUnderflow
	}
	forPool, ok := fee.CheckedSub(receiver)
	if !ok {
		return nil, Fees{}, ErrUnderflow
	}
	return after, Fees{FeeReceiverAmount: receiver, FeeAmountForPool: forPool}, nil
}

// PositionFees prices an order fee on size_delta_usd in collateral
// tokens.
func (p FeeParams) PositionFees(collateralPrice *fixed.Uint, sizeDeltaUSD *fixed.Uint, isPositiveImpact bool) (PositionFees, error) {
	if collateralPrice == nil || collateralPrice.IsZero() {
		return PositionFees{}, ErrInvalidPrices
	}
	feeUSD, err := p.Fee(isPositiveImpact, sizeDeltaUSD)
	if err != nil {
		return PositionFees{}, err
	}
	feeAmount, ok := feeUSD.CheckedDiv(collateralPrice)
	if !ok {
		return PositionFees{}, ErrDividedByZero
	}
	receiver, ok := fixed.ApplyFactor(feeAmount, p.ReceiverFactor)
	if !ok {
		return PositionFees{}, ComputationErr("position receiver fee")
	}
	forPool, ok := feeAmount.CheckedSub(receiver)
	if !ok {
		return PositionFees{}, ErrUnderflow
	}
	return PositionFees{
		Fees: Fees{FeeReceiverAmount: receiver, FeeAmountForPool: forPool},
	}, nil
}

// Fees is the split of one charged fee.
type Fees struct {
	FeeReceiverAmount *fixed.Uint
	FeeAmountForPool  *fixed.Uint
}

// ZeroFees returns an all-zero split.
func ZeroFees() Fees {
	return Fees{FeeReceiverAmount: fixed.UintZero(), FeeAmountForPool: fixed.UintZero()}
}

// Total returns receiver+pool.
func (f Fees) Total() (*fixed.Uint, error) {
	total, ok := f.FeeReceiverAmount.CheckedAdd(f.FeeAmountForPool)
	if !ok {
		return nil, ErrOverflow
	}
	return total, nil
}

// PositionFees is the full cost of touching a position, in collateral
// tokens. Order fees come from FeeParams; borrowing and funding are
// settled from the cumulative integrators.
type PositionFees struct {
	Fees
	BorrowingFeeAmount *fixed.Uint
	FundingFeeAmount   *fixed.Uint
}

// TotalCostAmount sums every collateral-token charge.
func (f PositionFees) TotalCostAmount() (*fixed.Uint, error) {
	total, err := f.Total()
	if err != nil {
		return nil, err
	}
	if f.BorrowingFeeAmount != nil {
		next, ok := total.CheckedAdd(f.BorrowingFeeAmount)
		if !ok {
			return nil, ErrOverflow
		}
		total = next
	}
	if f.FundingFeeAmount != nil {
		next, ok := total.CheckedAdd(f.FundingFeeAmount)
		if !ok {
			return nil, ErrOverflow
		}
		total = next
	}
	return total, nil
}

// PositionParams are the minimums a position must satisfy after an
// increase.
type PositionParams struct {
	MinPositionSizeUSD  *fixed.Uint
	MinCollateralValue  *fixed.Uint
	MinCollateralFactor *fixed.Uint
}

// PositionImpactDistributionParams control the linear release of the
// position impact pool back to liquidity providers.
type PositionImpactDistributionParams struct {
	DistributeFactor            *fixed.Uint
	MinPositionImpactPoolAmount *fixed.Uint
}

// BorrowingFeeParams drive the per-side cumulative borrowing factor.
type BorrowingFeeParams struct {
	FactorForLong  *fixed.Uint
	FactorForShort *fixed.Uint
	ExponentFactor *fixed.Uint
}

// Factor returns the side's borrowing factor.
func (p BorrowingFeeParams) Factor(isLong bool) *fixed.Uint {
	if isLong {
		return p.FactorForLong
	}
	return p.FactorForShort
}

// FundingFeeParams drive the funding rate derived from open interest
// imbalance.
type FundingFeeParams struct {
	FundingFactor      *fixed.Uint
	ExponentFactor     *fixed.Uint
	MaxFactorPerSecond *fixed.Uint
	MinFactorPerSecond *fixed.Uint
}
