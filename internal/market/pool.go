package market

import "PerpEngine/internal/fixed"

// PoolKind enumerates the balances a market tracks. The unit of each
// side depends on the kind: token amounts for liquidity and impact
// pools, USD for open interest and total borrowing, cumulative factors
// for the borrowing and funding integrators.
type PoolKind int

const (
	PoolPrimary PoolKind = iota
	PoolSwapImpact
	PoolClaimableFee
	PoolOpenInterestForLong
	PoolOpenInterestForShort
	PoolOpenInterestInTokensForLong
	PoolOpenInterestInTokensForShort
	PoolPositionImpact
	PoolBorrowingFactor
	PoolFundingAmountPerSizeForLong
	PoolFundingAmountPerSizeForShort
	PoolClaimableFundingAmountPerSizeForLong
	PoolClaimableFundingAmountPerSizeForShort
	PoolCollateralSumForLong
	PoolCollateralSumForShort
	PoolTotalBorrowing

	poolKindCount
)

// AllPoolKinds returns every kind in declaration order.
func AllPoolKinds() []PoolKind {
	kinds := make([]PoolKind, 0, poolKindCount)
	for k := PoolKind(0); k < poolKindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

func (k PoolKind) String() string {
	switch k {
	case PoolPrimary:
		return "primary"
	case PoolSwapImpact:
		return "swap_impact"
	case PoolClaimableFee:
		return "claimable_fee"
	case PoolOpenInterestForLong:
		return "open_interest_for_long"
	case PoolOpenInterestForShort:
		return "open_interest_for_short"
	case PoolOpenInterestInTokensForLong:
		return "open_interest_in_tokens_for_long"
	case PoolOpenInterestInTokensForShort:
		return "open_interest_in_tokens_for_short"
	case PoolPositionImpact:
		return "position_impact"
	case PoolBorrowingFactor:
		return "borrowing_factor"
	case PoolFundingAmountPerSizeForLong:
		return "funding_amount_per_size_for_long"
	case PoolFundingAmountPerSizeForShort:
		return "funding_amount_per_size_for_short"
	case PoolClaimableFundingAmountPerSizeForLong:
		return "claimable_funding_amount_per_size_for_long"
	case PoolClaimableFundingAmountPerSizeForShort:
		return "claimable_funding_amount_per_size_for_short"
	case PoolCollateralSumForLong:
		return "collateral_sum_for_long"
	case PoolCollateralSumForShort:
		return "collateral_sum_for_short"
	case PoolTotalBorrowing:
		return "total_borrowing"
	default:
		return "unknown"
	}
}

// PoolOpenInterest returns the open interest kind for a position side.
func PoolOpenInterest(isLong bool) PoolKind {
	if isLong {
		return PoolOpenInterestForLong
	}
	return PoolOpenInterestForShort
}

// PoolOpenInterestInTokens returns the token-denominated open
// interest kind for a position side.
func PoolOpenInterestInTokens(isLong bool) PoolKind {
	if isLong {
		return PoolOpenInterestInTokensForLong
	}
	return PoolOpenInterestInTokensForShort
}

// PoolCollateralSum returns the collateral sum kind for a position
// side.
func PoolCollateralSum(isLong bool) PoolKind {
	if isLong {
		return PoolCollateralSumForLong
	}
	return PoolCollateralSumForShort
}

// PoolFundingAmountPerSize returns the cumulative funding kind for a
// position side.
func PoolFundingAmountPerSize(isLong bool) PoolKind {
	if isLong {
		return PoolFundingAmountPerSizeForLong
	}
	return PoolFundingAmountPerSizeForShort
}

// PoolClaimableFundingAmountPerSize returns the claimable funding kind
// for a position side.
func PoolClaimableFundingAmountPerSize(isLong bool) PoolKind {
	if isLong {
		return PoolClaimableFundingAmountPerSizeForLong
	}
	return PoolClaimableFundingAmountPerSizeForShort
}

// Pool is a two-sided unsigned balance. Side semantics depend on the
// kind: for open interest and collateral sum pools the two sides split
// by collateral token rather than position side.
type Pool struct {
	long  fixed.Uint
	short fixed.Uint
}

// NewPool builds a pool from side amounts.
func NewPool(long, short *fixed.Uint) *Pool {
	p := &Pool{}
	if long != nil {
		p.long = *long.Clone()
	}
	if short != nil {
		p.short = *short.Clone()
	}
	return p
}

// Clone returns an independent copy.
func (p *Pool) Clone() *Pool {
	return NewPool(&p.long, &p.short)
}

// LongAmount returns a copy of the long side.
func (p *Pool) LongAmount() *fixed.Uint { return p.long.Clone() }

// ShortAmount returns a copy of the short side.
func (p *Pool) ShortAmount() *fixed.Uint { return p.short.Clone() }

// Amount returns a copy of the requested side.
func (p *Pool) Amount(isLong bool) *fixed.Uint {
	if isLong {
		return p.long.Clone()
	}
	return p.short.Clone()
}

// TotalAmount returns long+short, failing on overflow.
func (p *Pool) TotalAmount() (*fixed.Uint, error) {
	total, ok := p.long.CheckedAdd(&p.short)
	if !ok {
		return nil, ErrOverflow
	}
	return total, nil
}

// ApplyDeltaToLongAmount applies a signed delta to the long side.
func (p *Pool) ApplyDeltaToLongAmount(d *fixed.Int) error {
	next, ok := p.long.CheckedAddSigned(d)
	if !ok {
		if d.IsNegative() {
			return ErrUnderflow
		}
		return ErrOverflow
	}
	p.long = *next
	return nil
}

// ApplyDeltaToShortAmount applies a signed delta to the short side.
func (p *Pool) ApplyDeltaToShortAmount(d *fixed.Int) error {
	next, ok := p.short.CheckedAddSigned(d)
	if !ok {
		if d.IsNegative() {
			return ErrUnderflow
		}
		return ErrOverflow
	}
	p.short = *next
	return nil
}

// ApplyDelta applies a signed delta to the requested side.
func (p *Pool) ApplyDelta(isLong bool, d *fixed.Int) error {
	if isLong {
		return p.ApplyDeltaToLongAmount(d)
	}
	return p.ApplyDeltaToShortAmount(d)
}

// CheckedApplyDelta returns a new pool with both deltas applied,
// leaving the receiver untouched.
func (p *Pool) CheckedApplyDelta(longDelta, shortDelta *fixed.Int) (*Pool, error) {
	next := p.Clone()
	if err := next.ApplyDeltaToLongAmount(longDelta); err != nil {
		return nil, err
	}
	if err := next.ApplyDeltaToShortAmount(shortDelta); err != nil {
		return nil, err
	}
	return next, nil
}
