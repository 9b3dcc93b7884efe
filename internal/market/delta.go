package market

import "PerpEngine/internal/fixed"

// PoolValue is the USD value of a pool's two sides.
type PoolValue struct {
	LongUSD  *fixed.Uint
	ShortUSD *fixed.Uint
}

// NewPoolValue prices a pool with one price per side.
func NewPoolValue(p *Pool, longPrice, shortPrice *fixed.Uint) (*PoolValue, error) {
	longUSD, ok := p.LongAmount().CheckedMul(longPrice)
	if !ok {
		return nil, ErrOverflow
	}
	shortUSD, ok := p.ShortAmount().CheckedMul(shortPrice)
	if !ok {
		return nil, ErrOverflow
	}
	return &PoolValue{LongUSD: longUSD, ShortUSD: shortUSD}, nil
}

// TotalUSD returns long+short value.
func (v *PoolValue) TotalUSD() (*fixed.Uint, error) {
	total, ok := v.LongUSD.CheckedAdd(v.ShortUSD)
	if !ok {
		return nil, ErrOverflow
	}
	return total, nil
}

func (v *PoolValue) diff() *fixed.Uint {
	return v.LongUSD.Diff(v.ShortUSD)
}

func (v *PoolValue) longLeqShort() bool {
	return v.LongUSD.LTE(v.ShortUSD)
}

// PoolDelta captures a pool before and after a pair of signed token
// deltas, priced per side. It is the input to the price impact curve.
type PoolDelta struct {
	current  *PoolValue
	next     *PoolValue
	deltaUSD *fixed.Int
}

// NewPoolDelta prices the pool before and after applying longDelta and
// shortDelta (token amounts) at the given per-side prices.
func NewPoolDelta(p *Pool, longDelta, shortDelta *fixed.Int, longPrice, shortPrice *fixed.Uint) (*PoolDelta, error) {
	current, err := NewPoolValue(p, longPrice, shortPrice)
	if err != nil {
		return nil, err
	}

	longDeltaUSD, ok := longPrice.CheckedMulSigned(longDelta)
	if !ok {
		return nil, ErrOverflow
	}
	shortDeltaUSD, ok := shortPrice.CheckedMulSigned(shortDelta)
	if !ok {
		return nil, ErrOverflow
	}

	nextLong, ok := current.LongUSD.CheckedAddSigned(longDeltaUSD)
	if !ok {
		return nil, ErrUnderflow
	}
	nextShort, ok := current.ShortUSD.CheckedAddSigned(shortDeltaUSD)
	if !ok {
		return nil, ErrUnderflow
	}

	deltaUSD, ok := longDeltaUSD.CheckedAdd(shortDeltaUSD)
	if !ok {
		return nil, ErrOverflow
	}

	return &PoolDelta{
		current:  current,
		next:     &PoolValue{LongUSD: nextLong, ShortUSD: nextShort},
		deltaUSD: deltaUSD,
	}, nil
}

// NewPoolDeltaFromValues builds a delta from precomputed USD values,
// used for USD-denominated pools such as open interest where no price
// conversion applies.
func NewPoolDeltaFromValues(current PoolValue, longDeltaUSD, shortDeltaUSD *fixed.Int) (*PoolDelta, error) {
	nextLong, ok := current.LongUSD.CheckedAddSigned(longDeltaUSD)
	if !ok {
		return nil, ErrUnderflow
	}
	nextShort, ok := current.ShortUSD.CheckedAddSigned(shortDeltaUSD)
	if !ok {
		return nil, ErrUnderflow
	}
	deltaUSD, ok := longDeltaUSD.CheckedAdd(shortDeltaUSD)
	if !ok {
		return nil, ErrOverflow
	}
	return &PoolDelta{
		current:  &current,
		next:     &PoolValue{LongUSD: nextLong, ShortUSD: nextShort},
		deltaUSD: deltaUSD,
	}, nil
}

// DeltaUSD returns the signed total USD change.
func (d *PoolDelta) DeltaUSD() *fixed.Int { return d.deltaUSD.Clone() }

// isSameSideRebalance reports whether the imbalance keeps its
// direction after the delta.
func (d *PoolDelta) isSameSideRebalance() bool {
	return d.current.longLeqShort() == d.next.longLeqShort()
}

// PriceImpact evaluates the impact curve for this delta. Positive
// impact rewards a rebalancing trade, negative penalizes one that
// worsens the imbalance.
func (d *PoolDelta) PriceImpact(params PriceImpactParams) (*fixed.Int, error) {
	if d.isSameSideRebalance() {
		return d.sameSideImpact(params)
	}
	return d.crossoverImpact(params)
}

func (d *PoolDelta) sameSideImpact(params PriceImpactParams) (*fixed.Int, error) {
	initialDiff := d.current.diff()
	nextDiff := d.next.diff()

	positive := nextDiff.LT(initialDiff)
	factor := params.NegativeFactor
	if positive {
		factor = params.PositiveFactor
	}

	initialImpact, ok := fixed.ApplyFactors(initialDiff, factor, params.ExponentFactor)
	if !ok {
		return nil, ComputationErr("initial same side impact")
	}
	nextImpact, ok := fixed.ApplyFactors(nextDiff, factor, params.ExponentFactor)
	if !ok {
		return nil, ComputationErr("next same side impact")
	}

	return fixed.IntFromUint(initialImpact.Diff(nextImpact), !positive), nil
}

func (d *PoolDelta) crossoverImpact(params PriceImpactParams) (*fixed.Int, error) {
	positiveImpact, ok := fixed.ApplyFactors(d.current.diff(), params.PositiveFactor, params.ExponentFactor)
	if !ok {
		return nil, ComputationErr("positive crossover impact")
	}
	negativeImpact, ok := fixed.ApplyFactors(d.next.diff(), params.NegativeFactor, params.ExponentFactor)
	if !ok {
		return nil, ComputationErr("negative crossover impact")
	}

	positive := positiveImpact.GT(negativeImpact)
	return fixed.IntFromUint(positiveImpact.Diff(negativeImpact), !positive), nil
}
