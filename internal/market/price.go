package market

import "PerpEngine/internal/fixed"

// Price is an oracle price band. Both bounds are unit-preserving
// multipliers: token_amount * price = usd_value at the engine's
// working decimals.
type Price struct {
	Min *fixed.Uint
	Max *fixed.Uint
}

// NewPrice builds a band from raw bounds.
func NewPrice(min, max *fixed.Uint) Price {
	return Price{Min: min.Clone(), Max: max.Clone()}
}

// SinglePrice builds a zero-width band, used when the oracle reports
// one value.
func SinglePrice(p *fixed.Uint) Price {
	return Price{Min: p.Clone(), Max: p.Clone()}
}

// HasZero reports whether either bound is zero.
func (p Price) HasZero() bool {
	return p.Min == nil || p.Max == nil || p.Min.IsZero() || p.Max.IsZero()
}

// Validate checks both bounds are positive and min <= max.
func (p Price) Validate() error {
	if p.HasZero() {
		return ErrInvalidPrices
	}
	if p.Min.GT(p.Max) {
		return ErrInvalidPrices
	}
	return nil
}

// PickPrice returns the max bound when maximize is set, the min bound
// otherwise.
func (p Price) PickPrice(maximize bool) *fixed.Uint {
	if maximize {
		return p.Max
	}
	return p.Min
}

// Prices bundles the three oracle bands an action needs.
type Prices struct {
	Index Price
	Long  Price
	Short Price
}

// Validate checks every band.
func (p Prices) Validate() error {
	if err := p.Index.Validate(); err != nil {
		return err
	}
	if err := p.Long.Validate(); err != nil {
		return err
	}
	return p.Short.Validate()
}

// SidePrice returns the long or short token band.
func (p Prices) SidePrice(isLong bool) Price {
	if isLong {
		return p.Long
	}
	return p.Short
}
