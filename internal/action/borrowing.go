package action

import (
	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
)

// UpdateBorrowingReport describes one borrowing accrual tick.
type UpdateBorrowingReport struct {
	DurationInSeconds                     uint64
	NextCumulativeBorrowingFactorForLong  *fixed.Uint
	NextCumulativeBorrowingFactorForShort *fixed.Uint
}

// UpdateBorrowingState integrates the per-side borrowing rate into
// the cumulative borrowing factor pool.
type UpdateBorrowingState struct {
	market market.PerpMarketMut
	prices market.Prices
}

// NewUpdateBorrowingState builds the action.
func NewUpdateBorrowingState(m market.PerpMarketMut, prices market.Prices) (*UpdateBorrowingState, error) {
	if err := prices.Validate(); err != nil {
		return nil, err
	}
	return &UpdateBorrowingState{market: m, prices: prices}, nil
}

// Execute ticks the borrowing clock and advances both cumulative
// factors by rate*duration.
func (a *UpdateBorrowingState) Execute() (*UpdateBorrowingReport, error) {
	duration, err := a.market.JustPassedInSecondsForBorrowing()
	if err != nil {
		return nil, err
	}

	nextLong, deltaLong, err := market.NextCumulativeBorrowingFactor(a.market, true, a.prices, duration)
	if err != nil {
		return nil, err
	}
	nextShort, deltaShort, err := market.NextCumulativeBorrowingFactor(a.market, false, a.prices, duration)
	if err != nil {
		return nil, err
	}

	pool, err := a.market.PoolMut(market.PoolBorrowingFactor)
	if err != nil {
		return nil, err
	}
	if err := pool.ApplyDeltaToLongAmount(deltaLong.ToSigned()); err != nil {
		return nil, err
	}
	if err := pool.ApplyDeltaToShortAmount(deltaShort.ToSigned()); err != nil {
		return nil, err
	}

	return &UpdateBorrowingReport{
		DurationInSeconds:                     duration,
		NextCumulativeBorrowingFactorForLong:  nextLong,
		NextCumulativeBorrowingFactorForShort: nextShort,
	}, nil
}
