// Package action implements the market operations. Each action is a
// builder validated at construction; Execute applies the deltas and
// returns a report carrying everything the host must settle. Actions
// never partially apply: every fallible computation runs before the
// first pool mutation, or mutates through checked deltas that abort
// the whole call.
package action

import (
	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
)

// DistributePositionImpactReport describes one distribution tick.
type DistributePositionImpactReport struct {
	DurationInSeconds            uint64
	DistributionAmount           *fixed.Uint
	NextPositionImpactPoolAmount *fixed.Uint
}

// DistributePositionImpact releases accrued position impact back to
// the pool over time.
type DistributePositionImpact struct {
	market market.PositionImpactMarketMut
}

// NewDistributePositionImpact builds the action.
func NewDistributePositionImpact(m market.PositionImpactMarketMut) *DistributePositionImpact {
	return &DistributePositionImpact{market: m}
}

// Execute ticks the distribution clock and drains the elapsed release
// from the position impact pool. With no elapsed time the report
// carries a zero amount.
func (a *DistributePositionImpact) Execute() (*DistributePositionImpactReport, error) {
	duration, err := a.market.JustPassedInSecondsForPositionImpactDistribution()
	if err != nil {
		return nil, err
	}
	amount, next, err := market.PendingPositionImpactPoolDistributionAmount(a.market, duration)
	if err != nil {
		return nil, err
	}
	if !amount.IsZero() {
		if err := market.ApplyDeltaToPositionImpactPool(a.market, fixed.IntFromUint(amount, true)); err != nil {
			return nil, err
		}
	}
	return &DistributePositionImpactReport{
		DurationInSeconds:            duration,
		DistributionAmount:           amount,
		NextPositionImpactPoolAmount: next,
	}, nil
}
