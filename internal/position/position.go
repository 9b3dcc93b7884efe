// Package position defines the perp position record and the
// settlement math that syncs it against a market's cumulative
// borrowing and funding integrators.
package position

import (
	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
)

// State is the lifecycle of a position.
type State int

const (
	// StateClosed means size_in_usd == 0.
	StateClosed State = iota
	// StateOpen means size_in_usd > 0.
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// Position is a single perp position. Snapshots of the cumulative
// integrators record the point the position last settled, so the next
// touch charges only what accrued since.
type Position struct {
	ID string

	IsLong bool
	// IsCollateralLong selects the collateral token: the market's
	// long token when true, short token otherwise.
	IsCollateralLong bool

	SizeInUSD        *fixed.Uint
	SizeInTokens     *fixed.Uint
	CollateralAmount *fixed.Uint

	BorrowingFactor         *fixed.Uint
	FundingFeeAmountPerSize *fixed.Uint

	ClaimableFundingAmountPerSizeLong  *fixed.Uint
	ClaimableFundingAmountPerSizeShort *fixed.Uint
}

// New returns a closed position with zeroed snapshots.
func New(id string, isLong, isCollateralLong bool) *Position {
	return &Position{
		ID:                                 id,
		IsLong:                             isLong,
		IsCollateralLong:                   isCollateralLong,
		SizeInUSD:                          fixed.UintZero(),
		SizeInTokens:                       fixed.UintZero(),
		CollateralAmount:                   fixed.UintZero(),
		BorrowingFactor:                    fixed.UintZero(),
		FundingFeeAmountPerSize:            fixed.UintZero(),
		ClaimableFundingAmountPerSizeLong:  fixed.UintZero(),
		ClaimableFundingAmountPerSizeShort: fixed.UintZero(),
	}
}

// Clone returns an independent copy. The market's revertible wrapper
// does not cover positions; callers stage a copy and swap it in on
// commit.
func (p *Position) Clone() *Position {
	return &Position{
		ID:                                 p.ID,
		IsLong:                             p.IsLong,
		IsCollateralLong:                   p.IsCollateralLong,
		SizeInUSD:                          p.SizeInUSD.Clone(),
		SizeInTokens:                       p.SizeInTokens.Clone(),
		CollateralAmount:                   p.CollateralAmount.Clone(),
		BorrowingFactor:                    p.BorrowingFactor.Clone(),
		FundingFeeAmountPerSize:            p.FundingFeeAmountPerSize.Clone(),
		ClaimableFundingAmountPerSizeLong:  p.ClaimableFundingAmountPerSizeLong.Clone(),
		ClaimableFundingAmountPerSizeShort: p.ClaimableFundingAmountPerSizeShort.Clone(),
	}
}

// State derives the lifecycle state from size.
func (p *Position) State() State {
	if p.SizeInUSD.IsZero() {
		return StateClosed
	}
	return StateOpen
}

// IsEmpty reports whether the position holds nothing at all.
func (p *Position) IsEmpty() bool {
	return p.SizeInUSD.IsZero() && p.SizeInTokens.IsZero() && p.CollateralAmount.IsZero()
}

// Validate checks the size fields agree with each other.
func (p *Position) Validate() error {
	if p.SizeInUSD.IsZero() != p.SizeInTokens.IsZero() {
		return market.InvalidPositionErr("size_in_usd and size_in_tokens disagree on emptiness")
	}
	return nil
}

// CollateralPrice picks the collateral token's price band.
func (p *Position) CollateralPrice(prices market.Prices) market.Price {
	return prices.SidePrice(p.IsCollateralLong)
}

// PendingBorrowingFee charges the cumulative borrowing factor growth
// since the position's snapshot, returning the fee in USD.
func (p *Position) PendingBorrowingFee(m market.PerpMarket) (*fixed.Uint, error) {
	pool, err := m.Pool(market.PoolBorrowingFactor)
	if err != nil {
		return nil, err
	}
	current := pool.Amount(p.IsLong)
	delta, ok := current.CheckedSub(p.BorrowingFactor)
	if !ok {
		return nil, market.InvalidPositionErr("borrowing factor snapshot ahead of market")
	}
	feeUSD, ok := fixed.ApplyFactor(p.SizeInUSD, delta)
	if !ok {
		return nil, market.ComputationErr("pending borrowing fee")
	}
	return feeUSD, nil
}

// PendingFundingFees settles the per-size funding integrators since
// the snapshots. The fee amount is owed in the collateral token; the
// claimable amounts are owed to the position, one per token.
type PendingFundingFees struct {
	FeeAmount            *fixed.Uint
	ClaimableLongAmount  *fixed.Uint
	ClaimableShortAmount *fixed.Uint
}

// PendingFundingFees computes what the funding integrators owe and
// charge since the last settlement.
func (p *Position) PendingFundingFees(m market.PerpMarket) (*PendingFundingFees, error) {
	adj := m.FundingAmountPerSizeAdjustment()

	feePool, err := m.Pool(market.PoolFundingAmountPerSize(p.IsLong))
	if err != nil {
		return nil, err
	}
	feeAmount, err := p.settlePerSize(feePool.Amount(p.IsCollateralLong), p.FundingFeeAmountPerSize, adj)
	if err != nil {
		return nil, err
	}

	claimPool, err := m.Pool(market.PoolClaimableFundingAmountPerSize(p.IsLong))
	if err != nil {
		return nil, err
	}
	claimLong, err := p.settlePerSize(claimPool.LongAmount(), p.ClaimableFundingAmountPerSizeLong, adj)
	if err != nil {
		return nil, err
	}
	claimShort, err := p.settlePerSize(claimPool.ShortAmount(), p.ClaimableFundingAmountPerSizeShort, adj)
	if err != nil {
		return nil, err
	}

	return &PendingFundingFees{
		FeeAmount:            feeAmount,
		ClaimableLongAmount:  claimLong,
		ClaimableShortAmount: claimShort,
	}, nil
}

func (p *Position) settlePerSize(current, snapshot, adjustment *fixed.Uint) (*fixed.Uint, error) {
	delta, ok := current.CheckedSub(snapshot)
	if !ok {
		return nil, market.InvalidPositionErr("funding snapshot ahead of market")
	}
	amount, ok := p.SizeInUSD.CheckedMulDiv(delta, adjustment)
	if !ok {
		return nil, market.ComputationErr("funding per size settlement")
	}
	return amount, nil
}

// SnapshotIntegrators re-records the cumulative integrators after a
// settlement so the same accrual is never charged twice.
func (p *Position) SnapshotIntegrators(m market.PerpMarket) error {
	borrowPool, err := m.Pool(market.PoolBorrowingFactor)
	if err != nil {
		return err
	}
	p.BorrowingFactor = borrowPool.Amount(p.IsLong)

	feePool, err := m.Pool(market.PoolFundingAmountPerSize(p.IsLong))
	if err != nil {
		return err
	}
	p.FundingFeeAmountPerSize = feePool.Amount(p.IsCollateralLong)

	claimPool, err := m.Pool(market.PoolClaimableFundingAmountPerSize(p.IsLong))
	if err != nil {
		return err
	}
	p.ClaimableFundingAmountPerSizeLong = claimPool.LongAmount()
	p.ClaimableFundingAmountPerSizeShort = claimPool.ShortAmount()
	return nil
}
