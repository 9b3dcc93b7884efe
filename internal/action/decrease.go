package action

import (
	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
	"PerpEngine/internal/position"
)

// DecreasePositionReport describes a completed decrease. OutputAmount
// is owed in the collateral token; SecondaryOutputAmount in the other
// token when profit settles cross-token. The caller must remove the
// position when ShouldRemove is set.
type DecreasePositionReport struct {
	SizeDeltaUSD      *fixed.Uint
	SizeDeltaInTokens *fixed.Uint
	ExecutionPrice    *fixed.Uint

	PnlUSD            *fixed.Int
	PriceImpactUSD    *fixed.Int
	PriceImpactAmount *fixed.Int

	Fees market.PositionFees

	IsOutputTokenLong            bool
	OutputAmount                 *fixed.Uint
	SecondaryOutputAmount        *fixed.Uint
	WithdrawableCollateralAmount *fixed.Uint

	ClaimableFundingLongAmount  *fixed.Uint
	ClaimableFundingShortAmount *fixed.Uint

	ShouldRemove bool

	Borrowing    *UpdateBorrowingReport
	Funding      *UpdateFundingReport
	Distribution *DistributePositionImpactReport
}

// DecreasePosition shrinks or closes a perp position, realizing PnL.
type DecreasePosition struct {
	market               market.PerpMarketMut
	position             *position.Position
	prices               market.Prices
	sizeDeltaUSD         *fixed.Uint
	collateralWithdrawal *fixed.Uint
	acceptablePrice      *fixed.Uint
}

// NewDecreasePosition builds the action. The size delta is clamped to
// the remaining size; decreasing an empty position is rejected.
func NewDecreasePosition(m market.PerpMarketMut, pos *position.Position, prices market.Prices, sizeDeltaUSD, collateralWithdrawalAmount *fixed.Uint) (*DecreasePosition, error) {
	if pos.State() == position.StateClosed {
		return nil, market.ErrEmptyPosition
	}
	if err := prices.Validate(); err != nil {
		return nil, err
	}
	if err := pos.Validate(); err != nil {
		return nil, err
	}
	return &DecreasePosition{
		market:               m,
		position:             pos,
		prices:               prices,
		sizeDeltaUSD:         sizeDeltaUSD.Min(pos.SizeInUSD),
		collateralWithdrawal: collateralWithdrawalAmount.Clone(),
	}, nil
}

// WithAcceptablePrice bounds the execution price: a floor for longs,
// a ceiling for shorts.
func (a *DecreasePosition) WithAcceptablePrice(p *fixed.Uint) *DecreasePosition {
	a.acceptablePrice = p.Clone()
	return a
}

// Execute accrues, settles, prices and applies the decrease.
func (a *DecreasePosition) Execute() (*DecreasePositionReport, error) {
	distribution, err := NewDistributePositionImpact(a.market).Execute()
	if err != nil {
		return nil, err
	}
	borrowAction, err := NewUpdateBorrowingState(a.market, a.prices)
	if err != nil {
		return nil, err
	}
	borrowing, err := borrowAction.Execute()
	if err != nil {
		return nil, err
	}
	fundingAction, err := NewUpdateFundingState(a.market, a.prices)
	if err != nil {
		return nil, err
	}
	funding, err := fundingAction.Execute()
	if err != nil {
		return nil, err
	}

	settled, err := settlePosition(a.market, a.position, a.prices)
	if err != nil {
		return nil, err
	}

	sizeDelta := a.sizeDeltaUSD
	nextSizeUSD, ok := a.position.SizeInUSD.CheckedSub(sizeDelta)
	if !ok {
		return nil, market.ErrUnderflow
	}
	shouldRemove := nextSizeUSD.IsZero()

	impactUSD, impactAmount, err := positionPriceImpact(a.market, a.position.IsLong, fixed.IntFromUint(sizeDelta, true), a.prices)
	if err != nil {
		return nil, err
	}

	execPrice, sizeDeltaTokens, pnlUSD, err := a.priceAndPnl(sizeDelta, impactUSD)
	if err != nil {
		return nil, err
	}
	// Decrease bounds flip: longs need a floor, shorts a ceiling.
	if a.acceptablePrice != nil {
		if a.position.IsLong && execPrice.LT(a.acceptablePrice) {
			return nil, market.InvalidPositionErr("execution price below acceptable price")
		}
		if !a.position.IsLong && execPrice.GT(a.acceptablePrice) {
			return nil, market.InvalidPositionErr("execution price above acceptable price")
		}
	}

	collateralPrice := a.position.CollateralPrice(a.prices)
	fees, err := a.market.SwapFeeParams().PositionFees(collateralPrice.Min, sizeDelta, !impactUSD.IsNegative())
	if err != nil {
		return nil, err
	}
	fees.BorrowingFeeAmount = settled.borrowingFeeAmount
	fees.FundingFeeAmount = settled.fundingFeeAmount

	report := &DecreasePositionReport{
		SizeDeltaUSD:                 sizeDelta.Clone(),
		SizeDeltaInTokens:            sizeDeltaTokens,
		ExecutionPrice:               execPrice,
		PnlUSD:                       pnlUSD,
		PriceImpactUSD:               impactUSD,
		PriceImpactAmount:            impactAmount,
		Fees:                         fees,
		IsOutputTokenLong:            a.position.IsCollateralLong,
		OutputAmount:                 fixed.UintZero(),
		SecondaryOutputAmount:        fixed.UintZero(),
		WithdrawableCollateralAmount: a.collateralWithdrawal.Clone(),
		ClaimableFundingLongAmount:   settled.claimableLongAmount,
		ClaimableFundingShortAmount:  settled.claimableShortAmount,
		ShouldRemove:                 shouldRemove,
		Borrowing:                    borrowing,
		Funding:                      funding,
		Distribution:                 distribution,
	}

	collateralAfter, err := a.processCollateral(report, fees, pnlUSD, collateralPrice)
	if err != nil {
		return nil, err
	}

	// All computations done; apply deltas.
	if err := applyPositionImpactToPool(a.market, impactAmount); err != nil {
		return nil, err
	}
	if err := creditPositionFees(a.market, a.position, fees); err != nil {
		return nil, err
	}
	if err := applyOpenInterestDelta(
		a.market, a.position,
		fixed.IntFromUint(sizeDelta, true),
		fixed.IntFromUint(sizeDeltaTokens, true),
	); err != nil {
		return nil, err
	}

	collateralSignedDelta, ok := collateralAfter.ToSigned().CheckedSub(a.position.CollateralAmount.ToSigned())
	if !ok {
		return nil, market.ErrOverflow
	}
	if err := applyCollateralSumDelta(a.market, a.position, collateralSignedDelta); err != nil {
		return nil, err
	}
	if err := updateTotalBorrowing(a.market, a.position, nextSizeUSD); err != nil {
		return nil, err
	}

	nextTokens, ok := a.position.SizeInTokens.CheckedSub(sizeDeltaTokens)
	if !ok {
		return nil, market.ErrUnderflow
	}
	a.position.SizeInUSD = nextSizeUSD
	a.position.SizeInTokens = nextTokens
	a.position.CollateralAmount = collateralAfter
	if err := a.position.SnapshotIntegrators(a.market); err != nil {
		return nil, err
	}
	if err := a.position.Validate(); err != nil {
		return nil, err
	}

	return report, nil
}

// priceAndPnl computes the execution price off the worse index bound
// for a closing trade and realizes PnL against it.
func (a *DecreasePosition) priceAndPnl(sizeDelta *fixed.Uint, impactUSD *fixed.Int) (*fixed.Uint, *fixed.Uint, *fixed.Int, error) {
	isLong := a.position.IsLong
	base := a.prices.Index.PickPrice(!isLong)

	// Improvement direction flips when closing, so the adjust helper
	// runs with the opposite side.
	exec, err := adjustPriceByImpact(!isLong, base, sizeDelta, impactUSD)
	if err != nil {
		return nil, nil, nil, err
	}

	sizeDeltaTokens, ok := a.position.SizeInTokens.CheckedMulDiv(sizeDelta, a.position.SizeInUSD)
	if !ok {
		return nil, nil, nil, market.ComputationErr("size delta in tokens")
	}

	executedUSD, ok := sizeDeltaTokens.CheckedMul(exec)
	if !ok {
		return nil, nil, nil, market.ErrOverflow
	}
	var pnl *fixed.Int
	if isLong {
		pnl, ok = executedUSD.ToSigned().CheckedSub(sizeDelta.ToSigned())
	} else {
		pnl, ok = sizeDelta.ToSigned().CheckedSub(executedUSD.ToSigned())
	}
	if !ok {
		return nil, nil, nil, market.ErrOverflow
	}
	return exec, sizeDeltaTokens, pnl, nil
}

// processCollateral realizes PnL, charges fees, and pays out the
// requested withdrawal plus any freed collateral on full close.
func (a *DecreasePosition) processCollateral(report *DecreasePositionReport, fees market.PositionFees, pnlUSD *fixed.Int, collateralPrice market.Price) (*fixed.Uint, error) {
	collateral := a.position.CollateralAmount.Clone()
	pnlTokenIsLong := a.position.IsLong
	pnlMatchesCollateral := pnlTokenIsLong == a.position.IsCollateralLong

	primary, err := a.market.PoolMut(market.PoolPrimary)
	if err != nil {
		return nil, err
	}

	switch {
	case pnlUSD.IsPositive():
		pnlPrice := a.prices.SidePrice(pnlTokenIsLong)
		pnlAmount, ok := pnlUSD.Abs().CheckedDiv(pnlPrice.Min)
		if !ok {
			return nil, market.ErrDividedByZero
		}
		if err := primary.ApplyDelta(pnlTokenIsLong, fixed.IntFromUint(pnlAmount, true)); err != nil {
			return nil, err
		}
		if pnlMatchesCollateral {
			next, ok := report.OutputAmount.CheckedAdd(pnlAmount)
			if !ok {
				return nil, market.ErrOverflow
			}
			report.OutputAmount = next
		} else {
			next, ok := report.SecondaryOutputAmount.CheckedAdd(pnlAmount)
			if !ok {
				return nil, market.ErrOverflow
			}
			report.SecondaryOutputAmount = next
		}
	case pnlUSD.IsNegative():
		lossAmount, ok := pnlUSD.Abs().CheckedDivCeil(collateralPrice.Min)
		if !ok {
			return nil, market.ErrDividedByZero
		}
		next, ok := collateral.CheckedSub(lossAmount)
		if !ok {
			return nil, market.ErrUnderflow
		}
		collateral = next
		if err := primary.ApplyDelta(a.position.IsCollateralLong, lossAmount.ToSigned()); err != nil {
			return nil, err
		}
	}

	totalCost, err := fees.TotalCostAmount()
	if err != nil {
		return nil, err
	}
	afterFees, ok := collateral.CheckedSub(totalCost)
	if !ok {
		return nil, market.ErrUnderflow
	}
	collateral = afterFees

	afterWithdrawal, ok := collateral.CheckedSub(a.collateralWithdrawal)
	if !ok {
		return nil, market.ErrUnderflow
	}
	collateral = afterWithdrawal
	next, ok := report.OutputAmount.CheckedAdd(a.collateralWithdrawal)
	if !ok {
		return nil, market.ErrOverflow
	}
	report.OutputAmount = next

	if report.ShouldRemove {
		freed, ok := report.OutputAmount.CheckedAdd(collateral)
		if !ok {
			return nil, market.ErrOverflow
		}
		report.OutputAmount = freed
		collateral = fixed.UintZero()
	}
	return collateral, nil
}
