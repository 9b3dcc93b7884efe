package action

import (
	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
	"PerpEngine/internal/position"
)

// IncreasePositionReport describes a completed increase.
type IncreasePositionReport struct {
	SizeDeltaUSD          *fixed.Uint
	CollateralDeltaAmount *fixed.Uint

	ExecutionPrice    *fixed.Uint
	SizeDeltaInTokens *fixed.Uint

	PriceImpactUSD    *fixed.Int
	PriceImpactAmount *fixed.Int

	Fees market.PositionFees

	ClaimableFundingLongAmount  *fixed.Uint
	ClaimableFundingShortAmount *fixed.Uint

	Borrowing    *UpdateBorrowingReport
	Funding      *UpdateFundingReport
	Distribution *DistributePositionImpactReport
}

// IncreasePosition opens or grows a perp position.
type IncreasePosition struct {
	market          market.PerpMarketMut
	position        *position.Position
	prices          market.Prices
	sizeDeltaUSD    *fixed.Uint
	collateralDelta *fixed.Uint
	acceptablePrice *fixed.Uint
}

// NewIncreasePosition builds the action. An increase that changes
// neither size nor collateral is rejected up front.
func NewIncreasePosition(m market.PerpMarketMut, pos *position.Position, prices market.Prices, sizeDeltaUSD, collateralDeltaAmount *fixed.Uint) (*IncreasePosition, error) {
	if sizeDeltaUSD.IsZero() && collateralDeltaAmount.IsZero() {
		return nil, market.BuildParamsErr("increase with no size or collateral delta")
	}
	if err := prices.Validate(); err != nil {
		return nil, err
	}
	if err := pos.Validate(); err != nil {
		return nil, err
	}
	return &IncreasePosition{
		market:          m,
		position:        pos,
		prices:          prices,
		sizeDeltaUSD:    sizeDeltaUSD.Clone(),
		collateralDelta: collateralDeltaAmount.Clone(),
	}, nil
}

// WithAcceptablePrice bounds the execution price: a maximum for longs,
// a minimum for shorts.
func (a *IncreasePosition) WithAcceptablePrice(p *fixed.Uint) *IncreasePosition {
	a.acceptablePrice = p.Clone()
	return a
}

// Execute accrues, settles, prices and applies the increase.
func (a *IncreasePosition) Execute() (*IncreasePositionReport, error) {
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

	impactUSD, impactAmount, err := positionPriceImpact(a.market, a.position.IsLong, a.sizeDeltaUSD.ToSigned(), a.prices)
	if err != nil {
		return nil, err
	}

	execPrice, sizeDeltaTokens, err := increaseExecutionPrice(a.position.IsLong, a.prices.Index, a.sizeDeltaUSD, impactUSD)
	if err != nil {
		return nil, err
	}
	if err := checkAcceptablePrice(a.position.IsLong, execPrice, a.acceptablePrice); err != nil {
		return nil, err
	}

	collateralPrice := a.position.CollateralPrice(a.prices)
	fees, err := a.market.SwapFeeParams().PositionFees(collateralPrice.Min, a.sizeDeltaUSD, !impactUSD.IsNegative())
	if err != nil {
		return nil, err
	}
	fees.BorrowingFeeAmount = settled.borrowingFeeAmount
	fees.FundingFeeAmount = settled.fundingFeeAmount

	totalCost, err := fees.TotalCostAmount()
	if err != nil {
		return nil, err
	}
	withDelta, ok := a.position.CollateralAmount.CheckedAdd(a.collateralDelta)
	if !ok {
		return nil, market.ErrOverflow
	}
	collateralAfter, ok := withDelta.CheckedSub(totalCost)
	if !ok {
		return nil, market.ErrUnderflow
	}

	// All computations done; apply deltas.
	if err := applyPositionImpactToPool(a.market, impactAmount); err != nil {
		return nil, err
	}
	if err := creditPositionFees(a.market, a.position, fees); err != nil {
		return nil, err
	}
	if err := applyOpenInterestDelta(a.market, a.position, a.sizeDeltaUSD.ToSigned(), sizeDeltaTokens.ToSigned()); err != nil {
		return nil, err
	}

	collateralSignedDelta, ok := collateralAfter.ToSigned().CheckedSub(a.position.CollateralAmount.ToSigned())
	if !ok {
		return nil, market.ErrOverflow
	}
	if err := applyCollateralSumDelta(a.market, a.position, collateralSignedDelta); err != nil {
		return nil, err
	}

	nextSizeUSD, ok := a.position.SizeInUSD.CheckedAdd(a.sizeDeltaUSD)
	if !ok {
		return nil, market.ErrOverflow
	}
	nextSizeTokens, ok := a.position.SizeInTokens.CheckedAdd(sizeDeltaTokens)
	if !ok {
		return nil, market.ErrOverflow
	}
	if err := updateTotalBorrowing(a.market, a.position, nextSizeUSD); err != nil {
		return nil, err
	}

	wasClosed := a.position.State() == position.StateClosed
	a.position.SizeInUSD = nextSizeUSD
	a.position.SizeInTokens = nextSizeTokens
	a.position.CollateralAmount = collateralAfter
	if err := a.position.SnapshotIntegrators(a.market); err != nil {
		return nil, err
	}

	if err := a.validatePost(wasClosed, collateralPrice); err != nil {
		return nil, err
	}

	return &IncreasePositionReport{
		SizeDeltaUSD:                a.sizeDeltaUSD.Clone(),
		CollateralDeltaAmount:       a.collateralDelta.Clone(),
		ExecutionPrice:              execPrice,
		SizeDeltaInTokens:           sizeDeltaTokens,
		PriceImpactUSD:              impactUSD,
		PriceImpactAmount:           impactAmount,
		Fees:                        fees,
		ClaimableFundingLongAmount:  settled.claimableLongAmount,
		ClaimableFundingShortAmount: settled.claimableShortAmount,
		Borrowing:                   borrowing,
		Funding:                     funding,
		Distribution:                distribution,
	}, nil
}

func (a *IncreasePosition) validatePost(wasClosed bool, collateralPrice market.Price) error {
	params := a.market.PositionParams()
	if wasClosed && a.position.SizeInUSD.LT(params.MinPositionSizeUSD) {
		return market.InvalidPositionErr("size below minimum")
	}
	collateralValue, ok := a.position.CollateralAmount.CheckedMul(collateralPrice.Min)
	if !ok {
		return market.ErrOverflow
	}
	if collateralValue.LT(params.MinCollateralValue) {
		return market.InvalidPositionErr("collateral value below minimum")
	}
	minByFactor, ok := fixed.ApplyFactor(a.position.SizeInUSD, params.MinCollateralFactor)
	if !ok {
		return market.ComputationErr("min collateral by factor")
	}
	if collateralValue.LT(minByFactor) {
		return market.InvalidPositionErr("collateral below factor of size")
	}
	return nil
}
