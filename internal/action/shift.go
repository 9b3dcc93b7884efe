package action

import (
	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
)

// ShiftMarket is the capability set each shift leg needs.
type ShiftMarket interface {
	market.LiquidityMarketMut
	market.HasMarketMeta
}

// ShiftReport carries both leg reports and the net token movement.
type ShiftReport struct {
	FromMarketTokenAmount *fixed.Uint
	ToMarketTokenAmount   *fixed.Uint

	Withdrawal *WithdrawalReport
	Deposit    *DepositReport
}

// Shift moves liquidity between two markets sharing the same long and
// short tokens: a withdrawal from one funds a deposit into the other.
// For all-or-nothing semantics run both markets through revertible
// wrappers and commit after Execute returns.
type Shift struct {
	from   ShiftMarket
	to     ShiftMarket
	amount *fixed.Uint
	prices market.Prices
}

// NewShift builds the action, verifying the two markets share a token
// set.
func NewShift(from, to ShiftMarket, fromMarketTokenAmount *fixed.Uint, prices market.Prices) (*Shift, error) {
	fromMeta, toMeta := from.MarketMeta(), to.MarketMeta()
	if fromMeta.LongToken != toMeta.LongToken || fromMeta.ShortToken != toMeta.ShortToken {
		return nil, market.BuildParamsErr("shift between markets with different token sets")
	}
	if fromMarketTokenAmount.IsZero() {
		return nil, market.ErrEmptyWithdrawal
	}
	if err := prices.Validate(); err != nil {
		return nil, err
	}
	return &Shift{from: from, to: to, amount: fromMarketTokenAmount.Clone(), prices: prices}, nil
}

// Execute runs the withdrawal leg then deposits its proceeds.
func (a *Shift) Execute() (*ShiftReport, error) {
	withdrawal, err := NewWithdrawal(a.from, a.amount, a.prices)
	if err != nil {
		return nil, err
	}
	withdrawalReport, err := withdrawal.Execute()
	if err != nil {
		return nil, err
	}

	deposit, err := NewDeposit(a.to, withdrawalReport.LongTokenOut, withdrawalReport.ShortTokenOut, a.prices)
	if err != nil {
		return nil, err
	}
	depositReport, err := deposit.Execute()
	if err != nil {
		return nil, err
	}

	return &ShiftReport{
		FromMarketTokenAmount: a.amount.Clone(),
		ToMarketTokenAmount:   depositReport.MintedMarketTokens.Clone(),
		Withdrawal:            withdrawalReport,
		Deposit:               depositReport,
	}, nil
}
