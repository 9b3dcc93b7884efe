package market

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine. Callers match with errors.Is; the
// wrapping helpers below attach context without losing the kind.
var (
	ErrEmptyDeposit     = errors.New("empty deposit")
	ErrEmptyWithdrawal  = errors.New("empty withdrawal")
	ErrEmptySwap        = errors.New("empty swap")
	ErrEmptyPosition    = errors.New("empty position")
	ErrInvalidPrices    = errors.New("invalid prices")
	ErrOverflow         = errors.New("overflow")
	ErrUnderflow        = errors.New("underflow")
	ErrDividedByZero    = errors.New("divided by zero")
	ErrConvert          = errors.New("conversion failed")
	ErrComputation      = errors.New("computation failed")
	ErrInvalidPoolValue = errors.New("invalid pool value")
	ErrMissingPoolKind  = errors.New("missing pool kind")
	ErrMissingClockKind = errors.New("missing clock kind")
	ErrBuildParams      = errors.New("invalid build params")
	ErrInvalidPosition  = errors.New("invalid position")
)

// ComputationErr wraps ErrComputation with the failing step.
func ComputationErr(where string) error {
	return fmt.Errorf("%w: %s", ErrComputation, where)
}

// InvalidPoolValueErr wraps ErrInvalidPoolValue with context.
func InvalidPoolValueErr(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidPoolValue, msg)
}

// MissingPoolKindErr reports a pool the host market did not provide.
func MissingPoolKindErr(kind PoolKind) error {
	return fmt.Errorf("%w: %s", ErrMissingPoolKind, kind)
}

// MissingClockKindErr reports a clock the host market does not track.
func MissingClockKindErr(kind ClockKind) error {
	return fmt.Errorf("%w: %s", ErrMissingClockKind, kind)
}

// BuildParamsErr wraps ErrBuildParams with context.
func BuildParamsErr(msg string) error {
	return fmt.Errorf("%w: %s", ErrBuildParams, msg)
}

// InvalidPositionErr wraps ErrInvalidPosition with context.
func InvalidPositionErr(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidPosition, msg)
}

// ErrorKind returns a stable label for the sentinel an error wraps,
// suitable for metric labels.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrEmptyDeposit):
		return "empty_deposit"
	case errors.Is(err, ErrEmptyWithdrawal):
		return "empty_withdrawal"
	case errors.Is(err, ErrEmptySwap):
		return "empty_swap"
	case errors.Is(err, ErrEmptyPosition):
		return "empty_position"
	case errors.Is(err, ErrInvalidPrices):
		return "invalid_prices"
	case errors.Is(err, ErrOverflow):
		return "overflow"
	case errors.Is(err, ErrUnderflow):
		return "underflow"
	case errors.Is(err, ErrDividedByZero):
		return "divided_by_zero"
	case errors.Is(err, ErrConvert):
		return "convert"
	case errors.Is(err, ErrComputation):
		return "computation"
	case errors.Is(err, ErrInvalidPoolValue):
		return "invalid_pool_value"
	case errors.Is(err, ErrMissingPoolKind):
		return "missing_pool_kind"
	case errors.Is(err, ErrMissingClockKind):
		return "missing_clock_kind"
	case errors.Is(err, ErrBuildParams):
		return "build_params"
	case errors.Is(err, ErrInvalidPosition):
		return "invalid_position"
	default:
		return "other"
	}
}
