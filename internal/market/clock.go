package market

// ClockKind names the accrual timers a market keeps.
type ClockKind int

const (
	ClockPriceImpactDistribution ClockKind = iota
	ClockBorrowing
	ClockFunding
	ClockAdlForLong
	ClockAdlForShort

	clockKindCount
)

// AllClockKinds returns every kind in declaration order.
func AllClockKinds() []ClockKind {
	kinds := make([]ClockKind, 0, clockKindCount)
	for k := ClockKind(0); k < clockKindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

func (k ClockKind) String() string {
	switch k {
	case ClockPriceImpactDistribution:
		return "price_impact_distribution"
	case ClockBorrowing:
		return "borrowing"
	case ClockFunding:
		return "funding"
	case ClockAdlForLong:
		return "adl_for_long"
	case ClockAdlForShort:
		return "adl_for_short"
	default:
		return "unknown"
	}
}

// Clock is the host time source. The engine never reads wall-clock
// time itself; elapsed durations come from comparing this value to a
// stored last-tick timestamp.
type Clock interface {
	NowUnixSeconds() int64
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() int64

// NowUnixSeconds implements Clock.
func (f ClockFunc) NowUnixSeconds() int64 { return f() }

// JustPassed returns the non-negative seconds elapsed since last and
// the snapped timestamp. A clock that appears to run backwards yields
// zero without moving the stored value.
func JustPassed(now, last int64) (uint64, int64) {
	if now <= last {
		return 0, last
	}
	return uint64(now - last), now
}
