package main

import (
	"math/big"
	"math/rand"
	"time"

	"PerpEngine/internal/action"
	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
	"PerpEngine/internal/memmarket"
	"PerpEngine/internal/observability"
	"PerpEngine/internal/position"
	"PerpEngine/internal/revertible"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// simulator drives a deterministic stream of actions against one
// in-memory market. Simulated time advances one second per step
// regardless of the wall-clock step interval.
type simulator struct {
	cfg     memmarket.Config
	base    *memmarket.Market
	rng     *rand.Rand
	logger  zerolog.Logger
	metrics *observability.Metrics

	now       int64
	stepCount int64

	// index price as a multiplier per token base unit, drifted each step
	indexPrice *fixed.Uint

	positions []*position.Position
}

func newSimulator(cfg memmarket.Config, seed int64, logger zerolog.Logger, metrics *observability.Metrics) *simulator {
	s := &simulator{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(seed)),
		logger:  logger.With().Str("component", "simulator").Logger(),
		metrics: metrics,
		now:     time.Now().Unix(),
		// $128 per 9-decimal token at 20 working decimals
		indexPrice: fixed.MustUintFromString("12800000000000"),
	}
	s.base = memmarket.New(cfg, market.ClockFunc(func() int64 { return s.now }))

	s.seedLiquidity()
	return s
}

// seedLiquidity books an initial balanced deposit so swaps and
// positions have a pool to trade against.
func (s *simulator) seedLiquidity() {
	// 10k index-priced tokens and the matching USD value of short tokens
	long := fixed.MustUintFromString("10000000000000")
	short := fixed.MustUintFromString("1280000000000000")
	s.execute("deposit", func(m market.FullMarketMut) (*fixed.Int, error) {
		act, err := action.NewDeposit(m, long, short, s.prices())
		if err != nil {
			return nil, err
		}
		_, err = act.Execute()
		return nil, err
	})
}

// prices returns the current oracle bands. The short token is a
// stable at $1; long and index share the drifted band.
func (s *simulator) prices() market.Prices {
	spread, _ := s.indexPrice.CheckedMulDiv(fixed.NewUint(1), fixed.NewUint(1000))
	min, _ := s.indexPrice.CheckedSub(spread)
	band := market.NewPrice(min, s.indexPrice)
	return market.Prices{
		Index: band,
		Long:  band,
		Short: market.SinglePrice(fixed.MustUintFromString("100000000000")),
	}
}

// drift moves the index price up to ±0.5% per step.
func (s *simulator) drift() {
	bps := s.rng.Intn(101)
	delta, ok := s.indexPrice.CheckedMulDiv(fixed.NewUint(uint64(bps)), fixed.NewUint(20000))
	if !ok {
		return
	}
	if s.rng.Intn(2) == 0 {
		if next, ok := s.indexPrice.CheckedAdd(delta); ok {
			s.indexPrice = next
		}
	} else if next, ok := s.indexPrice.CheckedSub(delta); ok && !next.IsZero() {
		s.indexPrice = next
	}
}

func (s *simulator) step() {
	s.now++
	s.stepCount++
	s.drift()

	switch s.rng.Intn(10) {
	case 0:
		s.randomDeposit()
	case 1:
		s.randomWithdrawal()
	case 2, 3, 4:
		s.randomSwap()
	case 5, 6, 7:
		s.randomIncrease()
	default:
		s.randomDecrease()
	}

	s.updateGauges()
}

// execute runs one action against a revertible view of the market,
// committing only on success. It reports whether the commit happened.
func (s *simulator) execute(name string, fn func(m market.FullMarketMut) (*fixed.Int, error)) bool {
	marketLabel := s.cfg.Meta.MarketToken
	staging := revertible.New(s.base)

	start := time.Now()
	impact, err := fn(staging)
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.RevertibleDiscards.Inc()
		s.metrics.ActionsRejected.WithLabelValues(marketLabel, name, market.ErrorKind(err)).Inc()
		s.logger.Debug().Str("action", name).Err(err).Msg("action rejected")
		return false
	}
	if err := staging.Commit(); err != nil {
		s.metrics.RevertibleDiscards.Inc()
		s.metrics.ActionsRejected.WithLabelValues(marketLabel, name, market.ErrorKind(err)).Inc()
		s.logger.Error().Str("action", name).Err(err).Msg("commit failed")
		return false
	}

	s.metrics.RevertibleCommits.Inc()
	s.metrics.ActionsExecuted.WithLabelValues(marketLabel, name).Inc()
	s.metrics.ActionDuration.WithLabelValues(marketLabel, name).Observe(elapsed.Seconds())
	if impact != nil && !impact.IsZero() {
		sign := "positive"
		if impact.IsNegative() {
			sign = "negative"
		}
		s.metrics.PriceImpact.WithLabelValues(marketLabel, name, sign).Observe(usdFloat(impact.Abs()))
	}
	s.logger.Debug().Str("action", name).Dur("took", elapsed).Msg("action executed")
	return true
}

func (s *simulator) recordFees(name string, fees market.Fees) {
	marketLabel := s.cfg.Meta.MarketToken
	s.metrics.FeesForPool.WithLabelValues(marketLabel, name).Add(amountFloat(fees.FeeAmountForPool))
	s.metrics.FeesForReceiver.WithLabelValues(marketLabel, name).Add(amountFloat(fees.FeeReceiverAmount))
}

func (s *simulator) recordDistribution(report *action.DistributePositionImpactReport) {
	if report == nil || report.DistributionAmount.IsZero() {
		return
	}
	s.metrics.DistributionAmount.WithLabelValues(s.cfg.Meta.MarketToken).Add(amountFloat(report.DistributionAmount))
}

func (s *simulator) randomDeposit() {
	long := tokenAmount(uint64(1 + s.rng.Intn(100)))
	short := tokenAmount(uint64(1 + s.rng.Intn(10_000)))
	s.execute("deposit", func(m market.FullMarketMut) (*fixed.Int, error) {
		act, err := action.NewDeposit(m, long, short, s.prices())
		if err != nil {
			return nil, err
		}
		report, err := act.Execute()
		if err != nil {
			return nil, err
		}
		s.recordFees("deposit", report.LongTokenFees)
		s.recordFees("deposit", report.ShortTokenFees)
		s.recordDistribution(report.Distribution)
		total, ok := report.LongPriceImpactUSD.CheckedAdd(report.ShortPriceImpactUSD)
		if !ok {
			return nil, market.ErrOverflow
		}
		return total, nil
	})
}

func (s *simulator) randomWithdrawal() {
	supply := s.base.TotalSupply()
	if supply.IsZero() {
		return
	}
	// burn up to 5% of supply
	burn, ok := supply.CheckedMulDiv(fixed.NewUint(uint64(1+s.rng.Intn(50))), fixed.NewUint(1000))
	if !ok || burn.IsZero() {
		return
	}
	s.execute("withdrawal", func(m market.FullMarketMut) (*fixed.Int, error) {
		act, err := action.NewWithdrawal(m, burn, s.prices())
		if err != nil {
			return nil, err
		}
		report, err := act.Execute()
		if err != nil {
			return nil, err
		}
		s.recordFees("withdrawal", report.LongTokenFees)
		s.recordFees("withdrawal", report.ShortTokenFees)
		s.recordDistribution(report.Distribution)
		total, ok := report.LongPriceImpactUSD.CheckedAdd(report.ShortPriceImpactUSD)
		if !ok {
			return nil, market.ErrOverflow
		}
		return total, nil
	})
}

func (s *simulator) randomSwap() {
	inIsLong := s.rng.Intn(2) == 0
	var amountIn *fixed.Uint
	if inIsLong {
		amountIn = tokenAmount(uint64(1 + s.rng.Intn(20)))
	} else {
		amountIn = tokenAmount(uint64(1 + s.rng.Intn(2_000)))
	}
	s.execute("swap", func(m market.FullMarketMut) (*fixed.Int, error) {
		act, err := action.NewSwap(m, inIsLong, amountIn, s.prices())
		if err != nil {
			return nil, err
		}
		report, err := act.Execute()
		if err != nil {
			return nil, err
		}
		s.recordFees("swap", report.Fees)
		s.recordDistribution(report.Distribution)
		return report.PriceImpactUSD, nil
	})
}

func (s *simulator) randomIncrease() {
	pos := s.pickOrOpenPosition()

	sizeDelta, ok := fixed.NewUint(uint64(10 + s.rng.Intn(500))).CheckedMul(fixed.Unit())
	if !ok {
		return
	}
	collateral := tokenAmount(uint64(1 + s.rng.Intn(5)))
	if !pos.IsCollateralLong {
		collateral = tokenAmount(uint64(100 + s.rng.Intn(500)))
	}

	staged := pos.Clone()
	committed := s.execute("increase_position", func(m market.FullMarketMut) (*fixed.Int, error) {
		act, err := action.NewIncreasePosition(m, staged, s.prices(), sizeDelta, collateral)
		if err != nil {
			return nil, err
		}
		report, err := act.Execute()
		if err != nil {
			return nil, err
		}
		s.recordFees("increase_position", report.Fees.Fees)
		s.recordDistribution(report.Distribution)
		return report.PriceImpactUSD, nil
	})
	if committed {
		*pos = *staged
	}
}

func (s *simulator) randomDecrease() {
	pos := s.pickOpenPosition()
	if pos == nil {
		return
	}

	sizeDelta := pos.SizeInUSD.Clone()
	if s.rng.Intn(2) == 0 {
		// half close, rounded down
		sizeDelta, _ = pos.SizeInUSD.CheckedMulDiv(fixed.NewUint(1), fixed.NewUint(2))
		if sizeDelta.IsZero() {
			return
		}
	}

	staged := pos.Clone()
	committed := s.execute("decrease_position", func(m market.FullMarketMut) (*fixed.Int, error) {
		act, err := action.NewDecreasePosition(m, staged, s.prices(), sizeDelta, fixed.UintZero())
		if err != nil {
			return nil, err
		}
		report, err := act.Execute()
		if err != nil {
			return nil, err
		}
		s.recordFees("decrease_position", report.Fees.Fees)
		s.recordDistribution(report.Distribution)
		return report.PriceImpactUSD, nil
	})
	if committed {
		*pos = *staged
	}
}

// pickOrOpenPosition reuses an open position most of the time and
// opens a fresh one otherwise.
func (s *simulator) pickOrOpenPosition() *position.Position {
	if len(s.positions) > 0 && s.rng.Intn(4) != 0 {
		if pos := s.pickOpenPosition(); pos != nil {
			return pos
		}
	}
	isLong := s.rng.Intn(2) == 0
	pos := position.New(uuid.NewString(), isLong, isLong)
	s.positions = append(s.positions, pos)
	return pos
}

func (s *simulator) pickOpenPosition() *position.Position {
	open := make([]*position.Position, 0, len(s.positions))
	for _, p := range s.positions {
		if p.State() == position.StateOpen {
			open = append(open, p)
		}
	}
	if len(open) == 0 {
		return nil
	}
	return open[s.rng.Intn(len(open))]
}

func (s *simulator) updateGauges() {
	marketLabel := s.cfg.Meta.MarketToken

	s.metrics.MarketTokenSupply.WithLabelValues(marketLabel).Set(amountFloat(s.base.TotalSupply()))

	for _, kind := range []market.PoolKind{market.PoolPrimary, market.PoolSwapImpact, market.PoolPositionImpact, market.PoolOpenInterestForLong, market.PoolOpenInterestForShort} {
		pool, err := s.base.Pool(kind)
		if err != nil {
			continue
		}
		s.metrics.PoolAmount.WithLabelValues(marketLabel, kind.String(), "long").Set(amountFloat(pool.LongAmount()))
		s.metrics.PoolAmount.WithLabelValues(marketLabel, kind.String(), "short").Set(amountFloat(pool.ShortAmount()))
	}

	funding := s.base.FundingFactorPerSecond()
	v := amountFloat(funding.Abs())
	if funding.IsNegative() {
		v = -v
	}
	s.metrics.FundingRate.WithLabelValues(marketLabel).Set(v)
}

func (s *simulator) logSummary() {
	openCount := 0
	for _, p := range s.positions {
		if p.State() == position.StateOpen {
			openCount++
		}
	}
	s.logger.Info().
		Int64("steps", s.stepCount).
		Int("positions_open", openCount).
		Int("positions_total", len(s.positions)).
		Str("market_token_supply", s.base.TotalSupply().String()).
		Str("index_price", s.indexPrice.String()).
		Msg("simulation summary")
}

// tokenAmount converts whole tokens to 9-decimal base units.
func tokenAmount(whole uint64) *fixed.Uint {
	amount, ok := fixed.NewUint(whole).CheckedMul(fixed.NewUint(1_000_000_000))
	if !ok {
		return fixed.UintZero()
	}
	return amount
}

func amountFloat(u *fixed.Uint) float64 {
	f, _ := new(big.Float).SetInt(u.ToBig()).Float64()
	return f
}

// usdFloat scales a 20-decimal USD value down to whole dollars.
func usdFloat(u *fixed.Uint) float64 {
	f, _ := new(big.Float).Quo(
		new(big.Float).SetInt(u.ToBig()),
		new(big.Float).SetInt(fixed.Unit().ToBig()),
	).Float64()
	return f
}
