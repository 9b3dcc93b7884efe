// Package config loads simulator configuration from a TOML file with
// environment variable overrides for the service addresses.
package config

import (
	"fmt"
	"os"

	"PerpEngine/internal/fixed"
	"PerpEngine/internal/market"
	"PerpEngine/internal/memmarket"

	"github.com/BurntSushi/toml"
)

// Config is the root of the TOML document.
type Config struct {
	HTTPAddr    string `toml:"http_addr"`
	MetricsAddr string `toml:"metrics_addr"`
	LogLevel    string `toml:"log_level"`

	Market MarketConfig `toml:"market"`
}

// MarketConfig carries the per-market parameters. All factors are
// base-10 integer strings at 20 working decimals.
type MarketConfig struct {
	MarketToken string `toml:"market_token"`
	IndexToken  string `toml:"index_token"`
	LongToken   string `toml:"long_token"`
	ShortToken  string `toml:"short_token"`

	UsdToAmountDivisor string `toml:"usd_to_amount_divisor"`

	SwapImpact     ImpactConfig `toml:"swap_impact"`
	SwapFees       FeeConfig    `toml:"swap_fees"`
	PositionImpact ImpactConfig `toml:"position_impact"`

	PositionImpactDistribution DistributionConfig `toml:"position_impact_distribution"`

	Position  PositionConfig  `toml:"position"`
	Borrowing BorrowingConfig `toml:"borrowing"`
	Funding   FundingConfig   `toml:"funding"`

	FundingAmountPerSizeAdjustment string `toml:"funding_amount_per_size_adjustment"`
}

type ImpactConfig struct {
	PositiveFactor string `toml:"positive_factor"`
	NegativeFactor string `toml:"negative_factor"`
	ExponentFactor string `toml:"exponent_factor"`
}

type FeeConfig struct {
	PositiveImpactFactor string `toml:"positive_impact_factor"`
	NegativeImpactFactor string `toml:"negative_impact_factor"`
	ReceiverFactor       string `toml:"receiver_factor"`
}

type DistributionConfig struct {
	DistributeFactor            string `toml:"distribute_factor"`
	MinPositionImpactPoolAmount string `toml:"min_position_impact_pool_amount"`
}

type PositionConfig struct {
	MinPositionSizeUSD  string `toml:"min_position_size_usd"`
	MinCollateralValue  string `toml:"min_collateral_value"`
	MinCollateralFactor string `toml:"min_collateral_factor"`
}

type BorrowingConfig struct {
	FactorForLong  string `toml:"factor_for_long"`
	FactorForShort string `toml:"factor_for_short"`
	ExponentFactor string `toml:"exponent_factor"`
}

type FundingConfig struct {
	FundingFactor      string `toml:"funding_factor"`
	ExponentFactor     string `toml:"exponent_factor"`
	MaxFactorPerSecond string `toml:"max_factor_per_second"`
	MinFactorPerSecond string `toml:"min_factor_per_second"`
}

// Default returns the built-in configuration used when no TOML file is
// given. The market parameters mirror memmarket.DefaultConfig.
func Default() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9091",
		LogLevel:    "info",
		Market:      defaultMarketConfig(),
	}
}

func defaultMarketConfig() MarketConfig {
	base := memmarket.DefaultConfig()
	return MarketConfig{
		MarketToken:        base.Meta.MarketToken,
		IndexToken:         base.Meta.IndexToken,
		LongToken:          base.Meta.LongToken,
		ShortToken:         base.Meta.ShortToken,
		UsdToAmountDivisor: base.UsdToAmountDivisor.String(),
		SwapImpact: ImpactConfig{
			PositiveFactor: base.SwapImpact.PositiveFactor.String(),
			NegativeFactor: base.SwapImpact.NegativeFactor.String(),
			ExponentFactor: base.SwapImpact.ExponentFactor.String(),
		},
		SwapFees: FeeConfig{
			PositiveImpactFactor: base.SwapFees.PositiveImpactFactor.String(),
			NegativeImpactFactor: base.SwapFees.NegativeImpactFactor.String(),
			ReceiverFactor:       base.SwapFees.ReceiverFactor.String(),
		},
		PositionImpact: ImpactConfig{
			PositiveFactor: base.PositionImpact.PositiveFactor.String(),
			NegativeFactor: base.PositionImpact.NegativeFactor.String(),
			ExponentFactor: base.PositionImpact.ExponentFactor.String(),
		},
		PositionImpactDistribution: DistributionConfig{
			DistributeFactor:            base.PositionImpactDistribution.DistributeFactor.String(),
			MinPositionImpactPoolAmount: base.PositionImpactDistribution.MinPositionImpactPoolAmount.String(),
		},
		Position: PositionConfig{
			MinPositionSizeUSD:  base.Position.MinPositionSizeUSD.String(),
			MinCollateralValue:  base.Position.MinCollateralValue.String(),
			MinCollateralFactor: base.Position.MinCollateralFactor.String(),
		},
		Borrowing: BorrowingConfig{
			FactorForLong:  base.Borrowing.FactorForLong.String(),
			FactorForShort: base.Borrowing.FactorForShort.String(),
			ExponentFactor: base.Borrowing.ExponentFactor.String(),
		},
		Funding: FundingConfig{
			FundingFactor:      base.Funding.FundingFactor.String(),
			ExponentFactor:     base.Funding.ExponentFactor.String(),
			MaxFactorPerSecond: base.Funding.MaxFactorPerSecond.String(),
			MinFactorPerSecond: base.Funding.MinFactorPerSecond.String(),
		},
		FundingAmountPerSizeAdjustment: base.FundingAmountPerSizeAdjustment.String(),
	}
}

// Load reads the TOML file at path, falling back to Default when path
// is empty, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	if v := os.Getenv("PERP_ENGINE_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("PERP_ENGINE_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("PERP_ENGINE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}

// MarketConfig converts the string-valued parameters into a
// memmarket.Config, reporting the first bad literal.
func (c Config) MarketConfig() (memmarket.Config, error) {
	m := c.Market

	out := memmarket.Config{
		Meta: market.MarketMeta{
			MarketToken: m.MarketToken,
			IndexToken:  m.IndexToken,
			LongToken:   m.LongToken,
			ShortToken:  m.ShortToken,
		},
	}

	fields := []struct {
		name string
		src  string
		dst  **fixed.Uint
	}{
		{"usd_to_amount_divisor", m.UsdToAmountDivisor, &out.UsdToAmountDivisor},
		{"swap_impact.positive_factor", m.SwapImpact.PositiveFactor, &out.SwapImpact.PositiveFactor},
		{"swap_impact.negative_factor", m.SwapImpact.NegativeFactor, &out.SwapImpact.NegativeFactor},
		{"swap_impact.exponent_factor", m.SwapImpact.ExponentFactor, &out.SwapImpact.ExponentFactor},
		{"swap_fees.positive_impact_factor", m.SwapFees.PositiveImpactFactor, &out.SwapFees.PositiveImpactFactor},
		{"swap_fees.negative_impact_factor", m.SwapFees.NegativeImpactFactor, &out.SwapFees.NegativeImpactFactor},
		{"swap_fees.receiver_factor", m.SwapFees.ReceiverFactor, &out.SwapFees.ReceiverFactor},
		{"position_impact.positive_factor", m.PositionImpact.PositiveFactor, &out.PositionImpact.PositiveFactor},
		{"position_impact.negative_factor", m.PositionImpact.NegativeFactor, &out.PositionImpact.NegativeFactor},
		{"position_impact.exponent_factor", m.PositionImpact.ExponentFactor, &out.PositionImpact.ExponentFactor},
		{"position_impact_distribution.distribute_factor", m.PositionImpactDistribution.DistributeFactor, &out.PositionImpactDistribution.DistributeFactor},
		{"position_impact_distribution.min_position_impact_pool_amount", m.PositionImpactDistribution.MinPositionImpactPoolAmount, &out.PositionImpactDistribution.MinPositionImpactPoolAmount},
		{"position.min_position_size_usd", m.Position.MinPositionSizeUSD, &out.Position.MinPositionSizeUSD},
		{"position.min_collateral_value", m.Position.MinCollateralValue, &out.Position.MinCollateralValue},
		{"position.min_collateral_factor", m.Position.MinCollateralFactor, &out.Position.MinCollateralFactor},
		{"borrowing.factor_for_long", m.Borrowing.FactorForLong, &out.Borrowing.FactorForLong},
		{"borrowing.factor_for_short", m.Borrowing.FactorForShort, &out.Borrowing.FactorForShort},
		{"borrowing.exponent_factor", m.Borrowing.ExponentFactor, &out.Borrowing.ExponentFactor},
		{"funding.funding_factor", m.Funding.FundingFactor, &out.Funding.FundingFactor},
		{"funding.exponent_factor", m.Funding.ExponentFactor, &out.Funding.ExponentFactor},
		{"funding.max_factor_per_second", m.Funding.MaxFactorPerSecond, &out.Funding.MaxFactorPerSecond},
		{"funding.min_factor_per_second", m.Funding.MinFactorPerSecond, &out.Funding.MinFactorPerSecond},
		{"funding_amount_per_size_adjustment", m.FundingAmountPerSizeAdjustment, &out.FundingAmountPerSizeAdjustment},
	}

	for _, f := range fields {
		v, err := fixed.UintFromString(f.src)
		if err != nil {
			return memmarket.Config{}, fmt.Errorf("market.%s: %w", f.name, err)
		}
		*f.dst = v
	}

	return out, nil
}
