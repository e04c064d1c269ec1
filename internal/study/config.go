// Package study orchestrates the full analysis: weight solves, blended
// series, stationarity diagnostics, model fits, forecasts, and accuracy
// scoring for each portfolio scheme.
package study

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/mkarag/quantfolio/internal/dataset"
	"github.com/mkarag/quantfolio/internal/modules/arma"
)

// UniverseSize is the fixed number of assets in the study universe.
const UniverseSize = 5

// Scheme identifies a weight allocation scheme.
type Scheme string

const (
	SchemeEqualWeight     Scheme = "equal_weight"
	SchemeMinimumVariance Scheme = "minimum_variance"
	SchemeMaximumSharpe   Scheme = "maximum_sharpe"
)

// PortfolioSpec declares one portfolio to build and the candidate model
// orders to fit on its blended return series. Orders are hand-picked by
// the analyst from the ACF/PACF evidence; the study never searches them.
type PortfolioSpec struct {
	Name   string  `yaml:"name"`
	Scheme Scheme  `yaml:"scheme"`
	Orders [][]int `yaml:"orders"` // each entry is [p, d, q]
}

// Config is the YAML study definition.
type Config struct {
	DataFile     string          `yaml:"data_file"`
	Assets       []string        `yaml:"assets"`
	Significance float64         `yaml:"significance"`
	Horizon      int             `yaml:"horizon"`
	Confidence   float64         `yaml:"confidence"`
	ADFLags      int             `yaml:"adf_lags"`
	Portfolios   []PortfolioSpec `yaml:"portfolios"`
}

// LoadConfig reads and validates a study definition.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read study file %s: %w", path, err)
	}

	cfg := &Config{
		Significance: 0.05,
		Horizon:      dataset.HoldoutPeriods,
		Confidence:   0.95,
		ADFLags:      -1, // Schwert rule
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse study file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid study file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the study definition against the universe and horizon
// constraints.
func (c *Config) Validate() error {
	if len(c.Assets) != UniverseSize {
		return fmt.Errorf("universe must contain exactly %d assets, got %d", UniverseSize, len(c.Assets))
	}
	seen := make(map[string]bool, len(c.Assets))
	for _, asset := range c.Assets {
		if asset == "" {
			return fmt.Errorf("empty asset name in universe")
		}
		if seen[asset] {
			return fmt.Errorf("duplicate asset %s in universe", asset)
		}
		seen[asset] = true
	}

	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %d", c.Horizon)
	}
	if c.Horizon > dataset.HoldoutPeriods {
		return fmt.Errorf("horizon %d exceeds the %d-period holdout", c.Horizon, dataset.HoldoutPeriods)
	}
	if c.Significance <= 0 || c.Significance >= 1 {
		return fmt.Errorf("significance must be in (0, 1), got %g", c.Significance)
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		return fmt.Errorf("confidence must be in (0, 1), got %g", c.Confidence)
	}

	if len(c.Portfolios) == 0 {
		return fmt.Errorf("no portfolios declared")
	}
	for _, spec := range c.Portfolios {
		if spec.Name == "" {
			return fmt.Errorf("portfolio with empty name")
		}
		switch spec.Scheme {
		case SchemeEqualWeight, SchemeMinimumVariance, SchemeMaximumSharpe:
		default:
			return fmt.Errorf("portfolio %s has unknown scheme %q", spec.Name, spec.Scheme)
		}
		if len(spec.Orders) == 0 {
			return fmt.Errorf("portfolio %s declares no model orders", spec.Name)
		}
		for _, o := range spec.Orders {
			if len(o) != 3 {
				return fmt.Errorf("portfolio %s has malformed order %v, want [p, d, q]", spec.Name, o)
			}
		}
	}
	return nil
}

// orders converts a spec's raw order triples.
func (s PortfolioSpec) orders() []arma.Order {
	out := make([]arma.Order, len(s.Orders))
	for i, o := range s.Orders {
		out[i] = arma.Order{P: o[0], D: o[1], Q: o[2]}
	}
	return out
}
