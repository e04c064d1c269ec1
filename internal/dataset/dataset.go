// Package dataset holds the study's tabular input: aligned per-asset price
// and log-return series keyed by period, with a fixed holdout split.
package dataset

import (
	"errors"
	"fmt"
	"math"
)

// HoldoutPeriods is the number of trailing periods held out for
// out-of-sample evaluation.
const HoldoutPeriods = 12

// ErrMisalignedSeries indicates input series of unequal length or period
// coverage.
var ErrMisalignedSeries = errors.New("series are misaligned")

// Window is a contiguous view over the dataset. Slices are shared with the
// parent dataset and must not be mutated.
type Window struct {
	Periods []string
	Prices  map[string][]float64
	Returns map[string][]float64
}

// Len returns the number of periods in the window.
func (w Window) Len() int {
	return len(w.Periods)
}

// Dataset is the full study input: one price and one log-return series per
// asset, positionally aligned on the period axis. Period identifiers label
// the end of each period; they are not accurate to the day.
type Dataset struct {
	Assets  []string // fixed order; weight vectors index against this
	Periods []string
	Prices  map[string][]float64
	Returns map[string][]float64
}

// Validate checks that every asset has price and return series of the same
// length as the period axis.
func (d *Dataset) Validate() error {
	n := len(d.Periods)
	for _, asset := range d.Assets {
		prices, ok := d.Prices[asset]
		if !ok || len(prices) != n {
			return fmt.Errorf("price series for %s has %d periods, expected %d: %w", asset, len(prices), n, ErrMisalignedSeries)
		}
		for i, v := range prices {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("price series for %s has a non-finite value at period %d", asset, i)
			}
		}
		returns, ok := d.Returns[asset]
		if !ok || len(returns) != n {
			return fmt.Errorf("return series for %s has %d periods, expected %d: %w", asset, len(returns), n, ErrMisalignedSeries)
		}
		for i, v := range returns {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("return series for %s has a non-finite value at period %d", asset, i)
			}
		}
	}
	return nil
}

// Full returns a view over every period.
func (d *Dataset) Full() Window {
	return d.window(0, len(d.Periods))
}

// Train returns the training view: every period except the trailing holdout.
func (d *Dataset) Train() Window {
	return d.window(0, len(d.Periods)-HoldoutPeriods)
}

// Test returns the holdout view: the trailing HoldoutPeriods periods.
func (d *Dataset) Test() Window {
	return d.window(len(d.Periods)-HoldoutPeriods, len(d.Periods))
}

// CanSplit reports whether the dataset is long enough to carry the holdout.
func (d *Dataset) CanSplit() bool {
	return len(d.Periods) > HoldoutPeriods
}

func (d *Dataset) window(lo, hi int) Window {
	w := Window{
		Periods: d.Periods[lo:hi],
		Prices:  make(map[string][]float64, len(d.Assets)),
		Returns: make(map[string][]float64, len(d.Assets)),
	}
	for _, asset := range d.Assets {
		w.Prices[asset] = d.Prices[asset][lo:hi]
		w.Returns[asset] = d.Returns[asset][lo:hi]
	}
	return w
}

// LogReturns derives log returns from a price series:
// r_t = ln(p_t / p_{t-1}). Used when preparing datasets, never by the
// analytical core, which only consumes precomputed returns.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns[i-1] = math.Log(prices[i] / prices[i-1])
	}
	return returns
}
