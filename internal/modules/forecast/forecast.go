// Package forecast produces multi-step point forecasts with confidence
// bounds from fitted ARMA models.
package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mkarag/quantfolio/internal/modules/arma"
)

// ErrInvalidHorizon indicates a non-positive forecast horizon.
var ErrInvalidHorizon = errors.New("forecast horizon must be positive")

// DefaultConfidence is the interval coverage used when the caller passes a
// value outside (0, 1).
const DefaultConfidence = 0.95

// Forecast holds h-step-ahead point estimates with confidence bounds.
// Immutable once produced; deterministic for a given model and horizon.
type Forecast struct {
	Horizon    int
	Confidence float64
	Mean       []float64
	Lower      []float64
	Upper      []float64
}

// FromModel forecasts horizon steps ahead by recursive substitution into
// the fitted ARMA equation, with future innovations set to their zero
// expectation. Interval widths grow with the horizon through the psi-weight
// (MA(∞)) representation of the prediction variance.
func FromModel(m *arma.Model, horizon int, confidence float64) (*Forecast, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("horizon %d: %w", horizon, ErrInvalidHorizon)
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = DefaultConfidence
	}

	p, q, d := m.Order.P, m.Order.Q, m.Order.D
	y := m.WorkingSeries()
	residuals := m.Residuals()
	n := len(y)

	extY := append(y, make([]float64, horizon)...)
	extResiduals := append(residuals, make([]float64, horizon)...)

	for h := 0; h < horizon; h++ {
		t := n + h
		pred := m.Intercept
		for i := 0; i < p && t-i-1 >= 0; i++ {
			pred += m.AR[i] * (extY[t-i-1] - m.Intercept)
		}
		for j := 0; j < q && t-j-1 >= 0; j++ {
			pred += m.MA[j] * extResiduals[t-j-1]
		}
		extY[t] = pred
	}

	mean := append([]float64(nil), extY[n:]...)

	// Var(e_{n+h}) = σ² Σ_{j=0}^{h-1} ψ_j², with ψ_0 = 1. Each round of
	// integration replaces the psi weights with their running sums, so the
	// same accumulation gives the exact variance when d > 0.
	psi := psiWeights(m.AR, m.MA, horizon)
	for i := 0; i < d; i++ {
		for j := 1; j < len(psi); j++ {
			psi[j] += psi[j-1]
		}
	}
	variance := make([]float64, horizon)
	var cum float64
	for h := 0; h < horizon; h++ {
		cum += psi[h] * psi[h]
		variance[h] = m.Variance * cum
	}

	if d > 0 {
		mean = integrate(mean, m.OriginalSeries(), d)
	}

	z := distuv.UnitNormal.Quantile((1 + confidence) / 2)
	lower := make([]float64, horizon)
	upper := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		se := math.Sqrt(variance[h])
		lower[h] = mean[h] - z*se
		upper[h] = mean[h] + z*se
	}

	return &Forecast{
		Horizon:    horizon,
		Confidence: confidence,
		Mean:       mean,
		Lower:      lower,
		Upper:      upper,
	}, nil
}

// psiWeights computes the first maxLag weights of the MA(∞) representation:
// ψ_0 = 1, ψ_j = θ_j + Σ_{i=1..min(p,j)} φ_i ψ_{j-i}.
func psiWeights(ar, ma []float64, maxLag int) []float64 {
	psi := make([]float64, maxLag)
	if maxLag == 0 {
		return psi
	}
	psi[0] = 1
	for j := 1; j < maxLag; j++ {
		if j <= len(ma) {
			psi[j] = ma[j-1]
		}
		for i := 1; i <= len(ar) && i <= j; i++ {
			psi[j] += ar[i-1] * psi[j-i]
		}
	}
	return psi
}

// integrate undoes d rounds of differencing so the forecasts land back on
// the original scale.
func integrate(forecasts, original []float64, d int) []float64 {
	result := append([]float64(nil), forecasts...)
	for i := 0; i < d; i++ {
		last := original[len(original)-1-i]
		for j := range result {
			if j == 0 {
				result[j] += last
			} else {
				result[j] += result[j-1]
			}
		}
	}
	return result
}
