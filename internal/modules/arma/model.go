// Package arma fits low-order autoregressive-moving-average models to
// return series by Gaussian maximum likelihood.
package arma

import (
	"errors"
	"fmt"

	"github.com/mkarag/quantfolio/internal/modules/statistics"
)

var (
	// ErrInvalidOrder indicates a negative order or a series too short for
	// the requested order.
	ErrInvalidOrder = errors.New("invalid model order")

	// ErrNonConvergence indicates the likelihood maximization did not
	// converge within its iteration budget.
	ErrNonConvergence = errors.New("likelihood maximization did not converge")
)

// Order is the (p, d, q) order triple of an ARMA/ARIMA model.
type Order struct {
	P int // autoregressive terms
	D int // differencing order
	Q int // moving-average terms
}

// Params returns the number of estimated parameters (AR + MA + intercept).
func (o Order) Params() int {
	return o.P + o.Q + 1
}

func (o Order) String() string {
	if o.D == 0 {
		return fmt.Sprintf("ARMA(%d,%d)", o.P, o.Q)
	}
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
}

// Model is a fitted ARMA process:
//
//	x_t = c + Σ φ_i·x_{t-i} + ε_t + Σ θ_j·ε_{t-j},  ε_t ~ N(0, σ²)
//
// Immutable once produced by Fitter.Fit.
type Model struct {
	Order         Order
	Intercept     float64
	AR            []float64 // φ
	MA            []float64 // θ
	Variance      float64   // residual variance σ²
	LogLikelihood float64
	AIC           float64

	original  []float64 // series the model was fit on
	working   []float64 // series after differencing (== original when d=0)
	residuals []float64 // one-step prediction errors on the working series
	fitted    []float64
}

// NObs returns the number of observations the model was fit on.
func (m *Model) NObs() int {
	return len(m.original)
}

// Residuals returns a copy of the one-step prediction errors over the
// fitted sample.
func (m *Model) Residuals() []float64 {
	return append([]float64(nil), m.residuals...)
}

// FittedValues returns a copy of the in-sample one-step predictions.
func (m *Model) FittedValues() []float64 {
	return append([]float64(nil), m.fitted...)
}

// WorkingSeries returns a copy of the (differenced) series the
// coefficients were estimated on.
func (m *Model) WorkingSeries() []float64 {
	return append([]float64(nil), m.working...)
}

// OriginalSeries returns a copy of the undifferenced input series.
func (m *Model) OriginalSeries() []float64 {
	return append([]float64(nil), m.original...)
}

// LjungBox runs the portmanteau test on the model residuals. A small
// p-value flags leftover autocorrelation; the result is a quality signal
// for the caller, nothing is enforced here.
func (m *Model) LjungBox(lags int) statistics.LjungBoxResult {
	return statistics.LjungBox(m.residuals, lags, m.Order.P+m.Order.Q)
}
