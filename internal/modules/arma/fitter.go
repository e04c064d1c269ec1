package arma

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"

	"github.com/mkarag/quantfolio/internal/modules/statistics"
)

// coefficientBound keeps AR/MA coefficients inside the stationarity /
// invertibility region during the likelihood search.
const coefficientBound = 0.999

// Fitter estimates ARMA models by maximizing the conditional Gaussian
// likelihood with gonum's numerical optimizers.
type Fitter struct {
	log zerolog.Logger
}

// NewFitter creates an ARMA fitter.
func NewFitter(log zerolog.Logger) *Fitter {
	return &Fitter{log: log.With().Str("component", "arma_fitter").Logger()}
}

// Fit estimates an ARMA(p,q) model (after d rounds of differencing) on the
// given series. Orders are caller policy, informed by the stationarity and
// ACF/PACF diagnostics; nothing is searched automatically.
func (f *Fitter) Fit(series []float64, order Order) (*Model, error) {
	if order.P < 0 || order.D < 0 || order.Q < 0 {
		return nil, fmt.Errorf("order %v has negative terms: %w", order, ErrInvalidOrder)
	}

	working := append([]float64(nil), series...)
	for i := 0; i < order.D; i++ {
		working = difference(working)
	}
	if len(working) < order.Params() {
		return nil, fmt.Errorf("%d observations after differencing, need at least %d for %s: %w",
			len(working), order.Params(), order, ErrInvalidOrder)
	}

	model := &Model{
		Order:    order,
		original: append([]float64(nil), series...),
		working:  working,
	}

	if order.P == 0 && order.Q == 0 {
		f.fitWhiteNoise(model)
	} else if err := f.fitCSS(model); err != nil {
		return nil, err
	}

	f.finalize(model)

	f.log.Debug().
		Stringer("order", order).
		Float64("log_likelihood", model.LogLikelihood).
		Float64("aic", model.AIC).
		Msg("Model fitted")

	return model, nil
}

// fitWhiteNoise handles ARMA(0,0): intercept is the sample mean.
func (f *Fitter) fitWhiteNoise(m *Model) {
	m.Intercept = statistics.Mean(m.working)
	m.AR = []float64{}
	m.MA = []float64{}
}

// fitCSS maximizes the conditional (sum-of-squares based) Gaussian
// likelihood. AR coefficients are seeded from Yule-Walker estimates, MA
// coefficients start near zero. NelderMead runs first with a BFGS retry,
// mirroring how convergence is handled elsewhere in the pipeline.
func (f *Fitter) fitCSS(m *Model) error {
	p, q := m.Order.P, m.Order.Q

	initial := make([]float64, 1+p+q)
	initial[0] = statistics.Mean(m.working)
	if p > 0 {
		acf := statistics.ACF(m.working, p)
		if seed := statistics.YuleWalker(acf, p); seed != nil {
			for i, v := range seed {
				initial[1+i] = clampCoefficient(v)
			}
		}
	}
	for j := 0; j < q; j++ {
		initial[1+p+j] = 0.05
	}

	negLogLik := func(x []float64) float64 {
		c, ar, ma := unpack(x, p, q)
		sse, n := conditionalSSE(m.working, c, ar, ma)
		if n == 0 || !isFinite(sse) || sse <= 0 {
			return math.Inf(1)
		}
		nf := float64(n)
		return 0.5 * nf * (math.Log(2*math.Pi) + math.Log(sse/nf) + 1)
	}

	problem := optimize.Problem{
		Func: negLogLik,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, negLogLik, x, nil)
		},
	}

	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
	if err != nil || !converged(result.Status) {
		result, err = optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.BFGS{})
		if err != nil {
			return fmt.Errorf("%s: %v: %w", m.Order, err, ErrNonConvergence)
		}
		if !converged(result.Status) {
			return fmt.Errorf("%s: status=%v: %w", m.Order, result.Status, ErrNonConvergence)
		}
	}

	c, ar, ma := unpack(result.X, p, q)
	m.Intercept = c
	m.AR = ar
	m.MA = ma
	return nil
}

// finalize computes residuals, fitted values, residual variance,
// log-likelihood, and AIC for the estimated coefficients.
func (f *Fitter) finalize(m *Model) {
	y := m.working
	n := len(y)
	p, q := m.Order.P, m.Order.Q
	start := maxInt(p, q)

	m.residuals = make([]float64, n)
	m.fitted = make([]float64, n)
	for t := 0; t < n; t++ {
		if t < start {
			m.fitted[t] = m.Intercept
			m.residuals[t] = y[t] - m.Intercept
			continue
		}
		pred := m.Intercept
		for i := 0; i < p; i++ {
			pred += m.AR[i] * (y[t-i-1] - m.Intercept)
		}
		for j := 0; j < q; j++ {
			pred += m.MA[j] * m.residuals[t-j-1]
		}
		m.fitted[t] = pred
		m.residuals[t] = y[t] - pred
	}

	var sse float64
	count := n - start
	for t := start; t < n; t++ {
		sse += m.residuals[t] * m.residuals[t]
	}

	k := m.Order.Params()
	if count > k {
		m.Variance = sse / float64(count-k)
	} else if count > 0 {
		m.Variance = sse / float64(count)
	}

	if m.Variance > 0 {
		nf := float64(count)
		m.LogLikelihood = -nf/2*math.Log(2*math.Pi) - nf/2*math.Log(m.Variance) - sse/(2*m.Variance)
	} else {
		// Perfect fit: the Gaussian likelihood is unbounded.
		m.LogLikelihood = math.Inf(1)
	}
	m.AIC = -2*m.LogLikelihood + 2*float64(k)
}

// conditionalSSE runs the one-step prediction error recursion from
// t = max(p,q), with earlier residuals conditioned to zero. Returns the
// sum of squared errors and the number of contributing terms.
func conditionalSSE(y []float64, c float64, ar, ma []float64) (float64, int) {
	n := len(y)
	p, q := len(ar), len(ma)
	start := maxInt(p, q)

	residuals := make([]float64, n)
	var sse float64
	for t := start; t < n; t++ {
		pred := c
		for i := 0; i < p; i++ {
			pred += ar[i] * (y[t-i-1] - c)
		}
		for j := 0; j < q; j++ {
			pred += ma[j] * residuals[t-j-1]
		}
		residuals[t] = y[t] - pred
		sse += residuals[t] * residuals[t]
	}
	return sse, n - start
}

// unpack splits the optimizer's parameter vector into intercept, AR, and
// MA coefficients, projecting the latter two into the admissible region.
func unpack(x []float64, p, q int) (c float64, ar, ma []float64) {
	c = x[0]
	ar = make([]float64, p)
	for i := 0; i < p; i++ {
		ar[i] = clampCoefficient(x[1+i])
	}
	ma = make([]float64, q)
	for j := 0; j < q; j++ {
		ma[j] = clampCoefficient(x[1+p+j])
	}
	return c, ar, ma
}

func clampCoefficient(v float64) float64 {
	return math.Max(-coefficientBound, math.Min(coefficientBound, v))
}

func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success,
		optimize.GradientThreshold,
		optimize.FunctionConvergence,
		optimize.FunctionThreshold,
		optimize.StepConvergence,
		optimize.MethodConverge:
		return true
	default:
		return false
	}
}

func difference(series []float64) []float64 {
	if len(series) < 2 {
		return []float64{}
	}
	out := make([]float64, len(series)-1)
	for i := 1; i < len(series); i++ {
		out[i-1] = series[i] - series[i-1]
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
