// Package stationarity implements an augmented Dickey-Fuller unit-root
// test. The result is advisory: it informs the differencing order chosen
// by the caller, it never selects one automatically.
package stationarity

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// ErrInsufficientData indicates a series too short for the requested lag
// structure.
var ErrInsufficientData = errors.New("series too short for unit-root test")

// Result holds the unit-root test outcome. The null hypothesis is that the
// series has a unit root (is non-stationary); it is rejected when PValue
// falls below the requested significance.
type Result struct {
	Statistic    float64
	PValue       float64
	Lags         int
	Significance float64
	IsStationary bool
}

// Tester runs augmented Dickey-Fuller tests.
type Tester struct {
	log zerolog.Logger
}

// NewTester creates a stationarity tester.
func NewTester(log zerolog.Logger) *Tester {
	return &Tester{log: log.With().Str("component", "stationarity").Logger()}
}

// Test regresses Δy_t on a constant, y_{t-1}, and lags lagged differences,
// then compares the t-statistic of the y_{t-1} coefficient against the
// Dickey-Fuller distribution. Pass lags < 0 to use the Schwert rule
// floor(12·(n/100)^0.25).
func (st *Tester) Test(series []float64, lags int, significance float64) (Result, error) {
	n := len(series)
	if lags < 0 {
		lags = int(math.Floor(12 * math.Pow(float64(n)/100, 0.25)))
	}

	// Rows of the regression: t = lags+1 .. n-1 on the original index.
	rows := n - 1 - lags
	cols := 2 + lags // constant, y_{t-1}, lagged differences
	if rows <= cols {
		return Result{}, fmt.Errorf("%d observations with %d lags: %w", n, lags, ErrInsufficientData)
	}

	diff := make([]float64, n-1)
	for t := 1; t < n; t++ {
		diff[t-1] = series[t] - series[t-1]
	}

	x := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		t := r + lags + 1 // original index of the dependent observation
		y.SetVec(r, diff[t-1])
		x.Set(r, 0, 1)
		x.Set(r, 1, series[t-1])
		for j := 1; j <= lags; j++ {
			x.Set(r, 1+j, diff[t-1-j])
		}
	}

	beta, se, err := ols(x, y)
	if err != nil {
		return Result{}, fmt.Errorf("unit-root regression failed: %w", err)
	}
	if se[1] == 0 || math.IsNaN(se[1]) {
		return Result{}, fmt.Errorf("degenerate unit-root regression: %w", ErrInsufficientData)
	}

	tau := beta[1] / se[1]
	p := dickeyFullerPValue(tau)

	res := Result{
		Statistic:    tau,
		PValue:       p,
		Lags:         lags,
		Significance: significance,
		IsStationary: p < significance,
	}

	st.log.Debug().
		Float64("statistic", tau).
		Float64("p_value", p).
		Int("lags", lags).
		Bool("stationary", res.IsStationary).
		Msg("Unit-root test complete")

	return res, nil
}

// ols solves y = Xβ + ε by QR and returns the coefficient estimates along
// with their standard errors.
func ols(x *mat.Dense, y *mat.VecDense) (beta, se []float64, err error) {
	rows, cols := x.Dims()

	var qr mat.QR
	qr.Factorize(x)
	sol := mat.NewVecDense(cols, nil)
	if err := qr.SolveVecTo(sol, false, y); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, nil, fmt.Errorf("regressors are collinear: %w", err)
		}
	}

	// Residual variance.
	fitted := mat.NewVecDense(rows, nil)
	fitted.MulVec(x, sol)
	var rss float64
	for i := 0; i < rows; i++ {
		r := y.AtVec(i) - fitted.AtVec(i)
		rss += r * r
	}
	s2 := rss / float64(rows-cols)

	// Coefficient covariance s²(X'X)⁻¹.
	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, nil, fmt.Errorf("failed to invert X'X: %w", err)
		}
	}

	beta = make([]float64, cols)
	se = make([]float64, cols)
	for j := 0; j < cols; j++ {
		beta[j] = sol.AtVec(j)
		se[j] = math.Sqrt(s2 * inv.At(j, j))
	}
	return beta, se, nil
}

// dfTable maps asymptotic Dickey-Fuller critical values (constant case) to
// their tail probabilities. P-values between the tabulated points are
// interpolated linearly; beyond them they are clamped.
var dfTable = []struct {
	tau float64
	p   float64
}{
	{-3.96, 0.001},
	{-3.43, 0.01},
	{-3.12, 0.025},
	{-2.86, 0.05},
	{-2.57, 0.10},
	{-2.23, 0.25},
	{-1.94, 0.50},
	{-1.62, 0.75},
	{-1.28, 0.90},
	{-0.90, 0.975},
	{-0.62, 0.99},
}

func dickeyFullerPValue(tau float64) float64 {
	if tau <= dfTable[0].tau {
		return dfTable[0].p
	}
	last := dfTable[len(dfTable)-1]
	if tau >= last.tau {
		return last.p
	}
	for i := 1; i < len(dfTable); i++ {
		lo, hi := dfTable[i-1], dfTable[i]
		if tau <= hi.tau {
			frac := (tau - lo.tau) / (hi.tau - lo.tau)
			return lo.p + frac*(hi.p-lo.p)
		}
	}
	return last.p
}
