// Package allocation computes portfolio weight vectors from a covariance
// matrix and synthesizes blended portfolio return series.
package allocation

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrSingularMatrix indicates a singular (or non-invertible augmented)
	// covariance matrix, e.g. perfectly collinear assets.
	ErrSingularMatrix = errors.New("covariance matrix is singular")

	// ErrDegenerateNormalization indicates the tangency scaling factor
	// 1'Σ⁻¹μ is zero, leaving the weights undefined.
	ErrDegenerateNormalization = errors.New("tangency normalization is degenerate")
)

// degenerateTolerance below which 1'Σ⁻¹μ is treated as zero.
const degenerateTolerance = 1e-12

// Solver computes closed-form portfolio weights.
type Solver struct {
	log zerolog.Logger
}

// NewSolver creates a new weight solver.
func NewSolver(log zerolog.Logger) *Solver {
	return &Solver{log: log.With().Str("component", "allocation_solver").Logger()}
}

// EqualWeights returns the 1/n weight vector.
func (s *Solver) EqualWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}
	return w
}

// MinimumVarianceWeights solves the global minimum-variance portfolio:
// minimize w'Σw subject to 1'w = 1. The Lagrangian first-order conditions
// form the augmented linear system
//
//	[ 2Σ  1 ] [w]   [0]
//	[ 1'  0 ] [λ] = [1]
//
// which is solved exactly; there is no optimization loop. Weights may be
// negative (short positions are permitted).
func (s *Solver) MinimumVarianceWeights(cov *mat.SymDense) ([]float64, error) {
	n := cov.SymmetricDim()
	if n == 0 {
		return nil, fmt.Errorf("empty covariance matrix: %w", ErrSingularMatrix)
	}

	aug := mat.NewDense(n+1, n+1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			aug.Set(i, j, 2*cov.At(i, j))
		}
		aug.Set(i, n, 1)
		aug.Set(n, i, 1)
	}

	rhs := mat.NewVecDense(n+1, nil)
	rhs.SetVec(n, 1)

	sol, err := solveVec(aug, rhs)
	if err != nil {
		return nil, fmt.Errorf("minimum-variance system: %w", err)
	}

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = sol.AtVec(i)
	}

	s.log.Debug().Floats64("weights", weights).Msg("Solved minimum-variance portfolio")
	return weights, nil
}

// TangencyWeights computes the maximum-Sharpe (tangency) portfolio under a
// zero risk-free baseline: w_raw = Σ⁻¹μ normalized so the weights sum to 1.
func (s *Solver) TangencyWeights(cov *mat.SymDense, meanReturns []float64) ([]float64, error) {
	n := cov.SymmetricDim()
	if n == 0 {
		return nil, fmt.Errorf("empty covariance matrix: %w", ErrSingularMatrix)
	}
	if len(meanReturns) != n {
		return nil, fmt.Errorf("mean return vector has %d entries, covariance is %dx%d", len(meanReturns), n, n)
	}

	sigma := mat.NewDense(n, n, nil)
	sigma.Copy(cov)
	mu := mat.NewVecDense(n, append([]float64(nil), meanReturns...))

	raw, err := solveVec(sigma, mu)
	if err != nil {
		return nil, fmt.Errorf("tangency system: %w", err)
	}

	var scale float64
	for i := 0; i < n; i++ {
		scale += raw.AtVec(i)
	}
	if math.Abs(scale) < degenerateTolerance {
		return nil, fmt.Errorf("1'Σ⁻¹μ = %g: %w", scale, ErrDegenerateNormalization)
	}

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = raw.AtVec(i) / scale
	}

	s.log.Debug().Floats64("weights", weights).Msg("Solved tangency portfolio")
	return weights, nil
}

// solveVec solves Ax = b via LU factorization, mapping singular systems to
// ErrSingularMatrix. An ill-conditioned (but solvable) system is accepted.
func solveVec(a *mat.Dense, b *mat.VecDense) (*mat.VecDense, error) {
	var lu mat.LU
	lu.Factorize(a)

	r, _ := a.Dims()
	sol := mat.NewVecDense(r, nil)
	if err := lu.SolveVecTo(sol, false, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, ErrSingularMatrix
		}
	}

	for i := 0; i < r; i++ {
		if math.IsNaN(sol.AtVec(i)) || math.IsInf(sol.AtVec(i), 0) {
			return nil, ErrSingularMatrix
		}
	}
	return sol, nil
}
