package forecast

import (
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarag/quantfolio/internal/modules/arma"
)

func fitSeries(t *testing.T, series []float64, order arma.Order) *arma.Model {
	t.Helper()
	model, err := arma.NewFitter(zerolog.Nop()).Fit(series, order)
	require.NoError(t, err)
	return model
}

func ar1Series(n int, phi float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	series := make([]float64, n)
	for i := 1; i < n; i++ {
		series[i] = phi*series[i-1] + rng.NormFloat64()
	}
	return series
}

func TestFromModel_InvalidHorizon(t *testing.T) {
	model := fitSeries(t, ar1Series(100, 0.5, 1), arma.Order{P: 1})

	_, err := FromModel(model, 0, 0.95)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidHorizon)

	_, err = FromModel(model, -3, 0.95)
	assert.ErrorIs(t, err, ErrInvalidHorizon)
}

func TestFromModel_ConstantSeries(t *testing.T) {
	// A mean-only model over a constant series forecasts the constant at
	// every horizon with collapsed intervals.
	series := make([]float64, 300)
	for i := range series {
		series[i] = 0.02
	}
	model := fitSeries(t, series, arma.Order{})

	fc, err := FromModel(model, 12, 0.95)
	require.NoError(t, err)
	require.Len(t, fc.Mean, 12)
	for h := 0; h < 12; h++ {
		assert.InDelta(t, 0.02, fc.Mean[h], 1e-10)
		assert.InDelta(t, 0.02, fc.Lower[h], 1e-8)
		assert.InDelta(t, 0.02, fc.Upper[h], 1e-8)
	}
}

func TestFromModel_Deterministic(t *testing.T) {
	model := fitSeries(t, ar1Series(400, 0.6, 17), arma.Order{P: 1})

	fc1, err := FromModel(model, 12, 0.95)
	require.NoError(t, err)
	fc2, err := FromModel(model, 12, 0.95)
	require.NoError(t, err)

	assert.Equal(t, fc1, fc2)
}

func TestFromModel_WideningIntervals(t *testing.T) {
	model := fitSeries(t, ar1Series(400, 0.6, 23), arma.Order{P: 1})

	fc, err := FromModel(model, 12, 0.95)
	require.NoError(t, err)

	for h := 1; h < 12; h++ {
		prev := fc.Upper[h-1] - fc.Lower[h-1]
		curr := fc.Upper[h] - fc.Lower[h]
		assert.GreaterOrEqual(t, curr, prev-1e-12, "interval width must not shrink with horizon")
	}
	assert.Greater(t, fc.Upper[11]-fc.Lower[11], fc.Upper[0]-fc.Lower[0])
}

func TestFromModel_MeanReversion(t *testing.T) {
	model := fitSeries(t, ar1Series(600, 0.7, 29), arma.Order{P: 1})

	fc, err := FromModel(model, 12, 0.95)
	require.NoError(t, err)

	// AR forecasts decay geometrically toward the unconditional mean.
	first := math.Abs(fc.Mean[0] - model.Intercept)
	last := math.Abs(fc.Mean[11] - model.Intercept)
	assert.LessOrEqual(t, last, first+1e-12)
}

func TestFromModel_DefaultConfidence(t *testing.T) {
	model := fitSeries(t, ar1Series(200, 0.4, 37), arma.Order{P: 1})

	fc, err := FromModel(model, 6, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfidence, fc.Confidence)
}

func TestFromModel_IntegratedVarianceGrowth(t *testing.T) {
	// For an I(1) process over white noise the integrated psi weights are
	// all one, so the prediction standard error grows with sqrt(h): the
	// 4-step interval is exactly twice as wide as the 1-step interval.
	rng := rand.New(rand.NewSource(41))
	series := make([]float64, 500)
	for i := 1; i < len(series); i++ {
		series[i] = series[i-1] + rng.NormFloat64()
	}
	model := fitSeries(t, series, arma.Order{D: 1})

	fc, err := FromModel(model, 4, 0.95)
	require.NoError(t, err)

	w1 := fc.Upper[0] - fc.Lower[0]
	w4 := fc.Upper[3] - fc.Lower[3]
	assert.InDelta(t, 2.0, w4/w1, 1e-9)
}

func TestPsiWeights(t *testing.T) {
	// AR(1): psi_j = phi^j.
	psi := psiWeights([]float64{0.5}, nil, 4)
	require.Len(t, psi, 4)
	assert.InDelta(t, 1.0, psi[0], 1e-12)
	assert.InDelta(t, 0.5, psi[1], 1e-12)
	assert.InDelta(t, 0.25, psi[2], 1e-12)
	assert.InDelta(t, 0.125, psi[3], 1e-12)

	// MA(1): psi_1 = theta, then zero.
	psi = psiWeights(nil, []float64{0.4}, 3)
	assert.InDelta(t, 1.0, psi[0], 1e-12)
	assert.InDelta(t, 0.4, psi[1], 1e-12)
	assert.InDelta(t, 0.0, psi[2], 1e-12)
}
