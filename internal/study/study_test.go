package study

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarag/quantfolio/internal/dataset"
	"github.com/mkarag/quantfolio/internal/modules/allocation"
	"github.com/mkarag/quantfolio/internal/modules/arma"
	"github.com/mkarag/quantfolio/internal/modules/riskmodel"
	"github.com/mkarag/quantfolio/internal/modules/stationarity"
)

// syntheticDataset builds a five-asset dataset with independent noisy
// returns of differing volatility, long enough for the holdout split.
func syntheticDataset(periods int, seed int64) *dataset.Dataset {
	rng := rand.New(rand.NewSource(seed))
	assets := []string{"VTI", "VEA", "AGG", "GLD", "DBC"}
	vols := []float64{0.04, 0.05, 0.01, 0.03, 0.06}

	ds := &dataset.Dataset{
		Assets:  assets,
		Periods: make([]string, periods),
		Prices:  make(map[string][]float64),
		Returns: make(map[string][]float64),
	}
	for i := 0; i < periods; i++ {
		ds.Periods[i] = fmt.Sprintf("p%03d", i)
	}
	for k, asset := range assets {
		returns := make([]float64, periods)
		prices := make([]float64, periods)
		price := 100.0
		for i := 0; i < periods; i++ {
			returns[i] = 0.002 + vols[k]*rng.NormFloat64()
			price *= math.Exp(returns[i])
			prices[i] = price
		}
		ds.Returns[asset] = returns
		ds.Prices[asset] = prices
	}
	return ds
}

func newStudy(workers int) *Study {
	log := zerolog.Nop()
	return New(
		riskmodel.NewBuilder(nil, log),
		allocation.NewSolver(log),
		stationarity.NewTester(log),
		arma.NewFitter(log),
		workers,
		log,
	)
}

func studyConfig() *Config {
	return &Config{
		Assets:       []string{"VTI", "VEA", "AGG", "GLD", "DBC"},
		Significance: 0.05,
		Horizon:      12,
		Confidence:   0.95,
		ADFLags:      -1,
		Portfolios: []PortfolioSpec{
			{Name: "equal_weight", Scheme: SchemeEqualWeight, Orders: [][]int{{0, 0, 0}, {1, 0, 0}}},
			{Name: "minimum_variance", Scheme: SchemeMinimumVariance, Orders: [][]int{{1, 0, 0}}},
			{Name: "maximum_sharpe", Scheme: SchemeMaximumSharpe, Orders: [][]int{{0, 0, 1}}},
		},
	}
}

func TestRun_EndToEnd(t *testing.T) {
	ds := syntheticDataset(294, 42)
	cfg := studyConfig()

	report, err := newStudy(4).Run(ds, cfg)
	require.NoError(t, err)
	require.Len(t, report.Portfolios, 3)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 294, report.Periods)

	train := ds.Train()
	for _, p := range report.Portfolios {
		// Every scheme's weights sum to one.
		sum := 0.0
		for _, w := range p.Weights {
			sum += w
		}
		assert.InDelta(t, 1.0, sum, 1e-8, "portfolio %s", p.Name)

		// Blended series cover the right windows with frozen weights.
		assert.Len(t, p.TrainReturns, train.Len())
		assert.Len(t, p.TestReturns, dataset.HoldoutPeriods)
		assert.Len(t, p.FullReturns, 294)
		assert.Len(t, p.FullPrices, 294)

		// Independent noisy returns are stationary.
		assert.True(t, p.Stationarity.IsStationary, "portfolio %s", p.Name)

		for _, m := range p.Models {
			require.Falsef(t, m.Failed(), "portfolio %s order %s: %s", p.Name, m.Order, m.Err)
			assert.Equal(t, 12, m.Forecast.Horizon)
			assert.Greater(t, m.Accuracy.TestRMSE, 0.0)
			assert.GreaterOrEqual(t, m.Accuracy.TestRMSE, m.Accuracy.TestMAE*0.999)
			assert.False(t, math.IsNaN(m.Model.AIC))
		}
	}
}

func TestRun_SerialMatchesConcurrent(t *testing.T) {
	ds := syntheticDataset(160, 7)
	cfg := studyConfig()

	serial, err := newStudy(0).Run(ds, cfg)
	require.NoError(t, err)
	concurrent, err := newStudy(8).Run(ds, cfg)
	require.NoError(t, err)

	require.Len(t, concurrent.Portfolios, len(serial.Portfolios))
	for i := range serial.Portfolios {
		sp, cp := serial.Portfolios[i], concurrent.Portfolios[i]
		assert.Equal(t, sp.Weights, cp.Weights)
		require.Len(t, cp.Models, len(sp.Models))
		for j := range sp.Models {
			assert.Equal(t, sp.Models[j].Accuracy, cp.Models[j].Accuracy)
		}
	}
}

func TestRun_FailedCandidateDoesNotBlockOthers(t *testing.T) {
	ds := syntheticDataset(160, 11)
	cfg := studyConfig()
	// An invalid order must fail its own slot and leave the rest alone.
	cfg.Portfolios = []PortfolioSpec{
		{Name: "equal_weight", Scheme: SchemeEqualWeight, Orders: [][]int{{-1, 0, 0}, {1, 0, 0}}},
	}

	report, err := newStudy(0).Run(ds, cfg)
	require.NoError(t, err)
	models := report.Portfolios[0].Models
	require.Len(t, models, 2)
	assert.True(t, models[0].Failed())
	assert.False(t, models[1].Failed())
}

func TestRun_DatasetTooShort(t *testing.T) {
	ds := syntheticDataset(12, 3)

	_, err := newStudy(0).Run(ds, studyConfig())
	require.Error(t, err)
}

func TestReportRender(t *testing.T) {
	ds := syntheticDataset(160, 19)

	report, err := newStudy(0).Run(ds, studyConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	report.Render(&buf)
	out := buf.String()
	assert.Contains(t, out, "Portfolio Weights")
	assert.Contains(t, out, "Unit-Root Tests")
	assert.Contains(t, out, "Model Fit and Forecast Accuracy")
	assert.Contains(t, out, "equal_weight")
	assert.Contains(t, out, "ARMA(1,0)")
}
