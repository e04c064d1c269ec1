package study

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkarag/quantfolio/internal/dataset"
	"github.com/mkarag/quantfolio/internal/modules/allocation"
	"github.com/mkarag/quantfolio/internal/modules/arma"
	"github.com/mkarag/quantfolio/internal/modules/evaluation"
	"github.com/mkarag/quantfolio/internal/modules/forecast"
	"github.com/mkarag/quantfolio/internal/modules/riskmodel"
	"github.com/mkarag/quantfolio/internal/modules/statistics"
	"github.com/mkarag/quantfolio/internal/modules/stationarity"
)

// ljungBoxLags is the residual portmanteau lag count.
const ljungBoxLags = 10

// ModelResult is the outcome of one candidate order on one portfolio.
// A failed fit records its error and leaves the other candidates alone.
type ModelResult struct {
	Order    arma.Order
	Model    *arma.Model
	LjungBox statistics.LjungBoxResult
	Forecast *forecast.Forecast
	Accuracy evaluation.Accuracy
	Err      string
}

// Failed reports whether this candidate's fit or forecast failed.
func (r ModelResult) Failed() bool {
	return r.Err != ""
}

// PortfolioResult pairs a weight vector with its blended series, the
// stationarity evidence, and the fitted model candidates.
type PortfolioResult struct {
	Name    string
	Scheme  Scheme
	Weights []float64

	TrainReturns []float64
	TestReturns  []float64
	FullReturns  []float64
	FullPrices   []float64 // blended price series, kept for plotting

	Stationarity stationarity.Result
	Models       []ModelResult
}

// Report is the study output for all portfolios.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Assets      []string
	Horizon     int
	Periods     int
	Portfolios  []PortfolioResult
}

// Study wires the pipeline stages together.
type Study struct {
	risk       *riskmodel.Builder
	solver     *allocation.Solver
	tester     *stationarity.Tester
	fitter     *arma.Fitter
	maxWorkers int
	log        zerolog.Logger
}

// New creates a study runner. maxWorkers bounds the concurrent model fits;
// zero runs them serially.
func New(
	risk *riskmodel.Builder,
	solver *allocation.Solver,
	tester *stationarity.Tester,
	fitter *arma.Fitter,
	maxWorkers int,
	log zerolog.Logger,
) *Study {
	return &Study{
		risk:       risk,
		solver:     solver,
		tester:     tester,
		fitter:     fitter,
		maxWorkers: maxWorkers,
		log:        log.With().Str("component", "study").Logger(),
	}
}

// Run executes the full pipeline: covariance from the training window,
// one weight solve per scheme, blended series on frozen weights, the
// stationarity test, and the model/forecast/accuracy loop per portfolio.
func (s *Study) Run(ds *dataset.Dataset, cfg *Config) (*Report, error) {
	if !ds.CanSplit() {
		return nil, fmt.Errorf("dataset has %d periods, need more than %d for the holdout split", len(ds.Periods), dataset.HoldoutPeriods)
	}

	train := ds.Train()
	test := ds.Test()
	full := ds.Full()

	// Weights are estimated on the training window only and frozen; the
	// holdout never leaks into the covariance matrix.
	model, err := s.risk.Build(cfg.Assets, train.Returns)
	if err != nil {
		return nil, fmt.Errorf("failed to build risk model: %w", err)
	}

	report := &Report{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Assets:      append([]string(nil), cfg.Assets...),
		Horizon:     cfg.Horizon,
		Periods:     len(ds.Periods),
	}

	for _, spec := range cfg.Portfolios {
		result, err := s.runPortfolio(spec, model, cfg, train, test, full)
		if err != nil {
			return nil, fmt.Errorf("portfolio %s: %w", spec.Name, err)
		}
		report.Portfolios = append(report.Portfolios, result)
	}

	s.log.Info().
		Str("run_id", report.RunID).
		Int("portfolios", len(report.Portfolios)).
		Msg("Study complete")

	return report, nil
}

func (s *Study) runPortfolio(
	spec PortfolioSpec,
	model *riskmodel.Model,
	cfg *Config,
	train, test, full dataset.Window,
) (PortfolioResult, error) {
	weights, err := s.solveWeights(spec.Scheme, model)
	if err != nil {
		return PortfolioResult{}, err
	}

	trainReturns, err := allocation.Blend(train.Returns, cfg.Assets, weights)
	if err != nil {
		return PortfolioResult{}, err
	}
	testReturns, err := allocation.Blend(test.Returns, cfg.Assets, weights)
	if err != nil {
		return PortfolioResult{}, err
	}
	fullReturns, err := allocation.Blend(full.Returns, cfg.Assets, weights)
	if err != nil {
		return PortfolioResult{}, err
	}
	fullPrices, err := allocation.Blend(full.Prices, cfg.Assets, weights)
	if err != nil {
		return PortfolioResult{}, err
	}

	adf, err := s.tester.Test(trainReturns, cfg.ADFLags, cfg.Significance)
	if err != nil {
		return PortfolioResult{}, err
	}
	if !adf.IsStationary {
		s.log.Warn().
			Str("portfolio", spec.Name).
			Float64("p_value", adf.PValue).
			Msg("Unit root not rejected; review differencing orders")
	}

	result := PortfolioResult{
		Name:         spec.Name,
		Scheme:       spec.Scheme,
		Weights:      weights,
		TrainReturns: trainReturns,
		TestReturns:  testReturns,
		FullReturns:  fullReturns,
		FullPrices:   fullPrices,
		Stationarity: adf,
	}
	result.Models = s.fitCandidates(spec, trainReturns, testReturns, cfg)
	return result, nil
}

func (s *Study) solveWeights(scheme Scheme, model *riskmodel.Model) ([]float64, error) {
	switch scheme {
	case SchemeEqualWeight:
		return s.solver.EqualWeights(len(model.Assets)), nil
	case SchemeMinimumVariance:
		return s.solver.MinimumVarianceWeights(model.Cov)
	case SchemeMaximumSharpe:
		return s.solver.TangencyWeights(model.Cov, model.Means)
	default:
		return nil, fmt.Errorf("unknown scheme %q", scheme)
	}
}

// fitCandidates fits every candidate order for a portfolio. The fits are
// independent, so they fan out across workers and join at the end; one
// failed candidate never blocks the rest.
func (s *Study) fitCandidates(spec PortfolioSpec, trainReturns, testReturns []float64, cfg *Config) []ModelResult {
	orders := spec.orders()
	results := make([]ModelResult, len(orders))

	workers := s.maxWorkers
	if workers <= 1 {
		for i, order := range orders {
			results[i] = s.fitOne(spec.Name, order, trainReturns, testReturns, cfg)
		}
		return results
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, order := range orders {
		wg.Add(1)
		go func(i int, order arma.Order) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = s.fitOne(spec.Name, order, trainReturns, testReturns, cfg)
		}(i, order)
	}
	wg.Wait()
	return results
}

func (s *Study) fitOne(portfolio string, order arma.Order, trainReturns, testReturns []float64, cfg *Config) ModelResult {
	result := ModelResult{Order: order}

	fitted, err := s.fitter.Fit(trainReturns, order)
	if err != nil {
		s.log.Warn().Err(err).Str("portfolio", portfolio).Stringer("order", order).Msg("Model fit failed")
		result.Err = err.Error()
		return result
	}
	result.Model = fitted
	result.LjungBox = fitted.LjungBox(ljungBoxLags)

	fc, err := forecast.FromModel(fitted, cfg.Horizon, cfg.Confidence)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	result.Forecast = fc

	realized := testReturns[:cfg.Horizon]
	acc, err := evaluation.Evaluate(fitted, fc, realized)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	result.Accuracy = acc
	return result
}
