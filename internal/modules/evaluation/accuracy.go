// Package evaluation scores forecasts against realized out-of-sample
// values and the training fit against its own residuals.
package evaluation

import (
	"errors"
	"fmt"
	"math"

	"github.com/mkarag/quantfolio/internal/modules/arma"
	"github.com/mkarag/quantfolio/internal/modules/forecast"
)

// ErrLengthMismatch indicates a realized slice whose length differs from
// the forecast horizon.
var ErrLengthMismatch = errors.New("realized slice length does not match forecast horizon")

// Accuracy holds error statistics for a fitted model, split by segment.
// Training values come from the in-sample residuals; test values compare
// the forecast against the realized holdout slice.
type Accuracy struct {
	TrainRMSE float64
	TrainMAE  float64
	TestRMSE  float64
	TestMAE   float64
	TestMAPE  float64 // NaN when any realized value is zero
}

// Evaluate computes the accuracy report for a model and its forecast.
func Evaluate(model *arma.Model, fc *forecast.Forecast, realized []float64) (Accuracy, error) {
	if len(realized) != fc.Horizon {
		return Accuracy{}, fmt.Errorf("%d realized values for horizon %d: %w", len(realized), fc.Horizon, ErrLengthMismatch)
	}

	residuals := model.Residuals()
	acc := Accuracy{
		TrainRMSE: RMSE(residuals, make([]float64, len(residuals))),
		TrainMAE:  MAE(residuals, make([]float64, len(residuals))),
		TestRMSE:  RMSE(fc.Mean, realized),
		TestMAE:   MAE(fc.Mean, realized),
		TestMAPE:  MAPE(fc.Mean, realized),
	}
	return acc, nil
}

// RMSE is sqrt(mean((forecast_i - realized_i)²)). Inputs must be equal
// length; callers validate via Evaluate.
func RMSE(forecasts, realized []float64) float64 {
	n := len(forecasts)
	if n == 0 {
		return 0
	}
	var sum float64
	for i := range forecasts {
		d := forecasts[i] - realized[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

// MAE is mean(|forecast_i - realized_i|).
func MAE(forecasts, realized []float64) float64 {
	n := len(forecasts)
	if n == 0 {
		return 0
	}
	var sum float64
	for i := range forecasts {
		sum += math.Abs(forecasts[i] - realized[i])
	}
	return sum / float64(n)
}

// MAPE is mean(|forecast_i - realized_i| / |realized_i|), expressed as a
// fraction. Returns NaN when any realized value is zero.
func MAPE(forecasts, realized []float64) float64 {
	n := len(forecasts)
	if n == 0 {
		return 0
	}
	var sum float64
	for i := range forecasts {
		if realized[i] == 0 {
			return math.NaN()
		}
		sum += math.Abs((forecasts[i] - realized[i]) / realized[i])
	}
	return sum / float64(n)
}
