package allocation

import (
	"fmt"

	"github.com/mkarag/quantfolio/internal/dataset"
)

// Blend applies a frozen weight vector to per-asset series, producing the
// blended portfolio series: out[t] = Σ_i weights[i] * series[assets[i]][t].
// The same weights are applied to the train, test, and full windows; they
// are never refit on holdout data.
func Blend(seriesByAsset map[string][]float64, assets []string, weights []float64) ([]float64, error) {
	if len(assets) != len(weights) {
		return nil, fmt.Errorf("%d assets but %d weights: %w", len(assets), len(weights), dataset.ErrMisalignedSeries)
	}
	if len(assets) == 0 {
		return []float64{}, nil
	}

	first, ok := seriesByAsset[assets[0]]
	if !ok {
		return nil, fmt.Errorf("missing series for asset %s: %w", assets[0], dataset.ErrMisalignedSeries)
	}
	n := len(first)
	for _, asset := range assets {
		series, ok := seriesByAsset[asset]
		if !ok {
			return nil, fmt.Errorf("missing series for asset %s: %w", asset, dataset.ErrMisalignedSeries)
		}
		if len(series) != n {
			return nil, fmt.Errorf("series for %s has %d periods, expected %d: %w", asset, len(series), n, dataset.ErrMisalignedSeries)
		}
	}

	out := make([]float64, n)
	for i, asset := range assets {
		series := seriesByAsset[asset]
		w := weights[i]
		for t := 0; t < n; t++ {
			out[t] += w * series[t]
		}
	}
	return out, nil
}
