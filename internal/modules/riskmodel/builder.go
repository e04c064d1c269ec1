// Package riskmodel assembles the asset-by-asset covariance matrix and
// mean-return vector that drive the weight solves.
package riskmodel

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/mkarag/quantfolio/internal/dataset"
	"github.com/mkarag/quantfolio/internal/modules/calculations"
	"github.com/mkarag/quantfolio/internal/modules/statistics"
)

// cachedModel holds covariance results for cache serialization.
type cachedModel struct {
	Cov   [][]float64 `json:"cov"`
	Means []float64   `json:"means"`
}

// valid reports whether the cached row carries an n-asset model with a
// square covariance matrix.
func (c cachedModel) valid(n int) bool {
	if len(c.Means) != n || len(c.Cov) != n {
		return false
	}
	for _, row := range c.Cov {
		if len(row) != n {
			return false
		}
	}
	return true
}

// Model pairs a covariance matrix with the mean-return vector it was built
// from. Both are positionally indexed against the asset order. Never
// mutated after construction; rebuilt when the training returns change.
type Model struct {
	Assets []string
	Cov    *mat.SymDense
	Means  []float64
}

// Builder builds covariance matrices from aligned return series.
type Builder struct {
	cache *calculations.Cache // optional
	log   zerolog.Logger
}

// NewBuilder creates a covariance builder. cache may be nil, in which case
// every build is computed fresh.
func NewBuilder(cache *calculations.Cache, log zerolog.Logger) *Builder {
	return &Builder{
		cache: cache,
		log:   log.With().Str("component", "risk_model").Logger(),
	}
}

// Build computes the sample covariance matrix and mean-return vector over
// the given (training) return series. Results are cached by content hash
// when a cache is configured.
func (b *Builder) Build(assets []string, returns map[string][]float64) (*Model, error) {
	n := len(assets)
	if n == 0 {
		return nil, fmt.Errorf("no assets provided")
	}

	periods := -1
	for _, asset := range assets {
		series, ok := returns[asset]
		if !ok {
			return nil, fmt.Errorf("missing return series for asset %s: %w", asset, dataset.ErrMisalignedSeries)
		}
		if periods == -1 {
			periods = len(series)
		} else if len(series) != periods {
			return nil, fmt.Errorf("return series for %s has %d periods, expected %d: %w", asset, len(series), periods, dataset.ErrMisalignedSeries)
		}
	}
	if periods < 2 {
		return nil, fmt.Errorf("need at least 2 periods to estimate covariance, got %d", periods)
	}

	key := hashReturns(assets, returns)
	var cached cachedModel
	if hit, err := b.cache.Get(key, calculations.DefaultTTL, &cached); err != nil {
		b.log.Warn().Err(err).Msg("Covariance cache lookup failed, recomputing")
	} else if hit {
		if cached.valid(n) {
			b.log.Debug().Str("key", key).Msg("Covariance cache hit")
			return modelFromCache(assets, cached), nil
		}
		b.log.Warn().Str("key", key).Msg("Discarding malformed cached risk model")
	}

	cov := mat.NewSymDense(n, nil)
	means := make([]float64, n)
	for i, a := range assets {
		means[i] = statistics.Mean(returns[a])
		for j := i; j < n; j++ {
			cov.SetSym(i, j, statistics.Covariance(returns[a], returns[assets[j]]))
		}
	}

	model := &Model{
		Assets: append([]string(nil), assets...),
		Cov:    cov,
		Means:  means,
	}

	if err := b.cache.Set(key, toCache(model)); err != nil {
		b.log.Warn().Err(err).Msg("Failed to store covariance in cache")
	}

	b.log.Debug().Int("assets", n).Int("periods", periods).Msg("Covariance matrix built")
	return model, nil
}

// hashReturns creates a deterministic cache key from the asset order and
// every value of every return series. Any change to the training window
// produces a new key.
func hashReturns(assets []string, returns map[string][]float64) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(assets, ",")))
	for _, asset := range assets {
		series := returns[asset]
		fmt.Fprintf(h, "|%s:%d|", asset, len(series))
		for _, v := range series {
			binary.Write(h, binary.LittleEndian, v)
		}
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func toCache(m *Model) cachedModel {
	n := len(m.Assets)
	cov := make([][]float64, n)
	for i := 0; i < n; i++ {
		cov[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			cov[i][j] = m.Cov.At(i, j)
		}
	}
	return cachedModel{Cov: cov, Means: append([]float64(nil), m.Means...)}
}

func modelFromCache(assets []string, c cachedModel) *Model {
	n := len(assets)
	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov.SetSym(i, j, c.Cov[i][j])
		}
	}
	return &Model{
		Assets: append([]string(nil), assets...),
		Cov:    cov,
		Means:  append([]float64(nil), c.Means...),
	}
}
