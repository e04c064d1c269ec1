package study

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		DataFile:     "data.csv",
		Assets:       []string{"A", "B", "C", "D", "E"},
		Significance: 0.05,
		Horizon:      12,
		Confidence:   0.95,
		ADFLags:      -1,
		Portfolios: []PortfolioSpec{
			{Name: "equal", Scheme: SchemeEqualWeight, Orders: [][]int{{0, 0, 0}}},
			{Name: "minvar", Scheme: SchemeMinimumVariance, Orders: [][]int{{1, 0, 0}, {0, 0, 1}}},
			{Name: "sharpe", Scheme: SchemeMaximumSharpe, Orders: [][]int{{1, 0, 1}}},
		},
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestConfigValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"wrong universe size", func(c *Config) { c.Assets = c.Assets[:4] }},
		{"duplicate asset", func(c *Config) { c.Assets[1] = "A" }},
		{"empty asset", func(c *Config) { c.Assets[0] = "" }},
		{"zero horizon", func(c *Config) { c.Horizon = 0 }},
		{"horizon beyond holdout", func(c *Config) { c.Horizon = 13 }},
		{"bad significance", func(c *Config) { c.Significance = 1.5 }},
		{"bad confidence", func(c *Config) { c.Confidence = 0 }},
		{"no portfolios", func(c *Config) { c.Portfolios = nil }},
		{"unknown scheme", func(c *Config) { c.Portfolios[0].Scheme = "momentum" }},
		{"no orders", func(c *Config) { c.Portfolios[0].Orders = nil }},
		{"malformed order", func(c *Config) { c.Portfolios[0].Orders = [][]int{{1, 0}} }},
		{"unnamed portfolio", func(c *Config) { c.Portfolios[0].Name = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfig(t *testing.T) {
	raw := `
data_file: data/portfolio.csv
assets: [VTI, VEA, AGG, GLD, DBC]
portfolios:
  - name: equal_weight
    scheme: equal_weight
    orders: [[0, 0, 0], [1, 0, 0]]
  - name: minimum_variance
    scheme: minimum_variance
    orders: [[1, 0, 1]]
  - name: maximum_sharpe
    scheme: maximum_sharpe
    orders: [[0, 0, 1]]
`
	path := filepath.Join(t.TempDir(), "study.yml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "data/portfolio.csv", cfg.DataFile)
	assert.Len(t, cfg.Assets, 5)

	// Defaults applied when the file omits them.
	assert.Equal(t, 0.05, cfg.Significance)
	assert.Equal(t, 12, cfg.Horizon)
	assert.Equal(t, 0.95, cfg.Confidence)
	assert.Equal(t, -1, cfg.ADFLags)

	orders := cfg.Portfolios[0].orders()
	require.Len(t, orders, 2)
	assert.Equal(t, 1, orders[1].P)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig("/nonexistent/study.yml")
	require.Error(t, err)
}
