package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoad(t *testing.T) {
	csv := "date,A_price,A_return,B_price,B_return\n"
	for i := 0; i < 20; i++ {
		csv += fmt.Sprintf("2024-%02d,%f,%f,%f,%f\n", i+1, 100+float64(i), 0.001, 50+float64(i), -0.002)
	}
	path := writeCSV(t, csv)

	ds, err := NewLoader(zerolog.Nop()).Load(path, []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, ds.Assets)
	assert.Len(t, ds.Periods, 20)
	assert.InDelta(t, 100.0, ds.Prices["A"][0], 1e-9)
	assert.InDelta(t, -0.002, ds.Returns["B"][19], 1e-9)
}

func TestLoad_MissingColumn(t *testing.T) {
	path := writeCSV(t, "date,A_price,A_return\n2024-01,100,0.001\n")

	_, err := NewLoader(zerolog.Nop()).Load(path, []string{"A", "B"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "B_price")
}

func TestLoad_MissingPeriodColumn(t *testing.T) {
	path := writeCSV(t, "period,A_price,A_return\n2024-01,100,0.001\n")

	_, err := NewLoader(zerolog.Nop()).Load(path, []string{"A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date")
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := NewLoader(zerolog.Nop()).Load("/nonexistent/data.csv", []string{"A"})
	require.Error(t, err)
}
