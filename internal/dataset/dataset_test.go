package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticDataset(periods int) *Dataset {
	assets := []string{"A", "B"}
	ds := &Dataset{
		Assets:  assets,
		Periods: make([]string, periods),
		Prices:  make(map[string][]float64),
		Returns: make(map[string][]float64),
	}
	for i := 0; i < periods; i++ {
		ds.Periods[i] = "p" + string(rune('0'+i%10))
	}
	for _, a := range assets {
		prices := make([]float64, periods)
		returns := make([]float64, periods)
		for i := range prices {
			prices[i] = 100 + float64(i)
			returns[i] = 0.001 * float64(i%5)
		}
		ds.Prices[a] = prices
		ds.Returns[a] = returns
	}
	return ds
}

func TestSplitWindows(t *testing.T) {
	ds := syntheticDataset(40)
	require.NoError(t, ds.Validate())
	require.True(t, ds.CanSplit())

	train := ds.Train()
	test := ds.Test()
	full := ds.Full()

	assert.Equal(t, 40-HoldoutPeriods, train.Len())
	assert.Equal(t, HoldoutPeriods, test.Len())
	assert.Equal(t, 40, full.Len())

	// Train and test are contiguous and disjoint slices of the full view.
	assert.Equal(t, full.Returns["A"][:train.Len()], train.Returns["A"])
	assert.Equal(t, full.Returns["A"][train.Len():], test.Returns["A"])
}

func TestValidate_Misaligned(t *testing.T) {
	ds := syntheticDataset(30)
	ds.Returns["B"] = ds.Returns["B"][:29]

	err := ds.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMisalignedSeries)
}

func TestValidate_NonFiniteReturn(t *testing.T) {
	ds := syntheticDataset(30)
	ds.Returns["A"][3] = math.NaN()

	require.Error(t, ds.Validate())
}

func TestValidate_NonFinitePrice(t *testing.T) {
	// Unparseable CSV cells surface as NaN prices; they must not pass
	// validation and leak into the blended price series.
	ds := syntheticDataset(30)
	ds.Prices["B"][7] = math.NaN()
	require.Error(t, ds.Validate())

	ds = syntheticDataset(30)
	ds.Prices["A"][0] = math.Inf(1)
	require.Error(t, ds.Validate())
}

func TestLogReturns(t *testing.T) {
	prices := []float64{100, 110, 99}

	returns := LogReturns(prices)
	require.Len(t, returns, 2)
	assert.InDelta(t, math.Log(1.1), returns[0], 1e-12)
	assert.InDelta(t, math.Log(99.0/110.0), returns[1], 1e-12)

	assert.Empty(t, LogReturns([]float64{100}))
}
