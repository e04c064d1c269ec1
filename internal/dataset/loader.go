package dataset

import (
	"fmt"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/rs/zerolog"
)

// Column naming convention for the study CSV: one period identifier column
// plus "<asset>_price" and "<asset>_return" per asset.
const periodColumn = "date"

// Loader reads study datasets from CSV files.
type Loader struct {
	log zerolog.Logger
}

// NewLoader creates a new dataset loader.
func NewLoader(log zerolog.Logger) *Loader {
	return &Loader{log: log.With().Str("component", "dataset_loader").Logger()}
}

// Load reads the CSV at path and extracts aligned price and return series
// for the given assets, in the given order.
func (l *Loader) Load(path string, assets []string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f)
	if df.Error() != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", path, df.Error())
	}

	have := make(map[string]bool, len(df.Names()))
	for _, name := range df.Names() {
		have[name] = true
	}
	if !have[periodColumn] {
		return nil, fmt.Errorf("dataset %s is missing the %q column", path, periodColumn)
	}

	ds := &Dataset{
		Assets:  append([]string(nil), assets...),
		Periods: df.Col(periodColumn).Records(),
		Prices:  make(map[string][]float64, len(assets)),
		Returns: make(map[string][]float64, len(assets)),
	}

	for _, asset := range assets {
		priceCol := asset + "_price"
		returnCol := asset + "_return"
		if !have[priceCol] {
			return nil, fmt.Errorf("dataset %s is missing column %q", path, priceCol)
		}
		if !have[returnCol] {
			return nil, fmt.Errorf("dataset %s is missing column %q", path, returnCol)
		}
		ds.Prices[asset] = df.Col(priceCol).Float()
		ds.Returns[asset] = df.Col(returnCol).Float()
	}

	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("dataset %s failed validation: %w", path, err)
	}

	l.log.Debug().
		Int("periods", len(ds.Periods)).
		Int("assets", len(ds.Assets)).
		Str("path", path).
		Msg("Dataset loaded")

	return ds, nil
}
