// Package main is the entry point for the quantfolio study runner. It
// loads the study dataset, computes portfolio weights under the three
// allocation schemes, fits the declared ARMA candidates on each blended
// return series, forecasts the holdout horizon, and prints the comparison
// report.
package main

import (
	"os"

	"github.com/mkarag/quantfolio/internal/config"
	"github.com/mkarag/quantfolio/internal/database"
	"github.com/mkarag/quantfolio/internal/dataset"
	"github.com/mkarag/quantfolio/internal/modules/allocation"
	"github.com/mkarag/quantfolio/internal/modules/arma"
	"github.com/mkarag/quantfolio/internal/modules/calculations"
	"github.com/mkarag/quantfolio/internal/modules/riskmodel"
	"github.com/mkarag/quantfolio/internal/modules/stationarity"
	"github.com/mkarag/quantfolio/internal/study"
	"github.com/mkarag/quantfolio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.Pretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("study_file", cfg.StudyFile).Msg("Starting quantfolio")

	studyCfg, err := study.LoadConfig(cfg.StudyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load study definition")
	}

	// The calculation cache is optional; the pipeline runs fresh without it.
	var cache *calculations.Cache
	if cfg.CacheDB != "" {
		db, err := database.New(database.Config{Path: cfg.CacheDB, Name: "calculations"})
		if err != nil {
			log.Warn().Err(err).Msg("Calculation cache unavailable, continuing without it")
		} else {
			defer db.Close()
			cache, err = calculations.NewCache(db.Conn(), log)
			if err != nil {
				log.Warn().Err(err).Msg("Calculation cache unavailable, continuing without it")
				cache = nil
			}
		}
	}

	loader := dataset.NewLoader(log)
	ds, err := loader.Load(studyCfg.DataFile, studyCfg.Assets)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load dataset")
	}

	runner := study.New(
		riskmodel.NewBuilder(cache, log),
		allocation.NewSolver(log),
		stationarity.NewTester(log),
		arma.NewFitter(log),
		cfg.MaxWorkers,
		log,
	)

	report, err := runner.Run(ds, studyCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Study failed")
	}

	report.Render(os.Stdout)
}
