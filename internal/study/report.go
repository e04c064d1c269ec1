package study

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Render writes the study report as tables: portfolio weights, the
// stationarity evidence, and per-model fit and accuracy statistics.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintf(w, "Study %s: %d periods, %d-step horizon, generated %s\n\n",
		r.RunID, r.Periods, r.Horizon, r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	r.renderWeights(w)
	fmt.Fprintln(w)
	r.renderStationarity(w)
	fmt.Fprintln(w)
	r.renderModels(w)
}

func (r *Report) renderWeights(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Portfolio Weights")

	header := table.Row{"Portfolio"}
	for _, asset := range r.Assets {
		header = append(header, asset)
	}
	header = append(header, "Sum")
	t.AppendHeader(header)

	for _, p := range r.Portfolios {
		row := table.Row{p.Name}
		sum := 0.0
		for _, weight := range p.Weights {
			row = append(row, fmt.Sprintf("%.4f", weight))
			sum += weight
		}
		row = append(row, fmt.Sprintf("%.4f", sum))
		t.AppendRow(row)
	}
	t.Render()
}

func (r *Report) renderStationarity(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Unit-Root Tests (training returns)")
	t.AppendHeader(table.Row{"Portfolio", "ADF Statistic", "P-Value", "Lags", "Stationary"})

	for _, p := range r.Portfolios {
		t.AppendRow(table.Row{
			p.Name,
			fmt.Sprintf("%.4f", p.Stationarity.Statistic),
			fmt.Sprintf("%.4f", p.Stationarity.PValue),
			p.Stationarity.Lags,
			p.Stationarity.IsStationary,
		})
	}
	t.Render()
}

func (r *Report) renderModels(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Model Fit and Forecast Accuracy")
	t.AppendHeader(table.Row{
		"Portfolio", "Model", "LogLik", "AIC", "LB p", "Train RMSE", "Train MAE", "Test RMSE", "Test MAE",
	})

	for _, p := range r.Portfolios {
		for _, m := range p.Models {
			if m.Failed() {
				t.AppendRow(table.Row{p.Name, m.Order.String(), "-", "-", "-", "-", "-", "-", m.Err})
				continue
			}
			t.AppendRow(table.Row{
				p.Name,
				m.Order.String(),
				fmt.Sprintf("%.3f", m.Model.LogLikelihood),
				fmt.Sprintf("%.3f", m.Model.AIC),
				fmt.Sprintf("%.3f", m.LjungBox.PValue),
				fmt.Sprintf("%.5f", m.Accuracy.TrainRMSE),
				fmt.Sprintf("%.5f", m.Accuracy.TrainMAE),
				fmt.Sprintf("%.5f", m.Accuracy.TestRMSE),
				fmt.Sprintf("%.5f", m.Accuracy.TestMAE),
			})
		}
	}
	t.Render()
}
