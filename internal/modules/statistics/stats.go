// Package statistics provides the sample statistics used across the
// allocation and modeling pipeline.
package statistics

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Variance(data, nil)
}

// Covariance calculates the sample covariance between two datasets
func Covariance(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// Correlation calculates the Pearson correlation coefficient between two datasets
func Correlation(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 || len(x) != len(y) {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// ACF computes the sample autocorrelation function up to maxLag.
// The returned slice has maxLag+1 entries; index 0 is always 1.
func ACF(data []float64, maxLag int) []float64 {
	n := len(data)
	if n == 0 || maxLag < 0 {
		return nil
	}
	if maxLag >= n {
		maxLag = n - 1
	}

	mean := Mean(data)
	var denom float64
	for _, v := range data {
		d := v - mean
		denom += d * d
	}

	acf := make([]float64, maxLag+1)
	acf[0] = 1
	if denom == 0 {
		return acf
	}
	for k := 1; k <= maxLag; k++ {
		var num float64
		for t := 0; t < n-k; t++ {
			num += (data[t] - mean) * (data[t+k] - mean)
		}
		acf[k] = num / denom
	}
	return acf
}

// PACF computes the sample partial autocorrelation function up to maxLag
// via the Levinson-Durbin recursion. Index 0 is always 1.
func PACF(data []float64, maxLag int) []float64 {
	acf := ACF(data, maxLag)
	if acf == nil {
		return nil
	}
	maxLag = len(acf) - 1

	pacf := make([]float64, maxLag+1)
	pacf[0] = 1
	if maxLag == 0 {
		return pacf
	}

	phi := make([]float64, maxLag+1)
	prev := make([]float64, maxLag+1)
	phi[1] = acf[1]
	pacf[1] = acf[1]
	v := 1 - acf[1]*acf[1]

	for k := 2; k <= maxLag; k++ {
		if v <= 0 {
			break
		}
		copy(prev, phi)
		num := acf[k]
		for j := 1; j < k; j++ {
			num -= prev[j] * acf[k-j]
		}
		lambda := num / v
		phi[k] = lambda
		for j := 1; j < k; j++ {
			phi[j] = prev[j] - lambda*prev[k-j]
		}
		pacf[k] = lambda
		v *= 1 - lambda*lambda
	}
	return pacf
}

// YuleWalker estimates AR(order) coefficients from the sample
// autocorrelations using the Levinson-Durbin recursion. Returns nil when
// the recursion degenerates or the inputs are inconsistent.
func YuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	phi := make([]float64, order)
	phi[0] = acf[1]
	if order == 1 {
		return phi
	}

	v := 1 - phi[0]*phi[0]
	for i := 1; i < order; i++ {
		if v <= 0 {
			return nil
		}
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		lambda /= v

		next := make([]float64, i+1)
		for j := 0; j < i; j++ {
			next[j] = phi[j] - lambda*phi[i-1-j]
		}
		next[i] = lambda
		copy(phi, next)

		v *= 1 - lambda*lambda
	}
	return phi
}

// LjungBoxResult holds the portmanteau test outcome for a residual series.
type LjungBoxResult struct {
	Statistic float64
	PValue    float64
	Lags      int
	DF        int
}

// LjungBox runs the Ljung-Box portmanteau test for autocorrelation in a
// residual series. fittedParams is subtracted from the lag count to obtain
// the chi-squared degrees of freedom (p+q for an ARMA fit).
func LjungBox(residuals []float64, lags, fittedParams int) LjungBoxResult {
	n := len(residuals)
	if n == 0 || lags <= 0 {
		return LjungBoxResult{PValue: 1, Lags: lags}
	}
	if lags >= n {
		lags = n - 1
	}

	acf := ACF(residuals, lags)
	q := 0.0
	for k := 1; k <= lags; k++ {
		q += acf[k] * acf[k] / float64(n-k)
	}
	q *= float64(n) * float64(n+2)

	df := lags - fittedParams
	if df < 1 {
		df = 1
	}

	dist := distuv.ChiSquared{K: float64(df)}
	p := 1 - dist.CDF(q)
	if math.IsNaN(p) {
		p = 1
	}

	return LjungBoxResult{Statistic: q, PValue: p, Lags: lags, DF: df}
}
