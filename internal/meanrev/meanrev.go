// Package meanrev decides whether the spread between two price series
// behaves like a stationary, mean-reverting process. Its verdict is the
// statistical gate for pair trading: a pair that fails here is not tradable
// no matter how extreme its current divergence looks.
package meanrev

import (
	"math"

	"github.com/pairlens/pairlens/internal/stats"
)

// Config holds the tunable parameters of the stationarity tests.
type Config struct {
	RollingBetaWindow    int     // trailing bars per hedge-ratio regression
	RollingBetaMinWindow int     // floor applied near the start of the series
	ADFCriticalValue     float64 // test passes when tStat < this (conventional 5% value)
	MinHalfLifeBars      float64
	MaxHalfLifeBars      float64
}

// DefaultConfig returns the standard test parameters.
func DefaultConfig() Config {
	return Config{
		RollingBetaWindow:    120,
		RollingBetaMinWindow: 40,
		ADFCriticalValue:     -2.86,
		MinHalfLifeBars:      2,
		MaxHalfLifeBars:      120,
	}
}

// minADFObservations is the smallest series the ADF regression accepts.
const minADFObservations = 20

// Hedge-ratio slope bounds. A near-zero beta produces a degenerate spread,
// so small magnitudes are pushed out to +/-0.05.
const (
	maxBeta      = 5.0
	minBetaFloor = 0.05
)

// ADFResult reports an Augmented Dickey-Fuller-style stationarity test.
type ADFResult struct {
	TStat         float64 `json:"t_stat"`
	CriticalValue float64 `json:"critical_value"`
	Passed        bool    `json:"passed"`
	Observations  int     `json:"observations"`
}

// Result is the combined stationarity verdict for a pair.
type Result struct {
	Beta           float64   `json:"beta"`   // latest rolling hedge ratio
	Spread         []float64 `json:"-"`      // per-bar beta-weighted log spread
	ADF            ADFResult `json:"adf"`
	Cointegration  ADFResult `json:"cointegration"`
	HalfLifeBars   float64   `json:"half_life_bars"`
	HalfLifePassed bool      `json:"half_life_passed"`

	// IsMeanReverting is true only when all three tests pass.
	IsMeanReverting bool `json:"is_mean_reverting"`
}

// RollingBeta computes a per-bar hedge ratio by regressing log(primary) on
// log(secondary) over a trailing window. Near the start of the series the
// window widens forward so every regression sees at least the configured
// minimum number of bars. Slopes are clamped to [-maxBeta, maxBeta] and
// floored away from zero.
func RollingBeta(primary, secondary []float64, cfg Config) []float64 {
	n := len(primary)
	if len(secondary) < n {
		n = len(secondary)
	}

	logP := make([]float64, n)
	logS := make([]float64, n)
	for i := 0; i < n; i++ {
		logP[i] = math.Log(math.Max(stats.Epsilon, primary[i]))
		logS[i] = math.Log(math.Max(stats.Epsilon, secondary[i]))
	}

	betas := make([]float64, n)
	for i := 0; i < n; i++ {
		start, end := i+1-cfg.RollingBetaWindow, i+1
		if start < 0 {
			start = 0
		}
		if end-start < cfg.RollingBetaMinWindow {
			start = 0
			end = cfg.RollingBetaMinWindow
			if end > n {
				end = n
			}
		}

		slope, _ := stats.LinearRegression(logS[start:end], logP[start:end])
		betas[i] = clampBeta(slope)
	}
	return betas
}

func clampBeta(b float64) float64 {
	if b > maxBeta {
		return maxBeta
	}
	if b < -maxBeta {
		return -maxBeta
	}
	if math.Abs(b) < minBetaFloor {
		if b < 0 {
			return -minBetaFloor
		}
		return minBetaFloor
	}
	return b
}

// BetaSpread computes the per-bar spread log(p[i]) - beta[i]*log(s[i]).
func BetaSpread(primary, secondary, betas []float64) []float64 {
	n := len(betas)
	if len(primary) < n {
		n = len(primary)
	}
	if len(secondary) < n {
		n = len(secondary)
	}

	spread := make([]float64, n)
	for i := 0; i < n; i++ {
		spread[i] = math.Log(math.Max(stats.Epsilon, primary[i])) -
			betas[i]*math.Log(math.Max(stats.Epsilon, secondary[i]))
	}
	return spread
}

// ADFTest regresses the first difference of series on its own lagged level
// and reports slope/stderr as the test statistic. Stationary series have a
// significantly negative slope. Short series report a failed test with a
// zero statistic rather than an error.
func ADFTest(series []float64, criticalValue float64) ADFResult {
	res := ADFResult{CriticalValue: criticalValue}
	if len(series) < minADFObservations {
		return res
	}

	n := len(series) - 1
	diff := make([]float64, n)
	lag := make([]float64, n)
	for i := 0; i < n; i++ {
		diff[i] = series[i+1] - series[i]
		lag[i] = series[i]
	}
	res.Observations = n

	slope, intercept := stats.LinearRegression(lag, diff)

	// Standard error of the slope from the regression residuals.
	meanLag := stats.Mean(lag)
	var ssr, varX float64
	for i := 0; i < n; i++ {
		resid := diff[i] - (intercept + slope*lag[i])
		ssr += resid * resid
		dx := lag[i] - meanLag
		varX += dx * dx
	}
	if varX < stats.Epsilon || n <= 2 {
		return res
	}

	se := math.Sqrt(ssr / float64(n-2) / varX)
	if se < stats.Epsilon {
		return res
	}

	t := slope / se
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return res
	}

	res.TStat = t
	res.Passed = t < criticalValue
	return res
}

// CointegrationTest regresses log(primary) on log(secondary) over the full
// sample and runs the ADF test on the residuals.
func CointegrationTest(primary, secondary []float64, criticalValue float64) ADFResult {
	n := len(primary)
	if len(secondary) < n {
		n = len(secondary)
	}
	if n < minADFObservations {
		return ADFResult{CriticalValue: criticalValue}
	}

	logP := make([]float64, n)
	logS := make([]float64, n)
	for i := 0; i < n; i++ {
		logP[i] = math.Log(math.Max(stats.Epsilon, primary[i]))
		logS[i] = math.Log(math.Max(stats.Epsilon, secondary[i]))
	}

	slope, intercept := stats.LinearRegression(logS, logP)

	residuals := make([]float64, n)
	for i := 0; i < n; i++ {
		residuals[i] = logP[i] - (intercept + slope*logS[i])
	}

	return ADFTest(residuals, criticalValue)
}

// HalfLife estimates the mean-reversion half-life of a spread in bars by
// regressing the first difference on the lagged level. A non-negative or
// negligible reversion speed yields +Inf.
func HalfLife(spread []float64) float64 {
	if len(spread) < minADFObservations {
		return math.Inf(1)
	}

	n := len(spread) - 1
	diff := make([]float64, n)
	lag := make([]float64, n)
	for i := 0; i < n; i++ {
		diff[i] = spread[i+1] - spread[i]
		lag[i] = spread[i]
	}

	lambda, _ := stats.LinearRegression(lag, diff)
	if lambda >= -stats.Epsilon {
		return math.Inf(1)
	}

	hl := -math.Ln2 / lambda
	if hl < 0 || math.IsNaN(hl) {
		return math.Inf(1)
	}
	return hl
}

// Analyze runs the full stationarity battery on an aligned pair and returns
// the spread series alongside the combined verdict.
func Analyze(primary, secondary []float64, cfg Config) Result {
	betas := RollingBeta(primary, secondary, cfg)
	spread := BetaSpread(primary, secondary, betas)

	res := Result{Spread: spread}
	if len(betas) > 0 {
		res.Beta = betas[len(betas)-1]
	}

	res.ADF = ADFTest(spread, cfg.ADFCriticalValue)
	res.Cointegration = CointegrationTest(primary, secondary, cfg.ADFCriticalValue)

	res.HalfLifeBars = HalfLife(spread)
	res.HalfLifePassed = res.HalfLifeBars >= cfg.MinHalfLifeBars &&
		res.HalfLifeBars <= cfg.MaxHalfLifeBars

	res.IsMeanReverting = res.ADF.Passed && res.Cointegration.Passed && res.HalfLifePassed
	return res
}
