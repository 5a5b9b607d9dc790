package analysis

import (
	"fmt"
	"math"

	"github.com/pairlens/pairlens/internal/signal"
)

// buildNotes renders human-readable observations from the computed signals.
// Thresholds mirror the classifiers: z at 1 and 2 sigma, correlation at 0.4
// and 0.7, a 2x imbalance warning between the legs' volatilities.
func buildNotes(res *Result) []string {
	notes := make([]string, 0, 6)

	absZ := math.Abs(res.SpreadZScore)
	switch {
	case absZ > 2:
		dir := "below"
		if res.SpreadZScore > 0 {
			dir = "above"
		}
		notes = append(notes, fmt.Sprintf("Spread stretched %.1f sigma %s its mean: strong reversion setup", absZ, dir))
	case absZ > 1:
		notes = append(notes, fmt.Sprintf("Spread %.1f sigma from mean: divergence building", absZ))
	}

	absCorr := math.Abs(res.Correlation)
	switch {
	case absCorr >= 0.7:
		notes = append(notes, fmt.Sprintf("Strong return correlation (%.2f)", res.Correlation))
	case absCorr < 0.4:
		notes = append(notes, fmt.Sprintf("Weak return correlation (%.2f): pair relationship is loose", res.Correlation))
	}

	switch res.Velocity.Regime {
	case signal.RegimeStrengthening:
		notes = append(notes, "Correlation regime strengthening")
	case signal.RegimeRecovering:
		notes = append(notes, "Correlation recovering after a weak stretch")
	case signal.RegimeWeakening:
		notes = append(notes, "Correlation weakening: relationship losing grip")
	case signal.RegimeBreakingDown:
		notes = append(notes, "Correlation breaking down: pair may be decoupling")
	}

	switch res.Volatility.Quality {
	case signal.QualityPremium:
		notes = append(notes, "Premium signal: large divergence with both legs quiet")
	case signal.QualityStrong:
		notes = append(notes, "Strong volatility-adjusted signal")
	case signal.QualityNoisy:
		notes = append(notes, "Noisy legs: divergence may be volatility, not signal")
	}

	pv, sv := res.Volatility.PrimaryVol, res.Volatility.SecondaryVol
	if pv > 0 && sv > 0 {
		if pv > 2*sv {
			notes = append(notes, fmt.Sprintf("%s volatility is over 2x %s: spread moves dominated by one leg", res.PrimarySymbol, res.Symbol))
		} else if sv > 2*pv {
			notes = append(notes, fmt.Sprintf("%s volatility is over 2x %s: spread moves dominated by one leg", res.Symbol, res.PrimarySymbol))
		}
	}

	if !res.Stationarity.IsMeanReverting {
		notes = append(notes, "Stationarity gate failed: pair is not statistically mean-reverting, score forced to 0")
	}

	return notes
}
