package signal

import (
	"math"

	"github.com/pairlens/pairlens/internal/stats"
)

// Quality grades how trustworthy the current spread divergence is once each
// leg's recent volatility is taken into account.
type Quality string

const (
	QualityPremium          Quality = "premium"
	QualityStrong           Quality = "strong"
	QualityModerate         Quality = "moderate"
	QualityNoisy            Quality = "noisy"
	QualityWeak             Quality = "weak"
	QualityInsufficientData Quality = "insufficient_data"
)

// VolatilityConfig controls the volatility-adjusted spread computation.
type VolatilityConfig struct {
	Lookback int // trailing return bars per volatility estimate
}

// DefaultVolatilityConfig returns the standard lookback.
func DefaultVolatilityConfig() VolatilityConfig {
	return VolatilityConfig{Lookback: 20}
}

// signalStrengthCap keeps extreme z-scores from pinning the strength at 100.
const signalStrengthCap = 85.0

// VolatilityResult is the volatility-adjusted view of the current spread.
type VolatilityResult struct {
	RawZScore      float64 `json:"raw_zscore"`
	AdjustedZScore float64 `json:"adjusted_zscore"`
	PrimaryVol     float64 `json:"primary_vol"`
	SecondaryVol   float64 `json:"secondary_vol"`
	CombinedVol    float64 `json:"combined_vol"`
	SignalStrength float64 `json:"signal_strength"` // 0-100
	Quality        Quality `json:"quality"`
}

// VolatilityAdjustedSpread amplifies the spread z-score when both legs are
// quiet: a two-sigma divergence between calm series is a cleaner signal than
// the same divergence between noisy ones. The adjustment factor is
// 1 + 1/(1 + combinedVol*10), an empirically tuned constant preserved as-is.
func VolatilityAdjustedSpread(primary, secondary []float64, cfg VolatilityConfig) VolatilityResult {
	primaryReturns := stats.Returns(primary)
	secondaryReturns := stats.Returns(secondary)

	if cfg.Lookback < 2 || len(primaryReturns) < cfg.Lookback || len(secondaryReturns) < cfg.Lookback {
		return VolatilityResult{Quality: QualityInsufficientData}
	}

	primaryVol := stats.StdDev(tail(primaryReturns, cfg.Lookback))
	secondaryVol := stats.StdDev(tail(secondaryReturns, cfg.Lookback))
	combinedVol := math.Sqrt((primaryVol*primaryVol + secondaryVol*secondaryVol) / 2)

	raw := stats.ZScore(stats.Spread(primary, secondary)).ZScore
	adjusted := raw * (1 + 1/(1+combinedVol*10))

	strength := (1 - 1/(1+math.Abs(adjusted)*0.5)) * 100
	if strength > signalStrengthCap {
		strength = signalStrengthCap
	}

	return VolatilityResult{
		RawZScore:      raw,
		AdjustedZScore: adjusted,
		PrimaryVol:     primaryVol,
		SecondaryVol:   secondaryVol,
		CombinedVol:    combinedVol,
		SignalStrength: strength,
		Quality:        classifyQuality(adjusted, combinedVol),
	}
}

func classifyQuality(adjustedZ, combinedVol float64) Quality {
	absZ := math.Abs(adjustedZ)
	switch {
	case absZ >= 2 && combinedVol < 0.02:
		return QualityPremium
	case absZ >= 1.5 && combinedVol < 0.04:
		return QualityStrong
	case absZ >= 1.0:
		return QualityModerate
	case combinedVol > 0.05:
		return QualityNoisy
	default:
		return QualityWeak
	}
}

func tail(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
