// Package signal enriches a raw pair relationship with regime, quality and
// confluence classifications. All classifiers compare correlation strength
// (absolute value), so deepening anti-correlation counts as strengthening.
package signal

import (
	"math"

	"github.com/pairlens/pairlens/internal/stats"
)

// Regime classifies how a pair's correlation is evolving.
type Regime string

const (
	RegimeStrengthening Regime = "strengthening"
	RegimeRecovering    Regime = "recovering"
	RegimeWeakening     Regime = "weakening"
	RegimeBreakingDown  Regime = "breaking_down"
	RegimeStableStrong  Regime = "stable_strong"
	RegimeStableWeak    Regime = "stable_weak"
	RegimeStable        Regime = "stable"
)

// Correlation strength thresholds shared by the regime classifier.
const (
	strongCorrelation   = 0.7
	weakCorrelation     = 0.3
	velocityActivityMin = 0.01
)

// VelocityConfig controls the rolling-correlation velocity computation.
type VelocityConfig struct {
	Window   int // rolling correlation window in bars
	Lookback int // bars between velocity samples
}

// DefaultVelocityConfig returns the standard windows.
func DefaultVelocityConfig() VelocityConfig {
	return VelocityConfig{Window: 50, Lookback: 10}
}

// VelocityResult describes the motion of the pair's correlation.
type VelocityResult struct {
	Current      float64 `json:"current"`
	Previous     float64 `json:"previous"`
	Velocity     float64 `json:"velocity"`
	Acceleration float64 `json:"acceleration"`
	Regime       Regime  `json:"regime"`
}

// CorrelationVelocity computes a rolling Pearson correlation over the two
// return series and measures its rate of change. Series too short for a full
// window plus lookback report a stable regime with zero velocity.
func CorrelationVelocity(primaryReturns, secondaryReturns []float64, cfg VelocityConfig) VelocityResult {
	n := len(primaryReturns)
	if len(secondaryReturns) < n {
		n = len(secondaryReturns)
	}

	if cfg.Window < 2 || n < cfg.Window+cfg.Lookback {
		return VelocityResult{Regime: RegimeStable}
	}

	rolling := make([]float64, 0, n-cfg.Window+1)
	for i := cfg.Window; i <= n; i++ {
		rolling = append(rolling, stats.PearsonCorrelation(
			primaryReturns[i-cfg.Window:i], secondaryReturns[i-cfg.Window:i]))
	}

	last := len(rolling) - 1
	current := rolling[last]

	previous := current
	if last-cfg.Lookback >= 0 {
		previous = rolling[last-cfg.Lookback]
	}
	velocity := (current - previous) / float64(cfg.Lookback)

	acceleration := 0.0
	if last-2*cfg.Lookback >= 0 {
		older := rolling[last-2*cfg.Lookback]
		previousVelocity := (previous - older) / float64(cfg.Lookback)
		acceleration = (velocity - previousVelocity) / float64(cfg.Lookback)
	}

	return VelocityResult{
		Current:      current,
		Previous:     previous,
		Velocity:     velocity,
		Acceleration: acceleration,
		Regime:       DetermineRegime(current, velocity, previous),
	}
}

// DetermineRegime classifies the correlation's trajectory. Comparisons use
// the magnitude of correlation, not its sign.
func DetermineRegime(current, velocity, previous float64) Regime {
	strength := math.Abs(current)
	previousStrength := math.Abs(previous)

	if math.Abs(velocity) > velocityActivityMin {
		if strength > previousStrength {
			if strength >= strongCorrelation {
				return RegimeStrengthening
			}
			return RegimeRecovering
		}
		if strength <= weakCorrelation {
			return RegimeBreakingDown
		}
		return RegimeWeakening
	}

	switch {
	case strength >= strongCorrelation:
		return RegimeStableStrong
	case strength <= weakCorrelation:
		return RegimeStableWeak
	default:
		return RegimeStable
	}
}
