package signal

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetermineRegimeUsesStrengthNotSign(t *testing.T) {
	cases := []struct {
		name                        string
		current, velocity, previous float64
		want                        Regime
	}{
		{"anti-correlation retreating", -0.6, 0.03, -0.9, RegimeWeakening},
		{"strength collapsed", -0.2, 0.04, -0.6, RegimeBreakingDown},
		{"anti-correlation deepening", -0.85, -0.02, -0.7, RegimeStrengthening},
		{"positive strengthening", 0.8, 0.02, 0.6, RegimeStrengthening},
		{"recovering below strong", 0.5, 0.02, 0.3, RegimeRecovering},
		{"stable strong", 0.9, 0.001, 0.9, RegimeStableStrong},
		{"stable weak", 0.1, 0.0, 0.1, RegimeStableWeak},
		{"stable middle", 0.5, 0.005, 0.5, RegimeStable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetermineRegime(tc.current, tc.velocity, tc.previous))
		})
	}
}

func TestCorrelationVelocityInsufficientData(t *testing.T) {
	short := []float64{0.01, -0.02, 0.03}
	res := CorrelationVelocity(short, short, DefaultVelocityConfig())
	assert.Equal(t, RegimeStable, res.Regime)
	assert.Equal(t, 0.0, res.Velocity)
}

func TestCorrelationVelocityTracksCorrelatedSeries(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	n := 120
	a := make([]float64, n)
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		shared := rng.NormFloat64()
		a[i] = shared + rng.NormFloat64()*0.05
		b[i] = shared + rng.NormFloat64()*0.05
	}

	res := CorrelationVelocity(a, b, DefaultVelocityConfig())
	assert.Greater(t, res.Current, 0.9)
	assert.InDelta(t, 0, res.Velocity, 0.05)
}

func TestVolatilityAdjustedSpreadInsufficientData(t *testing.T) {
	res := VolatilityAdjustedSpread([]float64{100, 101}, []float64{50, 51}, DefaultVolatilityConfig())
	assert.Equal(t, QualityInsufficientData, res.Quality)
	assert.Equal(t, 0.0, res.AdjustedZScore)
}

func TestVolatilityAdjustedSpreadAmplifiesCalmDivergence(t *testing.T) {
	n := 60
	primary := make([]float64, n)
	secondary := make([]float64, n)
	for i := 0; i < n; i++ {
		primary[i] = 100
		secondary[i] = 50
	}
	// Flat histories, then the primary leg jumps away.
	primary[n-1] = 106

	res := VolatilityAdjustedSpread(primary, secondary, DefaultVolatilityConfig())
	assert.Greater(t, res.RawZScore, 0.0)
	assert.Greater(t, math.Abs(res.AdjustedZScore), math.Abs(res.RawZScore))
	// Adjustment factor is bounded by 2x.
	assert.LessOrEqual(t, math.Abs(res.AdjustedZScore), 2*math.Abs(res.RawZScore)+1e-9)
}

func TestSignalStrengthCap(t *testing.T) {
	// (1 - 1/(1+|z|*0.5))*100 approaches 100 for huge z; cap holds it at 85.
	n := 80
	primary := make([]float64, n)
	secondary := make([]float64, n)
	for i := 0; i < n; i++ {
		primary[i] = 100 + 0.001*float64(i%2)
		secondary[i] = 50
	}
	primary[n-1] = 140

	res := VolatilityAdjustedSpread(primary, secondary, DefaultVolatilityConfig())
	assert.LessOrEqual(t, res.SignalStrength, 85.0)
}

func TestClassifyQuality(t *testing.T) {
	assert.Equal(t, QualityPremium, classifyQuality(2.5, 0.01))
	assert.Equal(t, QualityStrong, classifyQuality(1.7, 0.03))
	assert.Equal(t, QualityModerate, classifyQuality(1.2, 0.06))
	assert.Equal(t, QualityNoisy, classifyQuality(0.4, 0.08))
	assert.Equal(t, QualityWeak, classifyQuality(0.4, 0.01))
}

func TestConfluenceRatingAndDirection(t *testing.T) {
	res := Confluence(2.4, RegimeStrengthening, QualityPremium)
	assert.Equal(t, 3, res.Rating)
	assert.Equal(t, DirectionShortSpread, res.Direction)
	assert.True(t, res.Actionable())

	res = Confluence(-2.4, RegimeWeakening, QualityStrong)
	assert.Equal(t, 2, res.Rating)
	assert.Equal(t, DirectionLongSpread, res.Direction)
	assert.True(t, res.Actionable())

	res = Confluence(0.5, RegimeStable, QualityWeak)
	assert.Equal(t, 0, res.Rating)
	assert.Equal(t, DirectionNeutral, res.Direction)
	assert.False(t, res.Actionable())
}
