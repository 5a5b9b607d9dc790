package meanrev

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cointegratedPair builds a secondary random walk and a primary pinned to it
// through a strongly mean-reverting spread, so the stationarity battery has
// something real to detect.
func cointegratedPair(n int, theta, noise float64, seed int64) (primary, secondary []float64) {
	rng := rand.New(rand.NewSource(seed))

	secondary = make([]float64, n)
	primary = make([]float64, n)

	logS := math.Log(50.0)
	spread := 0.0
	for i := 0; i < n; i++ {
		logS += rng.NormFloat64() * 0.01
		spread += -theta*spread + rng.NormFloat64()*noise

		secondary[i] = math.Exp(logS)
		primary[i] = math.Exp(logS + spread + math.Log(2))
	}
	return primary, secondary
}

// divergentPair builds two independent random walks; their spread is itself
// a random walk and must fail the battery.
func divergentPair(n int, seed int64) (primary, secondary []float64) {
	rng := rand.New(rand.NewSource(seed))

	primary = make([]float64, n)
	secondary = make([]float64, n)
	logP, logS := math.Log(100.0), math.Log(50.0)
	for i := 0; i < n; i++ {
		logP += rng.NormFloat64() * 0.02
		logS += rng.NormFloat64() * 0.02
		primary[i] = math.Exp(logP)
		secondary[i] = math.Exp(logS)
	}
	return primary, secondary
}

func TestAnalyzeMeanRevertingPair(t *testing.T) {
	primary, secondary := cointegratedPair(400, 0.3, 0.01, 7)

	res := Analyze(primary, secondary, DefaultConfig())

	assert.True(t, res.ADF.Passed, "ADF t-stat %.3f", res.ADF.TStat)
	assert.True(t, res.Cointegration.Passed, "cointegration t-stat %.3f", res.Cointegration.TStat)
	assert.True(t, res.HalfLifePassed, "half-life %.1f bars", res.HalfLifeBars)
	assert.True(t, res.IsMeanReverting)

	assert.Less(t, res.HalfLifeBars, 20.0)
	assert.Greater(t, res.HalfLifeBars, 0.5)
	assert.InDelta(t, 1.0, res.Beta, 0.5)
}

func TestAnalyzeRandomWalkPairFails(t *testing.T) {
	primary, secondary := divergentPair(400, 11)

	res := Analyze(primary, secondary, DefaultConfig())
	assert.False(t, res.IsMeanReverting)
}

func TestADFTestTooShort(t *testing.T) {
	res := ADFTest([]float64{1, 2, 3}, -2.86)
	assert.False(t, res.Passed)
	assert.Equal(t, 0.0, res.TStat)
	assert.Equal(t, -2.86, res.CriticalValue)
}

func TestADFTestConstantSeries(t *testing.T) {
	series := make([]float64, 50)
	for i := range series {
		series[i] = 5
	}
	res := ADFTest(series, -2.86)
	assert.False(t, res.Passed)
	assert.False(t, math.IsNaN(res.TStat))
}

func TestHalfLifeKnownSpeed(t *testing.T) {
	// Deterministic AR(1) decay: s[t+1] = (1-theta) * s[t].
	theta := 0.2
	spread := make([]float64, 100)
	spread[0] = 1.0
	for i := 1; i < len(spread); i++ {
		spread[i] = (1 - theta) * spread[i-1]
	}

	hl := HalfLife(spread)
	assert.InDelta(t, math.Ln2/theta, hl, 0.2)
}

func TestHalfLifeNonReverting(t *testing.T) {
	// A steadily trending spread has no mean reversion.
	spread := make([]float64, 100)
	for i := range spread {
		spread[i] = float64(i) * 0.1
	}
	assert.True(t, math.IsInf(HalfLife(spread), 1))

	assert.True(t, math.IsInf(HalfLife([]float64{1, 2}), 1))
}

func TestRollingBetaClampAndFloor(t *testing.T) {
	primary, secondary := cointegratedPair(200, 0.3, 0.01, 3)
	betas := RollingBeta(primary, secondary, DefaultConfig())
	require.Len(t, betas, 200)

	for _, b := range betas {
		assert.LessOrEqual(t, math.Abs(b), maxBeta)
		assert.GreaterOrEqual(t, math.Abs(b), minBetaFloor)
	}
}

func TestRollingBetaWidensEarlyWindow(t *testing.T) {
	// The first bars regress over at least the minimum window, so early betas
	// should already be close to the true hedge ratio rather than degenerate.
	primary, secondary := cointegratedPair(200, 0.3, 0.005, 5)
	betas := RollingBeta(primary, secondary, DefaultConfig())
	assert.InDelta(t, betas[40], betas[0], 0.3)
}

func TestBetaSpreadLength(t *testing.T) {
	primary := []float64{100, 101, 102}
	secondary := []float64{50, 50.5, 51}
	betas := []float64{1, 1, 1}
	spread := BetaSpread(primary, secondary, betas)
	require.Len(t, spread, 3)
	assert.InDelta(t, math.Log(2), spread[0], 1e-9)
}
