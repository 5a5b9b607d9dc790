package analysis

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pairlens/pairlens/internal/signal"
)

func revertingPair(n int, seed int64) (primary, candidate []float64) {
	rng := rand.New(rand.NewSource(seed))

	primary = make([]float64, n)
	candidate = make([]float64, n)
	logS := math.Log(40.0)
	spread := 0.0
	for i := 0; i < n; i++ {
		logS += rng.NormFloat64() * 0.01
		spread += -0.3*spread + rng.NormFloat64()*0.008
		candidate[i] = math.Exp(logS)
		primary[i] = math.Exp(logS + spread + math.Log(2.5))
	}
	return primary, candidate
}

func driftingPair(n int, seed int64) (primary, candidate []float64) {
	rng := rand.New(rand.NewSource(seed))

	primary = make([]float64, n)
	candidate = make([]float64, n)
	logP, logS := math.Log(90.0), math.Log(30.0)
	for i := 0; i < n; i++ {
		logP += rng.NormFloat64() * 0.02
		logS += rng.NormFloat64() * 0.02
		primary[i] = math.Exp(logP)
		candidate[i] = math.Exp(logS)
	}
	return primary, candidate
}

func TestAnalyzePairInsufficientData(t *testing.T) {
	a := NewAnalyzer(DefaultOptions(), nil, zap.NewNop())

	res := a.AnalyzePair([]float64{100}, []float64{50}, "BTCUSDT", "ETHUSDT")
	assert.Equal(t, 0, res.OpportunityScore)
	assert.Equal(t, 0.0, res.Correlation)
	require.Len(t, res.Notes, 1)
	assert.Contains(t, res.Notes[0], "Insufficient data")
	assert.Equal(t, signal.QualityInsufficientData, res.Volatility.Quality)
}

func TestStationarityGateDominates(t *testing.T) {
	a := NewAnalyzer(DefaultOptions(), nil, zap.NewNop())

	primary, candidate := driftingPair(400, 21)
	res := a.AnalyzePair(primary, candidate, "BTCUSDT", "DOGEUSDT")

	require.False(t, res.Stationarity.IsMeanReverting)
	assert.Equal(t, 0, res.OpportunityScore)
}

func TestMeanRevertingPairScoresAboveZero(t *testing.T) {
	a := NewAnalyzer(DefaultOptions(), nil, zap.NewNop())

	primary, candidate := revertingPair(400, 7)
	res := a.AnalyzePair(primary, candidate, "BTCUSDT", "ETHUSDT")

	require.True(t, res.Stationarity.IsMeanReverting,
		"synthetic cointegrated pair should pass the gate (ADF %.2f)", res.Stationarity.ADF.TStat)
	assert.Greater(t, res.OpportunityScore, 0)
	assert.LessOrEqual(t, res.OpportunityScore, 100)
	assert.Equal(t, MethodFallback, res.Reversion.Method)
}

func TestDirtyDataNeverProducesNaN(t *testing.T) {
	a := NewAnalyzer(DefaultOptions(), nil, zap.NewNop())

	primary, candidate := revertingPair(400, 13)
	for _, i := range []int{5, 60, 130, 200, 311} {
		primary[i] = math.NaN()
	}
	candidate[50] = 0
	candidate[90] = -4
	candidate[250] = math.Inf(1)

	res := a.AnalyzePair(primary, candidate, "BTCUSDT", "ETHUSDT")

	assert.Equal(t, 8, res.DroppedBars)
	for name, v := range map[string]float64{
		"correlation": res.Correlation,
		"spread_mean": res.SpreadMean,
		"spread_std":  res.SpreadStd,
		"zscore":      res.SpreadZScore,
		"beta":        res.Beta,
		"adjusted_z":  res.Volatility.AdjustedZScore,
		"probability": res.Reversion.Probability,
	} {
		assert.False(t, math.IsNaN(v), "%s is NaN", name)
		assert.False(t, math.IsInf(v, 0), "%s is Inf", name)
	}
}

type stubScorer struct {
	prob ReversionProbability
	note string
	ok   bool
}

func (s *stubScorer) Score(_ *Result) (ReversionProbability, []string, bool) {
	if !s.ok {
		return ReversionProbability{}, nil, false
	}
	return s.prob, []string{s.note}, true
}

func TestScorerCollaboratorIsPreferred(t *testing.T) {
	scorer := &stubScorer{
		prob: ReversionProbability{Probability: 0.9, LookaheadBars: 10, SampleSize: 48, Wins: 43, Method: MethodHistory},
		note: "43/48 historical excursions reverted within 10 bars",
		ok:   true,
	}
	a := NewAnalyzer(DefaultOptions(), scorer, zap.NewNop())

	primary, candidate := revertingPair(400, 7)
	res := a.AnalyzePair(primary, candidate, "BTCUSDT", "ETHUSDT")

	assert.Equal(t, MethodHistory, res.Reversion.Method)
	assert.Equal(t, 48, res.Reversion.SampleSize)
	assert.Contains(t, res.Notes[0], "historical excursions")
}

func TestScorerFallbackWhenNotReady(t *testing.T) {
	a := NewAnalyzer(DefaultOptions(), &stubScorer{ok: false}, zap.NewNop())

	primary, candidate := revertingPair(400, 7)
	res := a.AnalyzePair(primary, candidate, "BTCUSDT", "ETHUSDT")
	assert.Equal(t, MethodFallback, res.Reversion.Method)
}

func TestGateFailureCollapsesFallbackProbability(t *testing.T) {
	a := NewAnalyzer(DefaultOptions(), nil, zap.NewNop())

	primary, candidate := driftingPair(400, 33)
	res := a.AnalyzePair(primary, candidate, "BTCUSDT", "DOGEUSDT")

	// The 0.15 multiplier keeps failed-gate estimates near zero.
	assert.LessOrEqual(t, res.Reversion.Probability, 0.15)
}

func TestScanUniverseSortsByScore(t *testing.T) {
	a := NewAnalyzer(DefaultOptions(), nil, zap.NewNop())

	goodP, goodC := revertingPair(400, 7)
	badP, badC := driftingPair(400, 11)
	_ = badP

	results := a.ScanUniverse("BTCUSDT", goodP, []Candidate{
		{Symbol: "DOGEUSDT", Closes: badC},
		{Symbol: "ETHUSDT", Closes: goodC},
	})

	require.Len(t, results, 2)
	assert.GreaterOrEqual(t, results[0].OpportunityScore, results[1].OpportunityScore)
	assert.Equal(t, "ETHUSDT", results[0].Symbol)
}

func TestOptionsNormalizeDefaultsIndependently(t *testing.T) {
	opts := Options{}
	opts.Velocity.Window = 30 // partially specified

	a := NewAnalyzer(opts, nil, nil)
	assert.Equal(t, 30, a.opts.Velocity.Window)
	assert.Equal(t, 10, a.opts.Velocity.Lookback)
	assert.Equal(t, 120, a.opts.MeanRev.RollingBetaWindow)
	assert.Equal(t, -2.86, a.opts.MeanRev.ADFCriticalValue)
}
