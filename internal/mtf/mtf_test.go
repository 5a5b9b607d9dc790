package mtf

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pairlens/pairlens/internal/analysis"
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

func TestIntervalWeightNativeTable(t *testing.T) {
	assert.Equal(t, 0.5, IntervalWeight("1m"))
	assert.Equal(t, 0.7, IntervalWeight("5m"))
	assert.Equal(t, 0.83, IntervalWeight("15m"))
	assert.Equal(t, 0.92, IntervalWeight("30m"))
	assert.Equal(t, 1.0, IntervalWeight("1h"))
}

func TestIntervalWeightInterpolation(t *testing.T) {
	// 10m interpolates logarithmically between 1m=0.5 and 60m=1.0.
	expected := 0.5 + 0.5*math.Log(10)/math.Log(60)
	assert.InDelta(t, expected, IntervalWeight("10m"), 1e-9)

	// Above an hour clamps at 1.0; below a minute floor at 0.5.
	assert.Equal(t, 1.0, IntervalWeight("4h"))
	assert.Equal(t, 1.0, IntervalWeight("1d"))

	// Unparsable intervals take the midpoint.
	assert.Equal(t, 0.75, IntervalWeight("fortnight"))
}

func TestAgreementTransform(t *testing.T) {
	assert.Equal(t, 1.0, agreement([]float64{0.5, 0.5, 0.5}))
	assert.Equal(t, 0.0, agreement([]float64{0, 10, 0, 10}))
	assert.Greater(t, agreement([]float64{0.5, 0.6, 0.55}), 0.9)
	assert.Equal(t, 1.0, agreement([]float64{0.3}))
}

func TestDataQualityPenalty(t *testing.T) {
	assert.Equal(t, 20.0, dataQualityPenalty([]int{90, 90, 90, 85}))
	assert.Equal(t, 0.0, dataQualityPenalty([]int{90, 90, 85, 85}), "only two identical")
	assert.Equal(t, 0.0, dataQualityPenalty([]int{40, 40, 40, 40}), "identical but average below 80")
	assert.Equal(t, 0.0, dataQualityPenalty([]int{90, 90}))
}

func TestMajorityDirection(t *testing.T) {
	dir, count, share := majorityDirection(map[signal.Direction]int{
		signal.DirectionShortSpread: 3,
		signal.DirectionLongSpread:  1,
	})
	assert.Equal(t, signal.DirectionShortSpread, dir)
	assert.Equal(t, 3, count)
	assert.InDelta(t, 0.75, share, 1e-12)

	// A split vote below the 0.6 share is not aligned.
	dir, _, share = majorityDirection(map[signal.Direction]int{
		signal.DirectionShortSpread: 1,
		signal.DirectionLongSpread:  1,
	})
	assert.Equal(t, signal.DirectionNeutral, dir)
	assert.Equal(t, 0.5, share)

	dir, count, share = majorityDirection(map[signal.Direction]int{})
	assert.Equal(t, signal.DirectionNeutral, dir)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0.0, share)
}

func TestAnalyzeRollsUpIntervals(t *testing.T) {
	a := analysis.NewAnalyzer(analysis.DefaultOptions(), nil, zap.NewNop())

	series := make([]IntervalSeries, 0, 3)
	for i, interval := range []string{"5m", "15m", "1h"} {
		p, c := revertingPair(400, int64(7+i))
		series = append(series, IntervalSeries{Interval: interval, Primary: p, Candidate: c})
	}

	res := Analyze(a, "BTCUSDT", "ETHUSDT", series)

	require.Len(t, res.Intervals, 3)
	assert.GreaterOrEqual(t, res.Score, 0.0)
	assert.LessOrEqual(t, res.Score, 100.0)
	assert.NotEmpty(t, res.BestInterval)
	assert.NotEmpty(t, res.WorstInterval)
	assert.Contains(t, []Confidence{ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceMixed}, res.Confidence)

	// Weights must come from the interval table.
	for _, ir := range res.Intervals {
		assert.Equal(t, IntervalWeight(ir.Interval), ir.Weight)
	}
}

func TestAnalyzeEmptySeries(t *testing.T) {
	a := analysis.NewAnalyzer(analysis.DefaultOptions(), nil, zap.NewNop())
	res := Analyze(a, "BTCUSDT", "ETHUSDT", nil)
	assert.Equal(t, ConfidenceMixed, res.Confidence)
	assert.Equal(t, 0.0, res.Score)
}
