package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pairBar returns the two leg prices at absolute bar index i. Both legs share
// a common oscillation (keeping return correlation high) while the log spread
// carries a small sinusoid plus decaying divergence events at fixed indices,
// so entries appear at known places and nowhere else.
func pairBar(i int, events []int) (primary, secondary float64) {
	common := 0.02 * math.Sin(2*math.Pi*float64(i)/10)
	spread := 0.01 * math.Sin(2*math.Pi*float64(i)/20)

	for _, e := range events {
		if i >= e && i < e+15 {
			spread += 0.08 * math.Pow(0.65, float64(i-e))
		}
	}

	secondary = 50 * math.Exp(common)
	primary = 100 * math.Exp(common+spread)
	return primary, secondary
}

func pairSeries(from, to int, events []int) (primary, secondary []float64) {
	for i := from; i < to; i++ {
		p, s := pairBar(i, events)
		primary = append(primary, p)
		secondary = append(secondary, s)
	}
	return primary, secondary
}

func TestRunDetectsDivergenceEvents(t *testing.T) {
	events := []int{160, 260}
	primary, secondary := pairSeries(0, 400, events)

	res := Run(primary, secondary, "BTCUSDT", "ETHUSDT", DefaultConfig())

	require.GreaterOrEqual(t, res.Summary.TotalTrades, 2)
	assert.Greater(t, res.Correlation, 0.7)

	first := res.Trades[0]
	assert.Equal(t, ShortPrimary, first.Direction, "positive spread excursion implies short primary")
	assert.Equal(t, ExitTakeProfit, first.ExitReason)
	assert.InDelta(t, 160, first.EntryIndex, 1)
	assert.Greater(t, first.ProfitPercent, 0.0)
	assert.Greater(t, first.EntryZScore, 2.0)
}

func TestRunShiftInvariance(t *testing.T) {
	// Prefixing warm-up bars must not change what the trailing windows see:
	// the same tail data has to produce the same trades.
	events := []int{160, 260}
	fullP, fullS := pairSeries(0, 400, events)
	tailP, tailS := pairSeries(40, 400, events)

	full := Run(fullP, fullS, "A", "B", DefaultConfig())
	tail := Run(tailP, tailS, "A", "B", DefaultConfig())

	require.Greater(t, full.Summary.TotalTrades, 0)
	assert.Equal(t, full.Summary.TotalTrades, tail.Summary.TotalTrades)
	assert.InDelta(t, full.Summary.TotalProfitPercent, tail.Summary.TotalProfitPercent, 1e-9)
	assert.InDelta(t, full.Summary.WinRate, tail.Summary.WinRate, 1e-9)

	for i := range full.Trades {
		assert.Equal(t, full.Trades[i].EntryIndex-40, tail.Trades[i].EntryIndex)
		assert.InDelta(t, full.Trades[i].ProfitPercent, tail.Trades[i].ProfitPercent, 1e-9)
	}
}

func TestRunCorrelationGate(t *testing.T) {
	// Legs moving on unrelated cycles correlate weakly; the engine must
	// refuse to simulate rather than trade an unrelated pair.
	n := 300
	primary := make([]float64, n)
	secondary := make([]float64, n)
	for i := 0; i < n; i++ {
		primary[i] = 100 * math.Exp(0.03*math.Sin(2*math.Pi*float64(i)/7))
		secondary[i] = 50 * math.Exp(0.03*math.Sin(2*math.Pi*float64(i)/13+1))
	}

	res := Run(primary, secondary, "A", "B", DefaultConfig())
	assert.Equal(t, 0, res.Summary.TotalTrades)
	assert.Empty(t, res.Trades)
	assert.Equal(t, []float64{0}, res.EquityCurve)
}

func TestRunLengthGate(t *testing.T) {
	primary, secondary := pairSeries(0, RollingWindow+5, nil)
	res := Run(primary, secondary, "A", "B", DefaultConfig())
	assert.Equal(t, 0, res.Summary.TotalTrades)
}

func TestRunDirtyDataStaysFinite(t *testing.T) {
	events := []int{160, 260}
	primary, secondary := pairSeries(0, 400, events)
	primary[10] = math.NaN()
	primary[120] = 0
	secondary[200] = math.Inf(1)
	secondary[301] = -3

	res := Run(primary, secondary, "A", "B", DefaultConfig())

	assertFinite := func(name string, v float64) {
		assert.False(t, math.IsNaN(v), "%s is NaN", name)
	}
	assertFinite("total_profit", res.Summary.TotalProfitPercent)
	assertFinite("win_rate", res.Summary.WinRate)
	assertFinite("max_drawdown", res.Summary.MaxDrawdownPercent)
	for _, tr := range res.Trades {
		assertFinite("trade profit", tr.ProfitPercent)
		assert.False(t, math.IsInf(tr.ProfitPercent, 0))
	}
	for _, v := range res.EquityCurve {
		assertFinite("equity point", v)
	}
}

func TestRunEquityCurveShape(t *testing.T) {
	primary, secondary := pairSeries(0, 400, []int{160, 260})
	res := Run(primary, secondary, "A", "B", DefaultConfig())

	require.Equal(t, len(res.Trades)+1, len(res.EquityCurve))
	assert.Equal(t, 0.0, res.EquityCurve[0])
	assert.InDelta(t, res.Summary.TotalProfitPercent, res.EquityCurve[len(res.EquityCurve)-1], 1e-9)
}

func TestRunEndOfDataClose(t *testing.T) {
	// Cut the series right after an event starts so the position cannot
	// resolve before data ends.
	primary, secondary := pairSeries(0, 303, []int{300})
	res := Run(primary, secondary, "A", "B", DefaultConfig())

	require.GreaterOrEqual(t, res.Summary.TotalTrades, 1)
	last := res.Trades[len(res.Trades)-1]
	assert.Equal(t, ExitEndOfData, last.ExitReason)
	assert.Equal(t, 302, last.ExitIndex)
}

func TestSummarizeProfitFactorEdgeCases(t *testing.T) {
	s := Summarize([]float64{2, 3})
	assert.True(t, math.IsInf(s.ProfitFactor, 1))
	assert.Equal(t, 100.0, s.WinRate)

	s = Summarize(nil)
	assert.Equal(t, 0.0, s.ProfitFactor)
	assert.Equal(t, 0, s.TotalTrades)
	assert.Equal(t, 0, s.WinningTrades)
	assert.Equal(t, 0.0, s.TotalProfitPercent)

	s = Summarize([]float64{4, -2, 2, -2})
	assert.InDelta(t, 1.5, s.ProfitFactor, 1e-12)
	assert.Equal(t, 2, s.WinningTrades)
	assert.Equal(t, 2, s.LosingTrades)
	assert.Equal(t, 4.0, s.LargestWinPercent)
	assert.Equal(t, -2.0, s.LargestLossPercent)
}

func TestMaxDrawdown(t *testing.T) {
	curve := []float64{0, 5, 3, 8, 2, 4}
	assert.Equal(t, 6.0, MaxDrawdown(curve))
	assert.Equal(t, 0.0, MaxDrawdown([]float64{0, 1, 2}))
	assert.Equal(t, 0.0, MaxDrawdown(nil))
}

func TestEquityCurve(t *testing.T) {
	curve := EquityCurve([]float64{1, -0.5, 2})
	assert.Equal(t, []float64{0, 1, 0.5, 2.5}, curve)
	assert.Equal(t, []float64{0}, EquityCurve(nil))
}
