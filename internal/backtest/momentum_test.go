package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairlens/pairlens/internal/models"
)

func candlesFromCloses(symbol string, closes []float64) []models.Candle {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		d := decimal.NewFromFloat(c)
		out[i] = models.Candle{
			Symbol:    symbol,
			Interval:  "1h",
			OpenTime:  start.Add(time.Duration(i) * time.Hour),
			CloseTime: start.Add(time.Duration(i+1) * time.Hour),
			Open:      d,
			High:      d,
			Low:       d,
			Close:     d,
			Volume:    decimal.NewFromInt(1000),
		}
	}
	return out
}

// vShape builds a decline followed by a rally, repeated. The decline drives
// RSI below the threshold, the rally crosses it back up and keeps going, so
// each cycle produces one entry that reaches its take profit.
func vShape(cycles int) []float64 {
	closes := []float64{100}
	price := 100.0
	for c := 0; c < cycles; c++ {
		for i := 0; i < 25; i++ {
			price *= 0.995
			closes = append(closes, price)
		}
		for i := 0; i < 30; i++ {
			price *= 1.006
			closes = append(closes, price)
		}
	}
	return closes
}

func TestRunMomentumEntersOnRSICross(t *testing.T) {
	candles := candlesFromCloses("SOLUSDT", vShape(3))

	res := RunMomentum(candles, "SOLUSDT", DefaultMomentumConfig())

	require.GreaterOrEqual(t, res.Summary.TotalTrades, 2)
	first := res.Trades[0]
	assert.GreaterOrEqual(t, first.EntryRSI, 30.0)
	assert.Equal(t, ExitTakeProfit, first.ExitReason)
	assert.Greater(t, first.ProfitPercent, 0.0)
}

func TestRunMomentumNoOverlapAndCooldown(t *testing.T) {
	cfg := DefaultMomentumConfig()
	candles := candlesFromCloses("SOLUSDT", vShape(4))

	res := RunMomentum(candles, "SOLUSDT", cfg)
	require.GreaterOrEqual(t, len(res.Trades), 2)

	for i := 1; i < len(res.Trades); i++ {
		prev, cur := res.Trades[i-1], res.Trades[i]
		assert.Greater(t, cur.EntryIndex, prev.ExitIndex, "positions must not overlap")
		assert.Greater(t, cur.EntryIndex-prev.ExitIndex, cfg.CooldownBars, "cooldown gap enforced")
	}
}

func TestRunMomentumMaxHold(t *testing.T) {
	cfg := DefaultMomentumConfig()
	cfg.TakeProfitPercent = 50 // unreachable
	cfg.StopLossPercent = 50
	cfg.MaxHoldBars = 10

	candles := candlesFromCloses("SOLUSDT", vShape(2))
	res := RunMomentum(candles, "SOLUSDT", cfg)

	require.GreaterOrEqual(t, len(res.Trades), 1)
	for _, tr := range res.Trades[:len(res.Trades)-1] {
		assert.Equal(t, ExitMaxHold, tr.ExitReason)
		assert.Equal(t, 10, tr.DurationBars)
	}
}

func TestRunMomentumShortHistory(t *testing.T) {
	candles := candlesFromCloses("SOLUSDT", []float64{100, 101, 102})
	res := RunMomentum(candles, "SOLUSDT", DefaultMomentumConfig())
	assert.Equal(t, 0, res.Summary.TotalTrades)
	assert.Equal(t, []float64{0}, res.EquityCurve)
}

func TestRunMomentumEquityCurveShape(t *testing.T) {
	candles := candlesFromCloses("SOLUSDT", vShape(3))
	res := RunMomentum(candles, "SOLUSDT", DefaultMomentumConfig())

	assert.Equal(t, len(res.Trades)+1, len(res.EquityCurve))
	assert.Equal(t, 0.0, res.EquityCurve[0])
}

func TestRSISeries(t *testing.T) {
	// Monotonic rise pins RSI at 100; flat series stays neutral.
	rising := make([]float64, 40)
	flat := make([]float64, 40)
	for i := range rising {
		rising[i] = 100 + float64(i)
		flat[i] = 100
	}

	rsiUp := RSI(rising, 14)
	assert.InDelta(t, 100, rsiUp[len(rsiUp)-1], 1e-9)

	rsiFlat := RSI(flat, 14)
	assert.Equal(t, 50.0, rsiFlat[len(rsiFlat)-1])

	for _, v := range RSI(vShape(2), 14) {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
		assert.False(t, math.IsNaN(v))
	}
}

func TestRunStrategyDispatch(t *testing.T) {
	events := []int{160, 260}
	primary, secondary := pairSeries(0, 400, events)

	pairRun := RunStrategy(PairSpread{
		PrimarySymbol:   "BTCUSDT",
		SecondarySymbol: "ETHUSDT",
		Primary:         primary,
		Secondary:       secondary,
		Config:          DefaultConfig(),
	})
	assert.Equal(t, ModePairSpread, pairRun.Mode)
	require.NotNil(t, pairRun.Pair)
	assert.Nil(t, pairRun.Momentum)
	assert.Equal(t, pairRun.Pair.Summary, pairRun.Summary())

	momentumRun := RunStrategy(&MomentumRSI{
		Symbol:  "SOLUSDT",
		Candles: candlesFromCloses("SOLUSDT", vShape(3)),
		Config:  DefaultMomentumConfig(),
	})
	assert.Equal(t, ModeMomentumRSI, momentumRun.Mode)
	require.NotNil(t, momentumRun.Momentum)
	assert.Equal(t, momentumRun.Momentum.Summary, momentumRun.Summary())
	assert.NotEmpty(t, momentumRun.EquityCurve())
}
