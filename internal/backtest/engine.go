// Package backtest replays trading strategies bar-by-bar over historical
// data. Two strategies share one trade/summary shape: the pair-spread
// mean-reversion engine and the momentum/RSI scanner variant.
package backtest

import (
	"math"
	"time"

	"github.com/pairlens/pairlens/internal/stats"
)

// RollingWindow is the trailing bar count for the entry z-score. The rolling
// computation depends only on this window, never on absolute array position.
const RollingWindow = 100

// minExtraBars is the cushion required beyond the rolling window before a
// simulation is worth running.
const minExtraBars = 10

// Config holds the pair-spread strategy parameters.
type Config struct {
	EntrySpreadThreshold float64 `json:"entry_spread_threshold" mapstructure:"entry_spread_threshold"`
	MinCorrelation       float64 `json:"min_correlation" mapstructure:"min_correlation"`
	TakeProfitPercent    float64 `json:"take_profit_percent" mapstructure:"take_profit_percent"`
	StopLossPercent      float64 `json:"stop_loss_percent" mapstructure:"stop_loss_percent"`
}

// DefaultConfig returns the standard pair-spread parameters.
func DefaultConfig() Config {
	return Config{
		EntrySpreadThreshold: 2.0,
		MinCorrelation:       0.7,
		TakeProfitPercent:    3.0,
		StopLossPercent:      2.0,
	}
}

// Direction says which leg the simulated position is long.
type Direction string

const (
	LongPrimary  Direction = "long_primary"  // long primary, short secondary
	ShortPrimary Direction = "short_primary" // short primary, long secondary
)

// ExitReason records why a position closed.
type ExitReason string

const (
	ExitTakeProfit ExitReason = "take_profit"
	ExitStopLoss   ExitReason = "stop_loss"
	ExitMaxHold    ExitReason = "max_hold"
	ExitEndOfData  ExitReason = "end_of_data"
)

// Trade is one simulated pair position, immutable once appended.
type Trade struct {
	EntryIndex       int        `json:"entry_index"`
	ExitIndex        int        `json:"exit_index"`
	EntryZScore      float64    `json:"entry_zscore"`
	ExitZScore       float64    `json:"exit_zscore"`
	EntryCorrelation float64    `json:"entry_correlation"`
	PrimaryEntry     float64    `json:"primary_entry"`
	PrimaryExit      float64    `json:"primary_exit"`
	SecondaryEntry   float64    `json:"secondary_entry"`
	SecondaryExit    float64    `json:"secondary_exit"`
	Direction        Direction  `json:"direction"`
	ProfitPercent    float64    `json:"profit_percent"`
	ExitReason       ExitReason `json:"exit_reason"`
	DurationBars     int        `json:"duration_bars"`
}

// Result is a completed pair-spread backtest.
type Result struct {
	PrimarySymbol   string    `json:"primary_symbol"`
	SecondarySymbol string    `json:"secondary_symbol"`
	Config          Config    `json:"config"`
	Trades          []Trade   `json:"trades"`
	Summary         Summary   `json:"summary"`
	EquityCurve     []float64 `json:"equity_curve"`
	Correlation     float64   `json:"correlation"`
	AlignedBars     int       `json:"aligned_bars"`
	CompletedAt     time.Time `json:"completed_at"`
}

// Run simulates the pair-spread mean-reversion strategy over two close-price
// series. Series are aligned first; the simulation only runs when the legs'
// return correlation meets the configured minimum and enough bars exist,
// otherwise an empty result is returned without trading.
func Run(primary, secondary []float64, primarySymbol, secondarySymbol string, cfg Config) *Result {
	aligned := stats.AlignSeries(primary, secondary, stats.DefaultAlignOptions())
	p, s := aligned.Primary, aligned.Secondary

	res := &Result{
		PrimarySymbol:   primarySymbol,
		SecondarySymbol: secondarySymbol,
		Config:          cfg,
		Trades:          []Trade{},
		AlignedBars:     len(p),
		CompletedAt:     time.Now().UTC(),
	}

	res.Correlation = stats.PearsonCorrelation(stats.Returns(p), stats.Returns(s))
	if len(p) < RollingWindow+minExtraBars || res.Correlation < cfg.MinCorrelation {
		res.Summary = Summarize(nil)
		res.EquityCurve = []float64{0}
		return res
	}

	spread := stats.Spread(p, s)

	var open *Trade
	for i := RollingWindow - 1; i < len(p); i++ {
		z := stats.ZScore(spread[i+1-RollingWindow : i+1]).ZScore

		if open != nil {
			pnl := positionPnL(open, p[i], s[i])
			switch {
			case pnl >= cfg.TakeProfitPercent:
				res.Trades = append(res.Trades, *closeTrade(open, i, z, p[i], s[i], pnl, ExitTakeProfit))
				open = nil
			case pnl <= -cfg.StopLossPercent:
				res.Trades = append(res.Trades, *closeTrade(open, i, z, p[i], s[i], pnl, ExitStopLoss))
				open = nil
			}
			continue
		}

		if math.Abs(z) > cfg.EntrySpreadThreshold {
			dir := LongPrimary
			if z > 0 {
				dir = ShortPrimary
			}
			open = &Trade{
				EntryIndex:       i,
				EntryZScore:      z,
				EntryCorrelation: res.Correlation,
				PrimaryEntry:     p[i],
				SecondaryEntry:   s[i],
				Direction:        dir,
			}
		}
	}

	if open != nil {
		last := len(p) - 1
		z := stats.ZScore(spread[len(spread)-RollingWindow:]).ZScore
		pnl := positionPnL(open, p[last], s[last])
		res.Trades = append(res.Trades, *closeTrade(open, last, z, p[last], s[last], pnl, ExitEndOfData))
	}

	res.Summary = Summarize(profits(res.Trades))
	res.Summary.AvgDurationBars = avgDuration(res.Trades)
	res.EquityCurve = EquityCurve(profits(res.Trades))
	return res
}

// positionPnL is the combined percentage P&L of both legs since entry,
// averaged. The long leg gains when its price rises, the short leg gains
// when its price falls.
func positionPnL(t *Trade, primaryPrice, secondaryPrice float64) float64 {
	primaryPct := (primaryPrice - t.PrimaryEntry) / t.PrimaryEntry * 100
	secondaryPct := (secondaryPrice - t.SecondaryEntry) / t.SecondaryEntry * 100

	if t.Direction == LongPrimary {
		return (primaryPct - secondaryPct) / 2
	}
	return (secondaryPct - primaryPct) / 2
}

func closeTrade(t *Trade, i int, z, primaryPrice, secondaryPrice, pnl float64, reason ExitReason) *Trade {
	t.ExitIndex = i
	t.ExitZScore = z
	t.PrimaryExit = primaryPrice
	t.SecondaryExit = secondaryPrice
	t.ProfitPercent = pnl
	t.ExitReason = reason
	t.DurationBars = i - t.EntryIndex
	return t
}

func profits(trades []Trade) []float64 {
	out := make([]float64, len(trades))
	for i, t := range trades {
		out[i] = t.ProfitPercent
	}
	return out
}

func avgDuration(trades []Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	total := 0
	for _, t := range trades {
		total += t.DurationBars
	}
	return float64(total) / float64(len(trades))
}
