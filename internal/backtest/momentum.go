package backtest

import (
	"time"

	"github.com/pairlens/pairlens/internal/models"
)

// MomentumConfig holds the momentum/RSI scanner strategy parameters.
type MomentumConfig struct {
	RSIPeriod         int     `json:"rsi_period" mapstructure:"rsi_period"`
	RSIThreshold      float64 `json:"rsi_threshold" mapstructure:"rsi_threshold"`
	TakeProfitPercent float64 `json:"take_profit_percent" mapstructure:"take_profit_percent"`
	StopLossPercent   float64 `json:"stop_loss_percent" mapstructure:"stop_loss_percent"`
	MaxHoldBars       int     `json:"max_hold_bars" mapstructure:"max_hold_bars"`
	CooldownBars      int     `json:"cooldown_bars" mapstructure:"cooldown_bars"`
}

// DefaultMomentumConfig returns the standard scanner parameters.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		RSIPeriod:         14,
		RSIThreshold:      30,
		TakeProfitPercent: 3.0,
		StopLossPercent:   2.0,
		MaxHoldBars:       48,
		CooldownBars:      12,
	}
}

// MomentumTrade is one simulated long position of the scanner strategy.
type MomentumTrade struct {
	EntryIndex    int        `json:"entry_index"`
	ExitIndex     int        `json:"exit_index"`
	EntryPrice    float64    `json:"entry_price"`
	ExitPrice     float64    `json:"exit_price"`
	EntryRSI      float64    `json:"entry_rsi"`
	ProfitPercent float64    `json:"profit_percent"`
	ExitReason    ExitReason `json:"exit_reason"`
	DurationBars  int        `json:"duration_bars"`
}

// MomentumResult is a completed momentum/RSI backtest, sharing the summary
// shape of the pair-spread engine.
type MomentumResult struct {
	Symbol      string          `json:"symbol"`
	Config      MomentumConfig  `json:"config"`
	Trades      []MomentumTrade `json:"trades"`
	Summary     Summary         `json:"summary"`
	EquityCurve []float64       `json:"equity_curve"`
	CompletedAt time.Time       `json:"completed_at"`
}

// RunMomentum simulates the single-instrument momentum strategy over full
// candle history. Entries trigger when the RSI crosses up through the
// configured threshold; exits on take-profit, stop-loss, max hold or end of
// data. A cooldown enforces a minimum bar gap between a close and the next
// entry, and positions never overlap.
func RunMomentum(candles []models.Candle, symbol string, cfg MomentumConfig) *MomentumResult {
	closes := models.Closes(candles)

	res := &MomentumResult{
		Symbol:      symbol,
		Config:      cfg,
		Trades:      []MomentumTrade{},
		CompletedAt: time.Now().UTC(),
	}

	rsi := RSI(closes, cfg.RSIPeriod)
	if len(closes) < cfg.RSIPeriod+2 {
		res.Summary = Summarize(nil)
		res.EquityCurve = []float64{0}
		return res
	}

	var open *MomentumTrade
	lastExit := -cfg.CooldownBars - 1

	for i := cfg.RSIPeriod + 1; i < len(closes); i++ {
		if open != nil {
			pnl := (closes[i] - open.EntryPrice) / open.EntryPrice * 100
			held := i - open.EntryIndex

			var reason ExitReason
			switch {
			case pnl >= cfg.TakeProfitPercent:
				reason = ExitTakeProfit
			case pnl <= -cfg.StopLossPercent:
				reason = ExitStopLoss
			case cfg.MaxHoldBars > 0 && held >= cfg.MaxHoldBars:
				reason = ExitMaxHold
			default:
				continue
			}

			res.Trades = append(res.Trades, *closeMomentumTrade(open, i, closes[i], pnl, reason))
			open = nil
			lastExit = i
			continue
		}

		if i-lastExit <= cfg.CooldownBars {
			continue
		}

		// Oversold recovery: RSI crossing up through the threshold.
		if rsi[i-1] < cfg.RSIThreshold && rsi[i] >= cfg.RSIThreshold {
			open = &MomentumTrade{
				EntryIndex: i,
				EntryPrice: closes[i],
				EntryRSI:   rsi[i],
			}
		}
	}

	if open != nil {
		last := len(closes) - 1
		pnl := (closes[last] - open.EntryPrice) / open.EntryPrice * 100
		res.Trades = append(res.Trades, *closeMomentumTrade(open, last, closes[last], pnl, ExitEndOfData))
	}

	res.Summary = Summarize(momentumProfits(res.Trades))
	res.Summary.AvgDurationBars = avgMomentumDuration(res.Trades)
	res.EquityCurve = EquityCurve(momentumProfits(res.Trades))
	return res
}

// RSI computes a Wilder-smoothed relative strength index series aligned to
// the input closes. Indices before the warm-up period hold a neutral 50.
func RSI(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = 50
	}
	if period < 1 || len(closes) <= period {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

func closeMomentumTrade(t *MomentumTrade, i int, price, pnl float64, reason ExitReason) *MomentumTrade {
	t.ExitIndex = i
	t.ExitPrice = price
	t.ProfitPercent = pnl
	t.ExitReason = reason
	t.DurationBars = i - t.EntryIndex
	return t
}

func momentumProfits(trades []MomentumTrade) []float64 {
	out := make([]float64, len(trades))
	for i, t := range trades {
		out[i] = t.ProfitPercent
	}
	return out
}

func avgMomentumDuration(trades []MomentumTrade) float64 {
	if len(trades) == 0 {
		return 0
	}
	total := 0
	for _, t := range trades {
		total += t.DurationBars
	}
	return float64(total) / float64(len(trades))
}
