package backtest

import "math"

// Summary is derived purely from a list of per-trade profit percentages; it
// is shared by both strategies.
type Summary struct {
	TotalTrades   int `json:"total_trades"`
	WinningTrades int `json:"winning_trades"`
	LosingTrades  int `json:"losing_trades"`

	WinRate            float64 `json:"win_rate"` // 0-100
	TotalProfitPercent float64 `json:"total_profit_percent"`
	AvgProfitPercent   float64 `json:"avg_profit_percent"`
	MaxDrawdownPercent float64 `json:"max_drawdown_percent"`

	// ProfitFactor is grossProfit/grossLoss; +Inf when there are profits and
	// no losses, 0 when there are no trades.
	ProfitFactor float64 `json:"profit_factor"`

	Expectancy         float64 `json:"expectancy"`
	AvgDurationBars    float64 `json:"avg_duration_bars"`
	LargestWinPercent  float64 `json:"largest_win_percent"`
	LargestLossPercent float64 `json:"largest_loss_percent"`
}

// Summarize computes summary statistics from per-trade profit percentages.
// An empty list yields an all-zero summary.
func Summarize(profitPercents []float64) Summary {
	s := Summary{TotalTrades: len(profitPercents)}
	if len(profitPercents) == 0 {
		return s
	}

	var grossProfit, grossLoss float64
	for _, p := range profitPercents {
		s.TotalProfitPercent += p
		if p > 0 {
			s.WinningTrades++
			grossProfit += p
			if p > s.LargestWinPercent {
				s.LargestWinPercent = p
			}
		} else if p < 0 {
			s.LosingTrades++
			grossLoss += -p
			if p < s.LargestLossPercent {
				s.LargestLossPercent = p
			}
		}
	}

	s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100
	s.AvgProfitPercent = s.TotalProfitPercent / float64(s.TotalTrades)
	s.Expectancy = s.AvgProfitPercent

	switch {
	case grossLoss > 0:
		s.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		s.ProfitFactor = math.Inf(1)
	default:
		s.ProfitFactor = 0
	}

	s.MaxDrawdownPercent = MaxDrawdown(EquityCurve(profitPercents))
	return s
}

// EquityCurve returns the cumulative profit percent after each trade. The
// curve always starts at 0 and has one more point than there are trades.
func EquityCurve(profitPercents []float64) []float64 {
	curve := make([]float64, len(profitPercents)+1)
	for i, p := range profitPercents {
		curve[i+1] = curve[i] + p
	}
	return curve
}

// MaxDrawdown is the largest peak-to-trough drop along an equity curve.
func MaxDrawdown(curve []float64) float64 {
	if len(curve) == 0 {
		return 0
	}

	peak := curve[0]
	maxDD := 0.0
	for _, v := range curve {
		if v > peak {
			peak = v
		}
		if dd := peak - v; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
