// Package optimize searches the pair-spread config grid with walk-forward
// validation: parameters are selected on a training window and judged on the
// immediately following test window, repeated as the windows roll forward.
// Selecting and measuring on the same data would reward overfitting.
package optimize

import (
	"math"

	"go.uber.org/zap"

	"github.com/pairlens/pairlens/internal/backtest"
)

// Window defaults and the floor that keeps every slice big enough for the
// engine's rolling window plus its cushion.
const (
	DefaultTrainWindow = 500
	DefaultTestWindow  = 100
	MinWindow          = 120
)

// Grid value lists: 5*4*4*4 = 320 candidate configs.
var (
	entryThresholds = []float64{1.5, 2.0, 2.5, 3.0, 3.5}
	minCorrelations = []float64{0.5, 0.6, 0.7, 0.8}
	takeProfits     = []float64{1.5, 2.0, 3.0, 4.0}
	stopLosses      = []float64{1.0, 1.5, 2.0, 3.0}
)

// Confidence grades how much the chosen config should be trusted.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Options sizes the walk-forward windows. Zero values take the defaults;
// explicit values below MinWindow are raised to it.
type Options struct {
	TrainWindow int
	TestWindow  int
}

func (o Options) normalize() Options {
	if o.TrainWindow == 0 {
		o.TrainWindow = DefaultTrainWindow
	}
	if o.TestWindow == 0 {
		o.TestWindow = DefaultTestWindow
	}
	if o.TrainWindow < MinWindow {
		o.TrainWindow = MinWindow
	}
	if o.TestWindow < MinWindow {
		o.TestWindow = MinWindow
	}
	return o
}

// WindowResult is one walk-forward fold: the config chosen on the training
// slice and how it fared out-of-sample.
type WindowResult struct {
	Index      int             `json:"index"`
	TrainStart int             `json:"train_start"`
	TrainEnd   int             `json:"train_end"`
	TestStart  int             `json:"test_start"`
	TestEnd    int             `json:"test_end"`
	Config     backtest.Config `json:"config"`
	TrainScore float64         `json:"train_score"`
	TestScore  float64         `json:"test_score"`
	TestProfit float64         `json:"test_profit"`
	TestTrades int             `json:"test_trades"`
}

// Params is the optimizer's output: the winning config plus the evidence
// behind it.
type Params struct {
	Config           backtest.Config `json:"config"`
	Confidence       Confidence      `json:"confidence"`
	WindowsEvaluated int             `json:"windows_evaluated"`
	TrainWindow      int             `json:"train_window"`
	TestWindow       int             `json:"test_window"`

	TotalProfitPercent float64 `json:"total_profit_percent"`
	AvgWinRate         float64 `json:"avg_win_rate"`
	TotalTrades        int     `json:"total_trades"`

	BaselineProfitPercent float64 `json:"baseline_profit_percent"`
	ImprovementPercent    float64 `json:"improvement_percent"`

	Windows []WindowResult `json:"windows"`
}

// Grid enumerates every candidate config.
func Grid() []backtest.Config {
	grid := make([]backtest.Config, 0, len(entryThresholds)*len(minCorrelations)*len(takeProfits)*len(stopLosses))
	for _, entry := range entryThresholds {
		for _, corr := range minCorrelations {
			for _, tp := range takeProfits {
				for _, sl := range stopLosses {
					grid = append(grid, backtest.Config{
						EntrySpreadThreshold: entry,
						MinCorrelation:       corr,
						TakeProfitPercent:    tp,
						StopLossPercent:      sl,
					})
				}
			}
		}
	}
	return grid
}

// Score folds a backtest summary into a single training fitness value:
// profit and win rate reward, capped profit factor reward, drawdown penalty,
// and a penalty proportional to the shortfall when fewer than 3 trades fired
// (a config that barely trades proves nothing).
func Score(s backtest.Summary) float64 {
	pf := s.ProfitFactor
	if math.IsInf(pf, 1) || pf > 3 {
		pf = 3
	}

	score := 2*s.TotalProfitPercent + 0.5*s.WinRate + 10*pf - 1.5*s.MaxDrawdownPercent
	if s.TotalTrades < 3 {
		score -= 5 * float64(3-s.TotalTrades)
	}
	return score
}

// configStats accumulates the recency-weighted out-of-sample record of one
// distinct config across windows.
type configStats struct {
	weightedScore float64
	weightSum     float64
	profit        float64
	winRateSum    float64
	trades        int
	chosen        int
}

// Optimize grid-searches backtest configs over rolling train/test windows of
// the aligned pair data. When the data cannot fill even one window it
// returns the default config with low confidence and zero windows.
func Optimize(primary, secondary []float64, primarySymbol, secondarySymbol string, opts Options, logger *zap.Logger) *Params {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.normalize()

	n := len(primary)
	if len(secondary) < n {
		n = len(secondary)
	}

	params := &Params{
		Config:      backtest.DefaultConfig(),
		Confidence:  ConfidenceLow,
		TrainWindow: opts.TrainWindow,
		TestWindow:  opts.TestWindow,
		Windows:     []WindowResult{},
	}

	span := opts.TrainWindow + opts.TestWindow
	if n < span {
		logger.Debug("walk-forward fallback: insufficient data",
			zap.Int("bars", n), zap.Int("required", span))
		return params
	}

	grid := Grid()
	defaultCfg := backtest.DefaultConfig()
	stats := map[backtest.Config]*configStats{}
	var baselineWeighted, baselineWeightSum, baselineProfit float64

	windowIdx := 0
	for start := 0; start+span <= n; start += opts.TestWindow {
		trainP := primary[start : start+opts.TrainWindow]
		trainS := secondary[start : start+opts.TrainWindow]
		testP := primary[start+opts.TrainWindow : start+span]
		testS := secondary[start+opts.TrainWindow : start+span]

		var bestCfg backtest.Config
		bestScore := math.Inf(-1)
		bestProfit := math.Inf(-1)
		for _, cfg := range grid {
			res := backtest.Run(trainP, trainS, primarySymbol, secondarySymbol, cfg)
			s := Score(res.Summary)
			if s > bestScore || (s == bestScore && res.Summary.TotalProfitPercent > bestProfit) {
				bestCfg, bestScore, bestProfit = cfg, s, res.Summary.TotalProfitPercent
			}
		}

		testRes := backtest.Run(testP, testS, primarySymbol, secondarySymbol, bestCfg)
		testScore := Score(testRes.Summary)

		// Later windows count for more.
		weight := 1 + 0.1*float64(windowIdx)
		cs := stats[bestCfg]
		if cs == nil {
			cs = &configStats{}
			stats[bestCfg] = cs
		}
		cs.weightedScore += weight * testScore
		cs.weightSum += weight
		cs.profit += testRes.Summary.TotalProfitPercent
		cs.winRateSum += testRes.Summary.WinRate
		cs.trades += testRes.Summary.TotalTrades
		cs.chosen++

		baseRes := backtest.Run(testP, testS, primarySymbol, secondarySymbol, defaultCfg)
		baselineWeighted += weight * Score(baseRes.Summary)
		baselineWeightSum += weight
		baselineProfit += baseRes.Summary.TotalProfitPercent

		params.Windows = append(params.Windows, WindowResult{
			Index:      windowIdx,
			TrainStart: start,
			TrainEnd:   start + opts.TrainWindow,
			TestStart:  start + opts.TrainWindow,
			TestEnd:    start + span,
			Config:     bestCfg,
			TrainScore: bestScore,
			TestScore:  testScore,
			TestProfit: testRes.Summary.TotalProfitPercent,
			TestTrades: testRes.Summary.TotalTrades,
		})
		windowIdx++
	}

	params.WindowsEvaluated = windowIdx
	if windowIdx == 0 {
		return params
	}

	var winner backtest.Config
	var winnerStats *configStats
	bestAvg := math.Inf(-1)
	for cfg, cs := range stats {
		avg := cs.weightedScore / cs.weightSum
		if avg > bestAvg || (avg == bestAvg && winnerStats != nil && cs.profit > winnerStats.profit) {
			winner, winnerStats, bestAvg = cfg, cs, avg
		}
	}

	params.Config = winner
	params.TotalProfitPercent = winnerStats.profit
	params.AvgWinRate = winnerStats.winRateSum / float64(winnerStats.chosen)
	params.TotalTrades = winnerStats.trades
	params.BaselineProfitPercent = baselineProfit
	params.ImprovementPercent = winnerStats.profit - baselineProfit
	params.Confidence = confidence(windowIdx, winnerStats.chosen, params.ImprovementPercent)

	logger.Info("walk-forward optimization complete",
		zap.Int("windows", windowIdx),
		zap.Float64("entry_threshold", winner.EntrySpreadThreshold),
		zap.Float64("min_correlation", winner.MinCorrelation),
		zap.Float64("improvement_pct", params.ImprovementPercent),
		zap.String("confidence", string(params.Confidence)),
	)
	return params
}

func confidence(windows, chosen int, improvement float64) Confidence {
	share := float64(chosen) / float64(windows)
	switch {
	case windows >= 6 && share >= 0.5 && improvement > 0:
		return ConfidenceHigh
	case windows >= 3 && improvement > -1:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
