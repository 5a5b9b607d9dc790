package formatters

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"github.com/pairlens/pairlens/internal/analysis"
	"github.com/pairlens/pairlens/internal/backtest"
	"github.com/pairlens/pairlens/internal/mtf"
	"github.com/pairlens/pairlens/internal/optimize"
)

// Colors for different values
var (
	ColorGreen  = text.FgGreen
	ColorRed    = text.FgRed
	ColorYellow = text.FgYellow
	ColorBlue   = text.FgCyan
	ColorWhite  = text.FgWhite
	ColorGray   = text.FgHiBlack
)

// FormatPrice formats a price with color based on change direction
func FormatPrice(price decimal.Decimal, change decimal.Decimal) string {
	priceStr := fmt.Sprintf("$%s", price.StringFixed(4))

	if change.IsPositive() {
		return ColorGreen.Sprint(priceStr)
	} else if change.IsNegative() {
		return ColorRed.Sprint(priceStr)
	}
	return priceStr
}

// FormatPercent formats a percentage with color
func FormatPercent(percent float64) string {
	sign := ""
	if percent > 0 {
		sign = "+"
	}

	percentStr := fmt.Sprintf("%s%.2f%%", sign, percent)

	if percent > 0 {
		return ColorGreen.Sprint(percentStr)
	} else if percent < 0 {
		return ColorRed.Sprint(percentStr)
	}
	return percentStr
}

// FormatScore colors an opportunity score by tier
func FormatScore(score int) string {
	str := fmt.Sprintf("%d", score)
	switch {
	case score >= 70:
		return ColorGreen.Sprint(str)
	case score >= 40:
		return ColorYellow.Sprint(str)
	default:
		return ColorGray.Sprint(str)
	}
}

// FormatProbability renders a 0-1 probability as a colored percentage
func FormatProbability(p float64) string {
	str := fmt.Sprintf("%.0f%%", p*100)
	switch {
	case p >= 0.7:
		return ColorGreen.Sprint(str)
	case p >= 0.4:
		return ColorYellow.Sprint(str)
	default:
		return ColorGray.Sprint(str)
	}
}

// FormatScanTable creates a ranked table of scanned pair candidates
func FormatScanTable(results []*analysis.Result) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{
		"#", "Symbol", "Score", "Z-Score", "Corr", "Half-Life", "Regime", "Quality", "Prob"})

	for i, res := range results {
		halfLife := "-"
		if res.Stationarity.HalfLifePassed {
			halfLife = fmt.Sprintf("%.1f", res.Stationarity.HalfLifeBars)
		}

		t.AppendRow(table.Row{
			i + 1,
			res.Symbol,
			FormatScore(res.OpportunityScore),
			fmt.Sprintf("%+.2f", res.SpreadZScore),
			fmt.Sprintf("%.2f", res.Correlation),
			halfLife,
			res.Velocity.Regime,
			res.Volatility.Quality,
			FormatProbability(res.Reversion.Probability),
		})
	}

	if len(results) == 0 {
		t.AppendRow(table.Row{"No candidates", "", "", "", "", "", "", "", ""})
	}

	return t.Render()
}

// FormatAnalysis creates a detailed single-pair analysis display
func FormatAnalysis(res *analysis.Result) string {
	if res == nil {
		return "No data available"
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	t.AppendRow(table.Row{"Pair", fmt.Sprintf("%s / %s", res.PrimarySymbol, res.Symbol)})
	t.AppendRow(table.Row{"Opportunity Score", FormatScore(res.OpportunityScore)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Spread Z-Score", fmt.Sprintf("%+.2f", res.SpreadZScore)})
	t.AppendRow(table.Row{"Returns Correlation", fmt.Sprintf("%.3f", res.Correlation)})
	t.AppendRow(table.Row{"Hedge Beta", fmt.Sprintf("%.3f", res.Beta)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"ADF Statistic", fmt.Sprintf("%.3f", res.Stationarity.ADF.TStat)})
	t.AppendRow(table.Row{"Cointegrated", formatBool(res.Stationarity.Cointegration.Passed)})
	halfLife := "-"
	if res.Stationarity.HalfLifeBars > 0 {
		halfLife = fmt.Sprintf("%.1f bars", res.Stationarity.HalfLifeBars)
	}
	t.AppendRow(table.Row{"Half-Life", halfLife})
	t.AppendRow(table.Row{"Mean-Reverting", formatBool(res.Stationarity.IsMeanReverting)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Correlation Regime", res.Velocity.Regime})
	t.AppendRow(table.Row{"Signal Quality", res.Volatility.Quality})
	t.AppendRow(table.Row{"Signal Strength", fmt.Sprintf("%.0f/100", res.Volatility.SignalStrength)})
	t.AppendRow(table.Row{"Confluence", fmt.Sprintf("%d/3 (%s)", res.Confluence.Rating, res.Confluence.Direction)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Reversion Probability", FormatProbability(res.Reversion.Probability)})
	t.AppendRow(table.Row{"Probability Method", res.Reversion.Method})
	t.AppendRow(table.Row{"Aligned Bars", fmt.Sprintf("%d (%d dropped)", res.AlignedBars, res.DroppedBars)})

	var parts []string
	parts = append(parts, t.Render())
	for _, note := range res.Notes {
		parts = append(parts, ColorGray.Sprint("  - "+note))
	}
	return strings.Join(parts, "\n")
}

// FormatBacktestSummary creates a pretty backtest summary table
func FormatBacktestSummary(s backtest.Summary) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	t.AppendRow(table.Row{"Total Trades", s.TotalTrades})
	t.AppendRow(table.Row{"Winning / Losing", fmt.Sprintf("%d / %d", s.WinningTrades, s.LosingTrades)})
	t.AppendRow(table.Row{"Win Rate", fmt.Sprintf("%.1f%%", s.WinRate)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Total Profit", FormatPercent(s.TotalProfitPercent)})
	t.AppendRow(table.Row{"Avg Profit / Trade", FormatPercent(s.AvgProfitPercent)})
	t.AppendRow(table.Row{"Max Drawdown", ColorRed.Sprintf("%.2f%%", s.MaxDrawdownPercent)})
	t.AppendRow(table.Row{"Profit Factor", formatProfitFactor(s.ProfitFactor)})
	t.AppendRow(table.Row{"Expectancy", FormatPercent(s.Expectancy)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Avg Duration", fmt.Sprintf("%.1f bars", s.AvgDurationBars)})
	t.AppendRow(table.Row{"Largest Win", FormatPercent(s.LargestWinPercent)})
	t.AppendRow(table.Row{"Largest Loss", FormatPercent(s.LargestLossPercent)})

	return t.Render()
}

// FormatTradesTable creates a pretty pair-trade list
func FormatTradesTable(trades []backtest.Trade) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{
		"Entry", "Exit", "Dir", "Entry Z", "Exit Z", "P&L", "Bars", "Reason"})

	for _, trade := range trades {
		t.AppendRow(table.Row{
			trade.EntryIndex,
			trade.ExitIndex,
			formatDirection(trade.Direction),
			fmt.Sprintf("%+.2f", trade.EntryZScore),
			fmt.Sprintf("%+.2f", trade.ExitZScore),
			FormatPercent(trade.ProfitPercent),
			trade.DurationBars,
			formatExitReason(trade.ExitReason),
		})
	}

	if len(trades) == 0 {
		t.AppendRow(table.Row{"No trades", "", "", "", "", "", "", ""})
	}

	return t.Render()
}

// FormatMomentumTradesTable creates a pretty momentum-trade list
func FormatMomentumTradesTable(trades []backtest.MomentumTrade) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{
		"Entry", "Exit", "Entry RSI", "Entry Px", "Exit Px", "P&L", "Bars", "Reason"})

	for _, trade := range trades {
		t.AppendRow(table.Row{
			trade.EntryIndex,
			trade.ExitIndex,
			fmt.Sprintf("%.1f", trade.EntryRSI),
			fmt.Sprintf("%.4f", trade.EntryPrice),
			fmt.Sprintf("%.4f", trade.ExitPrice),
			FormatPercent(trade.ProfitPercent),
			trade.DurationBars,
			formatExitReason(trade.ExitReason),
		})
	}

	if len(trades) == 0 {
		t.AppendRow(table.Row{"No trades", "", "", "", "", "", "", ""})
	}

	return t.Render()
}

// FormatOptimizeResult creates a pretty walk-forward optimization report
func FormatOptimizeResult(p *optimize.Params) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	t.AppendRow(table.Row{"Entry Threshold", fmt.Sprintf("%.1f", p.Config.EntrySpreadThreshold)})
	t.AppendRow(table.Row{"Min Correlation", fmt.Sprintf("%.1f", p.Config.MinCorrelation)})
	t.AppendRow(table.Row{"Take Profit", fmt.Sprintf("%.1f%%", p.Config.TakeProfitPercent)})
	t.AppendRow(table.Row{"Stop Loss", fmt.Sprintf("%.1f%%", p.Config.StopLossPercent)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Confidence", formatConfidence(string(p.Confidence))})
	t.AppendRow(table.Row{"Windows Evaluated", p.WindowsEvaluated})
	t.AppendRow(table.Row{"Out-of-Sample Profit", FormatPercent(p.TotalProfitPercent)})
	t.AppendRow(table.Row{"Baseline Profit", FormatPercent(p.BaselineProfitPercent)})
	t.AppendRow(table.Row{"Improvement", FormatPercent(p.ImprovementPercent)})
	t.AppendRow(table.Row{"Avg Win Rate", fmt.Sprintf("%.1f%%", p.AvgWinRate)})
	t.AppendRow(table.Row{"Total Trades", p.TotalTrades})

	if len(p.Windows) == 0 {
		return t.Render()
	}

	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row{"Window", "Train", "Test", "Entry", "MinCorr", "TP", "SL", "Test P&L", "Trades"})
	for _, win := range p.Windows {
		w.AppendRow(table.Row{
			win.Index + 1,
			fmt.Sprintf("%d-%d", win.TrainStart, win.TrainEnd),
			fmt.Sprintf("%d-%d", win.TestStart, win.TestEnd),
			fmt.Sprintf("%.1f", win.Config.EntrySpreadThreshold),
			fmt.Sprintf("%.1f", win.Config.MinCorrelation),
			fmt.Sprintf("%.1f", win.Config.TakeProfitPercent),
			fmt.Sprintf("%.1f", win.Config.StopLossPercent),
			FormatPercent(win.TestProfit),
			win.TestTrades,
		})
	}

	return t.Render() + "\n" + w.Render()
}

// FormatConfluenceTable creates a ranked multi-timeframe confluence table
func FormatConfluenceTable(results []*mtf.Result) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{
		"#", "Symbol", "Score", "Confidence", "Direction", "Aligned", "Best TF", "Worst TF"})

	for i, res := range results {
		t.AppendRow(table.Row{
			i + 1,
			res.Symbol,
			fmt.Sprintf("%.1f", res.Score),
			formatConfidence(string(res.Confidence)),
			res.Direction,
			fmt.Sprintf("%d/%d (%.0f%%)", res.AlignedCount, len(res.Intervals), res.AlignmentStrength*100),
			res.BestInterval,
			res.WorstInterval,
		})
	}

	if len(results) == 0 {
		t.AppendRow(table.Row{"No candidates", "", "", "", "", "", "", ""})
	}

	return t.Render()
}

// FormatConfluenceDetail lists one candidate's per-timeframe breakdown
func FormatConfluenceDetail(res *mtf.Result) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Interval", "Weight", "Score", "Z-Score", "Corr", "Quality"})
	for _, iv := range res.Intervals {
		t.AppendRow(table.Row{
			iv.Interval,
			fmt.Sprintf("%.2f", iv.Weight),
			FormatScore(iv.Result.OpportunityScore),
			fmt.Sprintf("%+.2f", iv.Result.SpreadZScore),
			fmt.Sprintf("%.2f", iv.Result.Correlation),
			iv.Result.Volatility.Quality,
		})
	}

	return t.Render()
}

// FormatVolume formats large numbers with K/M/B suffixes
func FormatVolume(volume float64) string {
	abs := math.Abs(volume)
	if abs >= 1_000_000_000 {
		return fmt.Sprintf("%.1fB", volume/1_000_000_000)
	} else if abs >= 1_000_000 {
		return fmt.Sprintf("%.1fM", volume/1_000_000)
	} else if abs >= 1_000 {
		return fmt.Sprintf("%.1fK", volume/1_000)
	}
	return fmt.Sprintf("%.0f", volume)
}

// FormatTimestamp formats a timestamp for display
func FormatTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}

// TruncateString truncates a string to specified length
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func formatBool(b bool) string {
	if b {
		return ColorGreen.Sprint("yes")
	}
	return ColorRed.Sprint("no")
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return ColorGreen.Sprint("inf")
	}
	str := fmt.Sprintf("%.2f", pf)
	if pf >= 1 {
		return ColorGreen.Sprint(str)
	}
	return ColorRed.Sprint(str)
}

func formatDirection(d backtest.Direction) string {
	if d == backtest.LongPrimary {
		return ColorGreen.Sprint("long")
	}
	return ColorRed.Sprint("short")
}

func formatExitReason(r backtest.ExitReason) string {
	switch r {
	case backtest.ExitTakeProfit:
		return ColorGreen.Sprint(string(r))
	case backtest.ExitStopLoss:
		return ColorRed.Sprint(string(r))
	default:
		return ColorGray.Sprint(string(r))
	}
}

func formatConfidence(c string) string {
	switch c {
	case "high":
		return ColorGreen.Sprint(c)
	case "medium":
		return ColorYellow.Sprint(c)
	default:
		return ColorGray.Sprint(c)
	}
}
