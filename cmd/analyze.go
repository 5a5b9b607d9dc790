package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pairlens/pairlens/pkg/formatters"
)

var (
	analyzeInterval string
	analyzeLimit    int
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeInterval, "interval", "i", "", "candle interval (default from config)")
	analyzeCmd.Flags().IntVarP(&analyzeLimit, "limit", "l", 0, "number of candles (default from config)")
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [primary] [candidate]",
	Short: "Analyze one pair for mean-reversion opportunity",
	Long: `Runs the full pair analysis pipeline: returns correlation, rolling
hedge ratio, ADF and cointegration tests, spread half-life, correlation
regime, volatility-adjusted z-score, and the combined opportunity score.`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	primary := normalizeSymbol(args[0])
	candidate := normalizeSymbol(args[1])
	interval, limit := resolveSeriesArgs(analyzeInterval, analyzeLimit)
	ctx := context.Background()

	primaryCloses, err := fetchCloses(ctx, primary, interval, limit)
	if err != nil {
		return err
	}
	candidateCloses, err := fetchCloses(ctx, candidate, interval, limit)
	if err != nil {
		return err
	}

	res := analyzer.AnalyzePair(primaryCloses, candidateCloses, primary, candidate)
	dataCache.SetAnalysis(primary+"/"+candidate+":"+interval, res)

	fmt.Println(formatters.FormatAnalysis(res))
	return nil
}

// resolveSeriesArgs falls back to configured defaults for unset flags
func resolveSeriesArgs(interval string, limit int) (string, int) {
	if interval == "" {
		interval = cfg.DefaultInterval
	}
	if limit <= 0 {
		limit = cfg.CandleLimit
	}
	return interval, limit
}
