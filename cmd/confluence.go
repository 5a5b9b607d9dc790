package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pairlens/pairlens/internal/mtf"
	"github.com/pairlens/pairlens/pkg/formatters"
)

var (
	confluenceIntervals []string
	confluenceLimit     int
	confluenceDetail    bool
)

func init() {
	rootCmd.AddCommand(confluenceCmd)

	confluenceCmd.Flags().StringSliceVar(&confluenceIntervals, "intervals", nil, "timeframes to combine (default from config)")
	confluenceCmd.Flags().IntVarP(&confluenceLimit, "limit", "l", 0, "candles per timeframe (default from config)")
	confluenceCmd.Flags().BoolVar(&confluenceDetail, "detail", false, "show per-timeframe breakdown for each candidate")
}

var confluenceCmd = &cobra.Command{
	Use:   "confluence [primary] [candidates...]",
	Short: "Rank candidates by multi-timeframe signal confluence",
	Long: `Analyzes each candidate against the primary instrument on several
timeframes at once and scores how strongly the timeframes agree. Without
explicit candidates the configured universe is used.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConfluence,
}

func runConfluence(cmd *cobra.Command, args []string) error {
	primary := normalizeSymbol(args[0])
	intervals := confluenceIntervals
	if len(intervals) == 0 {
		intervals = cfg.DefaultLookbacks
	}
	_, limit := resolveSeriesArgs("", confluenceLimit)

	candidates := args[1:]
	if len(candidates) == 0 {
		for _, s := range cfg.Symbols {
			if normalizeSymbol(s) != primary {
				candidates = append(candidates, s)
			}
		}
	}

	ctx := context.Background()
	results := make([]*mtf.Result, 0, len(candidates))
	for _, candidate := range candidates {
		candidate = normalizeSymbol(candidate)

		series := make([]mtf.IntervalSeries, 0, len(intervals))
		for _, interval := range intervals {
			primaryCloses, err := fetchCloses(ctx, primary, interval, limit)
			if err != nil {
				logger.Warn("skipping timeframe",
					zap.String("symbol", primary), zap.String("interval", interval), zap.Error(err))
				continue
			}
			candidateCloses, err := fetchCloses(ctx, candidate, interval, limit)
			if err != nil {
				logger.Warn("skipping timeframe",
					zap.String("symbol", candidate), zap.String("interval", interval), zap.Error(err))
				continue
			}
			series = append(series, mtf.IntervalSeries{
				Interval:  interval,
				Primary:   primaryCloses,
				Candidate: candidateCloses,
			})
		}

		results = append(results, mtf.Analyze(analyzer, primary, candidate, series))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	fmt.Printf("Confluence across %v for %s\n", intervals, primary)
	fmt.Println(formatters.FormatConfluenceTable(results))

	if confluenceDetail {
		for _, res := range results {
			fmt.Printf("\n%s\n", res.Symbol)
			fmt.Println(formatters.FormatConfluenceDetail(res))
		}
	}
	return nil
}
