package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pairlens/pairlens/internal/analysis"
	"github.com/pairlens/pairlens/pkg/formatters"
)

var (
	scanInterval string
	scanLimit    int
	scanTop      int
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanInterval, "interval", "i", "", "candle interval (default from config)")
	scanCmd.Flags().IntVarP(&scanLimit, "limit", "l", 0, "number of candles (default from config)")
	scanCmd.Flags().IntVarP(&scanTop, "top", "t", 10, "show only the top N candidates")
}

var scanCmd = &cobra.Command{
	Use:   "scan [primary]",
	Short: "Scan the configured universe against a primary symbol",
	Long: `Analyzes every configured symbol against the primary instrument and
ranks the candidates by opportunity score.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	primary := normalizeSymbol(args[0])
	interval, limit := resolveSeriesArgs(scanInterval, scanLimit)
	ctx := context.Background()

	primaryCloses, err := fetchCloses(ctx, primary, interval, limit)
	if err != nil {
		return err
	}

	candidates := make([]analysis.Candidate, 0, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		symbol = normalizeSymbol(symbol)
		if symbol == primary {
			continue
		}

		closes, err := fetchCloses(ctx, symbol, interval, limit)
		if err != nil {
			logger.Warn("skipping symbol", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		candidates = append(candidates, analysis.Candidate{Symbol: symbol, Closes: closes})
	}

	if len(candidates) == 0 {
		return fmt.Errorf("no candidate data available")
	}

	results := analyzer.ScanUniverse(primary, primaryCloses, candidates)
	if scanTop > 0 && len(results) > scanTop {
		results = results[:scanTop]
	}

	fmt.Printf("Scanned %d candidates against %s at %s\n", len(candidates), primary, interval)
	fmt.Println(formatters.FormatScanTable(results))
	return nil
}
