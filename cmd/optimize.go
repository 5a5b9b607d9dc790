package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pairlens/pairlens/internal/optimize"
	"github.com/pairlens/pairlens/pkg/formatters"
)

var (
	optimizeInterval string
	optimizeLimit    int
	optimizeTrain    int
	optimizeTest     int
)

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().StringVarP(&optimizeInterval, "interval", "i", "", "candle interval (default from config)")
	optimizeCmd.Flags().IntVarP(&optimizeLimit, "limit", "l", 1000, "number of candles")
	optimizeCmd.Flags().IntVar(&optimizeTrain, "train", 0, "training window in bars (default 500)")
	optimizeCmd.Flags().IntVar(&optimizeTest, "test", 0, "test window in bars (default 100, floor 120)")
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize [primary] [secondary]",
	Short: "Walk-forward optimize the pair-spread parameters",
	Long: `Grid-searches entry threshold, minimum correlation, take profit and
stop loss over rolling train/test windows. Parameters are selected on each
training window and judged only on the unseen test window that follows, with
recent windows weighted more heavily.`,
	Args: cobra.ExactArgs(2),
	RunE: runOptimize,
}

func runOptimize(cmd *cobra.Command, args []string) error {
	primary := normalizeSymbol(args[0])
	secondary := normalizeSymbol(args[1])
	interval, limit := resolveSeriesArgs(optimizeInterval, optimizeLimit)
	ctx := context.Background()

	primaryCloses, err := fetchCloses(ctx, primary, interval, limit)
	if err != nil {
		return err
	}
	secondaryCloses, err := fetchCloses(ctx, secondary, interval, limit)
	if err != nil {
		return err
	}

	params := optimize.Optimize(primaryCloses, secondaryCloses, primary, secondary, optimize.Options{
		TrainWindow: optimizeTrain,
		TestWindow:  optimizeTest,
	}, logger)

	if params.WindowsEvaluated == 0 {
		fmt.Printf("Not enough data for walk-forward optimization (need %d bars); using defaults.\n",
			params.TrainWindow+params.TestWindow)
	}
	fmt.Println(formatters.FormatOptimizeResult(params))
	return nil
}
