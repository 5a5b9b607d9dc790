package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pairlens/pairlens/internal/backtest"
	"github.com/pairlens/pairlens/pkg/formatters"
)

var (
	backtestInterval string
	backtestLimit    int
	backtestTrades   bool

	backtestEntry   float64
	backtestMinCorr float64
	backtestTP      float64
	backtestSL      float64

	backtestMomentum     bool
	backtestRSIPeriod    int
	backtestRSIThreshold float64
	backtestMaxHold      int
	backtestCooldown     int
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&backtestInterval, "interval", "i", "", "candle interval (default from config)")
	backtestCmd.Flags().IntVarP(&backtestLimit, "limit", "l", 0, "number of candles (default from config)")
	backtestCmd.Flags().BoolVar(&backtestTrades, "trades", false, "list individual trades")

	backtestCmd.Flags().Float64Var(&backtestEntry, "entry", 0, "entry z-score threshold (default from config)")
	backtestCmd.Flags().Float64Var(&backtestMinCorr, "min-corr", 0, "minimum returns correlation (default from config)")
	backtestCmd.Flags().Float64Var(&backtestTP, "take-profit", 0, "take profit percent (default from config)")
	backtestCmd.Flags().Float64Var(&backtestSL, "stop-loss", 0, "stop loss percent (default from config)")

	backtestCmd.Flags().BoolVar(&backtestMomentum, "momentum", false, "run the single-symbol momentum/RSI strategy instead")
	backtestCmd.Flags().IntVar(&backtestRSIPeriod, "rsi-period", 0, "RSI period (momentum mode)")
	backtestCmd.Flags().Float64Var(&backtestRSIThreshold, "rsi-threshold", 0, "RSI entry threshold (momentum mode)")
	backtestCmd.Flags().IntVar(&backtestMaxHold, "max-hold", 0, "max holding bars (momentum mode)")
	backtestCmd.Flags().IntVar(&backtestCooldown, "cooldown", 0, "cooldown bars between trades (momentum mode)")
}

var backtestCmd = &cobra.Command{
	Use:   "backtest [primary] [secondary]",
	Short: "Backtest the pair-spread strategy (or momentum/RSI with --momentum)",
	Long: `Simulates the spread mean-reversion strategy over historical candles:
enter when the rolling z-score exceeds the entry threshold, exit on take
profit, stop loss, max holding period, or end of data.

With --momentum a single symbol is required and the RSI oversold-recovery
strategy is simulated instead.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runBacktest,
}

func runBacktest(cmd *cobra.Command, args []string) error {
	interval, limit := resolveSeriesArgs(backtestInterval, backtestLimit)
	ctx := context.Background()

	if backtestMomentum {
		if len(args) != 1 {
			return fmt.Errorf("momentum mode takes exactly one symbol")
		}
		return runMomentumBacktest(ctx, normalizeSymbol(args[0]), interval, limit)
	}

	if len(args) != 2 {
		return fmt.Errorf("pair mode takes exactly two symbols")
	}
	primary := normalizeSymbol(args[0])
	secondary := normalizeSymbol(args[1])

	primaryCloses, err := fetchCloses(ctx, primary, interval, limit)
	if err != nil {
		return err
	}
	secondaryCloses, err := fetchCloses(ctx, secondary, interval, limit)
	if err != nil {
		return err
	}

	runCfg := pairConfigFromFlags()
	result := backtest.RunStrategy(backtest.PairSpread{
		PrimarySymbol:   primary,
		SecondarySymbol: secondary,
		Primary:         primaryCloses,
		Secondary:       secondaryCloses,
		Config:          runCfg,
	})

	pair := result.Pair
	fmt.Printf("Backtest %s / %s at %s (%d aligned bars, correlation %.3f)\n",
		primary, secondary, interval, pair.AlignedBars, pair.Correlation)
	fmt.Println(formatters.FormatBacktestSummary(pair.Summary))
	if backtestTrades {
		fmt.Println(formatters.FormatTradesTable(pair.Trades))
	}
	return nil
}

func runMomentumBacktest(ctx context.Context, symbol, interval string, limit int) error {
	candles, err := client.GetKlines(ctx, symbol, interval, limit)
	if err != nil {
		return fmt.Errorf("fetch %s %s candles: %w", symbol, interval, err)
	}
	dataCache.SetCandles(symbol, interval, candles)

	result := backtest.RunStrategy(backtest.MomentumRSI{
		Symbol:  symbol,
		Candles: candles,
		Config:  momentumConfigFromFlags(),
	})

	momentum := result.Momentum
	fmt.Printf("Momentum backtest %s at %s (%d candles)\n", symbol, interval, len(candles))
	fmt.Println(formatters.FormatBacktestSummary(momentum.Summary))
	if backtestTrades {
		fmt.Println(formatters.FormatMomentumTradesTable(momentum.Trades))
	}
	return nil
}

// pairConfigFromFlags starts from the configured defaults and applies any
// explicitly set flag values.
func pairConfigFromFlags() backtest.Config {
	runCfg := cfg.Backtest
	if backtestEntry > 0 {
		runCfg.EntrySpreadThreshold = backtestEntry
	}
	if backtestMinCorr > 0 {
		runCfg.MinCorrelation = backtestMinCorr
	}
	if backtestTP > 0 {
		runCfg.TakeProfitPercent = backtestTP
	}
	if backtestSL > 0 {
		runCfg.StopLossPercent = backtestSL
	}
	return runCfg
}

func momentumConfigFromFlags() backtest.MomentumConfig {
	runCfg := backtest.DefaultMomentumConfig()
	if backtestRSIPeriod > 0 {
		runCfg.RSIPeriod = backtestRSIPeriod
	}
	if backtestRSIThreshold > 0 {
		runCfg.RSIThreshold = backtestRSIThreshold
	}
	if backtestTP > 0 {
		runCfg.TakeProfitPercent = backtestTP
	}
	if backtestSL > 0 {
		runCfg.StopLossPercent = backtestSL
	}
	if backtestMaxHold > 0 {
		runCfg.MaxHoldBars = backtestMaxHold
	}
	if backtestCooldown > 0 {
		runCfg.CooldownBars = backtestCooldown
	}
	return runCfg
}
