package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pairlens/pairlens/internal/analysis"
	"github.com/pairlens/pairlens/internal/cache"
	"github.com/pairlens/pairlens/internal/config"
	"github.com/pairlens/pairlens/internal/exchange"
	"github.com/pairlens/pairlens/internal/history"
	"github.com/pairlens/pairlens/internal/stream"
)

var (
	// Global instances
	cfg          *config.Config
	client       *exchange.Client
	dataCache    *cache.Cache
	scorer       *history.Scorer
	analyzer     *analysis.Analyzer
	streamClient *stream.StreamClient
	logger       *zap.Logger

	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pairlens",
	Short: "Statistical pair-trading analytics for crypto markets",
	Long: `pairlens analyzes crypto pairs for mean-reversion opportunities:
cointegration and stationarity testing, spread z-scores, multi-timeframe
confluence, backtesting, and walk-forward parameter optimization.`,
	PersistentPreRunE: initializeApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initLogger)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (YAML, optional)")
}

// initLogger configures logging: default INFO, DEBUG if DEBUG env is truthy
func initLogger() {
	verbose := false
	if v := os.Getenv("DEBUG"); v == "true" || v == "1" || v == "yes" {
		verbose = true
	}

	zcfg := zap.NewProductionConfig()
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	var err error
	logger, err = zcfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
}

// initializeApp sets up all dependencies
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// LOG_LEVEL can only quiet the logger; DEBUG still wins for verbosity
	if level, lerr := zapcore.ParseLevel(cfg.LogLevel); lerr == nil {
		logger = logger.WithOptions(zap.IncreaseLevel(level))
	}

	// Initialize components
	client = exchange.NewClient(cfg)
	dataCache = cache.NewCache(cfg.CacheTTL)
	scorer = history.NewScorer(logger)
	analyzer = analysis.NewAnalyzer(analysis.DefaultOptions(), scorer, logger)
	streamClient = stream.NewStreamClient(cfg, dataCache, logger)

	return nil
}
