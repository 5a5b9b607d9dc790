package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pairlens/pairlens/internal/models"
	"github.com/pairlens/pairlens/pkg/formatters"
)

var streamInterval string

func init() {
	rootCmd.AddCommand(streamCmd)

	streamCmd.Flags().StringVarP(&streamInterval, "interval", "i", "", "kline interval to stream (default from config)")
}

var streamCmd = &cobra.Command{
	Use:   "stream [symbols...]",
	Short: "Stream live candles",
	Long: `Streams real-time kline updates for the given symbols and keeps the
candle cache warm. Without arguments the configured universe is streamed.`,
	RunE: runStream,
}

func runStream(cmd *cobra.Command, args []string) error {
	symbols := args
	if len(symbols) == 0 {
		symbols = cfg.Symbols
	}
	for i, s := range symbols {
		symbols[i] = normalizeSymbol(s)
	}

	interval := streamInterval
	if interval == "" {
		interval = cfg.DefaultInterval
	}

	fmt.Printf("Connecting to kline stream...\n")

	// Connect to websocket
	if err := streamClient.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer streamClient.Close()

	// Register handlers
	streamClient.RegisterHandler("kline", func(msg interface{}) {
		candle, ok := msg.(models.Candle)
		if !ok {
			return
		}
		change := candle.Close.Sub(candle.Open)
		fmt.Printf("[%s] %s %s O: %s C: %s V: %s\n",
			formatters.FormatTimestamp(candle.CloseTime),
			formatters.ColorBlue.Sprint(candle.Symbol),
			candle.Interval,
			candle.Open.StringFixed(4),
			formatters.FormatPrice(candle.Close, change),
			formatters.FormatVolume(candle.Volume.InexactFloat64()))
	})

	// Register error handler to surface stream errors
	streamClient.RegisterHandler("error", func(msg interface{}) {
		fmt.Printf("Stream error received - check logs for details\n")
	})

	// Subscribe to symbols
	if err := streamClient.Subscribe(symbols, interval); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	fmt.Printf("Streaming %d symbols at %s: %s\n", len(symbols), interval, strings.Join(symbols, ", "))
	fmt.Println("Press Ctrl+C to stop...")

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Status ticker
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sigChan:
			fmt.Println("\nStopping stream...")
			return nil
		case <-ticker.C:
			if streamClient.IsConnected() {
				stats := dataCache.GetStats()
				fmt.Printf("Connected | Cached: %d candle series, %d analyses\n",
					stats.SeriesCount, stats.AnalysisCount)
			} else {
				fmt.Println("Reconnecting...")
			}
		case <-ctx.Done():
			return nil
		}
	}
}
