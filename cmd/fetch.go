package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pairlens/pairlens/internal/models"
)

// fetchCloses resolves a symbol's close-price series, preferring the cache.
// Fetched series are also registered with the history scorer so analysis can
// use history-backed reversion probabilities.
func fetchCloses(ctx context.Context, symbol, interval string, limit int) ([]float64, error) {
	if candles, found := dataCache.GetCandles(symbol, interval); found && len(candles) >= limit {
		closes := models.Closes(candles)
		scorer.SetSeries(symbol, closes)
		return closes, nil
	}

	candles, err := client.GetKlines(ctx, symbol, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s candles: %w", symbol, interval, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles returned for %s at %s", symbol, interval)
	}

	dataCache.SetCandles(symbol, interval, candles)
	closes := models.Closes(candles)
	scorer.SetSeries(symbol, closes)
	return closes, nil
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(s)
}
