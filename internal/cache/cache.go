package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pairlens/pairlens/internal/analysis"
	"github.com/pairlens/pairlens/internal/models"
)

// Cache provides fast in-memory caching for candle series and analysis results
type Cache struct {
	candles  *gocache.Cache
	analyses *gocache.Cache
	ttl      time.Duration
}

// NewCache creates a new cache instance
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		candles:  gocache.New(5*time.Minute, 10*time.Minute), // Candle series cached longer
		analyses: gocache.New(ttl, ttl*2),
		ttl:      ttl,
	}
}

// SeriesKey builds the cache key for a symbol's candles at one interval
func SeriesKey(symbol, interval string) string {
	return symbol + ":" + interval
}

// GetCandles retrieves a cached candle series
func (c *Cache) GetCandles(symbol, interval string) ([]models.Candle, bool) {
	if val, found := c.candles.Get(SeriesKey(symbol, interval)); found {
		if candles, ok := val.([]models.Candle); ok {
			return candles, true
		}
	}
	return nil, false
}

// SetCandles caches a candle series
func (c *Cache) SetCandles(symbol, interval string, candles []models.Candle) {
	c.candles.Set(SeriesKey(symbol, interval), candles, 5*time.Minute)
}

// UpdateCandleFromStream appends a streamed candle to its cached series,
// replacing the last element when the open time matches (the same candle
// updating while still open).
func (c *Cache) UpdateCandleFromStream(candle models.Candle) {
	series, found := c.GetCandles(candle.Symbol, candle.Interval)
	if !found {
		c.SetCandles(candle.Symbol, candle.Interval, []models.Candle{candle})
		return
	}

	if n := len(series); n > 0 && series[n-1].OpenTime.Equal(candle.OpenTime) {
		series[n-1] = candle
	} else {
		series = append(series, candle)
	}
	c.SetCandles(candle.Symbol, candle.Interval, series)
}

// GetAnalysis retrieves a cached pair analysis result
func (c *Cache) GetAnalysis(key string) (*analysis.Result, bool) {
	if val, found := c.analyses.Get(key); found {
		if result, ok := val.(*analysis.Result); ok {
			return result, true
		}
	}
	return nil, false
}

// SetAnalysis caches a pair analysis result
func (c *Cache) SetAnalysis(key string, result *analysis.Result) {
	c.analyses.Set(key, result, c.ttl)
}

// Clear removes all cached data
func (c *Cache) Clear() {
	c.candles.Flush()
	c.analyses.Flush()
}

// Stats returns cache statistics
type Stats struct {
	SeriesCount   int
	AnalysisCount int
}

// GetStats returns current cache statistics
func (c *Cache) GetStats() Stats {
	return Stats{
		SeriesCount:   c.candles.ItemCount(),
		AnalysisCount: c.analyses.ItemCount(),
	}
}
