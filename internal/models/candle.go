// Package models holds the market-data value types shared across the app.
// Exchange kline payloads carry numeric strings; parsing happens here, once,
// so every downstream package only ever sees clean numeric values.
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one OHLCV bar.
type Candle struct {
	Symbol    string          `json:"symbol"`
	Interval  string          `json:"interval"`
	OpenTime  time.Time       `json:"open_time"`
	CloseTime time.Time       `json:"close_time"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
}

// CloseF returns the close price as a float64 for the numeric pipeline.
func (c Candle) CloseF() float64 {
	return c.Close.InexactFloat64()
}

// Closes extracts the chronological close-price series from candles.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.CloseF()
	}
	return out
}

// ParseKline converts one exchange kline array entry into a Candle. The
// exchange sends prices and volume as strings; open/close times come as unix
// milliseconds.
func ParseKline(symbol, interval string, raw []interface{}) (Candle, error) {
	if len(raw) < 7 {
		return Candle{}, fmt.Errorf("kline for %s has %d fields, want at least 7", symbol, len(raw))
	}

	openMs, ok := raw[0].(float64)
	if !ok {
		return Candle{}, fmt.Errorf("kline for %s: open time is %T, want number", symbol, raw[0])
	}
	closeMs, ok := raw[6].(float64)
	if !ok {
		return Candle{}, fmt.Errorf("kline for %s: close time is %T, want number", symbol, raw[6])
	}

	c := Candle{
		Symbol:    symbol,
		Interval:  interval,
		OpenTime:  time.UnixMilli(int64(openMs)).UTC(),
		CloseTime: time.UnixMilli(int64(closeMs)).UTC(),
	}

	fields := []struct {
		idx  int
		name string
		dst  *decimal.Decimal
	}{
		{1, "open", &c.Open},
		{2, "high", &c.High},
		{3, "low", &c.Low},
		{4, "close", &c.Close},
		{5, "volume", &c.Volume},
	}
	for _, f := range fields {
		s, ok := raw[f.idx].(string)
		if !ok {
			return Candle{}, fmt.Errorf("kline for %s: %s is %T, want string", symbol, f.name, raw[f.idx])
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Candle{}, fmt.Errorf("kline for %s: parse %s %q: %w", symbol, f.name, s, err)
		}
		*f.dst = d
	}

	return c, nil
}

// IntervalMinutes parses interval strings like "1m", "15m", "1h", "4h", "1d"
// into minutes. Unrecognized strings return 0.
func IntervalMinutes(interval string) int {
	if len(interval) < 2 {
		return 0
	}

	unit := interval[len(interval)-1]
	var n int
	if _, err := fmt.Sscanf(interval[:len(interval)-1], "%d", &n); err != nil || n <= 0 {
		return 0
	}

	switch unit {
	case 'm':
		return n
	case 'h':
		return n * 60
	case 'd':
		return n * 60 * 24
	case 'w':
		return n * 60 * 24 * 7
	default:
		return 0
	}
}
