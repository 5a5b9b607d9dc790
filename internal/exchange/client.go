// Package exchange wraps the Binance public market-data REST API. Only the
// unauthenticated endpoints the analytics pipeline needs are implemented.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pairlens/pairlens/internal/config"
	"github.com/pairlens/pairlens/internal/models"
)

// Binance caps klines requests at 1000 rows.
const maxKlineLimit = 1000

// Client is a thin wrapper around the Binance REST API
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new exchange client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		baseURL: cfg.BinanceBaseURL,
	}
}

// doRequest performs an HTTP GET request
func (c *Client) doRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// parseResponse reads and unmarshals the response
func parseResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(target)
}

// Ping checks connectivity to the exchange
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.doRequest(ctx, c.baseURL+"/api/v3/ping")
	if err != nil {
		return err
	}
	var empty struct{}
	return parseResponse(resp, &empty)
}

// GetKlines retrieves up to limit recent candles for a symbol at the given
// interval, oldest first.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	return c.getKlines(ctx, symbol, interval, time.Time{}, time.Time{}, limit)
}

// GetKlinesRange retrieves candles between start and end, oldest first. Zero
// times are omitted from the query.
func (c *Client) GetKlinesRange(ctx context.Context, symbol, interval string, start, end time.Time, limit int) ([]models.Candle, error) {
	return c.getKlines(ctx, symbol, interval, start, end, limit)
}

func (c *Client) getKlines(ctx context.Context, symbol, interval string, start, end time.Time, limit int) ([]models.Candle, error) {
	if limit <= 0 || limit > maxKlineLimit {
		limit = maxKlineLimit
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", fmt.Sprintf("%d", limit))
	if !start.IsZero() {
		params.Set("startTime", fmt.Sprintf("%d", start.UnixMilli()))
	}
	if !end.IsZero() {
		params.Set("endTime", fmt.Sprintf("%d", end.UnixMilli()))
	}

	url := fmt.Sprintf("%s/api/v3/klines?%s", c.baseURL, params.Encode())
	resp, err := c.doRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	var raw [][]interface{}
	if err := parseResponse(resp, &raw); err != nil {
		return nil, err
	}

	candles := make([]models.Candle, 0, len(raw))
	for _, row := range raw {
		candle, err := models.ParseKline(symbol, interval, row)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

// GetCloses retrieves just the close-price series for a symbol, the form the
// analytics engines consume.
func (c *Client) GetCloses(ctx context.Context, symbol, interval string, limit int) ([]float64, error) {
	candles, err := c.GetKlines(ctx, symbol, interval, limit)
	if err != nil {
		return nil, err
	}
	return models.Closes(candles), nil
}

// Ticker is one row of the 24h ticker statistics endpoint.
type Ticker struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	QuoteVolume        string `json:"quoteVolume"`
}

// GetTickers retrieves 24h ticker statistics for the given symbols.
func (c *Client) GetTickers(ctx context.Context, symbols []string) ([]Ticker, error) {
	encoded, err := json.Marshal(symbols)
	if err != nil {
		return nil, fmt.Errorf("encode symbols: %w", err)
	}

	params := url.Values{}
	params.Set("symbols", string(encoded))

	url := fmt.Sprintf("%s/api/v3/ticker/24hr?%s", c.baseURL, params.Encode())
	resp, err := c.doRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	var tickers []Ticker
	if err := parseResponse(resp, &tickers); err != nil {
		return nil, err
	}

	return tickers, nil
}
