// Package stream manages the websocket connection to the exchange's kline
// streams and keeps the candle cache current as bars update in real time.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pairlens/pairlens/internal/cache"
	"github.com/pairlens/pairlens/internal/config"
	"github.com/pairlens/pairlens/internal/models"
)

// StreamClient manages the websocket connection for real-time candles
type StreamClient struct {
	cfg                   *config.Config
	cache                 *cache.Cache
	logger                *zap.Logger
	conn                  *websocket.Conn
	mu                    sync.RWMutex
	subscriptions         map[string]bool
	handlers              map[string]Handler
	reconnectDelay        time.Duration
	ctx                   context.Context
	cancel                context.CancelFunc
	isConnected           bool
	connectionAttempts    int
	maxConnectionAttempts int
	nextRequestID         int
}

// Handler is a callback for stream messages
type Handler func(message interface{})

// klineEvent is the exchange's kline stream payload. Prices arrive as
// strings inside the nested "k" object.
type klineEvent struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Kline     struct {
		OpenTime  int64  `json:"t"`
		CloseTime int64  `json:"T"`
		Interval  string `json:"i"`
		Open      string `json:"o"`
		High      string `json:"h"`
		Low       string `json:"l"`
		Close     string `json:"c"`
		Volume    string `json:"v"`
		IsClosed  bool   `json:"x"`
	} `json:"k"`
}

// controlResponse covers SUBSCRIBE/UNSUBSCRIBE acks and stream errors.
type controlResponse struct {
	Result *json.RawMessage `json:"result"`
	ID     int              `json:"id"`
	Code   int              `json:"code"`
	Msg    string           `json:"msg"`
}

// NewStreamClient creates a new streaming client
func NewStreamClient(cfg *config.Config, cache *cache.Cache, logger *zap.Logger) *StreamClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &StreamClient{
		cfg:                   cfg,
		cache:                 cache,
		logger:                logger,
		subscriptions:         make(map[string]bool),
		handlers:              make(map[string]Handler),
		reconnectDelay:        cfg.WebsocketReconnectDelay,
		ctx:                   ctx,
		cancel:                cancel,
		maxConnectionAttempts: 5,
	}
}

// StreamName builds the kline stream identifier for a symbol and interval
func StreamName(symbol, interval string) string {
	return strings.ToLower(symbol) + "@kline_" + interval
}

// Connect establishes the websocket connection
func (c *StreamClient) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Close existing connection if any
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.isConnected = false
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.Dial(c.cfg.BinanceWSURL, nil)
	if err != nil {
		c.connectionAttempts++
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	c.isConnected = true
	c.connectionAttempts = 0

	// Start message handler
	go c.handleMessages()

	// Resubscribe staged streams
	if len(c.subscriptions) > 0 {
		streams := make([]string, 0, len(c.subscriptions))
		for stream := range c.subscriptions {
			streams = append(streams, stream)
		}
		c.logger.Info("Resubscribing after connect", zap.Strings("streams", streams))
		if err := c.sendControl("SUBSCRIBE", streams); err != nil {
			c.logger.Error("Failed to resubscribe after connect", zap.Error(err))
		}
	}

	c.logger.Info("Websocket connected", zap.String("url", c.cfg.BinanceWSURL))
	return nil
}

// Subscribe adds kline streams for the symbols at the given interval
func (c *StreamClient) Subscribe(symbols []string, interval string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	streams := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		stream := StreamName(symbol, interval)
		c.subscriptions[stream] = true
		streams = append(streams, stream)
	}

	if c.isConnected {
		c.logger.Info("Sending subscription", zap.Strings("streams", streams))
		return c.sendControl("SUBSCRIBE", streams)
	}

	// Not connected yet; stage the subscriptions
	c.logger.Info("Staged subscriptions (will subscribe after connect)", zap.Strings("streams", streams))
	return nil
}

// Unsubscribe removes kline streams for the symbols at the given interval
func (c *StreamClient) Unsubscribe(symbols []string, interval string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	streams := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		stream := StreamName(symbol, interval)
		delete(c.subscriptions, stream)
		streams = append(streams, stream)
	}

	if c.isConnected {
		return c.sendControl("UNSUBSCRIBE", streams)
	}

	return nil
}

// sendControl sends a SUBSCRIBE/UNSUBSCRIBE request. Callers hold the lock.
func (c *StreamClient) sendControl(method string, streams []string) error {
	c.nextRequestID++
	msg := struct {
		Method string   `json:"method"`
		Params []string `json:"params"`
		ID     int      `json:"id"`
	}{
		Method: method,
		Params: streams,
		ID:     c.nextRequestID,
	}
	return c.conn.WriteJSON(msg)
}

// RegisterHandler registers a callback for a specific message type
func (c *StreamClient) RegisterHandler(msgType string, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[msgType] = handler
}

// handleMessages processes incoming websocket messages
func (c *StreamClient) handleMessages() {
	defer func() {
		c.mu.Lock()
		c.isConnected = false
		c.mu.Unlock()

		// Only attempt reconnect if we haven't exceeded max attempts
		if c.connectionAttempts < c.maxConnectionAttempts {
			c.reconnect()
		} else {
			c.logger.Error("Max connection attempts reached, stopping reconnection")
		}
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			var raw json.RawMessage

			// Set read deadline
			c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			if err := c.conn.ReadJSON(&raw); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					c.logger.Error("Websocket read error", zap.Error(err))
				}
				return
			}

			c.processMessage(raw)
		}
	}
}

// processMessage handles individual stream messages
func (c *StreamClient) processMessage(raw json.RawMessage) {
	var probe struct {
		EventType string `json:"e"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		c.logger.Error("failed to parse message", zap.Error(err))
		return
	}

	switch probe.EventType {
	case "kline":
		var ev klineEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.logger.Error("failed to parse kline event", zap.Error(err))
			return
		}

		candle, err := candleFromEvent(ev)
		if err != nil {
			c.logger.Error("failed to convert kline event", zap.String("symbol", ev.Symbol), zap.Error(err))
			return
		}

		c.cache.UpdateCandleFromStream(candle)
		c.mu.RLock()
		handler, ok := c.handlers["kline"]
		c.mu.RUnlock()
		if ok {
			handler(candle)
		}

	default:
		var ctrl controlResponse
		if err := json.Unmarshal(raw, &ctrl); err != nil {
			c.logger.Error("failed to parse control response", zap.Error(err))
			return
		}

		if ctrl.Msg != "" {
			c.logger.Error("Stream error",
				zap.Int("code", ctrl.Code),
				zap.String("message", ctrl.Msg))
			c.mu.RLock()
			handler, ok := c.handlers["error"]
			c.mu.RUnlock()
			if ok {
				handler(ctrl)
			}
			return
		}

		c.logger.Debug("Stream control ack", zap.Int("id", ctrl.ID))
	}
}

// candleFromEvent converts a kline event into the shared candle type
func candleFromEvent(ev klineEvent) (models.Candle, error) {
	candle := models.Candle{
		Symbol:    ev.Symbol,
		Interval:  ev.Kline.Interval,
		OpenTime:  time.UnixMilli(ev.Kline.OpenTime).UTC(),
		CloseTime: time.UnixMilli(ev.Kline.CloseTime).UTC(),
	}

	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"open", ev.Kline.Open, &candle.Open},
		{"high", ev.Kline.High, &candle.High},
		{"low", ev.Kline.Low, &candle.Low},
		{"close", ev.Kline.Close, &candle.Close},
		{"volume", ev.Kline.Volume, &candle.Volume},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return models.Candle{}, fmt.Errorf("parse %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return candle, nil
}

// reconnect attempts to reconnect with exponential backoff
func (c *StreamClient) reconnect() {
	backoff := c.reconnectDelay
	maxBackoff := 60 * time.Second

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-time.After(backoff):
			if c.connectionAttempts >= c.maxConnectionAttempts {
				c.logger.Error("Max connection attempts reached, stopping reconnection",
					zap.Int("attempts", c.connectionAttempts))
				return
			}

			c.logger.Info("Attempting to reconnect",
				zap.Duration("backoff", backoff),
				zap.Int("attempt", c.connectionAttempts+1))

			if err := c.Connect(); err != nil {
				c.logger.Error("Reconnect failed", zap.Error(err))
				// Exponential backoff
				backoff = backoff * 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			} else {
				c.logger.Info("Reconnected successfully")
				return
			}
		}
	}
}

// Close gracefully shuts down the stream client
func (c *StreamClient) Close() error {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		// Send close message
		err := c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		if err != nil {
			c.logger.Error("Error sending close message", zap.Error(err))
		}

		// Close connection
		closeErr := c.conn.Close()
		c.conn = nil
		c.isConnected = false
		return closeErr
	}

	return nil
}

// IsConnected returns connection status
func (c *StreamClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}
