package stream

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pairlens/pairlens/internal/cache"
	"github.com/pairlens/pairlens/internal/config"
	"github.com/pairlens/pairlens/internal/models"
)

const klinePayload = `{
	"e": "kline", "E": 1717203600123, "s": "BTCUSDT",
	"k": {
		"t": 1717200000000, "T": 1717203599999, "i": "1h",
		"o": "65000.1", "h": "65500.0", "l": "64800.0", "c": "65200.5",
		"v": "1234.5", "x": true
	}
}`

func testStreamClient() (*StreamClient, *cache.Cache) {
	cfg := &config.Config{
		BinanceWSURL:            "wss://example.invalid/ws",
		WebsocketReconnectDelay: time.Second,
	}
	dataCache := cache.NewCache(time.Minute)
	return NewStreamClient(cfg, dataCache, zap.NewNop()), dataCache
}

func TestStreamName(t *testing.T) {
	assert.Equal(t, "btcusdt@kline_1h", StreamName("BTCUSDT", "1h"))
	assert.Equal(t, "ethusdt@kline_15m", StreamName("ethusdt", "15m"))
}

func TestCandleFromEvent(t *testing.T) {
	var ev klineEvent
	require.NoError(t, json.Unmarshal([]byte(klinePayload), &ev))

	candle, err := candleFromEvent(ev)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", candle.Symbol)
	assert.Equal(t, "1h", candle.Interval)
	assert.Equal(t, time.UnixMilli(1717200000000).UTC(), candle.OpenTime)
	assert.Equal(t, "65200.5", candle.Close.String())
	assert.Equal(t, "1234.5", candle.Volume.String())
}

func TestCandleFromEventBadPrice(t *testing.T) {
	var ev klineEvent
	require.NoError(t, json.Unmarshal([]byte(klinePayload), &ev))
	ev.Kline.Close = "not-a-number"

	_, err := candleFromEvent(ev)
	require.Error(t, err)
}

func TestProcessMessageUpdatesCache(t *testing.T) {
	client, dataCache := testStreamClient()

	var handled []models.Candle
	client.RegisterHandler("kline", func(msg interface{}) {
		if candle, ok := msg.(models.Candle); ok {
			handled = append(handled, candle)
		}
	})

	client.processMessage(json.RawMessage(klinePayload))

	series, found := dataCache.GetCandles("BTCUSDT", "1h")
	require.True(t, found)
	require.Len(t, series, 1)
	assert.Equal(t, "65200.5", series[0].Close.String())

	require.Len(t, handled, 1)
	assert.Equal(t, "BTCUSDT", handled[0].Symbol)

	// Same open time updates in place rather than appending
	client.processMessage(json.RawMessage(klinePayload))
	series, _ = dataCache.GetCandles("BTCUSDT", "1h")
	assert.Len(t, series, 1)
}

func TestProcessMessageControlAck(t *testing.T) {
	client, _ := testStreamClient()

	// Acks and errors must not panic or reach the kline handler
	client.processMessage(json.RawMessage(`{"result":null,"id":1}`))
	client.processMessage(json.RawMessage(`{"code":2,"msg":"Invalid request"}`))
}

func TestSubscribeStagesWhenDisconnected(t *testing.T) {
	client, _ := testStreamClient()

	require.NoError(t, client.Subscribe([]string{"BTCUSDT", "ETHUSDT"}, "1h"))

	client.mu.RLock()
	defer client.mu.RUnlock()
	assert.True(t, client.subscriptions["btcusdt@kline_1h"])
	assert.True(t, client.subscriptions["ethusdt@kline_1h"])
}
