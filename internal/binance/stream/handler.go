package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"pricewatch/internal/binance/memorystore"
	"pricewatch/internal/binance/symbols"

	"go.uber.org/zap"
)

var (
	// ErrNotTicker is returned for well-formed messages that are not ticker
	// events, e.g. subscription acknowledgements.
	ErrNotTicker = errors.New("not a ticker message")
	// ErrMalformed is returned for messages that cannot be decoded into a tick.
	ErrMalformed = errors.New("malformed ticker message")
)

// ParseTicker decodes a combined-stream ticker envelope.
func ParseTicker(msg []byte) (Tick, error) {
	// Step 1: decode the envelope only, payload stays raw
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return Tick{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Stream == "" || len(env.Data) == 0 {
		return Tick{}, ErrNotTicker
	}
	if !isTickerStream(env.Stream) {
		return Tick{}, ErrNotTicker
	}

	// Step 2: decode the ticker payload
	var payload TickerPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return Tick{}, fmt.Errorf("%w: payload: %v", ErrMalformed, err)
	}
	if payload.Symbol == "" {
		return Tick{}, fmt.Errorf("%w: missing symbol", ErrMalformed)
	}

	price, err := strconv.ParseFloat(payload.LastPrice, 64)
	if err != nil {
		return Tick{}, fmt.Errorf("%w: price %q: %v", ErrMalformed, payload.LastPrice, err)
	}
	if price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		return Tick{}, fmt.Errorf("%w: non-positive price %q", ErrMalformed, payload.LastPrice)
	}

	return Tick{Symbol: payload.Symbol, Price: price}, nil
}

// MakeMessageHandler returns a function that handles incoming WebSocket
// messages by parsing ticker events and writing the last price for tracked
// symbols. Bad messages are logged and dropped.
func MakeMessageHandler(logger *zap.Logger, registry *symbols.Registry, store memorystore.Writer) func(msg []byte) {
	return func(msg []byte) {
		tick, err := ParseTicker(msg)
		switch {
		case errors.Is(err, ErrNotTicker):
			return // subscription responses and other control messages
		case err != nil:
			logger.Warn("failed to parse ticker message", zap.Error(err), zap.ByteString("raw", truncate(msg, 256)))
			return
		}

		symbol := symbols.Symbol(tick.Symbol)
		if !registry.Contains(symbol) {
			logger.Debug("ignoring untracked symbol", zap.String("symbol", tick.Symbol))
			return
		}

		store.Set(symbol, tick.Price)
	}
}

// isTickerStream returns true if the stream name is a ticker channel.
func isTickerStream(stream string) bool {
	return strings.HasSuffix(stream, "@ticker")
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
