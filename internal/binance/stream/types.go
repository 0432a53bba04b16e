package stream

import "encoding/json"

// Envelope is a combined-stream message:
// {"stream":"btcusdt@ticker","data":{...}}
type Envelope struct {
	Stream string          `json:"stream"` // Stream name, e.g. "btcusdt@ticker"
	Data   json.RawMessage `json:"data"`   // Delay decoding until the stream is known
}

// TickerPayload is the subset of the 24hr ticker event used here.
type TickerPayload struct {
	Event     string `json:"e"` // Event type, "24hrTicker"
	EventTime int64  `json:"E"` // Event time (ms since epoch)
	Symbol    string `json:"s"` // Symbol, e.g. "BTCUSDT"
	LastPrice string `json:"c"` // Last traded price, decimal string
}

// Tick is a parsed price update.
type Tick struct {
	Symbol string
	Price  float64
}
