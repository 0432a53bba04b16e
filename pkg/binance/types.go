package binance

import "fmt"

// TickerPrice is one entry of GET /api/v3/ticker/price.
type TickerPrice struct {
	Symbol string `json:"symbol"` // e.g., "BTCUSDT"
	Price  string `json:"price"`  // Last price, decimal string
}

// APIError is the error body Binance returns with non-2xx responses.
type APIError struct {
	Code int    `json:"code"` // Negative Binance error code, e.g. -1121
	Msg  string `json:"msg"`  // Human-readable message
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance error %d: %s", e.Code, e.Msg)
}
