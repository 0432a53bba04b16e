package openprice

import (
	"pricewatch/internal/binance/memorystore"
	"pricewatch/internal/binance/symbols"

	"go.uber.org/zap"
)

// Capturer copies current prices into the open price store.
type Capturer struct {
	registry *symbols.Registry
	current  memorystore.Reader
	open     memorystore.Writer
	logger   *zap.Logger
}

// CaptureResult lists what one capture wrote and skipped.
type CaptureResult struct {
	Captured map[symbols.Symbol]float64
	Skipped  []symbols.Symbol
}

func NewCapturer(registry *symbols.Registry, current memorystore.Reader, open memorystore.Writer, logger *zap.Logger) *Capturer {
	return &Capturer{
		registry: registry,
		current:  current,
		open:     open,
		logger:   logger,
	}
}

// Capture overwrites the baseline of every symbol that currently has a
// price. Symbols without one are skipped and keep any previous baseline
// until the next capture.
func (c *Capturer) Capture() CaptureResult {
	res := CaptureResult{Captured: make(map[symbols.Symbol]float64)}

	for _, symbol := range c.registry.Symbols() {
		price, ok := c.current.Get(symbol)
		if !ok {
			c.logger.Warn("no current price, open price not captured", zap.String("symbol", string(symbol)))
			res.Skipped = append(res.Skipped, symbol)
			continue
		}
		c.open.Set(symbol, price)
		res.Captured[symbol] = price
		c.logger.Info("open price captured", zap.String("symbol", string(symbol)), zap.Float64("price", price))
	}

	return res
}
