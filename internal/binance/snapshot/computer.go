package snapshot

import (
	"time"

	"pricewatch/internal/binance/memorystore"
	"pricewatch/internal/binance/symbols"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// ChangePercent returns (current-open)/open*100 rounded to 3 decimal places.
// A non-positive open yields 0.
func ChangePercent(open, current float64) float64 {
	if open <= 0 {
		return 0
	}
	o := decimal.NewFromFloat(open)
	c := decimal.NewFromFloat(current)
	return c.Sub(o).Div(o).Mul(hundred).Round(3).InexactFloat64()
}

// NewRecord builds the record for one symbol.
func NewRecord(name string, open, current float64) PriceRecord {
	change := ChangePercent(open, current)
	return PriceRecord{
		Name:          name,
		OpenPrice:     open,
		CurrentPrice:  current,
		ChangePercent: change,
		IsUp:          change >= 0,
	}
}

// Computer builds snapshots from the real-time and open price stores.
type Computer struct {
	registry  *symbols.Registry
	current   memorystore.Reader
	open      memorystore.Reader
	publisher *Publisher
	logger    *zap.Logger
}

func NewComputer(registry *symbols.Registry, current, open memorystore.Reader, publisher *Publisher, logger *zap.Logger) *Computer {
	return &Computer{
		registry:  registry,
		current:   current,
		open:      open,
		publisher: publisher,
		logger:    logger,
	}
}

// Compute builds a fresh snapshot and publishes it. Symbols without a current
// price are left out. A symbol without an open price uses its current price
// as the baseline for this pass only.
func (c *Computer) Compute(now time.Time) *Snapshot {
	current := c.current.Copy()
	open := c.open.Copy()

	snap := &Snapshot{
		computedAt: now,
		records:    make(map[symbols.Symbol]PriceRecord, len(current)),
	}

	for _, symbol := range c.registry.Symbols() {
		price, ok := current[symbol]
		if !ok {
			continue
		}
		base, ok := open[symbol]
		if !ok {
			base = price
		}
		name, _ := c.registry.DisplayName(symbol)

		snap.records[symbol] = NewRecord(name, base, price)
		snap.order = append(snap.order, symbol)
	}

	c.publisher.Publish(snap)
	c.logger.Debug("snapshot published",
		zap.Uint64("version", snap.version),
		zap.Int("records", snap.Len()),
	)
	return snap
}
