// Package snapshot derives the percent-change view from current and open
// prices and publishes it atomically.
package snapshot

import (
	"time"

	"pricewatch/internal/binance/symbols"
)

// PriceRecord is the derived view of one symbol.
type PriceRecord struct {
	Name          string  `json:"name"`           // Display name, e.g. "BTC"
	OpenPrice     float64 `json:"open_price"`     // Baseline captured at the daily open
	CurrentPrice  float64 `json:"current_price"`  // Latest traded price
	ChangePercent float64 `json:"change_percent"` // Rounded to 3 decimals
	IsUp          bool    `json:"is_up"`          // ChangePercent >= 0
}

// Snapshot is an immutable set of records from a single computation pass.
// Never modify a published Snapshot; build a new one instead.
type Snapshot struct {
	version    uint64
	computedAt time.Time
	order      []symbols.Symbol
	records    map[symbols.Symbol]PriceRecord
}

// Version increases by one with every published snapshot.
func (s *Snapshot) Version() uint64 { return s.version }

// ComputedAt is the time the pass that produced s started.
func (s *Snapshot) ComputedAt() time.Time { return s.computedAt }

// Len returns the number of records.
func (s *Snapshot) Len() int { return len(s.records) }

// Get returns the record for symbol, if the symbol has been seen on the feed.
func (s *Snapshot) Get(symbol symbols.Symbol) (PriceRecord, bool) {
	r, ok := s.records[symbol]
	return r, ok
}

// Symbols returns the symbols present, in registry order.
func (s *Snapshot) Symbols() []symbols.Symbol {
	out := make([]symbols.Symbol, len(s.order))
	copy(out, s.order)
	return out
}

// Records returns a copy of all records keyed by symbol.
func (s *Snapshot) Records() map[symbols.Symbol]PriceRecord {
	out := make(map[symbols.Symbol]PriceRecord, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out
}
