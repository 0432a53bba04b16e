package memorystore

import (
	"errors"
	"sync"

	"pricewatch/internal/binance/symbols"
)

// ErrNoPrice marks the absence of a value for a symbol. Absence is never
// encoded as a zero price.
var ErrNoPrice = errors.New("no price")

// Writer is the write handle to a PriceStore. Exactly one component holds it.
type Writer interface {
	Set(symbol symbols.Symbol, price float64)
}

// Reader is the read-only handle shared with every other component.
type Reader interface {
	Get(symbol symbols.Symbol) (float64, bool)
	Copy() map[symbols.Symbol]float64
	Len() int
}

// PriceStore maps a symbol to its latest price. Used for both the real-time
// prices and the daily open prices.
type PriceStore struct {
	mu     sync.RWMutex
	prices map[symbols.Symbol]float64
}

func NewPriceStore() *PriceStore {
	return &PriceStore{
		prices: make(map[symbols.Symbol]float64),
	}
}

// Set overwrites the price for symbol.
func (s *PriceStore) Set(symbol symbols.Symbol, price float64) {
	s.mu.Lock()
	s.prices[symbol] = price
	s.mu.Unlock()
}

// Get returns the price for symbol and whether one has been stored.
func (s *PriceStore) Get(symbol symbols.Symbol) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[symbol]
	return p, ok
}

// Lookup is Get with ErrNoPrice for a missing symbol.
func (s *PriceStore) Lookup(symbol symbols.Symbol) (float64, error) {
	if p, ok := s.Get(symbol); ok {
		return p, nil
	}
	return 0, ErrNoPrice
}

// Copy returns a point-in-time copy of all prices.
func (s *PriceStore) Copy() map[symbols.Symbol]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[symbols.Symbol]float64, len(s.prices))
	for k, v := range s.prices {
		out[k] = v
	}
	return out
}

// Len returns the number of symbols with a stored price.
func (s *PriceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prices)
}

// ReadOnly returns a view of s that cannot be used to mutate it.
func (s *PriceStore) ReadOnly() Reader {
	return view{s: s}
}

type view struct {
	s *PriceStore
}

func (v view) Get(symbol symbols.Symbol) (float64, bool) { return v.s.Get(symbol) }
func (v view) Copy() map[symbols.Symbol]float64         { return v.s.Copy() }
func (v view) Len() int                                  { return v.s.Len() }
