// Package symbols holds the fixed basket of tracked trading pairs.
package symbols

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSymbol is returned when a pair has no known display name.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Symbol identifies a trading pair, e.g. "BTCUSDT".
type Symbol string

// quoteAssets are stripped from a pair to derive its display name.
var quoteAssets = []string{"USDT", "USDC", "FDUSD", "BUSD", "BTC", "ETH"}

// defaultBasket is the basket tracked when no override is configured.
var defaultBasket = []Symbol{
	"BTCUSDT",
	"ETHUSDT",
	"SOLUSDT",
	"XRPUSDT",
	"DOGEUSDT",
	"BNBUSDT",
	"ADAUSDT",
	"TRXUSDT",
}

// Registry is an immutable ordered list of symbols and their display names.
type Registry struct {
	symbols []Symbol
	names   map[Symbol]string
}

// Default returns the registry of the eight default pairs.
func Default() *Registry {
	r, _ := New(defaultBasket)
	return r
}

// New builds a registry from the given pairs. Symbols are upper-cased and
// deduplicated; order is preserved.
func New(list []Symbol) (*Registry, error) {
	if len(list) == 0 {
		return nil, errors.New("empty symbol list")
	}

	r := &Registry{names: make(map[Symbol]string, len(list))}
	for _, s := range list {
		s = Symbol(strings.ToUpper(strings.TrimSpace(string(s))))
		if s == "" {
			return nil, errors.New("empty symbol")
		}
		if _, dup := r.names[s]; dup {
			continue
		}
		name, err := displayName(s)
		if err != nil {
			return nil, err
		}
		r.symbols = append(r.symbols, s)
		r.names[s] = name
	}
	return r, nil
}

// FromStrings is New for config-provided values. An empty list yields Default.
func FromStrings(list []string) (*Registry, error) {
	if len(list) == 0 {
		return Default(), nil
	}
	out := make([]Symbol, 0, len(list))
	for _, s := range list {
		out = append(out, Symbol(s))
	}
	return New(out)
}

func displayName(s Symbol) (string, error) {
	for _, q := range quoteAssets {
		if base, ok := strings.CutSuffix(string(s), q); ok && base != "" {
			return base, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownSymbol, s)
}

// Symbols returns a copy of the tracked symbols in registry order.
func (r *Registry) Symbols() []Symbol {
	out := make([]Symbol, len(r.symbols))
	copy(out, r.symbols)
	return out
}

// Len returns the number of tracked symbols.
func (r *Registry) Len() int { return len(r.symbols) }

// Contains reports whether s is tracked.
func (r *Registry) Contains(s Symbol) bool {
	_, ok := r.names[s]
	return ok
}

// DisplayName returns the short label for s, e.g. "BTC" for "BTCUSDT".
func (r *Registry) DisplayName(s Symbol) (string, error) {
	name, ok := r.names[s]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSymbol, s)
	}
	return name, nil
}

// StreamNames returns the combined-stream channel per symbol ("btcusdt@ticker").
func (r *Registry) StreamNames() []string {
	out := make([]string, 0, len(r.symbols))
	for _, s := range r.symbols {
		out = append(out, strings.ToLower(string(s))+"@ticker")
	}
	return out
}
