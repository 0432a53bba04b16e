package stream

import (
	"errors"
	"testing"

	"pricewatch/internal/binance/memorystore"
	"pricewatch/internal/binance/symbols"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// go test -v --run TestParseTicker
func TestParseTicker(t *testing.T) {
	tests := []struct {
		name    string
		msg     string
		want    Tick
		wantErr error
	}{
		{
			name: "valid",
			msg:  `{"stream":"btcusdt@ticker","data":{"e":"24hrTicker","E":1,"s":"BTCUSDT","c":"61500.01000000"}}`,
			want: Tick{Symbol: "BTCUSDT", Price: 61500.01},
		},
		{
			name:    "subscription ack",
			msg:     `{"result":null,"id":1}`,
			wantErr: ErrNotTicker,
		},
		{
			name:    "other stream",
			msg:     `{"stream":"btcusdt@trade","data":{"s":"BTCUSDT","p":"1"}}`,
			wantErr: ErrNotTicker,
		},
		{
			name:    "invalid json",
			msg:     `{"stream":"btcusdt@ticker","data":`,
			wantErr: ErrMalformed,
		},
		{
			name:    "data not an object",
			msg:     `{"stream":"btcusdt@ticker","data":"oops"}`,
			wantErr: ErrMalformed,
		},
		{
			name:    "price not numeric",
			msg:     `{"stream":"btcusdt@ticker","data":{"s":"BTCUSDT","c":"abc"}}`,
			wantErr: ErrMalformed,
		},
		{
			name:    "missing price",
			msg:     `{"stream":"btcusdt@ticker","data":{"s":"BTCUSDT"}}`,
			wantErr: ErrMalformed,
		},
		{
			name:    "zero price",
			msg:     `{"stream":"btcusdt@ticker","data":{"s":"BTCUSDT","c":"0"}}`,
			wantErr: ErrMalformed,
		},
		{
			name:    "missing symbol",
			msg:     `{"stream":"btcusdt@ticker","data":{"c":"1.0"}}`,
			wantErr: ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTicker([]byte(tt.msg))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

// go test -v --run TestHandlerSurvivesMalformed
func TestHandlerSurvivesMalformed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	store := memorystore.NewPriceStore()
	handle := MakeMessageHandler(zap.New(core), symbols.Default(), store)

	handle([]byte(`{"stream":"ethusdt@ticker","data":{"s":"ETHUSDT","c":"3000"}}`))
	handle([]byte(`not json at all`))
	handle([]byte(`{"stream":"ethusdt@ticker","data":{"s":"ETHUSDT","c":"3100.5"}}`))
	handle([]byte(`{"stream":"btcusdt@ticker","data":{"s":"BTCUSDT","c":"60000"}}`))

	if p, ok := store.Get("ETHUSDT"); !ok || p != 3100.5 {
		t.Errorf("expected ETHUSDT 3100.5, got %v (ok=%v)", p, ok)
	}
	if p, ok := store.Get("BTCUSDT"); !ok || p != 60000 {
		t.Errorf("expected BTCUSDT 60000, got %v (ok=%v)", p, ok)
	}
	if n := logs.FilterMessage("failed to parse ticker message").Len(); n != 1 {
		t.Errorf("expected 1 warning, got %d", n)
	}
}

// go test -v --run TestHandlerIgnoresUntracked
func TestHandlerIgnoresUntracked(t *testing.T) {
	store := memorystore.NewPriceStore()
	handle := MakeMessageHandler(zap.NewNop(), symbols.Default(), store)

	handle([]byte(`{"stream":"ltcusdt@ticker","data":{"s":"LTCUSDT","c":"80"}}`))
	handle([]byte(`{"result":null,"id":1}`))

	if store.Len() != 0 {
		t.Errorf("expected no prices, got %v", store.Copy())
	}
}
