package binance

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// State is the connection state of a WSClient.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// StreamURL builds a combined-stream address, e.g.
// wss://stream.binance.com:9443/stream?streams=btcusdt@ticker/ethusdt@ticker
func StreamURL(base string, streams []string) (string, error) {
	if len(streams) == 0 {
		return "", fmt.Errorf("no streams to subscribe")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse stream base url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("unsupported stream url scheme %q", u.Scheme)
	}
	// stream names contain '@' and are joined by '/'; Binance expects both unescaped
	u.RawQuery = "streams=" + strings.Join(streams, "/")
	return u.String(), nil
}

// DelayPolicy returns how long to wait before reconnect attempt n (n >= 1).
type DelayPolicy interface {
	Delay(attempt int) time.Duration
}

// FixedDelay waits the same duration before every attempt.
type FixedDelay time.Duration

func (d FixedDelay) Delay(int) time.Duration { return time.Duration(d) }

// ExponentialDelay doubles Base per consecutive failure, capped at Max.
type ExponentialDelay struct {
	Base time.Duration
	Max  time.Duration
}

func (e ExponentialDelay) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := e.Base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= e.Max || d <= 0 {
			return e.Max
		}
	}
	if d > e.Max {
		return e.Max
	}
	return d
}

// NewDelayPolicy returns FixedDelay(base) when max is zero, otherwise an
// ExponentialDelay from base up to max.
func NewDelayPolicy(base, max time.Duration) DelayPolicy {
	if max <= 0 || max <= base {
		return FixedDelay(base)
	}
	return ExponentialDelay{Base: base, Max: max}
}
