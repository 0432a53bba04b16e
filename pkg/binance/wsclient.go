package binance

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// WSClient keeps one combined-stream WebSocket connection open and routes
// every message to its handler. It reconnects forever until its context ends.
type WSClient struct {
	url         string
	handler     func([]byte)
	delay       DelayPolicy
	readTimeout time.Duration
	dialer      *websocket.Dialer
	logger      *zap.Logger

	state    atomic.Int32
	connects atomic.Int64
}

// WSOption configures a WSClient.
type WSOption func(*WSClient)

// WithDelayPolicy sets the reconnect delay policy. Default: FixedDelay(5s).
func WithDelayPolicy(p DelayPolicy) WSOption {
	return func(c *WSClient) { c.delay = p }
}

// WithReadTimeout treats a connection silent for d as dropped. Zero disables.
func WithReadTimeout(d time.Duration) WSOption {
	return func(c *WSClient) { c.readTimeout = d }
}

// WithHandshakeTimeout bounds the dial and upgrade.
func WithHandshakeTimeout(d time.Duration) WSOption {
	return func(c *WSClient) {
		dialer := *c.dialer
		dialer.HandshakeTimeout = d
		c.dialer = &dialer
	}
}

// NewWSClient creates a new WebSocket client for the given combined-stream URL.
func NewWSClient(url string, logger *zap.Logger, opts ...WSOption) *WSClient {
	c := &WSClient{
		url:    url,
		delay:  FixedDelay(5 * time.Second),
		dialer: websocket.DefaultDialer,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetMessageHandler sets the function to handle incoming messages.
func (c *WSClient) SetMessageHandler(h func([]byte)) {
	c.handler = h
}

// State returns the current connection state.
func (c *WSClient) State() State {
	return State(c.state.Load())
}

// Connects returns the number of successful connections so far.
func (c *WSClient) Connects() int64 {
	return c.connects.Load()
}

// Run connects, listens and reconnects until ctx is cancelled. Transport
// errors never end Run; it returns ctx.Err() once ctx is done.
func (c *WSClient) Run(ctx context.Context) error {
	defer c.setState(StateDisconnected)

	attempt := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.setState(StateConnecting)
		conn, err := c.connect(ctx)
		if err != nil {
			attempt++
			c.setState(StateDisconnected)
			delay := c.delay.Delay(attempt)
			c.logger.Warn("WebSocket connect failed, retrying",
				zap.String("url", c.url), zap.Int("attempt", attempt),
				zap.Duration("delay", delay), zap.Error(err))
			if !sleep(ctx, delay) {
				return ctx.Err()
			}
			continue
		}

		attempt = 0
		c.connects.Add(1)
		c.setState(StateConnected)
		c.logger.Info("WebSocket connected", zap.String("url", c.url))

		err = c.listen(ctx, conn)
		c.setState(StateDisconnected)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := c.delay.Delay(1)
		c.logger.Error("WebSocket read error, reconnecting", zap.Duration("delay", delay), zap.Error(err))
		if !sleep(ctx, delay) {
			return ctx.Err()
		}
	}
}

func (c *WSClient) connect(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %s)", c.url, err, resp.Status)
		}
		return nil, fmt.Errorf("dial %s: %w", c.url, err)
	}
	return conn, nil
}

// listen reads until the connection fails or ctx is cancelled, then closes it.
func (c *WSClient) listen(ctx context.Context, conn *websocket.Conn) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			_ = conn.Close()
		case <-stop:
			_ = conn.Close()
		}
	}()

	c.extendDeadline(conn)
	conn.SetPingHandler(func(data string) error {
		c.extendDeadline(conn)
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.extendDeadline(conn)

		if c.handler != nil {
			c.handler(msg)
		}
	}
}

func (c *WSClient) extendDeadline(conn *websocket.Conn) {
	if c.readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
}

func (c *WSClient) setState(s State) {
	c.state.Store(int32(s))
}

// sleep waits for d or until ctx is done. It reports whether the full delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
