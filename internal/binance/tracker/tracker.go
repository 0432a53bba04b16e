// Package tracker wires the price stores, the ticker feed, the daily open
// capture and the snapshot computation, and runs them for the lifetime of
// the process.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"pricewatch/config"
	"pricewatch/internal/binance/memorystore"
	"pricewatch/internal/binance/openprice"
	"pricewatch/internal/binance/snapshot"
	"pricewatch/internal/binance/stream"
	"pricewatch/internal/binance/symbols"
	"pricewatch/pkg/binance"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Mirror receives every published snapshot, e.g. to copy it to a cache.
type Mirror interface {
	Mirror(ctx context.Context, snap *snapshot.Snapshot) error
}

// Tracker owns the three stores. Only the feed handler holds the write handle
// of the real-time store and only the capturer holds the open price store's.
type Tracker struct {
	cfg      config.TrackerConfig
	logger   *zap.Logger
	registry *symbols.Registry

	current   *memorystore.PriceStore
	open      *memorystore.PriceStore
	publisher *snapshot.Publisher

	ws       *binance.WSClient
	capturer *openprice.Capturer
	computer *snapshot.Computer
	mirror   Mirror

	now         func() time.Time
	openHour    int
	openMinute  int
	location    *time.Location
	trigger     atomic.Pointer[openprice.DailyTrigger]
	wsOverrides []binance.WSOption
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithMirror copies every published snapshot to m.
func WithMirror(m Mirror) Option {
	return func(t *Tracker) { t.mirror = m }
}

// WithWSOptions appends options to the feed client.
func WithWSOptions(opts ...binance.WSOption) Option {
	return func(t *Tracker) { t.wsOverrides = append(t.wsOverrides, opts...) }
}

// New builds a Tracker from configuration. Nothing runs until Run.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Tracker, error) {
	registry, err := symbols.FromStrings(cfg.Tracker.Symbols)
	if err != nil {
		return nil, fmt.Errorf("symbol registry: %w", err)
	}
	loc, err := cfg.Tracker.Location()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	hour, minute, err := cfg.Tracker.OpenClock()
	if err != nil {
		return nil, fmt.Errorf("open_at: %w", err)
	}

	t := &Tracker{
		cfg:        cfg.Tracker,
		logger:     logger,
		registry:   registry,
		current:    memorystore.NewPriceStore(),
		open:       memorystore.NewPriceStore(),
		publisher:  snapshot.NewPublisher(),
		now:        time.Now,
		openHour:   hour,
		openMinute: minute,
		location:   loc,
	}
	for _, opt := range opts {
		opt(t)
	}

	streamURL, err := binance.StreamURL(cfg.Binance.WS.URL, registry.StreamNames())
	if err != nil {
		return nil, err
	}

	wsOpts := []binance.WSOption{
		binance.WithDelayPolicy(binance.NewDelayPolicy(cfg.Binance.WS.ReconnectDelay, cfg.Binance.WS.MaxReconnectDelay)),
		binance.WithReadTimeout(cfg.Binance.WS.ReadTimeout),
	}
	if cfg.Binance.WS.HandshakeTimeout > 0 {
		wsOpts = append(wsOpts, binance.WithHandshakeTimeout(cfg.Binance.WS.HandshakeTimeout))
	}
	wsOpts = append(wsOpts, t.wsOverrides...)

	t.ws = binance.NewWSClient(streamURL, logger.Named("feed"), wsOpts...)
	t.ws.SetMessageHandler(stream.MakeMessageHandler(logger.Named("feed"), registry, t.current))

	t.capturer = openprice.NewCapturer(registry, t.current.ReadOnly(), t.open, logger.Named("openprice"))
	t.computer = snapshot.NewComputer(registry, t.current.ReadOnly(), t.open.ReadOnly(), t.publisher, logger.Named("snapshot"))

	return t, nil
}

// Run starts the feed loop and the schedule loop and blocks until ctx is
// cancelled. Neither loop stops on its own.
func (t *Tracker) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return t.ws.Run(gctx)
	})
	g.Go(func() error {
		return t.runSchedule(gctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// runSchedule waits for the feed to warm up, captures the first open prices,
// then recomputes the snapshot every interval and recaptures the open prices
// once per day.
func (t *Tracker) runSchedule(ctx context.Context) error {
	if !sleep(ctx, t.cfg.Warmup) {
		return ctx.Err()
	}

	t.capture("startup")
	trigger := openprice.NewDailyTrigger(t.openHour, t.openMinute, t.location, t.now())
	t.trigger.Store(trigger)
	t.logger.Info("daily open scheduled", zap.Time("next", trigger.Next()))

	ticker := time.NewTicker(t.cfg.ComputeInterval)
	defer ticker.Stop()

	for {
		now := t.now()
		if trigger.Due(now) {
			t.capture("daily")
			t.logger.Info("daily open scheduled", zap.Time("next", trigger.Next()))
		}
		t.publish(ctx, now)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *Tracker) capture(reason string) {
	res := t.capturer.Capture()
	t.logger.Info("open prices captured",
		zap.String("reason", reason),
		zap.Int("captured", len(res.Captured)),
		zap.Int("skipped", len(res.Skipped)),
	)
}

func (t *Tracker) publish(ctx context.Context, now time.Time) {
	snap := t.computer.Compute(now)
	if t.mirror == nil {
		return
	}

	mctx, cancel := context.WithTimeout(ctx, t.cfg.ComputeInterval)
	defer cancel()
	if err := t.mirror.Mirror(mctx, snap); err != nil {
		t.logger.Warn("failed to mirror snapshot", zap.Uint64("version", snap.Version()), zap.Error(err))
	}
}

// Latest returns the most recently published snapshot, or nil.
func (t *Tracker) Latest() *snapshot.Snapshot {
	return t.publisher.Latest()
}

// FeedState returns the state of the ticker feed connection.
func (t *Tracker) FeedState() binance.State {
	return t.ws.State()
}

// Baselines returns how many symbols currently have an open price.
func (t *Tracker) Baselines() int {
	return t.open.Len()
}

// NextOpen returns when the next daily capture is due, or the zero time
// before the startup capture.
func (t *Tracker) NextOpen() time.Time {
	if trig := t.trigger.Load(); trig != nil {
		return trig.Next()
	}
	return time.Time{}
}

// Registry returns the tracked symbols.
func (t *Tracker) Registry() *symbols.Registry {
	return t.registry
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
