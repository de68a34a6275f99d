// Package app runs the gesture pipeline: a frame scheduler that reads the
// capture source, runs hand detection one call at a time and feeds the
// results through the control pipeline to a handler.
package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/ayusman/handsteer/internal/capture"
	"github.com/ayusman/handsteer/internal/control"
	"github.com/ayusman/handsteer/internal/detector"
	"github.com/ayusman/handsteer/internal/emit"
	"github.com/ayusman/handsteer/internal/log"
	"github.com/ayusman/handsteer/internal/timeutil"
)

// Scheduler timing defaults.
const (
	// DefaultFrameInterval targets one tick per display refresh at about 60Hz.
	DefaultFrameInterval = 16 * time.Millisecond
	// DefaultLivenessPeriod is how often the capture source is checked.
	DefaultLivenessPeriod = 15 * time.Second
)

var (
	// ErrNotStarted is returned by Stop when the pipeline is not running.
	ErrNotStarted = errors.New("pipeline not started")
	// ErrNoDetector is returned by Start when no detector is configured.
	ErrNoDetector = errors.New("no hand detector configured")
	// ErrNoSource is returned by Start when no capture source is configured.
	ErrNoSource = errors.New("no capture source configured")
)

// Config holds scheduler settings.
type Config struct {
	Control control.Config
	// FrameInterval is the ticker period.
	FrameInterval time.Duration
	// MinFrameInterval drops ticks that arrive sooner than this after the
	// previous one. Zero uses three quarters of FrameInterval.
	MinFrameInterval time.Duration
	// LivenessPeriod is the capture liveness check period.
	LivenessPeriod time.Duration
	// Preview keeps a JPEG of the latest detected frame.
	Preview bool
}

// DefaultConfig returns the stock scheduler settings.
func DefaultConfig() Config {
	return Config{
		Control:        control.DefaultConfig(),
		FrameInterval:  DefaultFrameInterval,
		LivenessPeriod: DefaultLivenessPeriod,
	}
}

// Stats counts what the scheduler did since the last Start.
type Stats struct {
	Running           bool   `json:"running"`
	Enabled           bool   `json:"enabled"`
	Processed         uint64 `json:"processed"`
	Dropped           uint64 `json:"dropped"`
	SkippedInFlight   uint64 `json:"skipped_in_flight"`
	ReadFailures      uint64 `json:"read_failures"`
	DetectorFailures  uint64 `json:"detector_failures"`
	Reacquisitions    uint64 `json:"reacquisitions"`
	ReacquireFailures uint64 `json:"reacquire_failures"`
}

type counters struct {
	processed         atomic.Uint64
	dropped           atomic.Uint64
	skipped           atomic.Uint64
	readFailures      atomic.Uint64
	detectorFailures  atomic.Uint64
	reacquisitions    atomic.Uint64
	reacquireFailures atomic.Uint64
}

func (c *counters) reset() {
	c.processed.Store(0)
	c.dropped.Store(0)
	c.skipped.Store(0)
	c.readFailures.Store(0)
	c.detectorFailures.Store(0)
	c.reacquisitions.Store(0)
	c.reacquireFailures.Store(0)
}

// Option configures an App.
type Option func(*App)

// WithClock replaces the wall clock, for tests.
func WithClock(c timeutil.Clock) Option {
	return func(a *App) { a.clock = c }
}

// App is the gesture pipeline.
type App struct {
	cfg      Config
	source   capture.Source
	detector detector.Detector
	handler  emit.Handler
	clock    timeutil.Clock

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	enabled  atomic.Bool
	inflight atomic.Bool
	results  chan result
	lastTick time.Time
	// readStreak counts consecutive failed reads; scheduler goroutine only.
	readStreak int

	stateMu sync.RWMutex
	state   *control.State

	stats   counters
	preview atomic.Pointer[[]byte]
}

// New creates a pipeline. It does not open the source.
func New(cfg Config, src capture.Source, det detector.Detector, h emit.Handler, opts ...Option) *App {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	if cfg.MinFrameInterval <= 0 {
		// ticker jitter must not drop on-schedule ticks
		cfg.MinFrameInterval = cfg.FrameInterval * 3 / 4
	}
	if cfg.LivenessPeriod <= 0 {
		cfg.LivenessPeriod = DefaultLivenessPeriod
	}

	a := &App{
		cfg:      cfg,
		source:   src,
		detector: det,
		handler:  h,
		clock:    timeutil.RealClock{},
		state:    control.NewState(cfg.Control),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.enabled.Store(true)
	return a
}

// Start opens the capture source and starts the scheduler and liveness
// goroutines. If the detector or the source cannot be initialized, the
// handler is told once that no hand is present and the error is returned;
// nothing keeps running. Calling Start on a running pipeline is a no-op.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return nil
	}

	if err := a.initialize(); err != nil {
		if a.handler != nil {
			a.handler.OnHandPresence(false)
		}
		log.Error("pipeline initialization failed", "error", err)
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.results = make(chan result, 1)
	a.inflight.Store(false)
	a.lastTick = time.Time{}
	a.readStreak = 0
	a.stats.reset()

	frames := a.clock.NewTicker(a.cfg.FrameInterval)
	liveness := a.clock.NewTicker(a.cfg.LivenessPeriod)

	a.wg.Add(2)
	go a.run(ctx, frames)
	go a.keepAlive(ctx, liveness)
	a.running = true

	log.Info("pipeline started",
		"frame_interval", a.cfg.FrameInterval,
		"liveness_period", a.cfg.LivenessPeriod)
	return nil
}

func (a *App) initialize() error {
	if a.detector == nil {
		return ErrNoDetector
	}
	if a.source == nil {
		return ErrNoSource
	}
	if c, ok := a.detector.(detector.Checker); ok {
		if err := c.Ready(); err != nil {
			return errors.Wrap(err, "hand detector not ready")
		}
	}
	if err := a.source.Open(); err != nil {
		return errors.Wrap(err, "open capture source")
	}
	return nil
}

// Stop cancels the scheduler, any in-flight detection and the liveness
// check, waits for them to exit, then releases the source and detector.
// No handler call happens after Stop returns.
func (a *App) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return ErrNotStarted
	}

	a.cancel()
	a.wg.Wait()
	a.running = false
	a.inflight.Store(false)

	var firstErr error
	if err := a.source.Close(); err != nil {
		firstErr = errors.Wrap(err, "close capture source")
		log.Warn("closing capture source", "error", err)
	}
	if err := a.detector.Close(); err != nil {
		if firstErr == nil {
			firstErr = errors.Wrap(err, "close hand detector")
		}
		log.Warn("closing hand detector", "error", err)
	}

	log.Info("pipeline stopped")
	return firstErr
}

// Running reports whether Start succeeded and Stop was not called since.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// SetEnabled pauses or resumes frame processing. Paused ticks read nothing
// and emit nothing; accumulated gesture state is kept.
func (a *App) SetEnabled(enabled bool) {
	if a.enabled.Swap(enabled) != enabled {
		log.Info("pipeline enabled changed", "enabled", enabled)
	}
}

// IsEnabled reports whether frame processing is enabled.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// State returns a snapshot of the gesture pipeline state.
func (a *App) State() control.Snapshot {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.state.Snapshot()
}

// Stats returns the scheduler counters.
func (a *App) Stats() Stats {
	return Stats{
		Running:           a.Running(),
		Enabled:           a.IsEnabled(),
		Processed:         a.stats.processed.Load(),
		Dropped:           a.stats.dropped.Load(),
		SkippedInFlight:   a.stats.skipped.Load(),
		ReadFailures:      a.stats.readFailures.Load(),
		DetectorFailures:  a.stats.detectorFailures.Load(),
		Reacquisitions:    a.stats.reacquisitions.Load(),
		ReacquireFailures: a.stats.reacquireFailures.Load(),
	}
}

// Preview returns the JPEG of the most recent frame sent to the detector,
// or nil when previews are disabled or no frame has been read yet.
func (a *App) Preview() []byte {
	p := a.preview.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Reconfigure replaces the control calibration while running. Gesture
// modes are kept; smoothers and change gates restart.
func (a *App) Reconfigure(cfg control.Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "reconfigure pipeline")
	}

	a.stateMu.Lock()
	a.cfg.Control = cfg
	a.state.Retune(cfg)
	a.stateMu.Unlock()

	log.Info("pipeline calibration replaced")
	return nil
}

// Config returns the pipeline settings.
func (a *App) Config() Config {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.cfg
}
