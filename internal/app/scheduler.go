package app

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/ayusman/handsteer/internal/control"
	"github.com/ayusman/handsteer/internal/detector"
	"github.com/ayusman/handsteer/internal/emit"
	"github.com/ayusman/handsteer/internal/log"
	"github.com/ayusman/handsteer/internal/timeutil"
)

// result is the outcome of one detection, applied on a later tick.
type result struct {
	hand *detector.HandLandmarks
	err  error
	ts   time.Time
}

// run is the scheduler loop. It is the only goroutine that touches the
// pipeline state and the only one that calls the handler.
func (a *App) run(ctx context.Context, ticker timeutil.Ticker) {
	defer a.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			a.tick(ctx)
		}
	}
}

// tick runs one scheduler step:
//  1. drop the tick if it came too soon after the previous one
//  2. apply a finished detection, if any
//  3. skip if paused or a detection is still running
//  4. read a frame and start a detection on it
func (a *App) tick(ctx context.Context) {
	now := a.clock.Now()
	if !a.lastTick.IsZero() && now.Sub(a.lastTick) < a.cfg.MinFrameInterval {
		a.stats.dropped.Add(1)
		return
	}
	a.lastTick = now

	select {
	case r := <-a.results:
		a.inflight.Store(false)
		a.apply(ctx, r)
	default:
	}

	if !a.enabled.Load() {
		return
	}
	if a.inflight.Load() {
		a.stats.skipped.Add(1)
		return
	}

	frame, err := a.source.ReadFrame()
	if err != nil {
		// capture gaps are handled by the liveness check; until then the
		// tick behaves as if no hand was seen
		a.stats.readFailures.Add(1)
		a.readStreak++
		if a.readStreak == 1 {
			log.Warn("reading frame", "error", err)
		} else {
			log.Debug("reading frame", "error", err, "streak", a.readStreak)
		}
		a.apply(ctx, result{ts: now})
		return
	}
	if a.readStreak > 0 {
		log.Info("frames flowing again", "failed_reads", a.readStreak)
		a.readStreak = 0
	}

	a.inflight.Store(true)
	a.wg.Add(1)
	go a.detect(ctx, frame, now)
}

// detect runs the detector on frame and hands the result to the scheduler.
func (a *App) detect(ctx context.Context, frame *gocv.Mat, ts time.Time) {
	defer a.wg.Done()
	defer frame.Close()

	r := result{ts: ts}
	func() {
		defer func() {
			if p := recover(); p != nil {
				r.hand = nil
				r.err = errors.Errorf("hand detector panicked: %v", p)
			}
		}()
		r.hand, r.err = a.detector.Detect(ctx, frame, ts)
	}()

	if a.cfg.Preview {
		a.storePreview(frame)
	}

	select {
	case a.results <- r:
	case <-ctx.Done():
	}
}

// apply runs the control pipeline on a detection result and dispatches the
// output. Detector errors count as no hand.
func (a *App) apply(ctx context.Context, r result) {
	if ctx.Err() != nil {
		return
	}

	hand := r.hand
	if r.err != nil {
		n := a.stats.detectorFailures.Add(1)
		log.Warn("hand detection failed", "error", r.err, "failures", n)
		hand = nil
	}

	a.stateMu.Lock()
	u := control.Process(a.state, a.cfg.Control, detector.Frame{Hand: hand, Timestamp: r.ts})
	a.stateMu.Unlock()
	a.stats.processed.Add(1)

	logTransitions(u)
	emit.Dispatch(u, a.handler)
}

func logTransitions(u emit.Update) {
	if u.Armed != nil {
		log.Debug("armed changed", "armed", *u.Armed)
	}
	if u.Pointing != nil {
		log.Debug("pointing changed", "pointing", *u.Pointing)
	}
	if u.PinchMode != nil {
		log.Debug("pinch mode changed", "pinch_mode", *u.PinchMode)
	}
}

func (a *App) storePreview(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		log.Debug("encoding preview", "error", err)
		return
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()
	a.preview.Store(&data)
}

// keepAlive periodically checks the capture source and reacquires it when
// it has gone stale. It shares nothing with the scheduler but the source.
func (a *App) keepAlive(ctx context.Context, ticker timeutil.Ticker) {
	defer a.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			a.checkLiveness()
		}
	}
}

func (a *App) checkLiveness() {
	if a.source.IsLive() {
		return
	}

	log.Warn("capture source stale, reacquiring")
	if err := a.source.Reacquire(); err != nil {
		a.stats.reacquireFailures.Add(1)
		log.Warn("reacquiring capture source", "error", err)
		return
	}
	a.stats.reacquisitions.Add(1)
	log.Info("capture source reacquired")
}
