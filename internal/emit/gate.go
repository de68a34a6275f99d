// Package emit decides which control values reach consumers and delivers
// them through the Handler callback surface.
package emit

import (
	"math"
	"time"
)

// Gate passes a value only when it moved more than a minimum delta since the
// last value it passed. The first value always passes. A minimum delta of zero
// or less disables the gate.
type Gate struct {
	minDelta float64
	last     float64
	primed   bool
}

// NewGate creates a gate with the given minimum delta.
func NewGate(minDelta float64) *Gate {
	return &Gate{minDelta: minDelta}
}

// Offer reports whether v should be emitted and records it if so.
func (g *Gate) Offer(v float64) bool {
	if g.primed && g.minDelta > 0 && math.Abs(v-g.last) <= g.minDelta {
		return false
	}
	g.last = v
	g.primed = true
	return true
}

// Last returns the last emitted value.
func (g *Gate) Last() (float64, bool) {
	return g.last, g.primed
}

// Reset forgets the last emitted value.
func (g *Gate) Reset() {
	g.last = 0
	g.primed = false
}

// PairGate gates a 2D value. It passes when either axis moved more than the
// minimum delta.
type PairGate struct {
	minDelta float64
	x, y     float64
	primed   bool
}

// NewPairGate creates a pair gate with the given minimum delta.
func NewPairGate(minDelta float64) *PairGate {
	return &PairGate{minDelta: minDelta}
}

// Offer reports whether (x, y) should be emitted and records it if so.
func (g *PairGate) Offer(x, y float64) bool {
	if g.primed && g.minDelta > 0 &&
		math.Abs(x-g.x) <= g.minDelta && math.Abs(y-g.y) <= g.minDelta {
		return false
	}
	g.x, g.y = x, y
	g.primed = true
	return true
}

// Last returns the last emitted pair.
func (g *PairGate) Last() (x, y float64, ok bool) {
	return g.x, g.y, g.primed
}

// Reset forgets the last emitted pair.
func (g *PairGate) Reset() {
	g.x, g.y = 0, 0
	g.primed = false
}

// Config controls the emitter gates.
type Config struct {
	// MinDelta gates move and point output.
	MinDelta float64
	// PinchMinDelta gates pinch distance output. Zero emits every sample.
	PinchMinDelta float64
	// PointCooldown suppresses point output for this long after the last
	// tick spent in pinch mode. Zero disables it.
	PointCooldown time.Duration
}

// DefaultConfig returns the stock emitter settings.
func DefaultConfig() Config {
	return Config{
		MinDelta:      0.01,
		PinchMinDelta: 0,
		PointCooldown: 180 * time.Millisecond,
	}
}

// Emitter owns the gates of every continuous channel.
type Emitter struct {
	cfg   Config
	move  *Gate
	pinch *Gate
	point *PairGate

	lastPinchActivity time.Time
}

// NewEmitter creates an emitter with fresh gates.
func NewEmitter(cfg Config) *Emitter {
	return &Emitter{
		cfg:   cfg,
		move:  NewGate(cfg.MinDelta),
		pinch: NewGate(cfg.PinchMinDelta),
		point: NewPairGate(cfg.MinDelta),
	}
}

// Move gates a smoothed move value.
func (e *Emitter) Move(x float64) bool {
	return e.move.Offer(x)
}

// Pinch gates a pinch distance.
func (e *Emitter) Pinch(d float64) bool {
	return e.pinch.Offer(d)
}

// MarkPinchActivity records that pinch mode was active at now.
func (e *Emitter) MarkPinchActivity(now time.Time) {
	e.lastPinchActivity = now
}

// Cooling reports whether point output is still suppressed at now.
func (e *Emitter) Cooling(now time.Time) bool {
	if e.cfg.PointCooldown <= 0 || e.lastPinchActivity.IsZero() {
		return false
	}
	return now.Sub(e.lastPinchActivity) < e.cfg.PointCooldown
}

// Point gates a smoothed point value. It never passes while cooling down.
func (e *Emitter) Point(x, y float64, now time.Time) bool {
	if e.Cooling(now) {
		return false
	}
	return e.point.Offer(x, y)
}

// Reset clears every gate and the cooldown.
func (e *Emitter) Reset() {
	e.move.Reset()
	e.pinch.Reset()
	e.point.Reset()
	e.lastPinchActivity = time.Time{}
}
