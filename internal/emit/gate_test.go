package emit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGate_FirstValuePasses(t *testing.T) {
	g := NewGate(0.01)
	_, ok := g.Last()
	assert.False(t, ok)

	assert.True(t, g.Offer(0.5))
	last, ok := g.Last()
	assert.True(t, ok)
	assert.Equal(t, 0.5, last)
}

func TestGate_SuppressesSmallChanges(t *testing.T) {
	g := NewGate(0.01)
	g.Offer(0.5)

	assert.False(t, g.Offer(0.5), "identical value")
	assert.False(t, g.Offer(0.505), "inside delta")
	assert.False(t, g.Offer(0.495), "inside delta below")
	assert.True(t, g.Offer(0.52))

	// deltas are measured from the last emitted value, not the last offered one
	assert.False(t, g.Offer(0.525))
	assert.False(t, g.Offer(0.529))
	assert.True(t, g.Offer(0.531))
}

func TestGate_DriftAccumulates(t *testing.T) {
	g := NewGate(0.01)
	g.Offer(0)

	passed := 0
	for v := 0.004; v < 0.1; v += 0.004 {
		if g.Offer(v) {
			passed++
		}
	}
	assert.Greater(t, passed, 0, "slow drift must eventually pass")
}

func TestGate_ZeroDeltaPassesEverything(t *testing.T) {
	g := NewGate(0)
	for i := 0; i < 3; i++ {
		assert.True(t, g.Offer(0.2))
	}
}

func TestGate_Reset(t *testing.T) {
	g := NewGate(0.01)
	g.Offer(0.3)
	g.Reset()
	assert.True(t, g.Offer(0.3))
}

func TestPairGate(t *testing.T) {
	g := NewPairGate(0.01)

	assert.True(t, g.Offer(0.1, 0.1))
	assert.False(t, g.Offer(0.105, 0.095))
	assert.True(t, g.Offer(0.1, 0.2), "y alone moved")
	assert.True(t, g.Offer(0.3, 0.2), "x alone moved")

	x, y, ok := g.Last()
	assert.True(t, ok)
	assert.Equal(t, 0.3, x)
	assert.Equal(t, 0.2, y)

	g.Reset()
	_, _, ok = g.Last()
	assert.False(t, ok)
}

func TestEmitter_PointCooldown(t *testing.T) {
	e := NewEmitter(DefaultConfig())
	t0 := time.Unix(100, 0)

	assert.True(t, e.Point(0.1, 0.1, t0))

	e.MarkPinchActivity(t0.Add(time.Second))
	assert.True(t, e.Cooling(t0.Add(time.Second+100*time.Millisecond)))
	assert.False(t, e.Point(0.5, 0.5, t0.Add(time.Second+179*time.Millisecond)))
	assert.True(t, e.Point(0.5, 0.5, t0.Add(time.Second+180*time.Millisecond)))
}

func TestEmitter_CooldownDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PointCooldown = 0
	e := NewEmitter(cfg)
	now := time.Unix(100, 0)

	e.MarkPinchActivity(now)
	assert.False(t, e.Cooling(now))
	assert.True(t, e.Point(0.2, 0.2, now))
}

func TestEmitter_PinchUngatedByDefault(t *testing.T) {
	e := NewEmitter(DefaultConfig())
	for i := 0; i < 4; i++ {
		assert.True(t, e.Pinch(0.12))
	}
}

func TestEmitter_MoveGated(t *testing.T) {
	e := NewEmitter(DefaultConfig())
	assert.True(t, e.Move(0.4))
	assert.False(t, e.Move(0.4))
	assert.True(t, e.Move(0.42))
}

func TestEmitter_Reset(t *testing.T) {
	e := NewEmitter(DefaultConfig())
	now := time.Unix(5, 0)
	e.Move(0.4)
	e.Point(0.1, 0.1, now)
	e.MarkPinchActivity(now)

	e.Reset()
	assert.False(t, e.Cooling(now))
	assert.True(t, e.Move(0.4))
	assert.True(t, e.Point(0.1, 0.1, now))
}
