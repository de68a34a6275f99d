package follow

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// MotionState is the controller's full state.
type MotionState struct {
	Position r2.Vec
	Target   r2.Vec
	// Velocity is |Δtarget|/Δt between the two most recent target updates,
	// in world units per second.
	Velocity     float64
	LastTargetAt time.Time
	Locked       bool
}

// Controller moves a position toward a target without overshoot.
type Controller struct {
	cfg   Config
	state MotionState
}

// NewController returns a controller at the origin, unlocked.
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

// Lock pins position and target to the origin and ignores targets until Unlock.
func (c *Controller) Lock() {
	c.state = MotionState{Locked: true}
}

// Unlock accepts targets again. The position stays where it is.
func (c *Controller) Unlock() {
	c.state.Locked = false
}

// Locked reports whether the controller is pinned to the origin.
func (c *Controller) Locked() bool {
	return c.state.Locked
}

// SetTarget sets a new target observed at the given time and refreshes the
// velocity estimate. It returns false when locked.
func (c *Controller) SetTarget(target r2.Vec, at time.Time) bool {
	if c.state.Locked {
		return false
	}

	if !c.state.LastTargetAt.IsZero() {
		if dt := at.Sub(c.state.LastTargetAt).Seconds(); dt > 0 {
			c.state.Velocity = r2.Norm(r2.Sub(target, c.state.Target)) / dt
		}
	}
	c.state.Target = target
	c.state.LastTargetAt = at
	return true
}

// Speed is the current approach speed: the base speed plus the capped,
// gain-scaled gesture velocity.
func (c *Controller) Speed() float64 {
	return c.cfg.BaseSpeed + math.Min(c.cfg.SpeedCap, c.state.Velocity*c.cfg.Gain)
}

// Distance is the remaining distance to the target.
func (c *Controller) Distance() float64 {
	return r2.Norm(r2.Sub(c.state.Target, c.state.Position))
}

// Settled reports whether the position has reached the target.
func (c *Controller) Settled() bool {
	return c.Distance() <= c.cfg.Epsilon
}

// Tick advances the position by dt and returns it.
func (c *Controller) Tick(dt time.Duration) r2.Vec {
	if c.state.Locked {
		return c.state.Position
	}

	gap := r2.Sub(c.state.Target, c.state.Position)
	dist := r2.Norm(gap)
	if dist <= c.cfg.Epsilon {
		c.state.Position = c.state.Target
		return c.state.Position
	}

	secs := dt.Seconds()
	if secs <= 0 {
		return c.state.Position
	}

	speed := c.Speed()
	var step float64
	switch c.cfg.Scheme {
	case SchemeExponential:
		step = dist * (1 - math.Exp(-speed*secs))
	default:
		step = math.Min(dist, speed*secs)
	}

	if step >= dist || dist-step <= c.cfg.Epsilon {
		c.state.Position = c.state.Target
	} else {
		c.state.Position = r2.Add(c.state.Position, r2.Scale(step/dist, gap))
	}
	return c.state.Position
}

// State returns a copy of the motion state.
func (c *Controller) State() MotionState {
	return c.state
}
