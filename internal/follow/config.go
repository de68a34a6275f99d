// Package follow moves a displayed object toward the drag target produced by
// the gesture pipeline, at display rate and independent of detection rate.
package follow

import (
	"fmt"
	"strings"
	"time"
)

// Scheme selects how the position approaches the target.
type Scheme int

const (
	// SchemeLinear moves at most speed*dt per tick along the straight line.
	SchemeLinear Scheme = iota
	// SchemeExponential closes a 1-exp(-speed*dt) fraction of the gap per tick.
	SchemeExponential
)

func (s Scheme) String() string {
	switch s {
	case SchemeExponential:
		return "exponential"
	default:
		return "linear"
	}
}

// ParseScheme parses "linear" or "exponential".
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear":
		return SchemeLinear, nil
	case "exponential", "exp":
		return SchemeExponential, nil
	}
	return SchemeLinear, fmt.Errorf("unknown follow scheme %q", s)
}

// Config holds follow controller tuning.
type Config struct {
	// BaseSpeed is the approach speed with a still hand, in world units per second
	// (linear) or per-second rate (exponential).
	BaseSpeed float64
	// SpeedCap bounds the velocity-driven speed boost.
	SpeedCap float64
	// Gain scales recent gesture velocity into a speed boost.
	Gain float64
	// Epsilon is the distance under which the position snaps to the target.
	Epsilon float64
	Scheme  Scheme

	// ExtentX and ExtentY map a point drag in [-1,1] to world units.
	ExtentX float64
	ExtentY float64

	// Pinch distances at or below PinchNear map to ScaleMin, at or above
	// PinchFar to ScaleMax.
	PinchNear float64
	PinchFar  float64
	ScaleMin  float64
	ScaleMax  float64

	// YawRange is the total yaw swing in degrees across the move range.
	YawRange float64

	// FrameInterval is the animator tick period.
	FrameInterval time.Duration
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		BaseSpeed: 2.0,
		SpeedCap:  6.0,
		Gain:      1.0,
		Epsilon:   1e-3,
		Scheme:    SchemeLinear,

		ExtentX: 1,
		ExtentY: 1,

		PinchNear: 0.02,
		PinchFar:  0.25,
		ScaleMin:  0.5,
		ScaleMax:  2.0,

		YawRange: 60,

		FrameInterval: 16 * time.Millisecond,
	}
}

// Validate checks the tuning.
func (c Config) Validate() error {
	switch {
	case c.BaseSpeed <= 0:
		return fmt.Errorf("base_speed must be positive, got %v", c.BaseSpeed)
	case c.SpeedCap < 0:
		return fmt.Errorf("speed_cap must not be negative, got %v", c.SpeedCap)
	case c.Gain < 0:
		return fmt.Errorf("gain must not be negative, got %v", c.Gain)
	case c.Epsilon <= 0:
		return fmt.Errorf("epsilon must be positive, got %v", c.Epsilon)
	case c.ExtentX <= 0 || c.ExtentY <= 0:
		return fmt.Errorf("extents must be positive, got %v x %v", c.ExtentX, c.ExtentY)
	case c.PinchFar <= c.PinchNear:
		return fmt.Errorf("pinch_far (%v) must exceed pinch_near (%v)", c.PinchFar, c.PinchNear)
	case c.ScaleMin <= 0 || c.ScaleMax < c.ScaleMin:
		return fmt.Errorf("scale range [%v, %v] is invalid", c.ScaleMin, c.ScaleMax)
	case c.FrameInterval <= 0:
		return fmt.Errorf("frame_interval must be positive, got %v", c.FrameInterval)
	}
	return nil
}

// ScaleFor maps a pinch distance to an object scale.
func (c Config) ScaleFor(pinch float64) float64 {
	t := (pinch - c.PinchNear) / (c.PinchFar - c.PinchNear)
	t = clamp(t, 0, 1)
	return c.ScaleMin + t*(c.ScaleMax-c.ScaleMin)
}

// YawFor maps a move value in [0,1] to a yaw in degrees, zero at center.
func (c Config) YawFor(x float64) float64 {
	return (clamp(x, 0, 1) - 0.5) * c.YawRange
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
