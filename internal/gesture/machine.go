// Package gesture implements the hysteresis machines that turn smoothed hand
// features into discrete modes: Armed (closed fist), Pointing (straight index
// finger) and PinchMode (thumb and index tips together).
//
// Every machine is a small value type with a pure Step method. Nothing in
// this package keeps hidden state, so a machine can be stepped in isolation.
package gesture

import "fmt"

// Config holds the thresholds and streak lengths of all three machines.
type Config struct {
	// FistThreshold is the compactness below which a frame counts toward arming.
	FistThreshold float64 `json:"fist_threshold"`
	// DisarmFactor scales FistThreshold to get the single-frame disarm level.
	DisarmFactor float64 `json:"disarm_factor"`
	// ArmOnFrames is the number of consecutive qualifying frames needed to arm.
	ArmOnFrames int `json:"arm_on_frames"`

	MagOn          float64 `json:"mag_on"`
	MagOff         float64 `json:"mag_off"`
	StraightOn     float64 `json:"straight_on"`
	StraightOff    float64 `json:"straight_off"`
	PointOnFrames  int     `json:"point_on_frames"`
	PointOffFrames int     `json:"point_off_frames"`

	PinchOn  float64 `json:"pinch_on"`
	PinchOff float64 `json:"pinch_off"`
}

// DefaultConfig returns the stock calibration.
func DefaultConfig() Config {
	return Config{
		FistThreshold: 0.20,
		DisarmFactor:  1.5,
		ArmOnFrames:   2,

		MagOn:          0.35,
		MagOff:         0.18,
		StraightOn:     0.9,
		StraightOff:    0.75,
		PointOnFrames:  4,
		PointOffFrames: 6,

		PinchOn:  0.10,
		PinchOff: 0.16,
	}
}

// Validate checks that every band is well formed.
func (c Config) Validate() error {
	switch {
	case c.FistThreshold <= 0:
		return fmt.Errorf("fist_threshold must be positive, got %v", c.FistThreshold)
	case c.DisarmFactor < 1:
		return fmt.Errorf("disarm_factor must be at least 1, got %v", c.DisarmFactor)
	case c.ArmOnFrames < 1:
		return fmt.Errorf("arm_on_frames must be at least 1, got %d", c.ArmOnFrames)
	case c.MagOff >= c.MagOn:
		return fmt.Errorf("mag_off (%v) must be below mag_on (%v)", c.MagOff, c.MagOn)
	case c.StraightOff >= c.StraightOn:
		return fmt.Errorf("straight_off (%v) must be below straight_on (%v)", c.StraightOff, c.StraightOn)
	case c.PointOnFrames < 1:
		return fmt.Errorf("point_on_frames must be at least 1, got %d", c.PointOnFrames)
	case c.PointOffFrames <= c.PointOnFrames:
		return fmt.Errorf("point_off_frames (%d) must exceed point_on_frames (%d)", c.PointOffFrames, c.PointOnFrames)
	case c.PinchOn <= 0:
		return fmt.Errorf("pinch_on must be positive, got %v", c.PinchOn)
	case c.PinchOff <= c.PinchOn:
		return fmt.Errorf("pinch_off (%v) must exceed pinch_on (%v)", c.PinchOff, c.PinchOn)
	}
	return nil
}

// Armed tracks the closed-fist mode.
type Armed struct {
	Active   bool
	OnStreak int
}

// Step feeds one smoothed compactness value. Arming needs ArmOnFrames
// consecutive frames below FistThreshold; any other frame resets the streak.
// Disarming happens on the first frame above FistThreshold*DisarmFactor.
func (a Armed) Step(compactness float64, cfg Config) (Armed, bool) {
	if a.Active {
		if compactness > cfg.FistThreshold*cfg.DisarmFactor {
			return Armed{}, true
		}
		return a, false
	}

	if compactness >= cfg.FistThreshold {
		a.OnStreak = 0
		return a, false
	}

	a.OnStreak++
	if a.OnStreak >= cfg.ArmOnFrames {
		return Armed{Active: true}, true
	}
	return a, false
}

// Pointing tracks the extended index finger mode.
type Pointing struct {
	Active    bool
	OnStreak  int
	OffStreak int
}

// Step feeds one frame's pointing magnitude and straightness.
// A frame that is neither clearly on nor clearly off resets both streaks.
func (p Pointing) Step(magnitude, straightness float64, cfg Config) (Pointing, bool) {
	switch {
	case magnitude > cfg.MagOn && straightness > cfg.StraightOn:
		p.OnStreak++
		p.OffStreak = 0
	case magnitude < cfg.MagOff || straightness < cfg.StraightOff:
		p.OffStreak++
		p.OnStreak = 0
	default:
		p.OnStreak = 0
		p.OffStreak = 0
	}

	if !p.Active && p.OnStreak >= cfg.PointOnFrames {
		p.Active = true
		return p, true
	}
	if p.Active && p.OffStreak >= cfg.PointOffFrames {
		p.Active = false
		return p, true
	}
	return p, false
}

// Pinch tracks the pinch (scale control) mode.
type Pinch struct {
	Active bool
}

// Step feeds one smoothed pinch distance. Thresholds are single-frame.
func (p Pinch) Step(distance float64, cfg Config) (Pinch, bool) {
	if !p.Active && distance < cfg.PinchOn {
		return Pinch{Active: true}, true
	}
	if p.Active && distance > cfg.PinchOff {
		return Pinch{}, true
	}
	return p, false
}

// Disable forces pinch mode off.
func (p Pinch) Disable() (Pinch, bool) {
	return Pinch{}, p.Active
}
