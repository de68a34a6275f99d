// Package control runs one processed tick of the gesture pipeline: landmark
// frame in, gated control output out. All mutable pipeline state lives in a
// single State value owned by the caller.
package control

import (
	"fmt"

	"github.com/ayusman/handsteer/internal/detector"
	"github.com/ayusman/handsteer/internal/emit"
	"github.com/ayusman/handsteer/internal/features"
	"github.com/ayusman/handsteer/internal/gesture"
	"github.com/ayusman/handsteer/internal/smooth"
)

// Config bundles the calibration of every pipeline stage.
type Config struct {
	Smoothing smooth.Config
	Gesture   gesture.Config
	Emit      emit.Config
}

// DefaultConfig returns the stock calibration.
func DefaultConfig() Config {
	return Config{
		Smoothing: smooth.DefaultConfig(),
		Gesture:   gesture.DefaultConfig(),
		Emit:      emit.DefaultConfig(),
	}
}

// Validate checks every stage's settings.
func (c Config) Validate() error {
	alphas := map[string]float64{
		"move":    c.Smoothing.Move,
		"pinch":   c.Smoothing.Pinch,
		"point_x": c.Smoothing.PointX,
		"point_y": c.Smoothing.PointY,
		"fist":    c.Smoothing.Fist,
	}
	for name, a := range alphas {
		if !(a > 0 && a <= 1) {
			return fmt.Errorf("smoothing alpha %s must be in (0,1], got %v", name, a)
		}
	}
	if err := c.Gesture.Validate(); err != nil {
		return err
	}
	if c.Emit.MinDelta < 0 {
		return fmt.Errorf("min_delta must not be negative, got %v", c.Emit.MinDelta)
	}
	if c.Emit.PinchMinDelta < 0 {
		return fmt.Errorf("pinch_min_delta must not be negative, got %v", c.Emit.PinchMinDelta)
	}
	if c.Emit.PointCooldown < 0 {
		return fmt.Errorf("point_cooldown must not be negative, got %v", c.Emit.PointCooldown)
	}
	return nil
}

// State is the pipeline state carried from tick to tick.
type State struct {
	Smooth  smooth.Set
	Gesture gesture.State
	Emitter *emit.Emitter

	Ticks    uint64
	Detected bool
	Last     features.FeatureSet
}

// NewState returns an empty state for cfg.
func NewState(cfg Config) *State {
	return &State{
		Smooth:  smooth.NewSet(cfg.Smoothing),
		Emitter: emit.NewEmitter(cfg.Emit),
	}
}

// Reset returns the state to its initial values.
func (s *State) Reset() {
	s.Smooth.Reset()
	s.Emitter.Reset()
	s.Gesture = gesture.State{}
	s.Ticks = 0
	s.Detected = false
	s.Last = features.FeatureSet{}
}

// Retune switches to new smoothing and emit settings. Gesture modes and
// streaks are kept so no transition is lost; smoothers and gates start over.
func (s *State) Retune(cfg Config) {
	s.Smooth = smooth.NewSet(cfg.Smoothing)
	s.Emitter = emit.NewEmitter(cfg.Emit)
}

// Process runs one tick on frame and returns what should be emitted.
//
// A frame without a hand touches nothing but the presence flag. Features
// whose landmarks are missing leave their smoother and gate untouched.
func Process(s *State, cfg Config, frame detector.Frame) emit.Update {
	s.Ticks++
	u := emit.Update{Timestamp: frame.Timestamp}

	fs, ok := features.Extract(frame.Hand)
	s.Detected = ok
	if !ok {
		return u
	}
	u.Detected = true
	s.Last = fs

	if fs.Has(features.HasMove) {
		x := s.Smooth.Move.Update(fs.MoveX)
		if s.Emitter.Move(x) {
			u.MoveX = &x
		}
	}

	var in gesture.Inputs

	if fs.Has(features.HasPinch) {
		// consumers get the raw distance for immediate scale feedback;
		// the mode machine gets the smoothed one
		raw := fs.PinchDistance
		if s.Emitter.Pinch(raw) {
			u.PinchDistance = &raw
		}
		in.PinchDistance = s.Smooth.Pinch.Update(raw)
		in.HasPinch = true
	}

	if fs.Has(features.HasFist) {
		in.Compactness = s.Smooth.Fist.Update(fs.FistCompactness)
		in.HasCompactness = true
	}

	if fs.Has(features.HasPointing) {
		in.PointingMagnitude = fs.PointingMagnitude
		in.PointingStraightness = fs.PointingStraightness
		in.HasPointing = true
	}

	var tr gesture.Transitions
	s.Gesture, tr = gesture.Evaluate(s.Gesture, in, cfg.Gesture)
	u.Armed = edge(tr.Armed)
	u.Pointing = edge(tr.Pointing)
	u.PinchMode = edge(tr.PinchMode)

	if s.Gesture.InPinchMode() || tr.PinchMode.Changed() {
		s.Emitter.MarkPinchActivity(frame.Timestamp)
	}

	if fs.Has(features.HasPointing) && s.Gesture.DragEligible() {
		x := s.Smooth.PointX.Update(fs.PointingVector.X)
		y := s.Smooth.PointY.Update(fs.PointingVector.Y)
		if s.Emitter.Point(x, y, frame.Timestamp) {
			u.Point = &emit.Point{X: x, Y: y}
		}
	}

	return u
}

func edge(e gesture.Edge) *bool {
	if !e.Changed() {
		return nil
	}
	v := e.Active()
	return &v
}
