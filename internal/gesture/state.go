package gesture

// Edge is the transition a machine made on one tick.
type Edge int8

const (
	// EdgeNone means the machine kept its mode.
	EdgeNone Edge = iota
	// EdgeOn means the machine became active.
	EdgeOn
	// EdgeOff means the machine became inactive.
	EdgeOff
)

// Changed reports whether the machine transitioned.
func (e Edge) Changed() bool { return e != EdgeNone }

// Active is the mode entered by the transition. Only meaningful when Changed.
func (e Edge) Active() bool { return e == EdgeOn }

func (e Edge) String() string {
	switch e {
	case EdgeOn:
		return "on"
	case EdgeOff:
		return "off"
	default:
		return "none"
	}
}

func edge(changed, active bool) Edge {
	switch {
	case !changed:
		return EdgeNone
	case active:
		return EdgeOn
	default:
		return EdgeOff
	}
}

// Transitions lists the edges produced by one Evaluate call.
type Transitions struct {
	Armed     Edge
	Pointing  Edge
	PinchMode Edge
}

// Any reports whether at least one machine transitioned.
func (t Transitions) Any() bool {
	return t.Armed.Changed() || t.Pointing.Changed() || t.PinchMode.Changed()
}

// State is the combined gesture state of the pipeline.
type State struct {
	Armed    Armed
	Pointing Pointing
	Pinch    Pinch
}

// IsArmed reports whether the fist mode is active.
func (s State) IsArmed() bool { return s.Armed.Active }

// IsPointing reports whether the pointing mode is active.
func (s State) IsPointing() bool { return s.Pointing.Active }

// InPinchMode reports whether the pinch mode is active.
func (s State) InPinchMode() bool { return s.Pinch.Active }

// DragEligible reports whether point output is allowed.
func (s State) DragEligible() bool {
	return s.Pointing.Active && !s.Pinch.Active
}

// Inputs are the smoothed features for one tick. A machine whose input is
// absent is left untouched.
type Inputs struct {
	Compactness    float64
	HasCompactness bool

	PointingMagnitude    float64
	PointingStraightness float64
	HasPointing          bool

	PinchDistance float64
	HasPinch      bool
}

// Evaluate steps the machines in order Armed, Pointing, PinchMode. PinchMode
// sees the Pointing state produced on this tick and is forced off while
// pointing is active, whether or not a pinch distance was measured.
func Evaluate(s State, in Inputs, cfg Config) (State, Transitions) {
	var tr Transitions
	var changed bool

	if in.HasCompactness {
		s.Armed, changed = s.Armed.Step(in.Compactness, cfg)
		tr.Armed = edge(changed, s.Armed.Active)
	}

	if in.HasPointing {
		s.Pointing, changed = s.Pointing.Step(in.PointingMagnitude, in.PointingStraightness, cfg)
		tr.Pointing = edge(changed, s.Pointing.Active)
	}

	switch {
	case s.Pointing.Active:
		s.Pinch, changed = s.Pinch.Disable()
		tr.PinchMode = edge(changed, false)
	case in.HasPinch:
		s.Pinch, changed = s.Pinch.Step(in.PinchDistance, cfg)
		tr.PinchMode = edge(changed, s.Pinch.Active)
	}

	return s, tr
}
