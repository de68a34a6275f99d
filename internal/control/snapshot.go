package control

import "github.com/ayusman/handsteer/internal/smooth"

// Snapshot is a read-only view of State for status reporting.
type Snapshot struct {
	Ticks    uint64 `json:"ticks"`
	Detected bool   `json:"detected"`

	Armed     bool `json:"armed"`
	Pointing  bool `json:"pointing"`
	PinchMode bool `json:"pinch_mode"`

	ArmStreak      int `json:"arm_streak"`
	PointOnStreak  int `json:"point_on_streak"`
	PointOffStreak int `json:"point_off_streak"`

	MoveX           *float64 `json:"move_x,omitempty"`
	PinchDistance   *float64 `json:"pinch_distance,omitempty"`
	FistCompactness *float64 `json:"fist_compactness,omitempty"`
	PointX          *float64 `json:"point_x,omitempty"`
	PointY          *float64 `json:"point_y,omitempty"`
}

// Snapshot copies the current state.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Ticks:    s.Ticks,
		Detected: s.Detected,

		Armed:     s.Gesture.IsArmed(),
		Pointing:  s.Gesture.IsPointing(),
		PinchMode: s.Gesture.InPinchMode(),

		ArmStreak:      s.Gesture.Armed.OnStreak,
		PointOnStreak:  s.Gesture.Pointing.OnStreak,
		PointOffStreak: s.Gesture.Pointing.OffStreak,

		MoveX:           value(s.Smooth.Move),
		PinchDistance:   value(s.Smooth.Pinch),
		FistCompactness: value(s.Smooth.Fist),
		PointX:          value(s.Smooth.PointX),
		PointY:          value(s.Smooth.PointY),
	}
}

func value(c *smooth.Channel) *float64 {
	v, ok := c.Value()
	if !ok {
		return nil
	}
	return &v
}
