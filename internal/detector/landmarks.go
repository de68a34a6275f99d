// Package detector provides hand landmark types and the hand-pose estimator boundary.
package detector

import (
	"math"
	"time"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is one normalized landmark. X and Y are in [0,1] image space,
// Z is the estimator's relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Finite reports whether all coordinates are real numbers.
func (p Point3D) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsNaN(p.Z) &&
		!math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0) && !math.IsInf(p.Z, 0)
}

// HandLandmarks is the landmark set for a single detected hand.
// Points is normally NumLandmarks long; estimators may return fewer
// points or NaN coordinates for joints they could not place.
type HandLandmarks struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"` // "Left" or "Right"
	Score      float64   `json:"score"`
}

// NewHandLandmarks returns a hand with NumLandmarks zeroed points.
func NewHandLandmarks() *HandLandmarks {
	return &HandLandmarks{Points: make([]Point3D, NumLandmarks)}
}

// Point returns landmark i and whether it is present.
// A landmark is missing when it is past the end of Points or not finite.
func (h *HandLandmarks) Point(i int) (Point3D, bool) {
	if h == nil || i < 0 || i >= len(h.Points) {
		return Point3D{}, false
	}
	p := h.Points[i]
	if !p.Finite() {
		return Point3D{}, false
	}
	return p, true
}

// Clone returns a deep copy of the hand.
func (h *HandLandmarks) Clone() *HandLandmarks {
	if h == nil {
		return nil
	}
	c := *h
	c.Points = append([]Point3D(nil), h.Points...)
	return &c
}

// Frame is one estimator result. A nil Hand means no hand was detected this tick.
type Frame struct {
	Hand      *HandLandmarks
	Timestamp time.Time
}

// Detected reports whether the frame carries a hand with at least one landmark.
func (f Frame) Detected() bool {
	return f.Hand != nil && len(f.Hand.Points) > 0
}

// MissingPoint returns the placeholder used for a joint the estimator could not place.
func MissingPoint() Point3D {
	nan := math.NaN()
	return Point3D{X: nan, Y: nan, Z: nan}
}
