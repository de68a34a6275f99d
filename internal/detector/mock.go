package detector

import (
	"context"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Result is one scripted MockDetector response.
type Result struct {
	Hand *HandLandmarks
	Err  error
}

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	hand   *HandLandmarks
	err    error
	script []Result
	gate   chan struct{}
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHand sets the hand returned by Detect once the script is exhausted.
func (m *MockDetector) SetHand(hand *HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hand = hand
}

// SetError sets the error returned by Detect once the script is exhausted.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Script queues results that are returned in order before falling back
// to the fixed hand/error.
func (m *MockDetector) Script(results ...Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, results...)
}

// Hold makes every following Detect call block until Release is called
// or the context is cancelled.
func (m *MockDetector) Hold() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate = make(chan struct{})
}

// Release unblocks calls waiting after Hold.
func (m *MockDetector) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate != nil {
		close(m.gate)
		m.gate = nil
	}
}

// Calls returns the number of Detect invocations.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Detect returns the next scripted result or the pre-configured hand or error.
func (m *MockDetector) Detect(ctx context.Context, frame *gocv.Mat, ts time.Time) (*HandLandmarks, error) {
	m.mu.Lock()
	m.calls++
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.script) > 0 {
		r := m.script[0]
		m.script = m.script[1:]
		return r.Hand.Clone(), r.Err
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.hand.Clone(), nil
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func hand(points map[int]Point3D) *HandLandmarks {
	h := NewHandLandmarks()
	h.Handedness = "Right"
	h.Score = 0.95
	for i, p := range points {
		h.Points[i] = p
	}
	return h
}

// OpenPalmLandmarks returns a preset right hand with all fingers extended.
func OpenPalmLandmarks() *HandLandmarks {
	return hand(map[int]Point3D{
		Wrist: {X: 0.5, Y: 0.8},

		ThumbCMC: {X: 0.55, Y: 0.75, Z: 0.02},
		ThumbMCP: {X: 0.62, Y: 0.70, Z: 0.03},
		ThumbIP:  {X: 0.68, Y: 0.65, Z: 0.03},
		ThumbTip: {X: 0.73, Y: 0.60, Z: 0.03},

		IndexMCP: {X: 0.55, Y: 0.68},
		IndexPIP: {X: 0.57, Y: 0.55},
		IndexDIP: {X: 0.58, Y: 0.45},
		IndexTip: {X: 0.58, Y: 0.35},

		MiddleMCP: {X: 0.50, Y: 0.66},
		MiddlePIP: {X: 0.50, Y: 0.52},
		MiddleDIP: {X: 0.50, Y: 0.40},
		MiddleTip: {X: 0.50, Y: 0.28},

		RingMCP: {X: 0.45, Y: 0.68},
		RingPIP: {X: 0.43, Y: 0.55},
		RingDIP: {X: 0.42, Y: 0.45},
		RingTip: {X: 0.42, Y: 0.35},

		PinkyMCP: {X: 0.40, Y: 0.70},
		PinkyPIP: {X: 0.37, Y: 0.60},
		PinkyDIP: {X: 0.35, Y: 0.50},
		PinkyTip: {X: 0.34, Y: 0.42},
	})
}

// FistLandmarks returns a preset closed fist: every fingertip within
// about 0.13 of the wrist, index finger curled.
func FistLandmarks() *HandLandmarks {
	return hand(map[int]Point3D{
		Wrist: {X: 0.5, Y: 0.8},

		ThumbCMC: {X: 0.55, Y: 0.77},
		ThumbMCP: {X: 0.59, Y: 0.74},
		ThumbIP:  {X: 0.61, Y: 0.75},
		ThumbTip: {X: 0.62, Y: 0.76},

		IndexMCP: {X: 0.55, Y: 0.68, Z: -0.02},
		IndexPIP: {X: 0.55, Y: 0.64, Z: -0.05},
		IndexDIP: {X: 0.53, Y: 0.66, Z: -0.04},
		IndexTip: {X: 0.53, Y: 0.70, Z: -0.02},

		MiddleMCP: {X: 0.50, Y: 0.67, Z: -0.02},
		MiddlePIP: {X: 0.50, Y: 0.63, Z: -0.05},
		MiddleDIP: {X: 0.49, Y: 0.66, Z: -0.04},
		MiddleTip: {X: 0.50, Y: 0.69, Z: -0.02},

		RingMCP: {X: 0.46, Y: 0.68, Z: -0.02},
		RingPIP: {X: 0.46, Y: 0.65, Z: -0.05},
		RingDIP: {X: 0.46, Y: 0.67, Z: -0.04},
		RingTip: {X: 0.47, Y: 0.70, Z: -0.02},

		PinkyMCP: {X: 0.42, Y: 0.70, Z: -0.02},
		PinkyPIP: {X: 0.42, Y: 0.68, Z: -0.05},
		PinkyDIP: {X: 0.43, Y: 0.70, Z: -0.04},
		PinkyTip: {X: 0.44, Y: 0.72, Z: -0.02},
	})
}

// PointingLandmarks returns a preset with a straight index finger and the
// other fingers curled, which keeps the hand compact enough to stay armed.
func PointingLandmarks() *HandLandmarks {
	return hand(map[int]Point3D{
		Wrist: {X: 0.5, Y: 0.8},

		ThumbCMC: {X: 0.54, Y: 0.76},
		ThumbMCP: {X: 0.56, Y: 0.72},
		ThumbIP:  {X: 0.54, Y: 0.69},
		ThumbTip: {X: 0.52, Y: 0.66},

		IndexMCP: {X: 0.55, Y: 0.68},
		IndexPIP: {X: 0.57, Y: 0.55},
		IndexDIP: {X: 0.58, Y: 0.45},
		IndexTip: {X: 0.58, Y: 0.35},

		MiddleMCP: {X: 0.50, Y: 0.67, Z: -0.02},
		MiddlePIP: {X: 0.50, Y: 0.63, Z: -0.05},
		MiddleDIP: {X: 0.50, Y: 0.66, Z: -0.04},
		MiddleTip: {X: 0.50, Y: 0.70, Z: -0.02},

		RingMCP: {X: 0.46, Y: 0.68, Z: -0.02},
		RingPIP: {X: 0.46, Y: 0.65, Z: -0.05},
		RingDIP: {X: 0.46, Y: 0.68, Z: -0.04},
		RingTip: {X: 0.46, Y: 0.72, Z: -0.02},

		PinkyMCP: {X: 0.42, Y: 0.70, Z: -0.02},
		PinkyPIP: {X: 0.42, Y: 0.68, Z: -0.05},
		PinkyDIP: {X: 0.43, Y: 0.71, Z: -0.04},
		PinkyTip: {X: 0.43, Y: 0.74, Z: -0.02},
	})
}

// PinchLandmarks returns a preset with thumb and index tips touching and
// the remaining fingers extended. The index finger is hooked so it never
// reads as pointing.
func PinchLandmarks() *HandLandmarks {
	h := OpenPalmLandmarks()
	h.Points[ThumbMCP] = Point3D{X: 0.60, Y: 0.70}
	h.Points[ThumbIP] = Point3D{X: 0.62, Y: 0.62}
	h.Points[ThumbTip] = Point3D{X: 0.62, Y: 0.55}
	h.Points[IndexPIP] = Point3D{X: 0.62, Y: 0.62}
	h.Points[IndexDIP] = Point3D{X: 0.66, Y: 0.57}
	h.Points[IndexTip] = Point3D{X: 0.63, Y: 0.54}
	return h
}
