package capture

import (
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// MockSource plays back frames and lets tests control liveness.
type MockSource struct {
	mu      sync.Mutex
	frames  []*gocv.Mat
	index   int
	loop    bool
	running bool
	live    bool

	openErr      error
	readErr      error
	reacquireErr error

	reads       int
	reacquires  int
	liveChecks  int
	closeCalled int
}

var _ Source = (*MockSource)(nil)

// NewMockSource creates a source over frames. With no frames, every read
// returns a fresh empty Mat.
func NewMockSource(frames []*gocv.Mat, loop bool) *MockSource {
	return &MockSource{frames: frames, loop: loop, live: true}
}

func (s *MockSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.openErr != nil {
		return s.openErr
	}
	s.running = true
	s.index = 0
	return nil
}

func (s *MockSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	s.closeCalled++
	return nil
}

func (s *MockSource) ReadFrame() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads++
	if !s.running {
		return nil, ErrCameraNotOpen
	}
	if s.readErr != nil {
		return nil, s.readErr
	}
	if !s.live {
		return nil, ErrStale
	}

	if len(s.frames) == 0 {
		mat := gocv.NewMat()
		return &mat, nil
	}
	if s.index >= len(s.frames) {
		if !s.loop {
			return nil, errors.New("no more frames")
		}
		s.index = 0
	}

	frame := s.frames[s.index].Clone()
	s.index++
	return &frame, nil
}

func (s *MockSource) IsLive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.liveChecks++
	return s.running && s.live
}

func (s *MockSource) Reacquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reacquires++
	if s.reacquireErr != nil {
		return s.reacquireErr
	}
	s.running = true
	s.live = true
	s.readErr = nil
	return nil
}

// SetLive marks the stream fresh or stale.
func (s *MockSource) SetLive(live bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = live
}

// SetOpenError makes Open fail with err.
func (s *MockSource) SetOpenError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openErr = err
}

// SetReadError makes ReadFrame fail with err until cleared or reacquired.
func (s *MockSource) SetReadError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// SetReacquireError makes Reacquire fail with err.
func (s *MockSource) SetReacquireError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reacquireErr = err
}

// IsOpen reports whether Open succeeded and Close was not called since.
func (s *MockSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Reads returns the number of ReadFrame calls.
func (s *MockSource) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Reacquires returns the number of Reacquire calls.
func (s *MockSource) Reacquires() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reacquires
}

// LiveChecks returns the number of IsLive calls.
func (s *MockSource) LiveChecks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveChecks
}

// Closes returns the number of Close calls.
func (s *MockSource) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalled
}
