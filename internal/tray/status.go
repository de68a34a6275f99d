package tray

import (
	"sync"

	"github.com/ayusman/handsteer/internal/emit"
)

// Labels are the menu texts for one status.
type Labels struct {
	Title string
	Hand  string
	Armed string
	Mode  string
}

// Status tracks what the pipeline last reported. It implements emit.Handler
// and calls onChange at the end of any tick that changed the labels.
type Status struct {
	mu        sync.Mutex
	hand      bool
	armed     bool
	pointing  bool
	pinchMode bool
	labels    Labels
	onChange  func(Labels)
}

var _ emit.Handler = (*Status)(nil)

// NewStatus creates a status with nothing detected.
func NewStatus(onChange func(Labels)) *Status {
	s := &Status{onChange: onChange}
	s.labels = s.compute()
	return s
}

// Labels returns the current menu texts.
func (s *Status) Labels() Labels {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.labels
}

// compute must be called with mu held.
func (s *Status) compute() Labels {
	l := Labels{
		Title: "handsteer",
		Hand:  "Hand: not in view",
		Armed: "Armed: no",
		Mode:  "Mode: idle",
	}
	if s.hand {
		l.Title = "handsteer ●"
		l.Hand = "Hand: in view"
	}
	if s.armed {
		l.Armed = "Armed: yes"
	}
	switch {
	case s.pointing:
		l.Mode = "Mode: pointing"
	case s.pinchMode:
		l.Mode = "Mode: pinch"
	}
	return l
}

func (s *Status) OnHandPresence(detected bool) {
	s.mu.Lock()
	s.hand = detected
	next := s.compute()
	changed := next != s.labels
	s.labels = next
	fn := s.onChange
	s.mu.Unlock()

	if changed && fn != nil {
		fn(next)
	}
}

func (s *Status) OnArmedChanged(armed bool) {
	s.mu.Lock()
	s.armed = armed
	s.mu.Unlock()
}

func (s *Status) OnPointingChanged(pointing bool) {
	s.mu.Lock()
	s.pointing = pointing
	s.mu.Unlock()
}

func (s *Status) OnPinchModeChanged(active bool) {
	s.mu.Lock()
	s.pinchMode = active
	s.mu.Unlock()
}

func (s *Status) OnMove(float64)           {}
func (s *Status) OnPinchDistance(float64)  {}
func (s *Status) OnPointDrag(_, _ float64) {}
