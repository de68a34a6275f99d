package emit

import (
	"fmt"
	"sync"
)

// Event kinds recorded by Recorder.
const (
	KindPresence  = "presence"
	KindMove      = "move"
	KindPinch     = "pinch"
	KindPoint     = "point"
	KindArmed     = "armed"
	KindPointing  = "pointing"
	KindPinchMode = "pinch_mode"
)

// Event is one recorded handler call.
type Event struct {
	Kind  string
	X, Y  float64
	State bool
}

func (e Event) String() string {
	switch e.Kind {
	case KindMove, KindPinch:
		return fmt.Sprintf("%s(%.3f)", e.Kind, e.X)
	case KindPoint:
		return fmt.Sprintf("%s(%.3f,%.3f)", e.Kind, e.X, e.Y)
	default:
		return fmt.Sprintf("%s(%t)", e.Kind, e.State)
	}
}

// Recorder is a Handler that keeps every call. Useful in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

var _ Handler = (*Recorder)(nil)

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) OnHandPresence(v bool)     { r.add(Event{Kind: KindPresence, State: v}) }
func (r *Recorder) OnMove(x float64)          { r.add(Event{Kind: KindMove, X: x}) }
func (r *Recorder) OnPinchDistance(d float64) { r.add(Event{Kind: KindPinch, X: d}) }
func (r *Recorder) OnPointDrag(x, y float64)  { r.add(Event{Kind: KindPoint, X: x, Y: y}) }
func (r *Recorder) OnArmedChanged(v bool)     { r.add(Event{Kind: KindArmed, State: v}) }
func (r *Recorder) OnPointingChanged(v bool)  { r.add(Event{Kind: KindPointing, State: v}) }
func (r *Recorder) OnPinchModeChanged(v bool) { r.add(Event{Kind: KindPinchMode, State: v}) }

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the recorded event kinds in order.
func (r *Recorder) Kinds() []string {
	events := r.Events()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind string) int {
	n := 0
	for _, e := range r.Events() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Reset discards all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
