package emit

import "time"

// Point is a pointing drag value with both axes in [-1,1].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Update is everything the pipeline emitted on one processed tick.
// Nil fields were not emitted.
type Update struct {
	Timestamp time.Time `json:"timestamp"`
	Detected  bool      `json:"detected"`

	MoveX         *float64 `json:"move_x,omitempty"`
	PinchDistance *float64 `json:"pinch_distance,omitempty"`
	Point         *Point   `json:"point,omitempty"`

	Armed     *bool `json:"armed,omitempty"`
	Pointing  *bool `json:"pointing,omitempty"`
	PinchMode *bool `json:"pinch_mode,omitempty"`
}

// Empty reports whether nothing besides presence was emitted.
func (u Update) Empty() bool {
	return u.MoveX == nil && u.PinchDistance == nil && u.Point == nil &&
		u.Armed == nil && u.Pointing == nil && u.PinchMode == nil
}

// Handler receives pipeline output. Calls are made synchronously from the
// scheduler goroutine and must not block.
type Handler interface {
	OnHandPresence(detected bool)
	OnMove(x float64)
	OnPinchDistance(d float64)
	OnPointDrag(x, y float64)
	OnArmedChanged(armed bool)
	OnPointingChanged(pointing bool)
	OnPinchModeChanged(active bool)
}

// Dispatch delivers u to h. Order: move, pinch distance, armed, pointing,
// pinch mode, point, presence. Presence is always delivered.
func Dispatch(u Update, h Handler) {
	if h == nil {
		return
	}
	if u.MoveX != nil {
		h.OnMove(*u.MoveX)
	}
	if u.PinchDistance != nil {
		h.OnPinchDistance(*u.PinchDistance)
	}
	if u.Armed != nil {
		h.OnArmedChanged(*u.Armed)
	}
	if u.Pointing != nil {
		h.OnPointingChanged(*u.Pointing)
	}
	if u.PinchMode != nil {
		h.OnPinchModeChanged(*u.PinchMode)
	}
	if u.Point != nil {
		h.OnPointDrag(u.Point.X, u.Point.Y)
	}
	h.OnHandPresence(u.Detected)
}

// Handlers adapts a set of optional funcs to Handler.
type Handlers struct {
	HandPresence     func(bool)
	Move             func(float64)
	PinchDistance    func(float64)
	PointDrag        func(x, y float64)
	ArmedChanged     func(bool)
	PointingChanged  func(bool)
	PinchModeChanged func(bool)
}

var _ Handler = Handlers{}

func (h Handlers) OnHandPresence(v bool) {
	if h.HandPresence != nil {
		h.HandPresence(v)
	}
}

func (h Handlers) OnMove(x float64) {
	if h.Move != nil {
		h.Move(x)
	}
}

func (h Handlers) OnPinchDistance(d float64) {
	if h.PinchDistance != nil {
		h.PinchDistance(d)
	}
}

func (h Handlers) OnPointDrag(x, y float64) {
	if h.PointDrag != nil {
		h.PointDrag(x, y)
	}
}

func (h Handlers) OnArmedChanged(v bool) {
	if h.ArmedChanged != nil {
		h.ArmedChanged(v)
	}
}

func (h Handlers) OnPointingChanged(v bool) {
	if h.PointingChanged != nil {
		h.PointingChanged(v)
	}
}

func (h Handlers) OnPinchModeChanged(v bool) {
	if h.PinchModeChanged != nil {
		h.PinchModeChanged(v)
	}
}

// Fanout forwards every call to each handler in order. Nil entries are skipped.
type Fanout []Handler

var _ Handler = Fanout(nil)

func (f Fanout) OnHandPresence(v bool) {
	for _, h := range f {
		if h != nil {
			h.OnHandPresence(v)
		}
	}
}

func (f Fanout) OnMove(x float64) {
	for _, h := range f {
		if h != nil {
			h.OnMove(x)
		}
	}
}

func (f Fanout) OnPinchDistance(d float64) {
	for _, h := range f {
		if h != nil {
			h.OnPinchDistance(d)
		}
	}
}

func (f Fanout) OnPointDrag(x, y float64) {
	for _, h := range f {
		if h != nil {
			h.OnPointDrag(x, y)
		}
	}
}

func (f Fanout) OnArmedChanged(v bool) {
	for _, h := range f {
		if h != nil {
			h.OnArmedChanged(v)
		}
	}
}

func (f Fanout) OnPointingChanged(v bool) {
	for _, h := range f {
		if h != nil {
			h.OnPointingChanged(v)
		}
	}
}

func (f Fanout) OnPinchModeChanged(v bool) {
	for _, h := range f {
		if h != nil {
			h.OnPinchModeChanged(v)
		}
	}
}
