package emit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func flag(v bool) *bool      { return &v }

func TestDispatch_Order(t *testing.T) {
	u := Update{
		Detected:      true,
		MoveX:         f64(0.4),
		PinchDistance: f64(0.12),
		Point:         &Point{X: 0.3, Y: -0.6},
		Armed:         flag(true),
		Pointing:      flag(true),
		PinchMode:     flag(false),
	}

	var r Recorder
	Dispatch(u, &r)

	want := []Event{
		{Kind: KindMove, X: 0.4},
		{Kind: KindPinch, X: 0.12},
		{Kind: KindArmed, State: true},
		{Kind: KindPointing, State: true},
		{Kind: KindPinchMode, State: false},
		{Kind: KindPoint, X: 0.3, Y: -0.6},
		{Kind: KindPresence, State: true},
	}
	if diff := cmp.Diff(want, r.Events()); diff != "" {
		t.Errorf("dispatch mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatch_NoHandIsPresenceOnly(t *testing.T) {
	var r Recorder
	Dispatch(Update{}, &r)

	assert.Equal(t, []string{KindPresence}, r.Kinds())
	assert.False(t, r.Events()[0].State)
	assert.True(t, Update{}.Empty())
}

func TestDispatch_NilHandler(t *testing.T) {
	assert.NotPanics(t, func() { Dispatch(Update{MoveX: f64(1)}, nil) })
}

func TestHandlers_NilFuncsAreSkipped(t *testing.T) {
	var moved []float64
	h := Handlers{Move: func(x float64) { moved = append(moved, x) }}

	assert.NotPanics(t, func() {
		Dispatch(Update{
			Detected:      true,
			MoveX:         f64(0.7),
			PinchDistance: f64(0.1),
			Point:         &Point{},
			Armed:         flag(true),
			Pointing:      flag(true),
			PinchMode:     flag(true),
		}, h)
	})
	assert.Equal(t, []float64{0.7}, moved)
}

func TestFanout(t *testing.T) {
	var a, b Recorder
	f := Fanout{&a, nil, &b}

	Dispatch(Update{Detected: true, Armed: flag(true)}, f)

	assert.Equal(t, a.Events(), b.Events())
	assert.Equal(t, []string{KindArmed, KindPresence}, a.Kinds())
}

func TestUpdate_JSON(t *testing.T) {
	u := Update{
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Detected:  true,
		MoveX:     f64(0.25),
		Armed:     flag(false),
	}

	data, err := json.Marshal(u)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, 0.25, m["move_x"])
	assert.Equal(t, false, m["armed"])
	assert.NotContains(t, m, "point")
	assert.NotContains(t, m, "pinch_distance")
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.OnMove(0.5)
	r.OnPointDrag(0.1, 0.2)
	r.OnHandPresence(true)

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 1, r.Count(KindPoint))
	assert.Equal(t, "point(0.100,0.200)", r.Events()[1].String())
	assert.Equal(t, "presence(true)", r.Events()[2].String())

	r.Reset()
	assert.Equal(t, 0, r.Len())
}
