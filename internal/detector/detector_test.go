package detector

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestHandLandmarks_Point(t *testing.T) {
	t.Run("present point", func(t *testing.T) {
		h := OpenPalmLandmarks()

		p, ok := h.Point(IndexTip)
		if !ok {
			t.Fatal("expected index tip to be present")
		}
		if p.X != 0.58 || p.Y != 0.35 {
			t.Errorf("unexpected index tip %+v", p)
		}
	})

	t.Run("index beyond slice is missing", func(t *testing.T) {
		h := &HandLandmarks{Points: make([]Point3D, 5)}

		if _, ok := h.Point(IndexTip); ok {
			t.Error("expected index tip to be missing on a truncated hand")
		}
		if _, ok := h.Point(-1); ok {
			t.Error("expected negative index to be missing")
		}
	})

	t.Run("NaN point is missing", func(t *testing.T) {
		h := OpenPalmLandmarks()
		h.Points[ThumbTip] = MissingPoint()

		if _, ok := h.Point(ThumbTip); ok {
			t.Error("expected NaN thumb tip to be missing")
		}
	})

	t.Run("infinite point is missing", func(t *testing.T) {
		h := OpenPalmLandmarks()
		h.Points[Wrist].X = math.Inf(1)

		if _, ok := h.Point(Wrist); ok {
			t.Error("expected infinite wrist to be missing")
		}
	})

	t.Run("nil hand", func(t *testing.T) {
		var h *HandLandmarks
		if _, ok := h.Point(Wrist); ok {
			t.Error("expected nil hand to have no points")
		}
	})
}

func TestHandLandmarks_Clone(t *testing.T) {
	h := OpenPalmLandmarks()
	c := h.Clone()
	c.Points[Wrist].X = 0.1

	if h.Points[Wrist].X != 0.5 {
		t.Errorf("clone shares point storage with the original")
	}

	var nilHand *HandLandmarks
	if nilHand.Clone() != nil {
		t.Error("expected nil clone of nil hand")
	}
}

func TestFrame_Detected(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  bool
	}{
		{name: "no hand", frame: Frame{}, want: false},
		{name: "empty hand", frame: Frame{Hand: &HandLandmarks{}}, want: false},
		{name: "hand", frame: Frame{Hand: FistLandmarks()}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.frame.Detected(); got != tt.want {
				t.Errorf("Detected() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMockDetector(t *testing.T) {
	ctx := context.Background()

	t.Run("returns no hand by default", func(t *testing.T) {
		mock := NewMockDetector()

		hand, err := mock.Detect(ctx, nil, time.Now())

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hand != nil {
			t.Errorf("expected nil hand, got %v", hand)
		}
	})

	t.Run("returns configured hand", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHand(FistLandmarks())

		hand, err := mock.Detect(ctx, nil, time.Now())

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hand == nil || len(hand.Points) != NumLandmarks {
			t.Fatalf("expected a full hand, got %v", hand)
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hand, err := mock.Detect(ctx, nil, time.Now())

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hand != nil {
			t.Errorf("expected nil hand when error is set, got %v", hand)
		}
	})

	t.Run("script is consumed in order", func(t *testing.T) {
		mock := NewMockDetector()
		boom := errors.New("boom")
		mock.Script(Result{Hand: FistLandmarks()}, Result{Err: boom}, Result{})
		mock.SetHand(OpenPalmLandmarks())

		if h, _ := mock.Detect(ctx, nil, time.Now()); h == nil {
			t.Error("first call: expected fist")
		}
		if _, err := mock.Detect(ctx, nil, time.Now()); err != boom {
			t.Errorf("second call: expected boom, got %v", err)
		}
		if h, _ := mock.Detect(ctx, nil, time.Now()); h != nil {
			t.Error("third call: expected no hand")
		}
		if h, _ := mock.Detect(ctx, nil, time.Now()); h == nil {
			t.Error("fourth call: expected fallback open palm")
		}
		if mock.Calls() != 4 {
			t.Errorf("Calls() = %d, want 4", mock.Calls())
		}
	})

	t.Run("hold blocks until cancelled", func(t *testing.T) {
		mock := NewMockDetector()
		mock.Hold()

		cctx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			_, err := mock.Detect(cctx, nil, time.Now())
			done <- err
		}()

		select {
		case <-done:
			t.Fatal("Detect returned while held")
		case <-time.After(20 * time.Millisecond):
		}

		cancel()
		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("Close is recorded", func(t *testing.T) {
		mock := NewMockDetector()

		if err := mock.Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
		if !mock.Closed() {
			t.Error("expected Closed() after Close")
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
	})
}

func TestJSONHand_ToHandLandmarks(t *testing.T) {
	h := jsonHand{
		Points:     []*jsonPoint{{X: 0.5, Y: 0.8}, nil, {X: 0.6, Y: 0.7}},
		Handedness: "Left",
		Score:      0.8,
	}

	lm := h.toHandLandmarks()

	if len(lm.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(lm.Points))
	}
	if _, ok := lm.Point(1); ok {
		t.Error("null joint should be missing")
	}
	if p, ok := lm.Point(2); !ok || p.X != 0.6 {
		t.Errorf("unexpected point 2: %+v ok=%v", p, ok)
	}
	if lm.Handedness != "Left" || lm.Score != 0.8 {
		t.Errorf("metadata not preserved: %+v", lm)
	}
}

func TestPresets_AreFullHands(t *testing.T) {
	presets := map[string]*HandLandmarks{
		"open palm": OpenPalmLandmarks(),
		"fist":      FistLandmarks(),
		"pointing":  PointingLandmarks(),
		"pinch":     PinchLandmarks(),
	}

	for name, h := range presets {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < NumLandmarks; i++ {
				if _, ok := h.Point(i); !ok {
					t.Errorf("landmark %d missing", i)
				}
			}
		})
	}
}

func TestMediaPipeDetector_Ready(t *testing.T) {
	// the test binary stands in for an interpreter that exists
	python, err := os.Executable()
	if err != nil {
		t.Skipf("no executable path: %v", err)
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "mediapipe_service.py")

	tests := []struct {
		name    string
		python  string
		script  string
		wantErr bool
	}{
		{"missing interpreter", filepath.Join(dir, "no-python"), script, true},
		{"missing script", python, filepath.Join(dir, "missing.py"), true},
		{"ready", python, script, false},
	}

	if err := os.WriteFile(script, []byte("# service\n"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &MediaPipeDetector{config: DefaultConfig(), python: tt.python, script: tt.script}
			err := d.Ready()
			if tt.wantErr {
				if !errors.Is(err, ErrUnavailable) {
					t.Errorf("Ready() = %v, want ErrUnavailable", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Ready() error = %v", err)
			}
		})
	}
}
