package timeutil

import (
	"testing"
	"time"
)

func TestMockClock_AdvanceFiresTicker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	tk := c.NewTicker(16 * time.Millisecond)

	c.Advance(10 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("ticker fired before its interval elapsed")
	default:
	}

	c.Advance(6 * time.Millisecond)
	select {
	case got := <-tk.C():
		if !got.Equal(start.Add(16 * time.Millisecond)) {
			t.Errorf("tick time = %v, want %v", got, start.Add(16*time.Millisecond))
		}
	default:
		t.Fatal("ticker did not fire after its interval")
	}
}

func TestMockClock_StoppedTickerIsSilent(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	tk := c.NewTicker(time.Second)
	tk.Stop()

	c.Advance(5 * time.Second)
	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	default:
	}
	if !tk.(*MockTicker).Stopped() {
		t.Error("Stopped() = false after Stop")
	}
}

func TestMockClock_Since(t *testing.T) {
	start := time.Unix(100, 0)
	c := NewMockClock(start)
	c.Advance(250 * time.Millisecond)

	if got := c.Since(start); got != 250*time.Millisecond {
		t.Errorf("Since() = %v, want 250ms", got)
	}
}
