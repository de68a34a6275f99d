package follow

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/handsteer/internal/timeutil"
)

// Pose is the displayed state of the followed object.
type Pose struct {
	Instance uuid.UUID `json:"instance"`
	Visible  bool      `json:"visible"`
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Scale    float64   `json:"scale"`
	Yaw      float64   `json:"yaw"`
	Locked   bool      `json:"locked"`
	Settled  bool      `json:"settled"`
	// AutoRotate is set while no hand is in view.
	AutoRotate bool `json:"auto_rotate"`
}

// Animator is the latch's single reader. On each display tick it applies
// the latest snapshot to a Controller and reports the resulting pose.
type Animator struct {
	cfg    Config
	latch  *Latch
	clock  timeutil.Clock
	onPose func(Pose)

	ctrl     *Controller
	instance uuid.UUID
	seq      uint64
	targetAt time.Time
	last     time.Time
	sent     bool

	mu   sync.RWMutex
	pose Pose
}

// NewAnimator creates an animator. onPose is called only when the pose changes.
func NewAnimator(cfg Config, latch *Latch, clock timeutil.Clock, onPose func(Pose)) *Animator {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Animator{cfg: cfg, latch: latch, clock: clock, onPose: onPose}
}

// Run ticks at the configured frame interval until ctx is done.
func (a *Animator) Run(ctx context.Context) error {
	ticker := a.clock.NewTicker(a.cfg.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C():
			a.Step(now)
		}
	}
}

// Step advances one display tick at now and returns the pose.
func (a *Animator) Step(now time.Time) Pose {
	snap, ok := a.latch.Load()
	if !ok || snap.Instance == uuid.Nil {
		a.ctrl = nil
		a.instance = uuid.Nil
		return a.emit(Pose{AutoRotate: !snap.HandPresent})
	}

	if snap.Instance != a.instance {
		a.ctrl = NewController(a.cfg)
		a.instance = snap.Instance
		a.seq = 0
		a.targetAt = time.Time{}
		a.last = now
	}

	if snap.Seq != a.seq {
		a.seq = snap.Seq
		if snap.Locked {
			if !a.ctrl.Locked() {
				a.ctrl.Lock()
			}
		} else {
			a.ctrl.Unlock()
			if snap.HasTarget && !snap.TargetAt.Equal(a.targetAt) {
				a.ctrl.SetTarget(snap.Target, snap.TargetAt)
				a.targetAt = snap.TargetAt
			}
		}
	}

	dt := now.Sub(a.last)
	a.last = now
	pos := a.ctrl.Tick(dt)

	return a.emit(Pose{
		Instance:   snap.Instance,
		Visible:    true,
		X:          pos.X,
		Y:          pos.Y,
		Scale:      snap.Scale,
		Yaw:        snap.Yaw,
		Locked:     a.ctrl.Locked(),
		Settled:    a.ctrl.Settled(),
		AutoRotate: !snap.HandPresent,
	})
}

// Pose returns the last computed pose. It is safe to call from any goroutine.
func (a *Animator) Pose() Pose {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pose
}

func (a *Animator) emit(p Pose) Pose {
	a.mu.Lock()
	changed := !a.sent || !samePose(a.pose, p)
	a.pose = p
	a.mu.Unlock()

	a.sent = true
	if changed && a.onPose != nil {
		a.onPose(p)
	}
	return p
}

func samePose(a, b Pose) bool {
	const tol = 1e-9
	return a.Instance == b.Instance &&
		a.Visible == b.Visible &&
		a.Locked == b.Locked &&
		a.Settled == b.Settled &&
		a.AutoRotate == b.AutoRotate &&
		math.Abs(a.X-b.X) < tol &&
		math.Abs(a.Y-b.Y) < tol &&
		math.Abs(a.Scale-b.Scale) < tol &&
		math.Abs(a.Yaw-b.Yaw) < tol
}
