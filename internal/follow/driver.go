package follow

import (
	"sync"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/handsteer/internal/emit"
	"github.com/ayusman/handsteer/internal/timeutil"
)

// Driver turns pipeline callbacks into latch snapshots. It is the latch's
// single writer and publishes at most once per processed tick, on the
// presence callback that closes every tick.
//
// The first hand seen for an object spawns a new instance in the locked
// state. The instance unlocks on the next Armed edge to true. Drag targets
// are written only while armed, pointing, not pinching and unlocked.
type Driver struct {
	cfg   Config
	latch *Latch
	clock timeutil.Clock
	newID func() uuid.UUID

	mu        sync.Mutex
	cur       Snapshot
	dirty     bool
	armed     bool
	pointing  bool
	pinchMode bool
}

var _ emit.Handler = (*Driver)(nil)

// NewDriver creates a driver publishing to latch.
func NewDriver(cfg Config, latch *Latch, clock timeutil.Clock) *Driver {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Driver{cfg: cfg, latch: latch, clock: clock, newID: uuid.New}
}

// Current returns the working snapshot, including changes not yet published.
func (d *Driver) Current() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cur
}

// Finalize ends the current object instance and publishes immediately.
// The next detected hand spawns a fresh, locked instance.
func (d *Driver) Finalize() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cur.Instance == uuid.Nil {
		return
	}
	d.cur = Snapshot{HandPresent: d.cur.HandPresent}
	d.latch.Store(d.cur)
	d.dirty = false
}

// ensureInstance must be called with mu held.
func (d *Driver) ensureInstance() {
	if d.cur.Instance != uuid.Nil {
		return
	}
	d.cur = Snapshot{
		Instance:    d.newID(),
		Locked:      true,
		Scale:       1,
		HandPresent: d.cur.HandPresent,
	}
	d.dirty = true
}

func (d *Driver) OnHandPresence(detected bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if detected {
		d.ensureInstance()
	}
	if d.cur.HandPresent != detected {
		d.cur.HandPresent = detected
		d.dirty = true
	}
	if d.dirty {
		d.latch.Store(d.cur)
		d.dirty = false
	}
}

func (d *Driver) OnMove(x float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ensureInstance()
	d.cur.Yaw = d.cfg.YawFor(x)
	d.dirty = true
}

func (d *Driver) OnPinchDistance(dist float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ensureInstance()
	if !d.pinchMode {
		return
	}
	d.cur.Scale = d.cfg.ScaleFor(dist)
	d.dirty = true
}

func (d *Driver) OnPointDrag(x, y float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ensureInstance()
	if !d.armed || !d.pointing || d.pinchMode || d.cur.Locked {
		return
	}
	// image y grows downward, world y grows upward
	d.cur.Target = r2.Vec{X: x * d.cfg.ExtentX, Y: -y * d.cfg.ExtentY}
	d.cur.TargetAt = d.clock.Now()
	d.cur.HasTarget = true
	d.dirty = true
}

func (d *Driver) OnArmedChanged(armed bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ensureInstance()
	d.armed = armed
	if armed && d.cur.Locked {
		d.cur.Locked = false
		d.dirty = true
	}
}

func (d *Driver) OnPointingChanged(pointing bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ensureInstance()
	d.pointing = pointing
}

func (d *Driver) OnPinchModeChanged(active bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ensureInstance()
	d.pinchMode = active
}
