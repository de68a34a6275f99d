package follow

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"
)

// Snapshot is what the gesture side publishes for the animator.
type Snapshot struct {
	Seq uint64
	// Instance identifies the followed object. uuid.Nil means none.
	Instance uuid.UUID
	Locked   bool

	Target    r2.Vec
	TargetAt  time.Time
	HasTarget bool

	Scale float64
	Yaw   float64

	HandPresent bool
}

// Latch hands the latest Snapshot from one writer to one reader without
// blocking either. Later writes replace earlier ones.
type Latch struct {
	cur atomic.Pointer[Snapshot]
	seq atomic.Uint64
}

// Store publishes s, stamping it with the next sequence number.
func (l *Latch) Store(s Snapshot) uint64 {
	s.Seq = l.seq.Add(1)
	l.cur.Store(&s)
	return s.Seq
}

// Load returns the latest snapshot, or false if nothing was stored.
func (l *Latch) Load() (Snapshot, bool) {
	p := l.cur.Load()
	if p == nil {
		return Snapshot{}, false
	}
	return *p, true
}
