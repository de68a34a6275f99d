// Package capture provides video sources for the gesture pipeline.
package capture

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

var (
	// ErrCameraNotOpen is returned when reading from a source that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrStale is returned when a source has stopped producing usable frames
	// and needs Reacquire.
	ErrStale = errors.New("capture source is stale")
)

// Source is a video source the pipeline reads one frame per tick from.
// IsLive and Reacquire may be called concurrently with ReadFrame.
type Source interface {
	Open() error
	Close() error
	// ReadFrame returns the current frame. The caller closes the Mat.
	ReadFrame() (*gocv.Mat, error)
	// IsLive reports whether the source is still delivering fresh frames.
	IsLive() bool
	// Reacquire drops the underlying device and opens it again.
	Reacquire() error
}
