package capture

import (
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultWidth  = 640
	DefaultHeight = 480
	DefaultFPS    = 60
)

// Config holds camera settings.
type Config struct {
	DeviceID int
	Width    int
	Height   int
	FPS      int
	// MaxReadFailures is the number of consecutive failed reads after which
	// the camera reports itself as not live.
	MaxReadFailures int
	// FreezeFrames is the number of consecutive pixel-identical frames after
	// which the stream counts as frozen. Zero disables freeze detection.
	FreezeFrames int
}

// DefaultConfig returns settings for the default webcam.
func DefaultConfig() Config {
	return Config{
		DeviceID:        0,
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		FPS:             DefaultFPS,
		MaxReadFailures: 30,
		FreezeFrames:    120,
	}
}

// Camera reads frames from a local capture device using GoCV and tracks
// whether the device is still delivering fresh frames.
type Camera struct {
	cfg     Config
	capture *gocv.VideoCapture
	freeze  *MotionDetector
	mu      sync.Mutex
	running bool

	failStreak   int
	frozenStreak int
}

var _ Source = (*Camera)(nil)

// NewCamera creates a camera with the given settings. It is not opened.
func NewCamera(cfg Config) *Camera {
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	if cfg.MaxReadFailures <= 0 {
		cfg.MaxReadFailures = DefaultConfig().MaxReadFailures
	}
	return &Camera{cfg: cfg}
}

// Config returns the camera settings.
func (c *Camera) Config() Config {
	return c.cfg
}

// Open opens the capture device.
func (c *Camera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.openLocked()
}

func (c *Camera) openLocked() error {
	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.cfg.DeviceID)
	if err != nil {
		return errors.Wrapf(err, "open camera %d", c.cfg.DeviceID)
	}
	if !capture.IsOpened() {
		capture.Close()
		return errors.Errorf("camera %d did not open", c.cfg.DeviceID)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(c.cfg.FPS))

	c.capture = capture
	c.running = true
	c.failStreak = 0
	c.frozenStreak = 0
	if c.cfg.FreezeFrames > 0 {
		c.freeze = NewMotionDetectorWithOptions(0, FreezeOptions())
	}
	return nil
}

// Close releases the capture device.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closeLocked()
}

func (c *Camera) closeLocked() error {
	if c.freeze != nil {
		c.freeze.Close()
		c.freeze = nil
	}
	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false
	return err
}

// ReadFrame reads a single frame from the camera.
// The caller is responsible for closing the returned Mat.
func (c *Camera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		c.failStreak++
		if c.failStreak >= c.cfg.MaxReadFailures {
			return nil, ErrStale
		}
		return nil, errors.New("failed to read frame from camera")
	}
	c.failStreak = 0

	if c.freeze != nil {
		primed := c.freeze.Primed()
		if _, changed := c.freeze.Detect(&mat); primed && changed == 0 {
			c.frozenStreak++
		} else {
			c.frozenStreak = 0
		}
	}

	return &mat, nil
}

// IsLive reports whether the camera is open and still producing new frames.
func (c *Camera) IsLive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.liveLocked()
}

func (c *Camera) liveLocked() bool {
	if !c.running {
		return false
	}
	if c.failStreak >= c.cfg.MaxReadFailures {
		return false
	}
	if c.cfg.FreezeFrames > 0 && c.frozenStreak >= c.cfg.FreezeFrames {
		return false
	}
	return true
}

// Reacquire closes and reopens the device.
func (c *Camera) Reacquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.closeLocked(); err != nil {
		return errors.Wrap(err, "release camera")
	}
	return c.openLocked()
}

// IsOpen reports whether the device is open.
func (c *Camera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
