package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Default frame differencing settings.
const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the binary threshold for difference detection
	DiffThreshold = 25
)

// MotionOptions controls how two frames are compared.
type MotionOptions struct {
	// BlurSize is the Gaussian kernel size. Zero disables blurring.
	BlurSize int
	// DiffThreshold is the per-pixel difference a pixel must exceed to count as changed.
	DiffThreshold float32
}

// DefaultMotionOptions suppresses sensor noise so only real movement counts.
func DefaultMotionOptions() MotionOptions {
	return MotionOptions{BlurSize: GaussianBlurSize, DiffThreshold: DiffThreshold}
}

// FreezeOptions counts any pixel change at all. A live sensor always has some
// noise, so zero change between frames means the stream is frozen.
func FreezeOptions() MotionOptions {
	return MotionOptions{}
}

// MotionDetector measures change between consecutive video frames.
type MotionDetector struct {
	threshold   float64
	opts        MotionOptions
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewMotionDetector creates a MotionDetector with the default options.
// The threshold is the percentage of pixels that must change to detect motion.
// For example, a threshold of 1.0 means 1% of pixels must change.
func NewMotionDetector(threshold float64) *MotionDetector {
	return NewMotionDetectorWithOptions(threshold, DefaultMotionOptions())
}

// NewMotionDetectorWithOptions creates a MotionDetector with custom options.
func NewMotionDetectorWithOptions(threshold float64, opts MotionOptions) *MotionDetector {
	if opts.BlurSize > 0 && opts.BlurSize%2 == 0 {
		opts.BlurSize++ // kernel size must be odd
	}
	return &MotionDetector{
		threshold: threshold,
		opts:      opts,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares frame with the previous one. It returns whether motion was
// detected and the percentage of pixels that changed. The first frame after
// creation or Reset only sets the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	if m.opts.BlurSize > 0 {
		blurred := gocv.NewMat()
		defer blurred.Close()
		size := image.Point{X: m.opts.BlurSize, Y: m.opts.BlurSize}
		gocv.GaussianBlur(gray, &blurred, size, 0, 0, gocv.BorderDefault)
		blurred.CopyTo(&gray)
	}

	if !m.initialized || m.prevGray.Empty() {
		gray.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(gray, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, m.opts.DiffThreshold, 255, gocv.ThresholdBinary)

	nonZero := gocv.CountNonZero(thresh)
	totalPixels := thresh.Rows() * thresh.Cols()
	changePercent := float64(nonZero) / float64(totalPixels) * 100.0

	gray.CopyTo(&m.prevGray)

	return changePercent > m.threshold, changePercent
}

// Primed reports whether a baseline frame is stored.
func (m *MotionDetector) Primed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.initialized
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearLocked()
}

// Close releases resources used by the motion detector.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearLocked()
}

func (m *MotionDetector) clearLocked() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}

// SetThreshold sets the motion detection threshold in percent.
// Values less than or equal to 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.threshold = threshold
}
