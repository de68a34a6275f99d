package detector

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ErrUnavailable is returned when the estimator backend cannot be started.
var ErrUnavailable = errors.New("hand detector unavailable")

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame captured at ts and returns the landmarks
	// of a single hand, or nil when no hand is present.
	Detect(ctx context.Context, frame *gocv.Mat, ts time.Time) (*HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Checker is implemented by detectors that can verify their backend before
// the first frame is processed.
type Checker interface {
	Ready() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// IdleTimeout shuts the backend down after this long without a request.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		IdleTimeout:     30 * time.Second,
	}
}
