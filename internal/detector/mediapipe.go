package detector

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/ayusman/handsteer/internal/log"
)

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
// Frames are sent as a 4-byte big-endian length, an 8-byte big-endian
// millisecond timestamp and the JPEG bytes; each reply is one JSON line.
type MediaPipeDetector struct {
	config    Config
	script    string
	python    string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	scriptPath := findMediaPipeScript()
	if scriptPath == "" {
		return nil, errors.Wrap(ErrUnavailable, "mediapipe_service.py not found")
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultConfig().IdleTimeout
	}

	return &MediaPipeDetector{
		config: config,
		script: scriptPath,
		python: pythonPath,
	}, nil
}

// Ready verifies that the interpreter and the service script can be found.
func (d *MediaPipeDetector) Ready() error {
	if _, err := exec.LookPath(d.python); err != nil {
		return errors.Wrapf(ErrUnavailable, "python interpreter %q: %v", d.python, err)
	}
	if _, err := os.Stat(d.script); err != nil {
		return errors.Wrapf(ErrUnavailable, "service script %q: %v", d.script, err)
	}
	return nil
}

// Detect analyzes a frame and returns the landmarks of the first detected hand.
func (d *MediaPipeDetector) Detect(ctx context.Context, frame *gocv.Mat, ts time.Time) (*HandLandmarks, error) {
	if frame == nil || frame.Empty() {
		return nil, errors.New("empty frame")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	// The reads below block on the subprocess; cancelling kills it.
	proc := d.cmd.Process
	stop := context.AfterFunc(ctx, func() {
		_ = proc.Kill()
	})
	defer stop()

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, errors.Wrap(err, "encode frame")
	}
	defer buf.Close()

	data := buf.GetBytes()

	header := make([]byte, 12)
	binary.BigEndian.PutUint32(header[:4], uint32(len(data)))
	binary.BigEndian.PutUint64(header[4:], uint64(ts.UnixMilli()))

	if _, err := d.stdin.Write(header); err != nil {
		d.reset()
		return nil, errors.Wrap(err, "write header")
	}
	if _, err := d.stdin.Write(data); err != nil {
		d.reset()
		return nil, errors.Wrap(err, "write data")
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		d.reset()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Wrap(err, "read response")
	}

	var response struct {
		Hands []jsonHand `json:"hands"`
	}
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, errors.Wrap(err, "parse response")
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	if len(response.Hands) == 0 {
		return nil, nil
	}
	return response.Hands[0].toHandLandmarks(), nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	d.cmd = exec.Command(d.python, d.script,
		"--num-hands", "1",
		"--min-confidence", fmt.Sprintf("%.2f", d.config.MinConfidence),
		"--min-tracking", fmt.Sprintf("%.2f", d.config.MinTrackingConf),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return errors.Wrap(err, "create stdin pipe")
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "create stdout pipe")
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return errors.Wrap(err, "start mediapipe service")
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()
	log.Info("mediapipe service started", "pid", d.cmd.Process.Pid)

	return nil
}

// reset tears down a broken subprocess so the next Detect restarts it.
func (d *MediaPipeDetector) reset() {
	if err := d.shutdown(); err != nil {
		log.Debug("mediapipe service exited", "err", err)
	}
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(d.config.IdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

// findMediaPipeScript locates mediapipe_service.py, which is installed
// alongside the binary rather than built with it. The service contract:
//
//	python mediapipe_service.py --num-hands 1 --min-confidence C --min-tracking T
//
// reads frames from stdin until EOF. Each frame is a 12-byte header, a
// big-endian uint32 JPEG length then a big-endian uint64 capture time in
// Unix milliseconds, followed by the JPEG bytes. For every frame it writes
// exactly one JSON line to stdout:
//
//	{"hands": [{"handedness": "Right", "score": 0.97,
//	            "points": [{"x": 0.41, "y": 0.62, "z": -0.03}, null, ...]}]}
//
// points holds the 21 joints in MediaPipe order with normalized image
// coordinates; a joint the model could not place is null. An empty hands
// list means no hand. Diagnostics go to stderr.
func findMediaPipeScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/mediapipe_service.py",
		"../scripts/mediapipe_service.py",
		filepath.Join(execDir, "scripts/mediapipe_service.py"),
		filepath.Join(os.Getenv("HOME"), ".handsteer/scripts/mediapipe_service.py"),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".handsteer/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonHand represents the JSON structure from the Python service.
// Joints the model could not place are sent as null.
type jsonHand struct {
	Points     []*jsonPoint `json:"points"`
	Handedness string       `json:"handedness"`
	Score      float64      `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (h jsonHand) toHandLandmarks() *HandLandmarks {
	n := len(h.Points)
	if n > NumLandmarks {
		n = NumLandmarks
	}

	lm := &HandLandmarks{
		Points:     make([]Point3D, n),
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	for i := 0; i < n; i++ {
		p := h.Points[i]
		if p == nil {
			lm.Points[i] = MissingPoint()
			continue
		}
		lm.Points[i] = Point3D{X: p.X, Y: p.Y, Z: p.Z}
	}

	return lm
}
