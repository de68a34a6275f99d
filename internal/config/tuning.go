// Package config loads handsteer calibration from JSON. A tuning file only
// needs the values it changes; everything else keeps its default.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/ayusman/handsteer/internal/app"
	"github.com/ayusman/handsteer/internal/capture"
	"github.com/ayusman/handsteer/internal/control"
	"github.com/ayusman/handsteer/internal/emit"
	"github.com/ayusman/handsteer/internal/follow"
	"github.com/ayusman/handsteer/internal/gesture"
	"github.com/ayusman/handsteer/internal/smooth"
)

// MaxFileSize is the largest tuning file Load accepts.
const MaxFileSize = 1 << 20

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid tuning")

// Tuning is the JSON schema for all calibration constants. Durations are
// Go duration strings such as "16ms".
type Tuning struct {
	Smoothing smooth.Config   `json:"smoothing"`
	Gesture   gesture.Config  `json:"gesture"`
	Emit      EmitTuning      `json:"emit"`
	Scheduler SchedulerTuning `json:"scheduler"`
	Camera    CameraTuning    `json:"camera"`
	Follow    FollowTuning    `json:"follow"`
}

// EmitTuning holds the change-gate settings.
type EmitTuning struct {
	MinDelta      float64 `json:"min_delta"`
	PinchMinDelta float64 `json:"pinch_min_delta"`
	// PointCooldown of "0s" disables the cooldown.
	PointCooldown string `json:"point_cooldown"`
}

// SchedulerTuning holds the frame scheduler timing.
type SchedulerTuning struct {
	FrameInterval string `json:"frame_interval"`
	// MinFrameInterval defaults to three quarters of FrameInterval.
	MinFrameInterval string `json:"min_frame_interval,omitempty"`
	LivenessPeriod   string `json:"liveness_period"`
	Preview          bool   `json:"preview"`
}

// CameraTuning holds the capture format and staleness limits.
type CameraTuning struct {
	Width           int `json:"width"`
	Height          int `json:"height"`
	FPS             int `json:"fps"`
	MaxReadFailures int `json:"max_read_failures"`
	FreezeFrames    int `json:"freeze_frames"`
}

// FollowTuning holds the follow controller and pose mapping settings.
type FollowTuning struct {
	Scheme    string  `json:"scheme"`
	BaseSpeed float64 `json:"base_speed"`
	SpeedCap  float64 `json:"speed_cap"`
	Gain      float64 `json:"gain"`
	Epsilon   float64 `json:"epsilon"`
	ExtentX   float64 `json:"extent_x"`
	ExtentY   float64 `json:"extent_y"`
	PinchNear float64 `json:"pinch_near"`
	PinchFar  float64 `json:"pinch_far"`
	ScaleMin  float64 `json:"scale_min"`
	ScaleMax  float64 `json:"scale_max"`
	YawRange  float64 `json:"yaw_range"`

	FrameInterval string `json:"frame_interval"`
}

// Default returns the stock calibration.
func Default() *Tuning {
	em := emit.DefaultConfig()
	sc := app.DefaultConfig()
	cam := capture.DefaultConfig()
	fo := follow.DefaultConfig()

	return &Tuning{
		Smoothing: smooth.DefaultConfig(),
		Gesture:   gesture.DefaultConfig(),
		Emit: EmitTuning{
			MinDelta:      em.MinDelta,
			PinchMinDelta: em.PinchMinDelta,
			PointCooldown: em.PointCooldown.String(),
		},
		Scheduler: SchedulerTuning{
			FrameInterval:  sc.FrameInterval.String(),
			LivenessPeriod: sc.LivenessPeriod.String(),
		},
		Camera: CameraTuning{
			Width:           cam.Width,
			Height:          cam.Height,
			FPS:             cam.FPS,
			MaxReadFailures: cam.MaxReadFailures,
			FreezeFrames:    cam.FreezeFrames,
		},
		Follow: FollowTuning{
			Scheme:        fo.Scheme.String(),
			BaseSpeed:     fo.BaseSpeed,
			SpeedCap:      fo.SpeedCap,
			Gain:          fo.Gain,
			Epsilon:       fo.Epsilon,
			ExtentX:       fo.ExtentX,
			ExtentY:       fo.ExtentY,
			PinchNear:     fo.PinchNear,
			PinchFar:      fo.PinchFar,
			ScaleMin:      fo.ScaleMin,
			ScaleMax:      fo.ScaleMax,
			YawRange:      fo.YawRange,
			FrameInterval: fo.FrameInterval.String(),
		},
	}
}

// Load reads a tuning file. The path must end in .json and the file must be
// at most MaxFileSize bytes.
func Load(path string) (*Tuning, error) {
	clean := filepath.Clean(path)
	if ext := filepath.Ext(clean); ext != ".json" {
		return nil, errors.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(clean)
	if err != nil {
		return nil, errors.Wrap(err, "stat config file")
	}
	if info.Size() > MaxFileSize {
		return nil, errors.Errorf("config file too large: %d bytes (max %d)", info.Size(), MaxFileSize)
	}

	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	t, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", clean)
	}
	return t, nil
}

// Parse overlays JSON onto the defaults and validates the result.
func Parse(data []byte) (*Tuning, error) {
	t := Default()
	if err := json.Unmarshal(data, t); err != nil {
		return nil, errors.Wrap(err, "parse config JSON")
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// JSON returns the indented encoding of t.
func (t *Tuning) JSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// Validate checks every section.
func (t *Tuning) Validate() error {
	cc, err := t.ControlConfig()
	if err != nil {
		return err
	}
	if err := cc.Validate(); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}

	ac, err := t.AppConfig()
	if err != nil {
		return err
	}
	if ac.FrameInterval <= 0 {
		return errors.Wrapf(ErrInvalid, "frame_interval must be positive, got %v", ac.FrameInterval)
	}
	if ac.MinFrameInterval < 0 {
		return errors.Wrapf(ErrInvalid, "min_frame_interval must not be negative, got %v", ac.MinFrameInterval)
	}
	if ac.LivenessPeriod <= 0 {
		return errors.Wrapf(ErrInvalid, "liveness_period must be positive, got %v", ac.LivenessPeriod)
	}

	c := t.Camera
	if c.Width < 0 || c.Height < 0 || c.FPS < 0 || c.MaxReadFailures < 0 || c.FreezeFrames < 0 {
		return errors.Wrap(ErrInvalid, "camera settings must not be negative")
	}

	fc, err := t.FollowConfig()
	if err != nil {
		return err
	}
	if err := fc.Validate(); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	return nil
}

// ControlConfig returns the per-tick pipeline settings.
func (t *Tuning) ControlConfig() (control.Config, error) {
	cooldown, err := duration("point_cooldown", t.Emit.PointCooldown, 0)
	if err != nil {
		return control.Config{}, err
	}
	return control.Config{
		Smoothing: t.Smoothing,
		Gesture:   t.Gesture,
		Emit: emit.Config{
			MinDelta:      t.Emit.MinDelta,
			PinchMinDelta: t.Emit.PinchMinDelta,
			PointCooldown: cooldown,
		},
	}, nil
}

// AppConfig returns the scheduler settings, including the control pipeline.
func (t *Tuning) AppConfig() (app.Config, error) {
	cc, err := t.ControlConfig()
	if err != nil {
		return app.Config{}, err
	}
	cfg := app.DefaultConfig()
	cfg.Control = cc
	cfg.Preview = t.Scheduler.Preview

	if cfg.FrameInterval, err = duration("frame_interval", t.Scheduler.FrameInterval, cfg.FrameInterval); err != nil {
		return app.Config{}, err
	}
	if cfg.MinFrameInterval, err = duration("min_frame_interval", t.Scheduler.MinFrameInterval, 0); err != nil {
		return app.Config{}, err
	}
	if cfg.LivenessPeriod, err = duration("liveness_period", t.Scheduler.LivenessPeriod, cfg.LivenessPeriod); err != nil {
		return app.Config{}, err
	}
	return cfg, nil
}

// CameraConfig returns capture settings for the given device.
func (t *Tuning) CameraConfig(deviceID int) capture.Config {
	return capture.Config{
		DeviceID:        deviceID,
		Width:           t.Camera.Width,
		Height:          t.Camera.Height,
		FPS:             t.Camera.FPS,
		MaxReadFailures: t.Camera.MaxReadFailures,
		FreezeFrames:    t.Camera.FreezeFrames,
	}
}

// FollowConfig returns the follow controller settings.
func (t *Tuning) FollowConfig() (follow.Config, error) {
	scheme, err := follow.ParseScheme(t.Follow.Scheme)
	if err != nil {
		return follow.Config{}, errors.Wrap(ErrInvalid, err.Error())
	}
	cfg := follow.Config{
		BaseSpeed: t.Follow.BaseSpeed,
		SpeedCap:  t.Follow.SpeedCap,
		Gain:      t.Follow.Gain,
		Epsilon:   t.Follow.Epsilon,
		Scheme:    scheme,
		ExtentX:   t.Follow.ExtentX,
		ExtentY:   t.Follow.ExtentY,
		PinchNear: t.Follow.PinchNear,
		PinchFar:  t.Follow.PinchFar,
		ScaleMin:  t.Follow.ScaleMin,
		ScaleMax:  t.Follow.ScaleMax,
		YawRange:  t.Follow.YawRange,
	}
	cfg.FrameInterval, err = duration("follow.frame_interval", t.Follow.FrameInterval, follow.DefaultConfig().FrameInterval)
	if err != nil {
		return follow.Config{}, err
	}
	return cfg, nil
}

// duration parses s, returning fallback when s is empty.
func duration(name, s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalid, "%s: %v", name, err)
	}
	return d, nil
}
