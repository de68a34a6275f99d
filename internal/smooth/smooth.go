// Package smooth implements per-channel exponential moving averages.
package smooth

// DefaultAlpha weights each new sample against the running value.
const DefaultAlpha = 0.25

// Channel is a single EMA. The zero value is not usable; create one with New.
type Channel struct {
	alpha  float64
	value  float64
	primed bool
}

// New returns a channel with the given alpha. Alpha outside (0,1] falls back
// to DefaultAlpha.
func New(alpha float64) *Channel {
	if !(alpha > 0 && alpha <= 1) {
		alpha = DefaultAlpha
	}
	return &Channel{alpha: alpha}
}

// Alpha returns the channel's weight for new samples.
func (c *Channel) Alpha() float64 {
	return c.alpha
}

// Update feeds one sample and returns the smoothed value.
// The first sample after New or Reset is taken as-is.
func (c *Channel) Update(sample float64) float64 {
	if !c.primed {
		c.value = sample
		c.primed = true
		return c.value
	}
	c.value = c.alpha*sample + (1-c.alpha)*c.value
	return c.value
}

// Value returns the current smoothed value and whether any sample has been seen.
func (c *Channel) Value() (float64, bool) {
	return c.value, c.primed
}

// Reset forgets all history.
func (c *Channel) Reset() {
	c.value = 0
	c.primed = false
}

// Config holds the alpha of every smoothed channel.
type Config struct {
	Move   float64 `json:"move"`
	Pinch  float64 `json:"pinch"`
	PointX float64 `json:"point_x"`
	PointY float64 `json:"point_y"`
	Fist   float64 `json:"fist"`
}

// DefaultConfig returns DefaultAlpha on every channel.
func DefaultConfig() Config {
	return Config{
		Move:   DefaultAlpha,
		Pinch:  DefaultAlpha,
		PointX: DefaultAlpha,
		PointY: DefaultAlpha,
		Fist:   DefaultAlpha,
	}
}

// Set groups the channels used by the control pipeline. Channels are
// independent: a channel with no sample on a tick keeps its value.
type Set struct {
	Move   *Channel
	Pinch  *Channel
	PointX *Channel
	PointY *Channel
	Fist   *Channel
}

// NewSet creates one channel per entry in cfg.
func NewSet(cfg Config) Set {
	return Set{
		Move:   New(cfg.Move),
		Pinch:  New(cfg.Pinch),
		PointX: New(cfg.PointX),
		PointY: New(cfg.PointY),
		Fist:   New(cfg.Fist),
	}
}

// Reset clears every channel.
func (s Set) Reset() {
	s.Move.Reset()
	s.Pinch.Reset()
	s.PointX.Reset()
	s.PointY.Reset()
	s.Fist.Reset()
}
