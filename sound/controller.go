package sound

import (
	"errors"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

var ErrNotLoaded = errors.New("sample not loaded")

// Controller owns the playback of one pad's sample. Only the controller
// touches its streamers; the output reads them under its lock.
type Controller struct {
	out    Output
	sample *Sample

	ctrl  *beep.Ctrl    // current playback, nil when idle
	gain  *effects.Gain // gain stage of current playback
	level int           // 0-100
}

func NewController(out Output) *Controller {
	if out == nil {
		out = Discard
	}
	return &Controller{out: out, level: 100}
}

// Attach sets the sample to play, stopping anything from the old one
func (c *Controller) Attach(s *Sample) {
	c.out.Lock()
	c.stopLocked()
	c.sample = s
	c.out.Unlock()
}

// Loaded reports whether a sample is attached
func (c *Controller) Loaded() bool {
	return c.sample != nil && c.sample.Buffer != nil
}

// Trigger restarts the sample from the beginning. A previous playback of
// the same sample is cut off, never layered.
func (c *Controller) Trigger() error {
	if !c.Loaded() {
		return ErrNotLoaded
	}

	buf := c.sample.Buffer

	c.out.Lock()
	c.stopLocked()
	c.ctrl = &beep.Ctrl{Streamer: buf.Streamer(0, buf.Len())}
	c.gain = &effects.Gain{Streamer: c.ctrl, Gain: gainFor(c.level)}
	playing := c.gain
	c.out.Unlock()

	c.out.Play(playing)
	return nil
}

// Stop silences the current playback, if any
func (c *Controller) Stop() {
	c.out.Lock()
	c.stopLocked()
	c.out.Unlock()
}

func (c *Controller) stopLocked() {
	if c.ctrl != nil {
		c.ctrl.Streamer = nil // drains out of the mixer
		c.ctrl = nil
		c.gain = nil
	}
}

// SetVolume sets gain to level/100 for current and future playback
func (c *Controller) SetVolume(level int) {
	level = max(0, min(100, level))

	c.out.Lock()
	c.level = level
	if c.gain != nil {
		c.gain.Gain = gainFor(level)
	}
	c.out.Unlock()
}

// Gain is the effective linear gain (0.0-1.0)
func (c *Controller) Gain() float64 {
	return float64(c.level) / 100
}

// effects.Gain scales by 1+Gain
func gainFor(level int) float64 {
	return float64(level)/100 - 1
}
