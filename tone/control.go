package tone

import "sync/atomic"

// Control carries the two flags the sequencer uses to key the generator. It is safe to write
// from one goroutine while the audio thread reads it: each flag is an independent atomic and a
// reader may observe a new value up to one buffer late.
type Control struct {
	playing atomic.Bool
	fade    atomic.Bool
}

// NewControl returns a Control that is silent and has fading enabled.
func NewControl() *Control {
	c := &Control{}
	c.fade.Store(true)
	return c
}

// SetPlaying keys the tone on or off.
func (c *Control) SetPlaying(on bool) { c.playing.Store(on) }

// Playing reports whether the tone is keyed on.
func (c *Control) Playing() bool { return c.playing.Load() }

// SetFade selects the enveloped (true) or abrupt (false) keying style.
func (c *Control) SetFade(on bool) { c.fade.Store(on) }

// Fade reports whether the enveloped keying style is selected.
func (c *Control) Fade() bool { return c.fade.Load() }
