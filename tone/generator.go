// Package tone implements the keyed sine generator: a phase-continuous tone whose amplitude
// follows the flags of a Control, fading in and out by a fixed step per sample so that keying
// never clicks.
package tone

import (
	"math"

	"github.com/pkg/errors"

	"github.com/morsebeep/morsebeep"
)

const (
	// DefaultFrequency is the pitch of the tone in Hz.
	DefaultFrequency = 600.0

	// DefaultStep is the amplitude change per sample. A full fade takes 1/DefaultStep samples,
	// about 23ms at 44.1kHz.
	DefaultStep = 0.001
)

// Generator produces the keyed tone. Its sample clock and amplitude belong to the goroutine
// calling Produce; only the Control is shared.
type Generator struct {
	ctrl *Control

	rate  int
	freq  float64
	dt    float64
	step  float64
	steps int

	clock int
	level int
}

// NewGenerator creates a Generator producing a sine of freq Hz at sample rate sr, keyed by ctrl.
// The amplitude moves by step per sample. sr must be at least two times greater than freq.
func NewGenerator(sr morsebeep.SampleRate, freq, step float64, ctrl *Control) (*Generator, error) {
	switch {
	case sr <= 0:
		return nil, errors.Errorf("tone: invalid sample rate %d", sr)
	case freq < 0 || math.IsNaN(freq):
		return nil, errors.Errorf("tone: invalid frequency %v", freq)
	case freq/float64(sr) >= 1.0/2.0:
		return nil, errors.New("tone: samplerate must be at least 2 times greater than frequency")
	case !(step > 0 && step <= 1):
		return nil, errors.Errorf("tone: amplitude step %v out of (0, 1]", step)
	case ctrl == nil:
		return nil, errors.New("tone: nil control")
	}

	return &Generator{
		ctrl:  ctrl,
		rate:  int(sr),
		freq:  freq,
		dt:    freq / float64(sr),
		step:  step,
		steps: int(math.Ceil(1 / step)),
	}, nil
}

// Produce fills buf with the next len(buf) samples. It reads the Control once per sample, never
// blocks and never allocates, so it can run on the audio device's thread.
func (g *Generator) Produce(buf []float32) {
	for i := range buf {
		playing := g.ctrl.Playing()
		fade := g.ctrl.Fade()

		if playing {
			if g.level < g.steps {
				g.level++
			}
		} else if g.level > 0 {
			g.level--
		}

		raw := math.Sin(2 * math.Pi * g.dt * float64(g.clock))
		switch {
		case fade:
			buf[i] = float32(g.amplitude() * raw)
		case playing:
			buf[i] = float32(raw)
		default:
			buf[i] = 0
		}

		g.clock++
		if g.clock >= g.rate {
			g.clock = 0
		}
	}
}

// Stream implements morsebeep.Streamer. The tone never ends.
func (g *Generator) Stream(samples []float32) (n int, ok bool) {
	g.Produce(samples)
	return len(samples), true
}

// Err always returns nil.
func (*Generator) Err() error {
	return nil
}

// Clock returns the position of the sample clock, in [0, sample rate).
func (g *Generator) Clock() int {
	return g.clock
}

// Amplitude returns the current envelope amplitude in [0, 1].
func (g *Generator) Amplitude() float64 {
	return g.amplitude()
}

// State returns the envelope state as seen by the next sample.
//
// Clock, Amplitude and State must not be called concurrently with Produce.
func (g *Generator) State() State {
	return StateOf(g.ctrl.Playing(), g.amplitude())
}

func (g *Generator) amplitude() float64 {
	if g.level >= g.steps {
		return 1
	}
	return math.Min(1, float64(g.level)*g.step)
}
