// Package effects holds post-processing applied between the tone generator and the speaker.
package effects

import (
	"math"

	"github.com/morsebeep/morsebeep"
)

// Volume adjusts the loudness of a Streamer.
//
// The gain is Base^Volume, so with Base 2 each step of Volume doubles or halves the loudness and
// Volume 0 leaves the samples untouched. Silent mutes the Streamer entirely. The fields may be
// changed while playing only if Stream is not running concurrently.
type Volume struct {
	Streamer morsebeep.Streamer
	Base     float64
	Volume   float64
	Silent   bool
}

// Stream streams the wrapped Streamer with the gain applied.
func (v *Volume) Stream(samples []float32) (n int, ok bool) {
	n, ok = v.Streamer.Stream(samples)
	if v.Volume == 0 && !v.Silent {
		return n, ok
	}
	gain := 0.0
	if !v.Silent {
		gain = math.Pow(v.Base, v.Volume)
	}
	for i := range samples[:n] {
		samples[i] = float32(float64(samples[i]) * gain)
	}
	return n, ok
}

// Err propagates the wrapped Streamer's errors.
func (v *Volume) Err() error {
	return v.Streamer.Err()
}
