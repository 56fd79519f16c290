package morse

import (
	"time"

	"github.com/morsebeep/morsebeep"
	"github.com/morsebeep/morsebeep/tone"
)

// Keyed returns an endless Streamer that drives gen through ctrl, switching steps of sched on
// exact sample boundaries instead of sleeping. It is how the pattern is rendered offline.
//
// gen must read ctrl and run at sample rate sr.
func Keyed(gen *tone.Generator, ctrl *tone.Control, sched *Schedule, sr morsebeep.SampleRate) morsebeep.Streamer {
	return &keyed{
		gen:   gen,
		ctrl:  ctrl,
		sched: sched,
		sr:    sr,
	}
}

type keyed struct {
	gen   *tone.Generator
	ctrl  *tone.Control
	sched *Schedule
	sr    morsebeep.SampleRate

	// elapsed is the time at the end of the current step, remaining the samples left in it.
	elapsed   time.Duration
	remaining int
}

func (k *keyed) Stream(samples []float32) (n int, ok bool) {
	for len(samples) > 0 {
		if k.remaining == 0 {
			step := k.sched.Next()
			k.ctrl.SetFade(step.Fade)
			k.ctrl.SetPlaying(step.Active)

			end := k.elapsed + step.Duration
			k.remaining = k.sr.N(end) - k.sr.N(k.elapsed)
			k.elapsed = end
			continue
		}

		toStream := k.remaining
		if toStream > len(samples) {
			toStream = len(samples)
		}
		k.gen.Produce(samples[:toStream])
		samples = samples[toStream:]
		k.remaining -= toStream
		n += toStream
	}
	return n, true
}

func (*keyed) Err() error {
	return nil
}
