package speaker

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/morsebeep/morsebeep"
)

// source hands samples from the playing Streamer to a backend's audio callback. The Streamer is
// swapped atomically so the callback never takes a lock.
type source struct {
	cur      atomic.Pointer[playing]
	onErr    ErrorHandler
	channels int

	// mono is scratch space for the Streamer. Only the audio callback touches it.
	mono []float32
}

type playing struct {
	s        morsebeep.Streamer
	reported bool
}

func newSource(channels int, bufferSize int, onErr ErrorHandler) *source {
	if onErr == nil {
		onErr = func(error) {}
	}
	return &source{
		onErr:    onErr,
		channels: channels,
		mono:     make([]float32, bufferSize),
	}
}

func (src *source) set(s morsebeep.Streamer) {
	src.cur.Store(&playing{s: s})
}

// fill pulls len(out)/channels samples from the Streamer and writes them interleaved to out.
// Whatever the Streamer does not provide is silence.
func (src *source) fill(out []float32) {
	frames := len(out) / src.channels
	if len(src.mono) < frames {
		src.mono = make([]float32, frames)
	}
	mono := src.mono[:frames]

	n := 0
	if p := src.cur.Load(); p != nil {
		var ok bool
		n, ok = p.s.Stream(mono)
		if !ok {
			n = 0
			if err := p.s.Err(); err != nil && !p.reported {
				p.reported = true
				src.onErr(errors.Wrap(err, "streamer returned error when requesting samples"))
			}
		}
	}
	for i := n; i < frames; i++ {
		mono[i] = 0
	}

	if src.channels == 1 {
		copy(out, mono)
		return
	}
	for i, x := range mono {
		for c := 0; c < src.channels; c++ {
			out[i*src.channels+c] = x
		}
	}
}

// float32LE encodes samples as little-endian IEEE floats into p, clamped to [-1, +1].
func float32LE(p []byte, samples []float32) {
	for i, x := range samples {
		if x < -1 {
			x = -1
		}
		if x > +1 {
			x = +1
		}
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(x))
	}
}
