// Package speaker implements playback of morsebeep.Streamer values through physical speakers.
//
// Output goes through a Backend chosen by name. A Backend enumerates its devices and opens a
// Stream; playing a Streamer on the Stream makes the backend pull samples from it on the audio
// thread at the stream's sample rate until the Stream is stopped or closed.
package speaker

import (
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/morsebeep/morsebeep"
)

// DefaultBackend is the backend used when none is named.
const DefaultBackend = "oto"

// DefaultSampleRate is used by backends that cannot ask the device for its rate.
const DefaultSampleRate morsebeep.SampleRate = 44100

// Device is an output device offered by a Backend.
type Device struct {
	ID      string
	Name    string
	Default bool
}

// Options configure a Stream. Zero values select defaults.
type Options struct {
	// SampleRate of the stream. Zero lets the backend pick the device's rate.
	SampleRate morsebeep.SampleRate

	// BufferSize is the number of samples of the speaker's buffer. Bigger BufferSize means lower
	// CPU usage and more reliable playback. Lower BufferSize means better responsiveness and
	// less delay. Zero means a tenth of a second.
	BufferSize int

	// Device is the ID of the output device. Empty selects the default device.
	Device string

	// Channels is the number of interleaved output channels. Every channel carries the same mono
	// signal. Zero means 1.
	Channels int
}

func (o Options) withDefaults(rate morsebeep.SampleRate) Options {
	if o.SampleRate <= 0 {
		o.SampleRate = rate
	}
	if o.BufferSize <= 0 {
		o.BufferSize = o.SampleRate.N(time.Second / 10)
	}
	if o.Channels <= 0 {
		o.Channels = 1
	}
	return o
}

// ErrorHandler receives errors that happen while a Stream is playing. It may be called on the
// audio thread and must not block.
type ErrorHandler func(error)

// Stream is an open output stream.
type Stream interface {
	// Format reports the negotiated sample rate and channel count. Precision is 4, the samples
	// are float32.
	Format() morsebeep.Format

	// Play makes the stream pull from s and starts playback. Calling Play again replaces the
	// Streamer.
	Play(s morsebeep.Streamer) error

	// Stop pauses playback. Play resumes it.
	Stop() error

	// Close stops playback and releases the device.
	Close() error
}

// Backend is an audio output library.
type Backend interface {
	// Devices lists the output devices.
	Devices() ([]Device, error)

	// Open opens a stream on the device named by opts. onErr may be nil.
	Open(opts Options, onErr ErrorHandler) (Stream, error)
}

var (
	backendsMu sync.RWMutex
	backends   = map[string]Backend{}
)

// Register makes a backend available under name. It panics if name is taken.
func Register(name string, b Backend) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if _, dup := backends[name]; dup {
		panic("speaker: backend registered twice: " + name)
	}
	backends[name] = b
}

// Lookup returns the backend registered under name. An empty name selects DefaultBackend.
func Lookup(name string) (Backend, error) {
	if name == "" {
		name = DefaultBackend
	}
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	b, ok := backends[name]
	if !ok {
		return nil, errors.Errorf("speaker: unknown backend %q", name)
	}
	return b, nil
}

// Backends returns the names of the registered backends, sorted.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
