package speaker

import (
	"sync"
	"time"

	"github.com/morsebeep/morsebeep"
)

func init() {
	Register("headless", headlessBackend{})
}

// headlessBackend pulls from the Streamer at real-time pace and throws the samples away. It
// stands in for a sound card on machines without one.
type headlessBackend struct{}

func (headlessBackend) Devices() ([]Device, error) {
	return []Device{{ID: "null", Name: "Discard output", Default: true}}, nil
}

func (headlessBackend) Open(opts Options, onErr ErrorHandler) (Stream, error) {
	opts = opts.withDefaults(DefaultSampleRate)
	return &headlessStream{
		format: morsebeep.Format{SampleRate: opts.SampleRate, NumChannels: opts.Channels, Precision: 4},
		period: opts.SampleRate.D(opts.BufferSize),
		src:    newSource(opts.Channels, opts.BufferSize, onErr),
		buf:    make([]float32, opts.BufferSize*opts.Channels),
	}, nil
}

type headlessStream struct {
	format morsebeep.Format
	period time.Duration
	src    *source
	buf    []float32

	mu   sync.Mutex
	done chan struct{}
	wg   sync.WaitGroup
}

func (s *headlessStream) Format() morsebeep.Format {
	return s.format
}

func (s *headlessStream) Play(st morsebeep.Streamer) error {
	s.src.set(st)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return nil
	}
	s.done = make(chan struct{})
	s.wg.Add(1)
	go s.run(s.done)
	return nil
}

func (s *headlessStream) run(done <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	for {
		s.src.fill(s.buf)
		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

func (s *headlessStream) Stop() error {
	s.mu.Lock()
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

func (s *headlessStream) Close() error {
	return s.Stop()
}
