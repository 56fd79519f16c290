package speaker

import (
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/pkg/errors"

	"github.com/morsebeep/morsebeep"
)

func init() {
	Register("pulse", pulseBackend{})
}

const pulseAppName = "morsebeep"

type pulseBackend struct{}

func (pulseBackend) Devices() ([]Device, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName(pulseAppName))
	if err != nil {
		return nil, errors.Wrap(err, "speaker: pulse: connect")
	}
	defer c.Close()

	sinks, err := c.ListSinks()
	if err != nil {
		return nil, errors.Wrap(err, "speaker: pulse: list sinks")
	}
	def, err := c.DefaultSink()
	if err != nil {
		return nil, errors.Wrap(err, "speaker: pulse: default sink")
	}

	devices := make([]Device, 0, len(sinks))
	for _, s := range sinks {
		devices = append(devices, Device{
			ID:      s.ID(),
			Name:    s.Name(),
			Default: s.ID() == def.ID(),
		})
	}
	return devices, nil
}

func (pulseBackend) Open(opts Options, onErr ErrorHandler) (Stream, error) {
	if opts.Channels > 2 {
		return nil, errors.Errorf("speaker: pulse: %d channels not supported", opts.Channels)
	}

	c, err := pulse.NewClient(pulse.ClientApplicationName(pulseAppName))
	if err != nil {
		return nil, errors.Wrap(err, "speaker: pulse: connect")
	}

	var sink *pulse.Sink
	if opts.Device == "" {
		sink, err = c.DefaultSink()
	} else {
		sink, err = c.SinkByID(opts.Device)
	}
	if err != nil {
		c.Close()
		return nil, errors.Wrapf(err, "speaker: pulse: sink %q", opts.Device)
	}

	opts = opts.withDefaults(morsebeep.SampleRate(sink.SampleRate()))
	channels := pulse.PlaybackMono
	if opts.Channels == 2 {
		channels = pulse.PlaybackStereo
	}

	s := &pulseStream{
		client: c,
		format: morsebeep.Format{SampleRate: opts.SampleRate, NumChannels: opts.Channels, Precision: 4},
		src:    newSource(opts.Channels, opts.BufferSize, onErr),
		onErr:  onErr,
	}
	s.stream, err = c.NewPlayback(pulse.Float32Reader(s.read),
		pulse.PlaybackSink(sink),
		pulse.PlaybackSampleRate(int(opts.SampleRate)),
		channels,
		pulse.PlaybackLatency(opts.SampleRate.D(opts.BufferSize).Seconds()),
	)
	if err != nil {
		c.Close()
		return nil, errors.Wrap(err, "speaker: pulse: create playback stream")
	}
	return s, nil
}

type pulseStream struct {
	client *pulse.Client
	stream *pulse.PlaybackStream
	format morsebeep.Format
	src    *source
	onErr  ErrorHandler

	mu     sync.Mutex
	closed bool
}

func (s *pulseStream) read(out []float32) (int, error) {
	s.src.fill(out)
	return len(out), nil
}

func (s *pulseStream) Format() morsebeep.Format {
	return s.format
}

func (s *pulseStream) Play(st morsebeep.Streamer) error {
	s.src.set(st)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("speaker: pulse: stream closed")
	}
	if !s.stream.Running() {
		s.stream.Start()
	}
	return nil
}

func (s *pulseStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.stream.Stop()
	if s.stream.Underflow() && s.onErr != nil {
		s.onErr(errors.New("speaker: pulse: buffer underflow"))
	}
	return nil
}

func (s *pulseStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.stream.Close()
	err := s.stream.Error()
	s.client.Close()
	return errors.Wrap(err, "speaker: pulse")
}
