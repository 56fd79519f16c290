package speaker

import (
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/pkg/errors"

	"github.com/morsebeep/morsebeep"
)

func init() {
	Register("oto", otoBackend{})
}

// oto allows one context per process.
var (
	otoMu      sync.Mutex
	otoContext *oto.Context
	otoFormat  morsebeep.Format
)

type otoBackend struct{}

func (otoBackend) Devices() ([]Device, error) {
	return []Device{{ID: "default", Name: "System default output", Default: true}}, nil
}

func (otoBackend) Open(opts Options, onErr ErrorHandler) (Stream, error) {
	opts = opts.withDefaults(DefaultSampleRate)
	if opts.Device != "" && opts.Device != "default" {
		return nil, errors.Errorf("speaker: oto: unknown device %q", opts.Device)
	}
	format := morsebeep.Format{SampleRate: opts.SampleRate, NumChannels: opts.Channels, Precision: 4}

	otoMu.Lock()
	defer otoMu.Unlock()

	if otoContext == nil {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   int(format.SampleRate),
			ChannelCount: format.NumChannels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   format.SampleRate.D(opts.BufferSize),
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize speaker")
		}
		<-ready
		otoContext = ctx
		otoFormat = format
	} else if otoFormat != format {
		return nil, errors.Errorf("speaker: oto: already initialized at %v Hz, %d channels", otoFormat.SampleRate, otoFormat.NumChannels)
	}

	return &otoStream{
		ctx:        otoContext,
		format:     format,
		bufferSize: opts.BufferSize,
		src:        newSource(format.NumChannels, opts.BufferSize, onErr),
		out:        make([]float32, opts.BufferSize*format.NumChannels),
	}, nil
}

type otoStream struct {
	ctx        *oto.Context
	format     morsebeep.Format
	bufferSize int
	src        *source

	mu     sync.Mutex
	player *oto.Player

	// out is the interleaved scratch buffer of Read.
	out []float32
}

func (s *otoStream) Format() morsebeep.Format {
	return s.format
}

// Read implements io.Reader for the oto player.
func (s *otoStream) Read(p []byte) (n int, err error) {
	frameBytes := 4 * s.format.NumChannels
	samples := len(p) / frameBytes * s.format.NumChannels
	if len(s.out) < samples {
		s.out = make([]float32, samples)
	}
	out := s.out[:samples]
	s.src.fill(out)
	float32LE(p, out)
	return samples * 4, nil
}

func (s *otoStream) Play(st morsebeep.Streamer) error {
	s.src.set(st)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		s.player = s.ctx.NewPlayer(s)
		s.player.SetBufferSize(s.bufferSize * 4 * s.format.NumChannels)
	}
	s.player.Play()
	return nil
}

func (s *otoStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		s.player.Pause()
	}
	return nil
}

func (s *otoStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return nil
	}
	err := s.player.Err()
	if cerr := s.player.Close(); err == nil {
		err = cerr
	}
	s.player = nil
	return errors.Wrap(err, "speaker: oto")
}
