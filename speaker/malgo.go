//go:build malgo
// +build malgo

package speaker

import (
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/pkg/errors"

	"github.com/morsebeep/morsebeep"
)

func init() {
	Register("malgo", malgoBackend{})
}

type malgoBackend struct{}

func initMalgoContext() (*malgo.AllocatedContext, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize speaker (context)")
	}
	return ctx, nil
}

func freeMalgoContext(ctx *malgo.AllocatedContext) {
	_ = ctx.Uninit()
	ctx.Free()
}

func (malgoBackend) Devices() ([]Device, error) {
	ctx, err := initMalgoContext()
	if err != nil {
		return nil, err
	}
	defer freeMalgoContext(ctx)

	infos, err := ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, errors.Wrap(err, "speaker: malgo: list devices")
	}
	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, Device{
			ID:      info.ID.String(),
			Name:    info.Name(),
			Default: info.IsDefault != 0,
		})
	}
	return devices, nil
}

func configure(ctx *malgo.AllocatedContext, opts Options) (malgo.DeviceConfig, error) {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(opts.Channels)
	deviceConfig.SampleRate = uint32(opts.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(opts.BufferSize)
	deviceConfig.Alsa.NoMMap = 1

	if opts.Device != "" {
		infos, err := ctx.Devices(malgo.Playback)
		if err != nil {
			return malgo.DeviceConfig{}, err
		}
		found := false
		for _, info := range infos {
			if info.ID.String() == opts.Device {
				deviceConfig.Playback.DeviceID = info.ID.Pointer()
				found = true
				break
			}
		}
		if !found {
			return malgo.DeviceConfig{}, errors.Errorf("unknown device %q", opts.Device)
		}
	}
	return deviceConfig, nil
}

func (malgoBackend) Open(opts Options, onErr ErrorHandler) (Stream, error) {
	ctx, err := initMalgoContext()
	if err != nil {
		return nil, err
	}

	// Zero lets miniaudio use the device's native rate; the real rate is read back below.
	rate := opts.SampleRate
	opts = opts.withDefaults(DefaultSampleRate)
	opts.SampleRate = rate

	deviceConfig, err := configure(ctx, opts)
	if err != nil {
		freeMalgoContext(ctx)
		return nil, errors.Wrap(err, "failed to initialize speaker (configure)")
	}

	s := &malgoStream{
		ctx:   ctx,
		onErr: onErr,
	}
	onSamples := func(pOutputSample, pInputSamples []byte, framecount uint32) {
		samples := int(framecount) * s.format.NumChannels
		if len(s.out) < samples {
			s.out = make([]float32, samples)
		}
		out := s.out[:samples]
		s.src.fill(out)
		float32LE(pOutputSample, out)
	}
	s.device, err = malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSamples,
	})
	if err != nil {
		freeMalgoContext(ctx)
		return nil, errors.Wrap(err, "failed to initialize speaker (player)")
	}

	s.format = morsebeep.Format{
		SampleRate:  morsebeep.SampleRate(s.device.SampleRate()),
		NumChannels: opts.Channels,
		Precision:   4,
	}
	bufferSize := opts.BufferSize
	if rate <= 0 {
		bufferSize = s.format.SampleRate.N(time.Second / 10)
	}
	s.src = newSource(opts.Channels, bufferSize, onErr)
	s.out = make([]float32, bufferSize*opts.Channels)
	return s, nil
}

type malgoStream struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	format morsebeep.Format
	src    *source
	onErr  ErrorHandler

	// out is the interleaved scratch buffer of the data callback.
	out []float32

	mu     sync.Mutex
	closed bool
}

func (s *malgoStream) Format() morsebeep.Format {
	return s.format
}

func (s *malgoStream) Play(st morsebeep.Streamer) error {
	s.src.set(st)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("speaker: malgo: stream closed")
	}
	if s.device.IsStarted() {
		return nil
	}
	return errors.Wrap(s.device.Start(), "failed to initialize speaker (player start)")
}

func (s *malgoStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.device.IsStarted() {
		return nil
	}
	return errors.Wrap(s.device.Stop(), "speaker: malgo: stop")
}

func (s *malgoStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.device.Uninit()
	freeMalgoContext(s.ctx)
	return nil
}
