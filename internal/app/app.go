// Package app wires the keyer together: logger, audio backend, tone generator, sequencer and
// status screen, or the offline renderer.
package app

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/morsebeep/morsebeep"
	"github.com/morsebeep/morsebeep/effects"
	"github.com/morsebeep/morsebeep/internal/config"
	"github.com/morsebeep/morsebeep/internal/tui"
	"github.com/morsebeep/morsebeep/morse"
	"github.com/morsebeep/morsebeep/pcm"
	"github.com/morsebeep/morsebeep/speaker"
	"github.com/morsebeep/morsebeep/tone"
	"github.com/morsebeep/morsebeep/wav"
)

const refresh = 100 * time.Millisecond

// NewLogger builds a zap logger at level, human readable if dev.
func NewLogger(level string, dev bool) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	zc := zap.NewProductionConfig()
	if dev {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = lvl
	return zc.Build()
}

// Run does what cfg asks for until ctx is done: lists devices, renders a file or keys the
// pattern on the speaker. A done ctx or a quit from the status screen is a normal return.
func Run(ctx context.Context, cfg config.Config, stdout io.Writer) error {
	logger, err := NewLogger(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	return run(ctx, cfg, logger, stdout)
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, stdout io.Writer) error {
	backend, err := speaker.Lookup(cfg.Backend)
	if err != nil {
		return err
	}
	switch {
	case cfg.ListDevices:
		return listDevices(stdout, backend)
	case cfg.Output != "":
		return render(cfg, logger, stdout)
	}
	return play(ctx, cfg, backend, logger)
}

func listDevices(w io.Writer, backend speaker.Backend) error {
	devices, err := backend.Devices()
	if err != nil {
		return errors.Wrap(err, "list devices")
	}
	for _, d := range devices {
		mark := " "
		if d.Default {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %s\t%s\n", mark, d.ID, d.Name)
	}
	return nil
}

func newSchedule(cfg config.Config, logger *zap.Logger) (*morse.Schedule, error) {
	timing := morse.Timing{Unit: cfg.Unit}
	var opts []morse.ScheduleOption
	if cfg.Random {
		seed := cfg.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		logger.Info("random keying", zap.Uint64("seed", seed))
		opts = append(opts, morse.WithRandom(rand.New(rand.NewPCG(seed, seed)), cfg.MinWindow, cfg.MaxWindow))
	}
	return morse.NewSchedule(morse.N(timing), timing, opts...)
}

// render writes cfg.Length of the keyed pattern to cfg.Output: a WAVE file for names ending in
// .wav, raw PCM otherwise, and raw PCM to stdout for "-".
func render(cfg config.Config, logger *zap.Logger, stdout io.Writer) (err error) {
	sr := morsebeep.SampleRate(cfg.SampleRate)
	if sr == 0 {
		sr = speaker.DefaultSampleRate
	}
	ctrl := tone.NewControl()
	gen, err := tone.NewGenerator(sr, cfg.Frequency, cfg.Step, ctrl)
	if err != nil {
		return err
	}
	sched, err := newSchedule(cfg, logger)
	if err != nil {
		return err
	}

	s := morsebeep.Take(sr.N(cfg.Length), &effects.Volume{
		Streamer: morse.Keyed(gen, ctrl, sched, sr),
		Base:     2,
		Volume:   cfg.Volume,
	})
	format := morsebeep.Format{SampleRate: sr, NumChannels: 1, Precision: cfg.Precision}

	if cfg.Output == "-" {
		return pcm.Encode(stdout, s, format)
	}
	f, err := os.Create(cfg.Output)
	if err != nil {
		return errors.Wrap(err, "render")
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = errors.Wrap(cerr, "render")
		}
	}()
	if strings.EqualFold(filepath.Ext(cfg.Output), ".wav") {
		err = wav.Encode(f, s, format)
	} else {
		err = pcm.Encode(f, s, format)
	}
	if err != nil {
		return err
	}
	logger.Info("rendered",
		zap.String("file", cfg.Output),
		zap.Duration("length", cfg.Length),
		zap.Int("rate", int(sr)),
		zap.Int("precision", cfg.Precision),
	)
	return nil
}

func showTUI(mode string) bool {
	switch mode {
	case "on":
		return true
	case "auto":
		return term.IsTerminal(int(os.Stdout.Fd()))
	}
	return false
}

func play(parent context.Context, cfg config.Config, backend speaker.Backend, logger *zap.Logger) error {
	var screen tcell.Screen
	if showTUI(cfg.TUI) {
		var err error
		if screen, err = tcell.NewScreen(); err != nil {
			return errors.Wrap(err, "tui")
		}
		if err := screen.Init(); err != nil {
			return errors.Wrap(err, "tui")
		}
		defer screen.Fini()
		// Only problems make it past the status screen.
		logger = logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel))
	}

	// The buffer is sized for the default rate when the device picks the rate.
	rate := morsebeep.SampleRate(cfg.SampleRate)
	if rate == 0 {
		rate = speaker.DefaultSampleRate
	}
	stream, err := backend.Open(speaker.Options{
		SampleRate: morsebeep.SampleRate(cfg.SampleRate),
		BufferSize: rate.N(cfg.Buffer),
		Device:     cfg.Device,
	}, func(err error) {
		logger.Error("playback", zap.Error(err))
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := stream.Close(); err != nil {
			logger.Warn("close stream", zap.Error(err))
		}
	}()

	format := stream.Format()
	ctrl := tone.NewControl()
	gen, err := tone.NewGenerator(format.SampleRate, cfg.Frequency, cfg.Step, ctrl)
	if err != nil {
		return err
	}
	sched, err := newSchedule(cfg, logger)
	if err != nil {
		return err
	}
	if err := stream.Play(&effects.Volume{Streamer: gen, Base: 2, Volume: cfg.Volume}); err != nil {
		return err
	}
	logger.Info("playing",
		zap.String("backend", cfg.Backend),
		zap.Int("rate", int(format.SampleRate)),
		zap.Int("channels", format.NumChannels),
		zap.Float64("frequency", cfg.Frequency),
		zap.Bool("random", cfg.Random),
	)

	panel := tui.NewPanel(tui.Status{
		Backend:   cfg.Backend,
		Format:    format,
		Frequency: cfg.Frequency,
		Random:    cfg.Random,
	})
	seq := morse.NewSequencer(ctrl, sched, morse.WithLogger(logger), morse.WithListener(panel.Observe))

	g, ctx := errgroup.WithContext(parent)
	g.Go(func() error { return seq.Run(ctx) })
	if screen != nil {
		g.Go(func() error { return tui.Run(ctx, screen, panel, refresh) })
	}
	err = g.Wait()

	// The sequencer keyed the tone off; let the fade-out reach the speaker before closing.
	time.Sleep(format.SampleRate.D(int(math.Ceil(1/cfg.Step))))

	switch {
	case errors.Is(err, tui.ErrQuit):
		return nil
	case parent.Err() != nil && errors.Is(err, parent.Err()):
		return nil
	}
	return err
}
