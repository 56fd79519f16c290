// Package config reads the demo's settings from command-line flags, falling back to MORSEBEEP_*
// environment variables and then to built-in defaults.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/morsebeep/morsebeep/morse"
	"github.com/morsebeep/morsebeep/speaker"
	"github.com/morsebeep/morsebeep/tone"
)

// Config holds every setting of a run.
type Config struct {
	Backend     string
	Device      string
	SampleRate  int
	Buffer      time.Duration
	ListDevices bool

	Frequency float64
	Step      float64
	Volume    float64

	Unit      time.Duration
	Random    bool
	MinWindow time.Duration
	MaxWindow time.Duration
	Seed      uint64

	// Output, when set, renders Length of audio to a file instead of playing it: WAVE for a .wav
	// name, raw PCM otherwise or on stdout for "-".
	Output    string
	Length    time.Duration
	Precision int

	// TUI is "auto", "on" or "off".
	TUI string

	LogLevel string
	LogDev   bool
}

// Default returns the settings of the fixed "N" demo.
func Default() Config {
	return Config{
		Backend:   speaker.DefaultBackend,
		Buffer:    100 * time.Millisecond,
		Frequency: tone.DefaultFrequency,
		Step:      tone.DefaultStep,
		Unit:      morse.DefaultUnit,
		MinWindow: morse.DefaultMinWindow,
		MaxWindow: morse.DefaultMaxWindow,
		Length:    10 * time.Second,
		Precision: 2,
		TUI:       "auto",
		LogLevel:  "info",
	}
}

// Load parses args (without the program name) over def. Environment variables override def,
// flags override both.
func Load(name string, args []string, def Config, output io.Writer) (Config, error) {
	cfg := def
	env := func(key string) (string, bool) {
		v, ok := os.LookupEnv("MORSEBEEP_" + key)
		return v, ok && v != ""
	}
	if err := applyEnv(&cfg, env); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, fmt.Sprintf("audio backend, one of %v", speaker.Backends()))
	fs.StringVar(&cfg.Device, "device", cfg.Device, "output device ID, empty for the default device")
	fs.IntVar(&cfg.SampleRate, "rate", cfg.SampleRate, "sample rate in Hz, 0 for the device's rate")
	fs.DurationVar(&cfg.Buffer, "buffer", cfg.Buffer, "speaker buffer length")
	fs.BoolVar(&cfg.ListDevices, "list-devices", cfg.ListDevices, "list the backend's output devices and exit")
	fs.Float64Var(&cfg.Frequency, "freq", cfg.Frequency, "tone frequency in Hz")
	fs.Float64Var(&cfg.Step, "step", cfg.Step, "amplitude change per sample while fading")
	fs.Float64Var(&cfg.Volume, "volume", cfg.Volume, "volume in doublings, 0 is full scale")
	fs.DurationVar(&cfg.Unit, "unit", cfg.Unit, "length of a dot")
	fs.BoolVar(&cfg.Random, "random", cfg.Random, "key in random windows of random style")
	fs.DurationVar(&cfg.MinWindow, "min-window", cfg.MinWindow, "shortest random window")
	fs.DurationVar(&cfg.MaxWindow, "max-window", cfg.MaxWindow, "longest random window")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed, 0 picks one")
	fs.StringVar(&cfg.Output, "out", cfg.Output, "render to this file (.wav for WAVE, - for raw PCM on stdout) instead of playing")
	fs.DurationVar(&cfg.Length, "length", cfg.Length, "length of the rendered file")
	fs.IntVar(&cfg.Precision, "precision", cfg.Precision, "bytes per sample of the rendered file (1, 2 or 3)")
	fs.StringVar(&cfg.TUI, "tui", cfg.TUI, "status screen: auto, on or off")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	fs.BoolVar(&cfg.LogDev, "log-dev", cfg.LogDev, "human readable logs")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, errors.Errorf("unexpected arguments: %v", fs.Args())
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, env func(string) (string, bool)) error {
	strs := map[string]*string{
		"BACKEND":   &cfg.Backend,
		"DEVICE":    &cfg.Device,
		"OUT":       &cfg.Output,
		"TUI":       &cfg.TUI,
		"LOG_LEVEL": &cfg.LogLevel,
	}
	for key, dst := range strs {
		if v, ok := env(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"RATE":      &cfg.SampleRate,
		"PRECISION": &cfg.Precision,
	}
	for key, dst := range ints {
		if v, ok := env(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errors.Wrapf(err, "MORSEBEEP_%s", key)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"FREQ":   &cfg.Frequency,
		"STEP":   &cfg.Step,
		"VOLUME": &cfg.Volume,
	}
	for key, dst := range floats {
		if v, ok := env(key); ok {
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return errors.Wrapf(err, "MORSEBEEP_%s", key)
			}
			*dst = x
		}
	}

	durations := map[string]*time.Duration{
		"BUFFER":     &cfg.Buffer,
		"UNIT":       &cfg.Unit,
		"MIN_WINDOW": &cfg.MinWindow,
		"MAX_WINDOW": &cfg.MaxWindow,
		"LENGTH":     &cfg.Length,
	}
	for key, dst := range durations {
		if v, ok := env(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return errors.Wrapf(err, "MORSEBEEP_%s", key)
			}
			*dst = d
		}
	}

	bools := map[string]*bool{
		"RANDOM":  &cfg.Random,
		"LOG_DEV": &cfg.LogDev,
	}
	for key, dst := range bools {
		if v, ok := env(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return errors.Wrapf(err, "MORSEBEEP_%s", key)
			}
			*dst = b
		}
	}

	if v, ok := env("SEED"); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.Wrap(err, "MORSEBEEP_SEED")
		}
		cfg.Seed = seed
	}
	return nil
}

// Validate checks the settings that the packages would otherwise reject later with less context.
func (c Config) Validate() error {
	switch {
	case c.SampleRate < 0:
		return errors.Errorf("invalid sample rate %d", c.SampleRate)
	case c.Buffer <= 0:
		return errors.Errorf("invalid buffer length %v", c.Buffer)
	case c.Frequency < 0:
		return errors.Errorf("invalid frequency %v", c.Frequency)
	case !(c.Step > 0 && c.Step <= 1):
		return errors.Errorf("amplitude step %v out of (0, 1]", c.Step)
	case c.Unit <= 0:
		return errors.Errorf("invalid unit %v", c.Unit)
	case c.Random && (c.MinWindow <= 0 || c.MaxWindow < c.MinWindow):
		return errors.Errorf("invalid random window [%v, %v)", c.MinWindow, c.MaxWindow)
	case c.Output != "" && c.Length <= 0:
		return errors.Errorf("invalid render length %v", c.Length)
	case c.Precision < 1 || c.Precision > 3:
		return errors.Errorf("precision must be 1, 2 or 3 bytes, not %d", c.Precision)
	}
	switch c.TUI {
	case "auto", "on", "off":
	default:
		return errors.Errorf("tui must be auto, on or off, not %q", c.TUI)
	}
	if _, err := speaker.Lookup(c.Backend); err != nil {
		return err
	}
	return nil
}
