package app

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/morsebeep/morsebeep/internal/config"
)

func headlessConfig() config.Config {
	cfg := config.Default()
	cfg.Backend = "headless"
	cfg.TUI = "off"
	cfg.Unit = 5 * time.Millisecond
	cfg.Buffer = 10 * time.Millisecond
	return cfg
}

func TestNewLogger(t *testing.T) {
	if _, err := NewLogger("debug", true); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLogger("loud", false); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestRender(t *testing.T) {
	cfg := headlessConfig()
	cfg.SampleRate = 8000
	cfg.Length = 250 * time.Millisecond
	cfg.Step = 0.01
	cfg.Output = filepath.Join(t.TempDir(), "n.wav")

	core, logs := observer.New(zapcore.InfoLevel)
	if err := run(context.Background(), cfg, zap.New(core), io.Discard); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(cfg.Output)
	if err != nil {
		t.Fatal(err)
	}
	if want := 44 + 2000*2; len(raw) != want {
		t.Fatalf("file size: expected: %d, actual: %d", want, len(raw))
	}
	if string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		t.Fatalf("not a WAVE file: % x", raw[:12])
	}

	// The pattern starts with a dash of 120 samples; the fade-in takes 100 of them.
	samples := make([]int16, 2000)
	if err := binary.Read(bytes.NewReader(raw[44:]), binary.LittleEndian, samples); err != nil {
		t.Fatal(err)
	}
	loud := false
	for _, s := range samples[100:120] {
		if s > 16000 || s < -16000 {
			loud = true
		}
	}
	if !loud {
		t.Error("expected the tone at full level at the end of the first dash")
	}

	if logs.FilterMessage("rendered").Len() != 1 {
		t.Errorf("expected one render log, got %v", logs.All())
	}
}

func TestRenderRawToStdout(t *testing.T) {
	cfg := headlessConfig()
	cfg.SampleRate = 8000
	cfg.Length = 100 * time.Millisecond
	cfg.Precision = 1
	cfg.Output = "-"

	var out bytes.Buffer
	if err := run(context.Background(), cfg, zap.NewNop(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 800 {
		t.Fatalf("expected 800 one-byte samples, actual: %d bytes", out.Len())
	}
}

func TestPlayHeadless(t *testing.T) {
	cfg := headlessConfig()
	cfg.Random = true
	cfg.Seed = 7
	cfg.MinWindow = 10 * time.Millisecond
	cfg.MaxWindow = 20 * time.Millisecond

	core, logs := observer.New(zapcore.InfoLevel)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := run(ctx, cfg, zap.New(core), io.Discard); err != nil {
		t.Fatalf("expected a clean return when ctx is done, actual: %v", err)
	}

	for _, msg := range []string{"random keying", "playing", "keying window"} {
		if logs.FilterMessage(msg).Len() == 0 {
			t.Errorf("missing %q log in %v", msg, logs.All())
		}
	}
	if logs.FilterMessage("playback").Len() != 0 {
		t.Errorf("unexpected playback errors: %v", logs.FilterMessage("playback").All())
	}
}

func TestListDevices(t *testing.T) {
	cfg := headlessConfig()
	cfg.ListDevices = true

	var out strings.Builder
	if err := run(context.Background(), cfg, zap.NewNop(), &out); err != nil {
		t.Fatal(err)
	}
	if want := "* null\tDiscard output\n"; out.String() != want {
		t.Fatalf("expected: %q, actual: %q", want, out.String())
	}
}

func TestRunRejectsBadSetup(t *testing.T) {
	cfg := headlessConfig()
	cfg.Frequency = 30000 // above Nyquist at 44100 Hz
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := run(ctx, cfg, zap.NewNop(), io.Discard); err == nil {
		t.Fatal("expected error")
	}

	cfg = headlessConfig()
	cfg.Backend = "gramophone"
	if err := run(ctx, cfg, zap.NewNop(), io.Discard); err == nil {
		t.Fatal("expected error")
	}
}
