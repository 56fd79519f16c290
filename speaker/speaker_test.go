package speaker_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/morsebeep/morsebeep"
	"github.com/morsebeep/morsebeep/speaker"
)

func TestRegisteredBackends(t *testing.T) {
	names := speaker.Backends()
	for _, want := range []string{"headless", "oto", "pulse"} {
		found := false
		for _, name := range names {
			if name == want {
				found = true
			}
		}
		if !found {
			t.Errorf("backend %q not registered: %v", want, names)
		}
	}

	if _, err := speaker.Lookup("no-such-backend"); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	def, err := speaker.Lookup("")
	if err != nil {
		t.Fatal(err)
	}
	oto, _ := speaker.Lookup(speaker.DefaultBackend)
	if def != oto {
		t.Fatal("empty name did not select the default backend")
	}
}

func TestRegisterTwicePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	b, _ := speaker.Lookup("headless")
	speaker.Register("headless", b)
}

type countingStreamer struct {
	samples atomic.Int64
}

func (c *countingStreamer) Stream(samples []float32) (n int, ok bool) {
	c.samples.Add(int64(len(samples)))
	return len(samples), true
}

func (c *countingStreamer) Err() error { return nil }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHeadlessPullsStreamer(t *testing.T) {
	b, err := speaker.Lookup("headless")
	if err != nil {
		t.Fatal(err)
	}

	devices, err := b.Devices()
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) != 1 || !devices[0].Default {
		t.Fatalf("unexpected devices: %+v", devices)
	}

	st, err := b.Open(speaker.Options{SampleRate: 8000, BufferSize: 80, Channels: 2}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	want := morsebeep.Format{SampleRate: 8000, NumChannels: 2, Precision: 4}
	if diff := cmp.Diff(want, st.Format()); diff != "" {
		t.Fatalf("format mismatch (-want +got):\n%s", diff)
	}

	var c countingStreamer
	if err := st.Play(&c); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return c.samples.Load() >= 3*80 })
	if got := c.samples.Load(); got%80 != 0 {
		t.Fatalf("pulled a partial buffer: %d samples", got)
	}

	if err := st.Stop(); err != nil {
		t.Fatal(err)
	}
	stopped := c.samples.Load()
	time.Sleep(50 * time.Millisecond)
	if c.samples.Load() != stopped {
		t.Fatal("stream kept pulling after Stop")
	}

	// Play resumes, with a new streamer.
	var d countingStreamer
	if err := st.Play(&d); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return d.samples.Load() > 0 })
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestHeadlessReportsStreamerError(t *testing.T) {
	b, _ := speaker.Lookup("headless")

	var (
		mu   sync.Mutex
		errs []error
	)
	st, err := b.Open(speaker.Options{SampleRate: 8000, BufferSize: 80}, func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if err := st.Play(brokenStreamer{}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(errs) > 0
	})
	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, actual: %d", len(errs))
	}
}

// brokenStreamer is drained immediately and reports an error.
type brokenStreamer struct{}

func (brokenStreamer) Stream(samples []float32) (n int, ok bool) { return 0, false }
func (brokenStreamer) Err() error                                { return errors.New("broken") }
