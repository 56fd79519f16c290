package morse_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/morsebeep/morsebeep/morse"
	"github.com/morsebeep/morsebeep/tone"
)

type keying struct {
	Playing  bool
	Fade     bool
	Duration time.Duration
}

// recordingSleeper captures the Control's flags at every sleep and cancels after limit sleeps.
type recordingSleeper struct {
	ctrl   *tone.Control
	cancel context.CancelFunc
	limit  int
	got    []keying
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.got = append(r.got, keying{r.ctrl.Playing(), r.ctrl.Fade(), d})
	if len(r.got) == r.limit {
		r.cancel()
	}
	return ctx.Err()
}

func TestSequencerKeysControl(t *testing.T) {
	timing := morse.DefaultTiming
	sched, err := morse.NewSchedule(morse.N(timing), timing)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctrl := tone.NewControl()
	sl := &recordingSleeper{ctrl: ctrl, cancel: cancel, limit: 8}

	var kinds []morse.Kind
	seq := morse.NewSequencer(ctrl, sched,
		morse.WithSleeper(sl),
		morse.WithListener(func(s morse.Step) { kinds = append(kinds, s.Kind) }),
	)
	if err := seq.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run: expected context.Canceled, actual: %v", err)
	}

	character := []keying{
		{true, true, 300 * time.Millisecond},
		{false, true, 100 * time.Millisecond},
		{true, true, 100 * time.Millisecond},
		{false, true, 300 * time.Millisecond},
	}
	want := append(append([]keying{}, character...), character...)
	if diff := cmp.Diff(want, sl.got); diff != "" {
		t.Fatalf("keying mismatch (-want +got):\n%s", diff)
	}

	wantKinds := []morse.Kind{
		morse.Mark, morse.Space, morse.Mark, morse.CharacterGap,
		morse.Mark, morse.Space, morse.Mark, morse.CharacterGap,
	}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Fatalf("listener kinds mismatch (-want +got):\n%s", diff)
	}
	if ctrl.Playing() {
		t.Fatal("tone still keyed after Run returned")
	}
}

func TestSequencerStopsBeforeStart(t *testing.T) {
	sched, err := morse.NewSchedule(morse.N(morse.DefaultTiming), morse.DefaultTiming)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	seq := morse.NewSequencer(tone.NewControl(), sched, morse.WithListener(func(morse.Step) { called = true }))
	if err := seq.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run: expected context.Canceled, actual: %v", err)
	}
	if called {
		t.Fatal("step applied after cancellation")
	}
}

func TestSequencerLogsWindows(t *testing.T) {
	timing := morse.DefaultTiming
	sched, err := morse.NewSchedule(morse.N(timing), timing,
		morse.WithRandom(rand.New(rand.NewPCG(7, 7)), time.Second, 2*time.Second))
	if err != nil {
		t.Fatal(err)
	}

	core, logs := observer.New(zapcore.DebugLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctrl := tone.NewControl()
	sl := &recordingSleeper{ctrl: ctrl, cancel: cancel, limit: 40}

	seq := morse.NewSequencer(ctrl, sched, morse.WithSleeper(sl), morse.WithLogger(zap.New(core)))
	if err := seq.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run: expected context.Canceled, actual: %v", err)
	}

	if n := logs.FilterMessage("step").Len(); n != 40 {
		t.Fatalf("step log entries: expected: 40, actual: %d", n)
	}
	windows := logs.FilterMessage("keying window").All()
	if len(windows) < 2 {
		t.Fatalf("expected at least 2 window entries, actual: %d", len(windows))
	}
	for _, e := range windows {
		if e.Level != zapcore.InfoLevel {
			t.Fatalf("window logged at %v", e.Level)
		}
		if _, ok := e.ContextMap()["smooth"]; !ok {
			t.Fatalf("window entry without smooth field: %v", e.ContextMap())
		}
	}
}

func TestTimerSleeper(t *testing.T) {
	if err := morse.TimerSleeper.Sleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("short sleep: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := morse.TimerSleeper.Sleep(ctx, time.Hour)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, actual: %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("sleep ignored the context")
	}
}
