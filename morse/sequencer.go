package morse

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/morsebeep/morsebeep/tone"
)

// Sleeper blocks for d or until ctx is done, whichever comes first.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f.
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// TimerSleeper sleeps on a time.Timer.
var TimerSleeper Sleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
})

// Sequencer keys a Control in real time, holding every step of a Schedule for its duration.
type Sequencer struct {
	ctrl      *tone.Control
	sched     *Schedule
	sleeper   Sleeper
	logger    *zap.Logger
	listeners []func(Step)
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithLogger sets the logger. Window changes are logged at Info, steps at Debug.
func WithLogger(l *zap.Logger) Option {
	return func(s *Sequencer) { s.logger = l }
}

// WithSleeper replaces TimerSleeper.
func WithSleeper(sl Sleeper) Option {
	return func(s *Sequencer) { s.sleeper = sl }
}

// WithListener registers f to be called with every step right after it is applied. f runs on the
// sequencer's goroutine and delays the step's sleep, so it must be quick.
func WithListener(f func(Step)) Option {
	return func(s *Sequencer) { s.listeners = append(s.listeners, f) }
}

// NewSequencer creates a Sequencer keying ctrl from sched.
func NewSequencer(ctrl *tone.Control, sched *Schedule, opts ...Option) *Sequencer {
	s := &Sequencer{
		ctrl:    ctrl,
		sched:   sched,
		sleeper: TimerSleeper,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run keys the Control until ctx is done and returns ctx's error. The tone is keyed off on
// return.
func (s *Sequencer) Run(ctx context.Context) error {
	defer s.ctrl.SetPlaying(false)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		step := s.sched.Next()
		s.ctrl.SetFade(step.Fade)
		s.ctrl.SetPlaying(step.Active)

		if step.WindowStart {
			s.logger.Info("keying window",
				zap.Bool("smooth", step.Window.Smooth),
				zap.Duration("length", step.Window.Length),
			)
		}
		if ce := s.logger.Check(zap.DebugLevel, "step"); ce != nil {
			ce.Write(
				zap.Stringer("kind", step.Kind),
				zap.Bool("playing", step.Active),
				zap.Bool("fade", step.Fade),
				zap.Duration("duration", step.Duration),
			)
		}
		for _, f := range s.listeners {
			f(step)
		}

		if err := s.sleeper.Sleep(ctx, step.Duration); err != nil {
			return err
		}
	}
}
