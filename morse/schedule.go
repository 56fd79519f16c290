package morse

import (
	"math/rand/v2"
	"time"

	"github.com/pkg/errors"
)

// Default bounds of a random window.
const (
	DefaultMinWindow = 3 * time.Second
	DefaultMaxWindow = 7 * time.Second
)

// Kind tells what a Step is for.
type Kind int

const (
	Mark Kind = iota
	Space
	CharacterGap
)

func (k Kind) String() string {
	switch k {
	case Mark:
		return "mark"
	case Space:
		return "space"
	case CharacterGap:
		return "character gap"
	}
	return "unknown"
}

// Window is a stretch of whole characters keyed in one style.
type Window struct {
	Smooth bool
	Length time.Duration
}

// Step is the next state to hold the Control in and for how long.
type Step struct {
	Element
	Kind Kind

	// Fade selects the enveloped style for this step.
	Fade bool

	// Window is the window the step belongs to. WindowStart is set on its first step. Both are
	// zero for a fixed schedule.
	Window      Window
	WindowStart bool
}

// Schedule yields the steps of a character repeated forever, with a character gap after every
// repetition. A random schedule groups characters into windows of random length and picks the
// keying style of each window by a coin flip.
//
// A Schedule is not safe for concurrent use.
type Schedule struct {
	pattern Pattern
	charGap time.Duration

	rng       *rand.Rand
	minWindow time.Duration
	maxWindow time.Duration

	pos     int
	window  Window
	elapsed time.Duration
	started bool
}

// ScheduleOption configures a Schedule.
type ScheduleOption func(*Schedule)

// WithRandom makes the schedule random. Window lengths are uniform in [lo, hi).
func WithRandom(rng *rand.Rand, lo, hi time.Duration) ScheduleOption {
	return func(s *Schedule) {
		s.rng = rng
		s.minWindow = lo
		s.maxWindow = hi
	}
}

// NewSchedule creates a Schedule repeating p with the character gap of t.
func NewSchedule(p Pattern, t Timing, opts ...ScheduleOption) (*Schedule, error) {
	s := &Schedule{
		pattern: p,
		charGap: t.CharacterGap(),
		window:  Window{Smooth: true},
	}
	for _, opt := range opts {
		opt(s)
	}

	for i, e := range p {
		if e.Duration < 0 {
			return nil, errors.Errorf("morse: element %d has negative duration %v", i, e.Duration)
		}
	}
	if s.charGap < 0 {
		return nil, errors.Errorf("morse: negative character gap %v", s.charGap)
	}
	if p.Duration()+s.charGap <= 0 {
		return nil, errors.New("morse: character has zero length")
	}
	if s.rng != nil && (s.minWindow <= 0 || s.maxWindow < s.minWindow) {
		return nil, errors.Errorf("morse: invalid window bounds [%v, %v)", s.minWindow, s.maxWindow)
	}
	return s, nil
}

// Random reports whether the schedule picks random windows.
func (s *Schedule) Random() bool {
	return s.rng != nil
}

// Next returns the next step.
func (s *Schedule) Next() Step {
	start := false
	if s.pos == 0 && s.rng != nil && (!s.started || s.elapsed >= s.window.Length) {
		s.window = Window{
			Smooth: s.rng.IntN(2) == 0,
			Length: s.windowLength(),
		}
		s.elapsed = 0
		start = true
	}
	s.started = true

	var step Step
	if s.pos < len(s.pattern) {
		e := s.pattern[s.pos]
		kind := Space
		if e.Active {
			kind = Mark
		}
		step = Step{Element: e, Kind: kind}
		s.pos++
	} else {
		step = Step{Element: Element{Duration: s.charGap}, Kind: CharacterGap}
		s.pos = 0
	}
	step.Fade = s.window.Smooth
	if s.rng != nil {
		step.Window = s.window
		step.WindowStart = start
	}
	s.elapsed += step.Duration
	return step
}

func (s *Schedule) windowLength() time.Duration {
	span := s.maxWindow - s.minWindow
	if span <= 0 {
		return s.minWindow
	}
	return s.minWindow + time.Duration(s.rng.Int64N(int64(span)))
}
