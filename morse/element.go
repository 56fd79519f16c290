// Package morse sequences the keying of the tone generator: it walks a Morse character element
// by element and flips the generator's Control at every boundary, either in real time by
// sleeping or, for offline rendering, on exact sample boundaries.
package morse

import "time"

// DefaultUnit is the length of a dot.
const DefaultUnit = 100 * time.Millisecond

// Element is one timed segment of a character: a mark (tone on) or a space (tone off).
type Element struct {
	Duration time.Duration
	Active   bool
}

// Pattern is the ordered list of elements of one character.
type Pattern []Element

// Duration returns the total length of the pattern.
func (p Pattern) Duration() time.Duration {
	var d time.Duration
	for _, e := range p {
		d += e.Duration
	}
	return d
}

// Timing derives element lengths from the unit (dot) length.
type Timing struct {
	Unit time.Duration
}

// DefaultTiming uses a 100ms unit.
var DefaultTiming = Timing{Unit: DefaultUnit}

// Dot is a one unit mark.
func (t Timing) Dot() Element { return Element{Duration: t.Unit, Active: true} }

// Dash is a three unit mark.
func (t Timing) Dash() Element { return Element{Duration: 3 * t.Unit, Active: true} }

// ElementGap is the one unit space between the marks of a character.
func (t Timing) ElementGap() Element { return Element{Duration: t.Unit, Active: false} }

// CharacterGap is the three unit silence between characters.
func (t Timing) CharacterGap() time.Duration { return 3 * t.Unit }

// N returns the pattern of the letter N: dash, gap, dot.
func N(t Timing) Pattern {
	return Pattern{t.Dash(), t.ElementGap(), t.Dot()}
}
