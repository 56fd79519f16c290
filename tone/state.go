package tone

// State describes where the envelope is, derived from the Playing flag and the current
// amplitude. It is never stored.
type State int

const (
	Silent State = iota
	FadingIn
	Sustained
	FadingOut
)

func (s State) String() string {
	switch s {
	case Silent:
		return "silent"
	case FadingIn:
		return "fading in"
	case Sustained:
		return "sustained"
	case FadingOut:
		return "fading out"
	}
	return "unknown"
}

// StateOf derives the envelope state from the Playing flag and the current amplitude.
func StateOf(playing bool, amplitude float64) State {
	switch {
	case playing && amplitude >= 1:
		return Sustained
	case playing:
		return FadingIn
	case amplitude > 0:
		return FadingOut
	default:
		return Silent
	}
}
