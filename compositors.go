package morsebeep

// Take returns a Streamer which streams at most n samples from s.
//
// The returned Streamer propagates s's errors through Err.
func Take(n int, s Streamer) Streamer {
	return &take{
		s:          s,
		currSample: 0,
		numSamples: n,
	}
}

type take struct {
	s          Streamer
	currSample int
	numSamples int
}

func (t *take) Stream(samples []float32) (n int, ok bool) {
	if t.currSample >= t.numSamples {
		return 0, false
	}
	toStream := t.numSamples - t.currSample
	if len(samples) < toStream {
		toStream = len(samples)
	}
	n, ok = t.s.Stream(samples[:toStream])
	t.currSample += n
	return n, ok
}

func (t *take) Err() error {
	return t.s.Err()
}
