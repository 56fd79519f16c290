package effects_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/morsebeep/morsebeep"
	"github.com/morsebeep/morsebeep/effects"
)

func constant(x float32) morsebeep.Streamer {
	return morsebeep.StreamerFunc(func(samples []float32) (n int, ok bool) {
		for i := range samples {
			samples[i] = x
		}
		return len(samples), true
	})
}

func TestVolume(t *testing.T) {
	tests := []struct {
		name   string
		volume effects.Volume
		want   float32
	}{
		{"unity", effects.Volume{Base: 2, Volume: 0}, 0.5},
		{"double", effects.Volume{Base: 2, Volume: 1}, 1},
		{"half", effects.Volume{Base: 2, Volume: -1}, 0.25},
		{"silent", effects.Volume{Base: 2, Volume: 3, Silent: true}, 0},
		{"silent at unity", effects.Volume{Base: 2, Silent: true}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.volume
			v.Streamer = constant(0.5)

			buf := make([]float32, 16)
			n, ok := v.Stream(buf)
			if n != len(buf) || !ok {
				t.Fatalf("Stream: expected: %v true, actual: %v %v", len(buf), n, ok)
			}
			want := make([]float32, len(buf))
			for i := range want {
				want[i] = tt.want
			}
			if diff := cmp.Diff(want, buf); diff != "" {
				t.Fatalf("samples mismatch (-want +got):\n%s", diff)
			}
			if v.Err() != nil {
				t.Fatalf("unexpected error: %v", v.Err())
			}
		})
	}
}
