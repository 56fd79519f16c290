// Package pcm writes headerless PCM, for piping the keyer into tools like aplay or sox.
package pcm

import (
	"bufio"
	"io"

	"github.com/pkg/errors"

	"github.com/morsebeep/morsebeep"
)

// Encode writes all audio streamed from s to w as interleaved signed little-endian PCM of
// format.Precision bytes per sample. s must be finite.
func Encode(w io.Writer, s morsebeep.Streamer, format morsebeep.Format) error {
	if format.NumChannels <= 0 {
		return errors.New("pcm: invalid number of channels (less than 1)")
	}
	if format.Precision < 1 || format.Precision > 4 {
		return errors.Errorf("pcm: unsupported precision %d", format.Precision)
	}

	var (
		bw      = bufio.NewWriter(w)
		samples = make([]float32, 512)
		buffer  = make([]byte, len(samples)*format.Width())
	)
	for {
		n, ok := s.Stream(samples)
		if !ok {
			break
		}
		var offset int
		for _, sample := range samples[:n] {
			offset += format.EncodeSigned(buffer[offset:], sample)
		}
		if _, err := bw.Write(buffer[:offset]); err != nil {
			return errors.Wrap(err, "pcm")
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "pcm")
	}
	return errors.Wrap(s.Err(), "pcm")
}
