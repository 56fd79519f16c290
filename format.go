package morsebeep

import "fmt"

// Format is the format of an audio sink: a WAVE file or an output device.
type Format struct {
	// SampleRate is the number of samples per second.
	SampleRate SampleRate

	// NumChannels is the number of channels. Mono samples are copied to every channel and the
	// channels are always interleaved.
	NumChannels int

	// Precision is the number of bytes used to encode a single sample of integer PCM.
	Precision int
}

// Width returns the number of bytes per one sample (all channels).
//
// This is equal to f.NumChannels * f.Precision.
func (f Format) Width() int {
	return f.NumChannels * f.Precision
}

// EncodeSigned encodes a single mono sample in f.Width() bytes to p in signed little-endian
// format.
func (f Format) EncodeSigned(p []byte, sample float32) (n int) {
	return f.encode(true, p, sample)
}

// EncodeUnsigned encodes a single mono sample in f.Width() bytes to p in unsigned format.
func (f Format) EncodeUnsigned(p []byte, sample float32) (n int) {
	return f.encode(false, p, sample)
}

func (f Format) encode(signed bool, p []byte, sample float32) (n int) {
	if f.NumChannels < 1 {
		panic(fmt.Errorf("format: encode: invalid number of channels: %d", f.NumChannels))
	}
	x := norm(float64(sample))
	for c := 0; c < f.NumChannels; c++ {
		p = p[encodeFloat(signed, p, f.Precision, x):]
	}
	return f.Width()
}

func encodeFloat(signed bool, p []byte, precision int, x float64) (n int) {
	var xUint64 uint64
	if signed {
		xUint64 = floatToSigned(precision, x)
	} else {
		xUint64 = floatToUnsigned(precision, x)
	}
	for i := 0; i < precision; i++ {
		p[i] = byte(xUint64)
		xUint64 >>= 8
	}
	return precision
}

func floatToSigned(precision int, x float64) uint64 {
	return uint64(int64(x * float64(uint64(1)<<uint(precision*8-1)-1)))
}

func floatToUnsigned(precision int, x float64) uint64 {
	return uint64((x + 1) / 2 * float64(uint64(1)<<uint(precision*8)-1))
}

func norm(x float64) float64 {
	if x < -1 {
		return -1
	}
	if x > +1 {
		return +1
	}
	return x
}
