package pcm

import "math"

// EncodeSample converts a float sample in [-1,1] to int16. Out-of-range
// input is clamped before scaling. The scale is 32767 so that the decode
// error never exceeds 1/32767.
func EncodeSample(s float32) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(math.Round(float64(s) * 32767))
}

// DecodeSample converts an int16 sample back to a float in [-1,1].
func DecodeSample(s int16) float32 {
	return float32(s) / 32767
}

// EncodeSamples converts float samples to int16 into dst, which must be at
// least len(src) long. It returns the number of samples written.
func EncodeSamples(dst []int16, src []float32) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = EncodeSample(src[i])
	}
	return n
}

// RMS computes the root mean square of float samples, clamped to [0,1].
// An empty slice yields 0.
func RMS(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	r := math.Sqrt(sum / float64(len(samples)))
	if r > 1 {
		r = 1
	}
	return float32(r)
}

// BytesLE serializes int16 samples as little-endian bytes, the binary-frame
// wire format.
func BytesLE(samples []int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		b[i*2] = byte(s)
		b[i*2+1] = byte(s >> 8)
	}
	return b
}

// SamplesLE parses little-endian PCM16 bytes into int16 samples. A trailing
// odd byte is ignored.
func SamplesLE(b []byte) []int16 {
	n := len(b) / 2
	samples := make([]int16, n)
	for i := range n {
		samples[i] = int16(b[i*2]) | int16(b[i*2+1])<<8
	}
	return samples
}
