package pcm

import (
	"math"
	"testing"
	"time"
)

func TestEncodeSample_Clamp(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{1.5, 32767},
		{-2, -32767},
		{0.5, 16384},
	}
	for _, tc := range tests {
		if got := EncodeSample(tc.in); got != tc.want {
			t.Errorf("EncodeSample(%v) = %d; want %d", tc.in, got, tc.want)
		}
	}
}

func TestRoundTripBound(t *testing.T) {
	// |decode(encode(s)) - s| <= 1/32767 for all s in [-1,1].
	const bound = 1.0 / 32767
	for i := -1000; i <= 1000; i++ {
		s := float32(i) / 1000
		back := DecodeSample(EncodeSample(s))
		if diff := math.Abs(float64(back - s)); diff > bound {
			t.Fatalf("round trip error for %v: |%v - %v| = %v > %v", s, back, s, diff, bound)
		}
	}
}

func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Errorf("RMS(nil) = %v; want 0", got)
	}

	// Constant signal: RMS equals its magnitude.
	buf := make([]float32, 128)
	for i := range buf {
		buf[i] = 0.5
	}
	if got := RMS(buf); math.Abs(float64(got)-0.5) > 1e-6 {
		t.Errorf("RMS(const 0.5) = %v; want 0.5", got)
	}

	// Out-of-range input clamps to 1.
	for i := range buf {
		buf[i] = 2
	}
	if got := RMS(buf); got != 1 {
		t.Errorf("RMS(const 2) = %v; want 1", got)
	}
}

func TestBytesLE_RoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345}
	b := BytesLE(samples)
	if len(b) != len(samples)*2 {
		t.Fatalf("BytesLE length = %d; want %d", len(b), len(samples)*2)
	}
	back := SamplesLE(b)
	for i := range samples {
		if back[i] != samples[i] {
			t.Errorf("sample %d: got %d, want %d", i, back[i], samples[i])
		}
	}
}

func TestFormat(t *testing.T) {
	f, ok := FormatForRate(16000)
	if !ok || f != L16Mono16K {
		t.Fatalf("FormatForRate(16000) = %v, %v", f, ok)
	}
	if _, ok := FormatForRate(44100); ok {
		t.Errorf("FormatForRate(44100) should not be supported")
	}
	if got := L16Mono48K.SamplesInDuration(20*time.Millisecond); got != 960 {
		t.Errorf("48k samples in 20ms = %d; want 960", got)
	}
	if got := L16Mono16K.BytesInDuration(20*time.Millisecond); got != 640 {
		t.Errorf("16k bytes in 20ms = %d; want 640", got)
	}
}
