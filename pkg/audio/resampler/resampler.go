// Package resampler converts mono PCM16 audio between sample rates on the
// playback path, wrapping an io.Reader of wire-format bytes.
package resampler

import (
	"fmt"
	"io"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Format describes a mono 16-bit stream at a sample rate.
type Format struct {
	SampleRate int
}

// FormatForRate returns a Format for any positive rate.
func FormatForRate(rate int) (Format, bool) {
	if rate <= 0 {
		return Format{}, false
	}
	return Format{SampleRate: rate}, true
}

// Resampler reads resampled audio. Close releases engine resources.
type Resampler interface {
	io.ReadCloser
}

// reader wraps src and converts from srcFmt to dstFmt using a pure Go
// resampling engine.
type reader struct {
	src    io.Reader
	dstFmt Format

	engine   resampling.Resampler
	readBuf  []byte
	leftover []byte
	ratio    float64
	closed   bool
}

// New creates a Resampler converting mono PCM16 from srcFmt to dstFmt.
// Equal rates pass through unmodified.
func New(src io.Reader, srcFmt, dstFmt Format) (Resampler, error) {
	r := &reader{
		src:    src,
		dstFmt: dstFmt,
		ratio:  float64(srcFmt.SampleRate) / float64(dstFmt.SampleRate),
	}
	if srcFmt.SampleRate != dstFmt.SampleRate {
		engine, err := resampling.New(&resampling.Config{
			InputRate:  float64(srcFmt.SampleRate),
			OutputRate: float64(dstFmt.SampleRate),
			Channels:   1,
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		})
		if err != nil {
			return nil, fmt.Errorf("resampler: %w", err)
		}
		r.engine = engine
	}
	return r, nil
}

// Read fills p with resampled audio. Not safe for concurrent use.
func (r *reader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, io.ErrClosedPipe
	}
	if len(p) < 2 {
		return 0, io.ErrShortBuffer
	}
	p = p[:len(p)/2*2]

	if len(r.leftover) > 0 {
		n := copy(p, r.leftover)
		r.leftover = r.leftover[n:]
		return n, nil
	}

	if r.engine == nil {
		return r.src.Read(p)
	}

	// Read enough source bytes to roughly fill p after rate conversion.
	need := int(float64(len(p))*r.ratio) + 8
	need -= need % 2
	if cap(r.readBuf) < need {
		r.readBuf = make([]byte, need)
	}
	read, readErr := r.src.Read(r.readBuf[:need])
	read -= read % 2
	if read == 0 {
		if readErr != nil {
			return 0, readErr
		}
		return 0, io.EOF
	}

	samples := read / 2
	input := make([]float64, samples)
	for i := range samples {
		s := int16(r.readBuf[i*2]) | int16(r.readBuf[i*2+1])<<8
		input[i] = float64(s) / 32768.0
	}

	output, err := r.engine.Process(input)
	if err != nil {
		return 0, fmt.Errorf("resampler: process: %w", err)
	}
	if len(output) == 0 {
		return 0, readErr
	}

	out := make([]byte, len(output)*2)
	for i, s := range output {
		v := int16(s * 32767.0)
		if s > 1.0 {
			v = 32767
		} else if s < -1.0 {
			v = -32768
		}
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}

	n := copy(p, out)
	if n < len(out) {
		r.leftover = append(r.leftover, out[n:]...)
	}
	return n, readErr
}

// Close marks the resampler closed and releases the engine.
func (r *reader) Close() error {
	r.closed = true
	r.engine = nil
	return nil
}
