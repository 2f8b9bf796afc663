// Package framer converts captured native-rate float samples into fixed-size
// PCM16 chunks for transmission.
//
// A Framer owns a dedicated worker goroutine. All interaction happens over
// one-way message channels with buffer ownership transfer: a caller that
// passes a slice to Process must not touch it afterwards, and an emitted
// Chunk's sample buffer belongs to the receiver. No state is shared between
// the worker and its callers, so the capture path takes no locks and never
// blocks: when a downstream consumer is slow, frames are counted as dropped
// rather than queued without bound.
package framer

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/parlorvoice/parlor/pkg/audio/pcm"
)

// Config sets the framer's conversion parameters. Applying a new Config
// discards any partially accumulated buffer.
type Config struct {
	// BufferSize is the number of target-rate samples per emitted Chunk.
	BufferSize int

	// NativeRate is the capture device's sample rate in Hz.
	NativeRate int

	// TargetRate is the wire sample rate in Hz.
	TargetRate int
}

// DefaultConfig is a 48kHz capture device feeding 16kHz chunks of 20ms.
var DefaultConfig = Config{
	BufferSize: 320,
	NativeRate: 48000,
	TargetRate: 16000,
}

// Chunk is one fixed-size block of encoded capture audio. The Samples buffer
// is owned by whoever receives the chunk; the framer allocates a fresh
// buffer per accumulation cycle and never reuses an emitted one.
type Chunk struct {
	Samples    []int16
	RMS        float32
	SampleRate int
	Timestamp  time.Time
}

// Bytes returns the chunk's samples as little-endian PCM16, the binary-frame
// wire encoding.
func (c *Chunk) Bytes() []byte {
	return pcm.BytesLE(c.Samples)
}

type msgKind int

const (
	msgConfigure msgKind = iota
	msgStart
	msgStop
	msgInput
	msgClose
)

type message struct {
	kind  msgKind
	cfg   Config
	input []float32
}

// Framer accumulates resampled capture audio and emits chunks.
type Framer struct {
	msgs    chan message
	out     chan *Chunk
	done    chan struct{}
	dropped atomic.Uint64

	now func() time.Time
}

// New creates a Framer with the given configuration and starts its worker.
// Callers must Close it to release the worker.
func New(cfg Config) *Framer {
	f := &Framer{
		msgs: make(chan message, 64),
		out:  make(chan *Chunk, 16),
		done: make(chan struct{}),
		now:  time.Now,
	}
	go f.run(cfg)
	return f
}

// Chunks returns the emission channel. The channel closes when the framer
// is closed.
func (f *Framer) Chunks() <-chan *Chunk {
	return f.out
}

// Configure applies a new conversion configuration.
func (f *Framer) Configure(cfg Config) {
	f.post(message{kind: msgConfigure, cfg: cfg})
}

// Start begins accumulating incoming frames.
func (f *Framer) Start() {
	f.post(message{kind: msgStart})
}

// Stop stops accumulation and discards any partial buffer.
func (f *Framer) Stop() {
	f.post(message{kind: msgStop})
}

// Process hands one native-rate frame of float samples in [-1,1] to the
// framer. Ownership of the slice transfers with the call. Process never
// blocks; if the worker's inbox is full the frame is dropped and counted.
func (f *Framer) Process(samples []float32) {
	select {
	case f.msgs <- message{kind: msgInput, input: samples}:
	default:
		f.dropped.Add(1)
	}
}

// Dropped returns how many frames or chunks were discarded because a
// downstream consumer could not keep up.
func (f *Framer) Dropped() uint64 {
	return f.dropped.Load()
}

// Close stops the worker and closes the chunk channel. Idempotent.
func (f *Framer) Close() {
	select {
	case <-f.done:
	default:
		f.post(message{kind: msgClose})
	}
}

func (f *Framer) post(m message) {
	select {
	case f.msgs <- m:
	case <-f.done:
	}
}

// worker state, confined to the run goroutine.
type workerState struct {
	cfg     Config
	ratio   float64
	running bool
	acc     []float32
	fill    int
}

func (w *workerState) configure(cfg Config) {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig.BufferSize
	}
	if cfg.NativeRate <= 0 {
		cfg.NativeRate = DefaultConfig.NativeRate
	}
	if cfg.TargetRate <= 0 {
		cfg.TargetRate = DefaultConfig.TargetRate
	}
	w.cfg = cfg
	w.ratio = float64(cfg.TargetRate) / float64(cfg.NativeRate)
	w.acc = make([]float32, cfg.BufferSize)
	w.fill = 0
}

func (f *Framer) run(cfg Config) {
	defer close(f.out)

	var w workerState
	w.configure(cfg)

	for m := range f.msgs {
		switch m.kind {
		case msgConfigure:
			w.configure(m.cfg)
		case msgStart:
			w.running = true
		case msgStop:
			w.running = false
			w.fill = 0
		case msgInput:
			if !w.running || len(m.input) == 0 {
				continue
			}
			f.accumulate(&w, resample(m.input, w.ratio))
		case msgClose:
			close(f.done)
			return
		}
	}
}

// resample converts a frame to the target rate by linear interpolation,
// clamping at the input's final sample. A ratio within tolerance of 1 is a
// passthrough.
func resample(input []float32, ratio float64) []float32 {
	if math.Abs(ratio-1) < 1e-9 {
		return input
	}
	outLen := int(float64(len(input)) * ratio)
	if outLen == 0 {
		return nil
	}
	out := make([]float32, outLen)
	last := len(input) - 1
	for i := range out {
		p := float64(i) / ratio
		i0 := int(p)
		if i0 >= last {
			out[i] = input[last]
			continue
		}
		frac := float32(p - float64(i0))
		out[i] = input[i0] + (input[i0+1]-input[i0])*frac
	}
	return out
}

// accumulate appends resampled samples, emitting a chunk each time the
// buffer fills.
func (f *Framer) accumulate(w *workerState, samples []float32) {
	for len(samples) > 0 {
		n := copy(w.acc[w.fill:], samples)
		w.fill += n
		samples = samples[n:]

		if w.fill < len(w.acc) {
			return
		}

		chunk := &Chunk{
			Samples:    make([]int16, len(w.acc)),
			RMS:        pcm.RMS(w.acc),
			SampleRate: w.cfg.TargetRate,
			Timestamp:  f.now(),
		}
		pcm.EncodeSamples(chunk.Samples, w.acc)

		select {
		case f.out <- chunk:
		default:
			f.dropped.Add(1)
		}

		w.fill = 0
	}
}
