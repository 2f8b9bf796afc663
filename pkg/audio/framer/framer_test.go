package framer

import (
	"math"
	"testing"
	"time"
)

func TestResample_Ratio(t *testing.T) {
	// 48000 -> 16000 is a 1/3 ratio: N inputs yield N/3 outputs, never more
	// than one off.
	ratio := 16000.0 / 48000.0
	for _, n := range []int{3, 10, 100, 4800, 48000, 48001} {
		input := make([]float32, n)
		out := resample(input, ratio)
		want := float64(n) * ratio
		if d := math.Abs(float64(len(out)) - want); d > 1 {
			t.Errorf("resample(%d samples): got %d outputs; want %v +- 1", n, len(out), want)
		}
	}
}

func TestResample_Passthrough(t *testing.T) {
	input := []float32{0.1, 0.2, 0.3}
	out := resample(input, 1.0)
	if len(out) != 3 {
		t.Fatalf("passthrough length = %d; want 3", len(out))
	}
	for i := range input {
		if out[i] != input[i] {
			t.Errorf("sample %d: got %v, want %v", i, out[i], input[i])
		}
	}
}

func TestResample_Interpolates(t *testing.T) {
	// Doubling a ramp should land midpoints between neighbors.
	input := []float32{0, 1}
	out := resample(input, 2.0)
	if len(out) != 4 {
		t.Fatalf("got %d outputs; want 4", len(out))
	}
	want := []float32{0, 0.5, 1, 1}
	for i := range want {
		if math.Abs(float64(out[i]-want[i])) > 1e-6 {
			t.Errorf("out[%d] = %v; want %v", i, out[i], want[i])
		}
	}
}

func TestResample_BoundaryClamp(t *testing.T) {
	input := []float32{0.5}
	out := resample(input, 3.0)
	for i, s := range out {
		if s != 0.5 {
			t.Errorf("out[%d] = %v; want 0.5 (clamped)", i, s)
		}
	}
}

func collect(t *testing.T, f *Framer, want int) []*Chunk {
	t.Helper()
	var chunks []*Chunk
	deadline := time.After(2 * time.Second)
	for len(chunks) < want {
		select {
		case c, ok := <-f.Chunks():
			if !ok {
				t.Fatalf("chunk channel closed with %d of %d chunks", len(chunks), want)
			}
			chunks = append(chunks, c)
		case <-deadline:
			t.Fatalf("timed out with %d of %d chunks", len(chunks), want)
		}
	}
	return chunks
}

func TestFramer_EmitsFixedChunks(t *testing.T) {
	f := New(Config{BufferSize: 160, NativeRate: 16000, TargetRate: 16000})
	defer f.Close()
	f.Start()

	// 400 samples: two full chunks plus an 80-sample partial that must not
	// be emitted.
	buf := make([]float32, 400)
	for i := range buf {
		buf[i] = 0.25
	}
	f.Process(buf)

	chunks := collect(t, f, 2)
	for i, c := range chunks {
		if len(c.Samples) != 160 {
			t.Errorf("chunk %d has %d samples; want 160", i, len(c.Samples))
		}
		if c.SampleRate != 16000 {
			t.Errorf("chunk %d rate = %d; want 16000", i, c.SampleRate)
		}
		if math.Abs(float64(c.RMS)-0.25) > 1e-3 {
			t.Errorf("chunk %d RMS = %v; want ~0.25", i, c.RMS)
		}
		if c.Timestamp.IsZero() {
			t.Errorf("chunk %d has zero timestamp", i)
		}
	}

	select {
	case c := <-f.Chunks():
		t.Errorf("unexpected extra chunk of %d samples", len(c.Samples))
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFramer_DownsampleChunkCount(t *testing.T) {
	f := New(Config{BufferSize: 1000, NativeRate: 48000, TargetRate: 16000})
	defer f.Close()
	f.Start()

	done := make(chan int)
	go func() {
		total := 0
		for c := range f.Chunks() {
			total += len(c.Samples)
			if total >= 16000 {
				break
			}
		}
		done <- total
	}()

	// 48000 native samples resample to 16000, filling exactly 16 chunks.
	f.Process(make([]float32, 48000))

	select {
	case total := <-done:
		if total != 16000 {
			t.Errorf("emitted %d samples; want 16000", total)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for chunks")
	}
}

func TestFramer_StopDiscardsPartial(t *testing.T) {
	f := New(Config{BufferSize: 160, NativeRate: 16000, TargetRate: 16000})
	defer f.Close()
	f.Start()

	// Fill half a chunk, stop, then restart: the partial must be gone, so a
	// further 159 samples stay below the emission threshold.
	f.Process(make([]float32, 80))
	f.Stop()
	f.Start()
	f.Process(make([]float32, 159))

	select {
	case <-f.Chunks():
		t.Error("partial buffer survived Stop")
	case <-time.After(100 * time.Millisecond):
	}

	// One more sample completes the chunk.
	f.Process(make([]float32, 1))
	collect(t, f, 1)
}

func TestFramer_IgnoresInputWhenStopped(t *testing.T) {
	f := New(Config{BufferSize: 16, NativeRate: 16000, TargetRate: 16000})
	defer f.Close()

	f.Process(make([]float32, 64))

	select {
	case <-f.Chunks():
		t.Error("chunk emitted without Start")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFramer_FreshBufferPerChunk(t *testing.T) {
	f := New(Config{BufferSize: 8, NativeRate: 16000, TargetRate: 16000})
	defer f.Close()
	f.Start()

	f.Process(make([]float32, 16))
	chunks := collect(t, f, 2)
	if &chunks[0].Samples[0] == &chunks[1].Samples[0] {
		t.Error("chunk buffers share backing memory; ownership transfer requires fresh buffers")
	}
}

func TestFramer_ConfigureResets(t *testing.T) {
	f := New(Config{BufferSize: 100, NativeRate: 16000, TargetRate: 16000})
	defer f.Close()
	f.Start()

	f.Process(make([]float32, 50))
	f.Configure(Config{BufferSize: 40, NativeRate: 16000, TargetRate: 16000})
	f.Start()
	f.Process(make([]float32, 40))

	chunks := collect(t, f, 1)
	if len(chunks[0].Samples) != 40 {
		t.Errorf("chunk has %d samples; want 40 after reconfigure", len(chunks[0].Samples))
	}
}
