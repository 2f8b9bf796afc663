package client

import (
	"io"
	"log/slog"

	"github.com/parlorvoice/parlor/pkg/audio/resampler"
	"github.com/parlorvoice/parlor/pkg/buffer"
)

// playback buffers inbound binary frames and drains them to the configured
// sink, resampling when the sink runs at a different rate than the wire.
// The queue is flushed on barge-in so a cancelled agent response stops
// playing promptly.
type playback struct {
	q        *buffer.Queue[[]byte]
	logger   *slog.Logger
	leftover []byte
}

// newPlayback builds the playback path. With a nil sink the frames are
// consumed and dropped, which keeps the queue bounded for headless clients.
func newPlayback(sink io.Writer, wireRate, sinkRate int, logger *slog.Logger) *playback {
	p := &playback{
		q:      buffer.New[[]byte](256),
		logger: logger,
	}
	go p.drain(sink, wireRate, sinkRate)
	return p
}

func (p *playback) enqueue(frame []byte) {
	if err := p.q.Push(frame); err != nil {
		p.logger.Debug("client: playback frame dropped", "error", err)
	}
}

// Flush discards all queued audio, then returns how many frames were
// dropped.
func (p *playback) Flush() int {
	return p.q.Flush()
}

func (p *playback) close() {
	p.q.CloseWrite()
}

func (p *playback) drain(sink io.Writer, wireRate, sinkRate int) {
	if sink == nil {
		for {
			if _, err := p.q.Pop(); err != nil {
				return
			}
		}
	}

	var src io.Reader = p
	srcFmt, srcOK := resampler.FormatForRate(wireRate)
	dstFmt, dstOK := resampler.FormatForRate(sinkRate)
	if wireRate != sinkRate && srcOK && dstOK {
		rs, err := resampler.New(p, srcFmt, dstFmt)
		if err != nil {
			p.logger.Error("client: playback resampler", "error", err)
		} else {
			defer rs.Close()
			src = rs
		}
	}

	if _, err := io.Copy(sink, src); err != nil && !buffer.ErrClosed(err) {
		p.logger.Error("client: playback drain", "error", err)
	}
}

// Read implements io.Reader over the frame queue, blocking while empty.
func (p *playback) Read(b []byte) (int, error) {
	if len(p.leftover) > 0 {
		n := copy(b, p.leftover)
		p.leftover = p.leftover[n:]
		return n, nil
	}
	frame, err := p.q.Pop()
	if err != nil {
		return 0, err
	}
	n := copy(b, frame)
	if n < len(frame) {
		p.leftover = frame[n:]
	}
	return n, nil
}
