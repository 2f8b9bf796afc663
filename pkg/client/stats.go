package client

import "sync/atomic"

// stats holds transport counters, updated lock-free from the read and write
// paths.
type stats struct {
	textSent      atomic.Uint64
	textReceived  atomic.Uint64
	audioSent     atomic.Uint64
	audioReceived atomic.Uint64
	bytesSent     atomic.Uint64
	bytesReceived atomic.Uint64
	audioDropped  atomic.Uint64
	reconnects    atomic.Uint64
}

// Stats is a point-in-time snapshot of transport counters.
type Stats struct {
	TextFramesSent      uint64
	TextFramesReceived  uint64
	AudioFramesSent     uint64
	AudioFramesReceived uint64
	BytesSent           uint64
	BytesReceived       uint64
	AudioFramesDropped  uint64
	Reconnects          uint64
}

func (s *stats) snapshot() Stats {
	return Stats{
		TextFramesSent:      s.textSent.Load(),
		TextFramesReceived:  s.textReceived.Load(),
		AudioFramesSent:     s.audioSent.Load(),
		AudioFramesReceived: s.audioReceived.Load(),
		BytesSent:           s.bytesSent.Load(),
		BytesReceived:       s.bytesReceived.Load(),
		AudioFramesDropped:  s.audioDropped.Load(),
		Reconnects:          s.reconnects.Load(),
	}
}
