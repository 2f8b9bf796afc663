package client

import "github.com/parlorvoice/parlor/pkg/wire"

// initTracker tracks which of the required event kinds have arrived on the
// current connection. It resets on every successful (re)connect, so the
// initialized signal always reflects post-resync state.
type initTracker struct {
	required map[wire.EventType]bool
	received map[wire.EventType]bool
	complete bool
}

func newInitTracker(kinds []wire.EventType) *initTracker {
	t := &initTracker{
		required: make(map[wire.EventType]bool, len(kinds)),
		received: make(map[wire.EventType]bool, len(kinds)),
	}
	for _, k := range kinds {
		t.required[k] = true
	}
	return t
}

// mark records an arrived kind and reports whether the required set just
// became complete. Re-arrivals after completion update nothing and never
// report completion again.
func (t *initTracker) mark(kind wire.EventType) bool {
	if !t.required[kind] {
		return false
	}
	t.received[kind] = true
	if t.complete || len(t.received) < len(t.required) {
		return false
	}
	t.complete = true
	return true
}

func (t *initTracker) initialized() bool {
	return t.complete
}

func (t *initTracker) reset() {
	t.received = make(map[wire.EventType]bool, len(t.required))
	t.complete = false
}
