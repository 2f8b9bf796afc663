package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/parlorvoice/parlor/pkg/wire"
)

// Fetcher requests session data from the server. The connection engine
// implements it over the control channel.
type Fetcher interface {
	// ListSessions requests one index page at the given offset.
	ListSessions(ctx context.Context, offset, limit int) (*wire.SessionPage, error)

	// GetSession requests full hydration of one session.
	GetSession(ctx context.Context, id string) (*wire.SessionDetail, error)
}

// Index is the paginated session catalog and hydrated-session cache.
type Index struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu       sync.Mutex
	entries  []wire.SessionSummary
	byID     map[string]bool
	total    int
	cache    *lruCache
	active   *wire.SessionDetail
	inflight map[string]*resumeCall

	onIndexUpdated   func()
	onSessionChanged func(*wire.SessionDetail)
}

// resumeCall coalesces concurrent Resume calls for the same session id into
// one outbound request.
type resumeCall struct {
	done    chan struct{}
	session *wire.SessionDetail
	err     error
}

// Option configures an Index.
type Option func(*Index)

// WithCacheSize bounds the hydrated-session cache. Values <= 0 keep the
// default.
func WithCacheSize(n int) Option {
	return func(ix *Index) { ix.cache = newLRUCache(n) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(ix *Index) { ix.logger = l }
}

// NewIndex creates an empty Index that fetches through f.
func NewIndex(f Fetcher, opts ...Option) *Index {
	ix := &Index{
		fetcher:  f,
		logger:   slog.Default(),
		byID:     make(map[string]bool),
		cache:    newLRUCache(DefaultCacheSize),
		inflight: make(map[string]*resumeCall),
	}
	for _, o := range opts {
		o(ix)
	}
	return ix
}

// OnIndexUpdated registers a callback fired after a page is appended.
func (ix *Index) OnIndexUpdated(fn func()) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.onIndexUpdated = fn
}

// OnSessionChanged registers a callback fired when the active session
// changes.
func (ix *Index) OnSessionChanged(fn func(*wire.SessionDetail)) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.onSessionChanged = fn
}

// LoadFirstPage seeds the index from an authoritative first page, replacing
// any existing entries. Login returns this page alongside the tokens, and a
// reconnect resync re-fetches it, so seeding always starts a fresh view.
func (ix *Index) LoadFirstPage(page *wire.SessionPage) {
	if page == nil {
		return
	}
	ix.mu.Lock()
	ix.entries = ix.entries[:0]
	ix.byID = make(map[string]bool)
	ix.appendLocked(page)
	notify := ix.onIndexUpdated
	ix.mu.Unlock()
	if notify != nil {
		notify()
	}
}

// LoadMore fetches and appends the next page. It is a no-op when every known
// session is already loaded. A failed fetch leaves the index unchanged.
func (ix *Index) LoadMore(ctx context.Context, pageSize int) error {
	if pageSize <= 0 {
		return fmt.Errorf("session: page size must be positive, got %d", pageSize)
	}

	ix.mu.Lock()
	if len(ix.entries) >= ix.total {
		ix.mu.Unlock()
		return nil
	}
	offset := len(ix.entries)
	ix.mu.Unlock()

	page, err := ix.fetcher.ListSessions(ctx, offset, pageSize)
	if err != nil {
		return fmt.Errorf("session: load more at offset %d: %w", offset, err)
	}

	ix.mu.Lock()
	ix.appendLocked(page)
	notify := ix.onIndexUpdated
	ix.mu.Unlock()
	if notify != nil {
		notify()
	}
	return nil
}

// appendLocked appends a page's entries deduplicated by id and adopts the
// server's total as authoritative.
func (ix *Index) appendLocked(page *wire.SessionPage) {
	for _, s := range page.Sessions {
		if ix.byID[s.ID] {
			continue
		}
		ix.byID[s.ID] = true
		ix.entries = append(ix.entries, s)
	}
	ix.total = page.Total
	if ix.total < len(ix.entries) {
		// A shrinking catalog between pages; trust our loaded count until
		// the next authoritative refresh.
		ix.total = len(ix.entries)
	}
}

// Entries returns a copy of the loaded summaries in arrival order.
func (ix *Index) Entries() []wire.SessionSummary {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	out := make([]wire.SessionSummary, len(ix.entries))
	copy(out, ix.entries)
	return out
}

// LoadedCount returns how many summaries are loaded.
func (ix *Index) LoadedCount() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.entries)
}

// TotalAvailable returns the server-reported catalog size.
func (ix *Index) TotalAvailable() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.total
}

// Active returns the currently resumed session, or nil.
func (ix *Index) Active() *wire.SessionDetail {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.active
}

// Resume returns the fully hydrated session with the given id, fetching it
// on a cache miss, and makes it the active session. Concurrent calls for the
// same id coalesce into a single request.
func (ix *Index) Resume(ctx context.Context, id string) (*wire.SessionDetail, error) {
	ix.mu.Lock()
	if s, ok := ix.cache.get(id); ok {
		ix.setActiveLocked(s)
		notify := ix.onSessionChanged
		ix.mu.Unlock()
		if notify != nil {
			notify(s)
		}
		return s, nil
	}

	if call, ok := ix.inflight[id]; ok {
		ix.mu.Unlock()
		select {
		case <-call.done:
			return call.session, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &resumeCall{done: make(chan struct{})}
	ix.inflight[id] = call
	ix.mu.Unlock()

	s, err := ix.fetcher.GetSession(ctx, id)

	ix.mu.Lock()
	delete(ix.inflight, id)
	call.session, call.err = s, err
	var notify func(*wire.SessionDetail)
	if err == nil {
		ix.cache.put(s)
		ix.setActiveLocked(s)
		notify = ix.onSessionChanged
	}
	close(call.done)
	ix.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("session: resume %s: %w", id, err)
	}
	if notify != nil {
		notify(s)
	}
	return s, nil
}

func (ix *Index) setActiveLocked(s *wire.SessionDetail) {
	ix.active = s
}

// AdoptActive installs a server-pushed active session, caching it as if it
// had been resumed. Used for the active-session push that arrives during
// connection initialization.
func (ix *Index) AdoptActive(s *wire.SessionDetail) {
	if s == nil {
		return
	}
	ix.mu.Lock()
	ix.cache.put(s)
	ix.setActiveLocked(s)
	notify := ix.onSessionChanged
	ix.mu.Unlock()
	if notify != nil {
		notify(s)
	}
}

// CachedCount returns how many hydrated sessions are cached.
func (ix *Index) CachedCount() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.cache.len()
}

// Clear drops all loaded entries, the hydrated cache, and the active
// session pointer.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries = nil
	ix.byID = make(map[string]bool)
	ix.total = 0
	ix.active = nil
	ix.cache.clear()
}
