package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/parlorvoice/parlor/pkg/wire"
)

// fakeFetcher serves a fixed catalog of n sessions.
type fakeFetcher struct {
	mu        sync.Mutex
	total     int
	listCalls int
	getCalls  int
	listErr    error
	getErr     error
	getGate    chan struct{} // when set, GetSession blocks until closed
	getStarted chan struct{} // when set, closed once the first GetSession begins
}

func summary(i int) wire.SessionSummary {
	return wire.SessionSummary{ID: fmt.Sprintf("s-%03d", i), AgentKey: "agent-a"}
}

func (f *fakeFetcher) ListSessions(_ context.Context, offset, limit int) (*wire.SessionPage, error) {
	f.mu.Lock()
	f.listCalls++
	err := f.listErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	page := &wire.SessionPage{Total: f.total}
	for i := offset; i < offset+limit && i < f.total; i++ {
		page.Sessions = append(page.Sessions, summary(i))
	}
	return page, nil
}

func (f *fakeFetcher) GetSession(_ context.Context, id string) (*wire.SessionDetail, error) {
	f.mu.Lock()
	f.getCalls++
	if f.getCalls == 1 && f.getStarted != nil {
		close(f.getStarted)
	}
	err := f.getErr
	gate := f.getGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &wire.SessionDetail{
		SessionSummary: wire.SessionSummary{ID: id},
		Messages:       []wire.Message{{ID: "m1", Role: "user", Text: "hi"}},
	}, nil
}

func firstPage(f *fakeFetcher, size int) *wire.SessionPage {
	page, _ := f.ListSessions(context.Background(), 0, size)
	return page
}

func TestIndex_Pagination(t *testing.T) {
	// total 120, page size 50: three loads reach 50, 100, 120; a fourth is
	// a no-op with no request.
	f := &fakeFetcher{total: 120}
	ix := NewIndex(f)
	ix.LoadFirstPage(firstPage(f, 50))

	want := []int{50, 100, 120, 120}
	for i, w := range want[1:] {
		if err := ix.LoadMore(context.Background(), 50); err != nil {
			t.Fatalf("LoadMore %d error: %v", i, err)
		}
		if got := ix.LoadedCount(); got != w {
			t.Errorf("after LoadMore %d: loaded %d; want %d", i, got, w)
		}
	}

	callsBefore := f.listCalls
	if err := ix.LoadMore(context.Background(), 50); err != nil {
		t.Fatalf("no-op LoadMore error: %v", err)
	}
	if f.listCalls != callsBefore {
		t.Errorf("no-op LoadMore issued a request")
	}
}

func TestIndex_Monotonic(t *testing.T) {
	f := &fakeFetcher{total: 35}
	ix := NewIndex(f)
	ix.LoadFirstPage(firstPage(f, 10))

	prev := ix.LoadedCount()
	for range 6 {
		if err := ix.LoadMore(context.Background(), 10); err != nil {
			t.Fatalf("LoadMore error: %v", err)
		}
		cur := ix.LoadedCount()
		if cur < prev {
			t.Errorf("loaded count decreased: %d -> %d", prev, cur)
		}
		if cur > ix.TotalAvailable() {
			t.Errorf("loaded %d exceeds total %d", cur, ix.TotalAvailable())
		}
		prev = cur
	}

	seen := make(map[string]bool)
	for _, e := range ix.Entries() {
		if seen[e.ID] {
			t.Errorf("duplicate entry %s", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestIndex_DedupAcrossPages(t *testing.T) {
	f := &fakeFetcher{total: 10}
	ix := NewIndex(f)
	ix.LoadFirstPage(firstPage(f, 10))

	// Seeding the same page again must not duplicate; seeding replaces.
	ix.LoadFirstPage(firstPage(f, 10))
	if got := ix.LoadedCount(); got != 10 {
		t.Errorf("loaded %d; want 10", got)
	}
}

func TestIndex_FailedLoadLeavesStateUnchanged(t *testing.T) {
	f := &fakeFetcher{total: 20}
	ix := NewIndex(f)
	ix.LoadFirstPage(firstPage(f, 10))

	f.listErr = errors.New("rate limited")
	before, total := ix.LoadedCount(), ix.TotalAvailable()
	if err := ix.LoadMore(context.Background(), 10); err == nil {
		t.Fatal("LoadMore succeeded despite fetch error")
	}
	if ix.LoadedCount() != before || ix.TotalAvailable() != total {
		t.Errorf("failed LoadMore mutated state: %d/%d -> %d/%d",
			before, total, ix.LoadedCount(), ix.TotalAvailable())
	}
}

func TestIndex_UpdatedNotification(t *testing.T) {
	f := &fakeFetcher{total: 20}
	ix := NewIndex(f)

	var fired int
	ix.OnIndexUpdated(func() { fired++ })

	ix.LoadFirstPage(firstPage(f, 10))
	ix.LoadMore(context.Background(), 10)
	if fired != 2 {
		t.Errorf("index-updated fired %d times; want 2", fired)
	}
}

func TestIndex_ResumeCachesAndSetsActive(t *testing.T) {
	f := &fakeFetcher{total: 5}
	ix := NewIndex(f)

	var changed []string
	ix.OnSessionChanged(func(s *wire.SessionDetail) { changed = append(changed, s.ID) })

	s, err := ix.Resume(context.Background(), "s-001")
	if err != nil {
		t.Fatalf("Resume error: %v", err)
	}
	if s.ID != "s-001" || len(s.Messages) != 1 {
		t.Errorf("resumed session = %+v", s)
	}
	if ix.Active() != s {
		t.Error("resumed session is not active")
	}

	// Second resume hits the cache: no new request.
	if _, err := ix.Resume(context.Background(), "s-001"); err != nil {
		t.Fatalf("cached Resume error: %v", err)
	}
	if f.getCalls != 1 {
		t.Errorf("GetSession called %d times; want 1", f.getCalls)
	}
	if len(changed) != 2 {
		t.Errorf("session-changed fired %d times; want 2", len(changed))
	}
}

func TestIndex_ResumeCoalesces(t *testing.T) {
	f := &fakeFetcher{total: 5, getGate: make(chan struct{}), getStarted: make(chan struct{})}
	ix := NewIndex(f)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = ix.Resume(context.Background(), "s-002")
		}()
	}

	// Let the first caller reach the fetcher, then release everyone.
	<-f.getStarted
	close(f.getGate)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d error: %v", i, err)
		}
	}
	if f.getCalls != 1 {
		t.Errorf("GetSession called %d times; want 1 (coalesced)", f.getCalls)
	}
}

func TestIndex_ResumeErrorNotCached(t *testing.T) {
	f := &fakeFetcher{total: 5, getErr: errors.New("not found")}
	ix := NewIndex(f)

	if _, err := ix.Resume(context.Background(), "s-003"); err == nil {
		t.Fatal("Resume succeeded despite fetch error")
	}
	if ix.Active() != nil {
		t.Error("failed resume set an active session")
	}

	f.getErr = nil
	if _, err := ix.Resume(context.Background(), "s-003"); err != nil {
		t.Fatalf("retry Resume error: %v", err)
	}
	if f.getCalls != 2 {
		t.Errorf("GetSession called %d times; want 2", f.getCalls)
	}
}

func TestIndex_CacheEviction(t *testing.T) {
	f := &fakeFetcher{total: 10}
	ix := NewIndex(f, WithCacheSize(3))

	for i := range 5 {
		if _, err := ix.Resume(context.Background(), fmt.Sprintf("s-%03d", i)); err != nil {
			t.Fatalf("Resume %d error: %v", i, err)
		}
	}
	if got := ix.CachedCount(); got != 3 {
		t.Errorf("cached %d sessions; want 3 (bounded)", got)
	}

	// The most recently resumed session is still cached.
	calls := f.getCalls
	if _, err := ix.Resume(context.Background(), "s-004"); err != nil {
		t.Fatalf("Resume error: %v", err)
	}
	if f.getCalls != calls {
		t.Error("most recent session was evicted")
	}
}

func TestIndex_Clear(t *testing.T) {
	f := &fakeFetcher{total: 5}
	ix := NewIndex(f)
	ix.LoadFirstPage(firstPage(f, 5))
	ix.Resume(context.Background(), "s-000")

	ix.Clear()
	if ix.LoadedCount() != 0 || ix.TotalAvailable() != 0 || ix.Active() != nil || ix.CachedCount() != 0 {
		t.Error("Clear left residual state")
	}
}
