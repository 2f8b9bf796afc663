// Package buffer provides a growable FIFO queue with blocking reads, used to
// decouple frame arrival from frame consumption on the playback path.
package buffer

import (
	"errors"
	"io"
	"sync"
)

// Queue is a thread-safe growable FIFO. Pop blocks while the queue is empty
// and unblocks on the next Push, on CloseWrite (draining remaining items,
// then io.EOF), or on CloseWithError (immediately).
type Queue[T any] struct {
	mu         sync.Mutex
	cond       *sync.Cond
	closeWrite bool
	closeErr   error
	items      []T
}

// New creates a Queue with an initial capacity hint of n items.
func New[T any](n int) *Queue[T] {
	q := &Queue[T]{items: make([]T, 0, n)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends items to the queue. It returns io.ErrClosedPipe if the queue
// has been closed for writing.
func (q *Queue[T]) Push(items ...T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closeErr != nil {
		return q.closeErr
	}
	if q.closeWrite {
		return io.ErrClosedPipe
	}
	q.items = append(q.items, items...)
	q.cond.Broadcast()
	return nil
}

// Pop removes and returns the oldest item, blocking while the queue is
// empty. After CloseWrite it keeps returning queued items until the queue
// drains, then io.EOF.
func (q *Queue[T]) Pop() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			return item, nil
		}
		if q.closeErr != nil {
			var zero T
			return zero, q.closeErr
		}
		if q.closeWrite {
			var zero T
			return zero, io.EOF
		}
		q.cond.Wait()
	}
}

// Flush discards all queued items and returns how many were dropped.
func (q *Queue[T]) Flush() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	q.items = q.items[:0]
	return n
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// CloseWrite marks the queue closed for writing. Queued items remain
// readable; Pop returns io.EOF once the queue drains.
func (q *Queue[T]) CloseWrite() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closeWrite = true
	q.cond.Broadcast()
}

// CloseWithError closes both ends immediately. Pending and future Pop calls
// return err (io.ErrClosedPipe when err is nil); queued items are dropped.
func (q *Queue[T]) CloseWithError(err error) {
	if err == nil {
		err = io.ErrClosedPipe
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closeErr == nil {
		q.closeErr = err
	}
	q.items = nil
	q.cond.Broadcast()
}

// ErrClosed reports whether err indicates a closed queue.
func ErrClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe)
}
