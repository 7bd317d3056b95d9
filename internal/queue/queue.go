// Package queue provides an unbounded MPSC buffer used to feed the history
// archiver. Producers never block; the single consumer blocks until an item
// arrives or the queue is closed.
package queue

import "sync"

// Queue is a thread-safe ring buffer that doubles its capacity when full.
type Queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []T
	head   int // read position
	tail   int // write position
	count  int
	closed bool

	totalPushed int64
	totalPopped int64
}

// New creates a queue with the given initial capacity.
func New[T any](initialCapacity int) *Queue[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	q := &Queue[T]{buf: make([]T, initialCapacity)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends an item, growing the buffer if necessary.
// Returns false if the queue is closed.
func (q *Queue[T]) Push(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	if q.count == len(q.buf) {
		q.grow()
	}

	q.buf[q.tail] = item
	q.tail = (q.tail + 1) % len(q.buf)
	q.count++
	q.totalPushed++

	q.cond.Signal()
	return true
}

// Pop removes and returns the oldest item, blocking until one is available
// or the queue is closed. After Close, remaining items are still drained in
// order; once empty, Pop returns the zero value and false.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		q.cond.Wait()
	}

	if q.count == 0 {
		var zero T
		return zero, false
	}

	return q.pop(), true
}

// TryPop removes the oldest item without blocking.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		var zero T
		return zero, false
	}
	return q.pop(), true
}

// pop removes the head item. Caller must hold the lock with count > 0.
func (q *Queue[T]) pop() T {
	item := q.buf[q.head]
	var zero T
	q.buf[q.head] = zero // release the reference for GC
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	q.totalPopped++
	return item
}

// Close marks the queue closed and wakes any blocked consumer. Subsequent
// Push calls return false.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of buffered items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Stats returns lifetime counters.
func (q *Queue[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Len:         q.count,
		Cap:         len(q.buf),
		TotalPushed: q.totalPushed,
		TotalPopped: q.totalPopped,
	}
}

// Stats contains queue counters.
type Stats struct {
	Len         int
	Cap         int
	TotalPushed int64
	TotalPopped int64
}

// grow doubles the capacity. Caller must hold the lock.
func (q *Queue[T]) grow() {
	newBuf := make([]T, len(q.buf)*2)

	if q.count > 0 {
		if q.head < q.tail {
			copy(newBuf, q.buf[q.head:q.tail])
		} else {
			n := copy(newBuf, q.buf[q.head:])
			copy(newBuf[n:], q.buf[:q.tail])
		}
	}

	q.buf = newBuf
	q.head = 0
	q.tail = q.count
}
