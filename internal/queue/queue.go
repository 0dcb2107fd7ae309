// Package queue provides the unbounded inbound FIFO shared between a
// machine's network listener and its scheduling loop.
package queue

import (
	"context"
	"sync"
)

// Queue is an unbounded FIFO safe for concurrent producers and consumers.
// Enqueue never blocks; Dequeue blocks only while the queue is empty.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	head  int

	// ready is closed and replaced whenever an item is enqueued, waking
	// blocked Dequeue callers.
	ready chan struct{}
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{ready: make(chan struct{})}
}

// Enqueue appends v to the tail of the queue.
func (q *Queue[T]) Enqueue(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	close(q.ready)
	q.ready = make(chan struct{})
	q.mu.Unlock()
}

// TryDequeue removes and returns the head of the queue without blocking.
// The boolean is false if the queue was empty.
func (q *Queue[T]) TryDequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

// Dequeue removes and returns the head of the queue, waiting for an item
// if the queue is empty. It returns ctx.Err() if ctx is done first.
func (q *Queue[T]) Dequeue(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		if v, ok := q.popLocked(); ok {
			q.mu.Unlock()
			return v, nil
		}
		ready := q.ready
		q.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

func (q *Queue[T]) popLocked() (T, bool) {
	var zero T
	if q.head == len(q.items) {
		return zero, false
	}
	v := q.items[q.head]
	q.items[q.head] = zero
	q.head++

	// Reclaim the consumed prefix once it dominates the backing array.
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return v, true
}
