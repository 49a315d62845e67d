package queue

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"gitlab.com/justnurik/newsroom/pkg/concurrency"
)

// Queue is an unbounded FIFO shared by any number of pushers.
//
// items is guarded by mu; the signal is paired with mu and carries the
// "queue became non-empty" condition. Waiters never hold mu while parked and
// always re-check len(items) after waking.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T

	nonEmpty *concurrency.Signal
	clock    clockwork.Clock
}

func New[T any](clock clockwork.Clock) *Queue[T] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Queue[T]{
		items:    make([]T, 0),
		nonEmpty: concurrency.NewSignal(),
		clock:    clock,
	}
}

// Push appends item to the tail and wakes one waiter. It never blocks.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	q.nonEmpty.Notify()
}

// Pop waits without a deadline for the head item. It returns false only when
// ctx is done.
func (q *Queue[T]) Pop(ctx context.Context) (item T, ok bool) {
	for {
		if item, ok = q.tryPop(); ok {
			return item, true
		}

		select {
		case <-q.nonEmpty.C():
		case <-ctx.Done():
			return item, false
		}
	}
}

// PopTimeout waits at most maxWait for the head item. A false result with a
// nil ctx.Err() means the window elapsed while the queue stayed empty; the
// queue is left unchanged in that case. Every call gets a full window.
func (q *Queue[T]) PopTimeout(ctx context.Context, maxWait time.Duration) (item T, ok bool) {
	if item, ok = q.tryPop(); ok {
		return item, true
	}

	deadline := q.clock.NewTimer(maxWait)
	defer deadline.Stop()

	for {
		select {
		case <-q.nonEmpty.C():
		case <-deadline.Chan():
			return q.tryPop()
		case <-ctx.Done():
			return item, false
		}

		if item, ok = q.tryPop(); ok {
			return item, true
		}
	}
}

// TryPop returns the head item if there is one.
func (q *Queue[T]) TryPop() (T, bool) {
	return q.tryPop()
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

func (q *Queue[T]) tryPop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return item, false
	}

	var zero T
	item = q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]

	// pass the wake-up on so that a second waiter is not left parked while
	// items remain
	if len(q.items) > 0 {
		q.nonEmpty.Notify()
	}

	return item, true
}
