package interview

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"gitlab.com/justnurik/newsroom/pkg/queue"
)

// Queue hands interviews from the reporters to the screen.
//
// The sentinel is an ordinary queue entry: anything added after it is
// delivered after it. Callers add it only once every reporter has returned.
type Queue struct {
	q *queue.Queue[Item]
}

func NewQueue(clock clockwork.Clock) *Queue {
	return &Queue{q: queue.New[Item](clock)}
}

func (q *Queue) Add(duration int) {
	q.q.Push(Work(duration))
}

func (q *Queue) AddSentinel() {
	q.q.Push(Sentinel())
}

// NextWithin waits up to maxWait for the next interview. ok is false when the
// window elapsed with nothing queued, or when ctx is done.
func (q *Queue) NextWithin(ctx context.Context, maxWait time.Duration) (item Item, ok bool) {
	return q.q.PopTimeout(ctx, maxWait)
}

// Next waits for the next entry, which may be the sentinel. ok is false only
// when ctx is done.
func (q *Queue) Next(ctx context.Context) (item Item, ok bool) {
	return q.q.Pop(ctx)
}

// Len reports entries still waiting, the sentinel included.
func (q *Queue) Len() int {
	return q.q.Len()
}

// Drain removes and returns whatever is left without waiting.
func (q *Queue) Drain() []Item {
	items := make([]Item, 0)
	for {
		item, ok := q.q.TryPop()
		if !ok {
			return items
		}
		items = append(items, item)
	}
}
