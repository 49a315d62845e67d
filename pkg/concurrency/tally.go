package concurrency

import (
	"sync"
)

// Tally counts occurrences per key. Safe for concurrent use.
type Tally[K comparable] struct {
	data map[K]int
	mu   sync.RWMutex
}

func NewTally[K comparable](cap int) *Tally[K] {
	return &Tally[K]{
		data: make(map[K]int, cap),
	}
}

func (t *Tally[K]) Add(key K, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data[key] += n
}

func (t *Tally[K]) Total() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	total := 0
	for _, n := range t.data {
		total += n
	}
	return total
}

// Snapshot returns a copy of the counters.
func (t *Tally[K]) Snapshot() map[K]int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[K]int, len(t.data))
	for k, n := range t.data {
		out[k] = n
	}
	return out
}
