package random

import (
	"fmt"
	"math/rand"
	"sync"
)

// Source decides how many interviews a reporter records and how long each
// one lasts. A Source belongs to a single reporter and is not safe for
// concurrent use unless stated otherwise.
type Source interface {
	Count() int
	Duration() int
}

// Range is an inclusive interval.
type Range struct {
	Min int
	Max int
}

func (r Range) Validate() error {
	if r.Min < 0 || r.Max < r.Min {
		return fmt.Errorf("invalid range [%d, %d]", r.Min, r.Max)
	}
	return nil
}

// Uniform draws from its own private stream.
type Uniform struct {
	rnd      *rand.Rand
	count    Range
	duration Range
}

func NewUniform(seed int64, count, duration Range) *Uniform {
	return &Uniform{
		rnd:      rand.New(rand.NewSource(seed)),
		count:    count,
		duration: duration,
	}
}

func (u *Uniform) Count() int {
	return u.between(u.count)
}

func (u *Uniform) Duration() int {
	return u.between(u.duration)
}

func (u *Uniform) between(r Range) int {
	return r.Min + u.rnd.Intn(r.Max-r.Min+1)
}

// Script replays fixed durations; Count is their number. Safe for
// concurrent use.
type Script struct {
	mu        sync.Mutex
	durations []int
	next      int
}

func NewScript(durations ...int) *Script {
	return &Script{durations: durations}
}

func (s *Script) Count() int {
	return len(s.durations)
}

// Duration panics once the script is exhausted.
func (s *Script) Duration() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.durations) {
		panic("random: script exhausted")
	}
	d := s.durations[s.next]
	s.next++
	return d
}
