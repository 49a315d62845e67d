package interview

import (
	"fmt"
)

type kind uint8

const (
	kindWork kind = iota + 1
	kindSentinel
)

// Item is either a recorded interview with its duration in time units or the
// sentinel telling the screen that nothing else will ever arrive. The zero
// Item is neither and is never produced by this package.
type Item struct {
	kind     kind
	duration int
}

// Work returns an interview lasting duration time units. Durations are never
// negative.
func Work(duration int) Item {
	if duration < 0 {
		panic(fmt.Sprintf("interview: negative duration %d", duration))
	}

	return Item{kind: kindWork, duration: duration}
}

func Sentinel() Item {
	return Item{kind: kindSentinel}
}

func (i Item) IsSentinel() bool {
	return i.kind == kindSentinel
}

// Duration is zero for the sentinel.
func (i Item) Duration() int {
	return i.duration
}

func (i Item) String() string {
	switch i.kind {
	case kindWork:
		return fmt.Sprintf("interview(%d)", i.duration)
	case kindSentinel:
		return "sentinel"
	default:
		return "invalid"
	}
}
