package screen

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/justnurik/newsroom/pkg/interview"
)

type Reason int

const (
	ReasonIdleTimeout Reason = iota + 1
	ReasonSentinel
	ReasonCancelled
)

func (r Reason) String() string {
	switch r {
	case ReasonIdleTimeout:
		return "idle-timeout"
	case ReasonSentinel:
		return "sentinel"
	case ReasonCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Policy decides when the screen stops waiting for interviews. The two
// implementations are IdleTimeout and Sentinel.
type Policy interface {
	// await returns the next interview, or a non-zero reason to stop.
	await(ctx context.Context, q *interview.Queue) (interview.Item, Reason)

	// RequiresSentinel reports whether someone must push the sentinel for the
	// screen to ever stop.
	RequiresSentinel() bool

	String() string
}

type idleTimeout struct {
	maxWait time.Duration
}

// IdleTimeout stops the screen once a whole window of maxWait passes with an
// empty queue. The window restarts on every wait. A reporter that is still
// recording when the window lapses has its later interviews left in the
// queue with nobody to broadcast them.
func IdleTimeout(maxWait time.Duration) Policy {
	return idleTimeout{maxWait: maxWait}
}

func (p idleTimeout) await(ctx context.Context, q *interview.Queue) (interview.Item, Reason) {
	item, ok := q.NextWithin(ctx, p.maxWait)
	switch {
	case ok && item.IsSentinel():
		return item, ReasonSentinel
	case ok:
		return item, 0
	case ctx.Err() != nil:
		return item, ReasonCancelled
	default:
		return item, ReasonIdleTimeout
	}
}

func (p idleTimeout) RequiresSentinel() bool { return false }

func (p idleTimeout) String() string {
	return fmt.Sprintf("idle-timeout(%s)", p.maxWait)
}

type sentinel struct{}

// Sentinel waits for as long as it takes and stops on the sentinel.
func Sentinel() Policy {
	return sentinel{}
}

func (sentinel) await(ctx context.Context, q *interview.Queue) (interview.Item, Reason) {
	item, ok := q.Next(ctx)
	switch {
	case !ok:
		return item, ReasonCancelled
	case item.IsSentinel():
		return item, ReasonSentinel
	default:
		return item, 0
	}
}

func (sentinel) RequiresSentinel() bool { return true }

func (sentinel) String() string { return "sentinel" }
