package concurrency

// Signal is a wake-one primitive: Notify hands a single token to whoever
// waits on C next. Tokens do not accumulate, so a waiter woken by Notify must
// re-check its own predicate.
type Signal struct {
	ch chan struct{}
}

func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Notify never blocks. If a token is already pending the call is a no-op.
func (s *Signal) Notify() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

func (s *Signal) C() <-chan struct{} {
	return s.ch
}
