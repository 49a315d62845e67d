package screen

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"gitlab.com/justnurik/newsroom/pkg/concurrency"
	"gitlab.com/justnurik/newsroom/pkg/event"
	"gitlab.com/justnurik/newsroom/pkg/interview"
	"gitlab.com/justnurik/newsroom/pkg/metrics"
)

const Name = "screen"

type Result struct {
	Broadcast int
	Reason    Reason
}

// Screen is the single consumer of the interview queue.
type Screen struct {
	l *zap.Logger

	policy   Policy
	timeUnit time.Duration

	queue   *interview.Queue
	sink    event.Sink
	metrics metrics.ScreenMetrics
	clock   clockwork.Clock
}

func New(
	l *zap.Logger,
	policy Policy,
	timeUnit time.Duration,
	queue *interview.Queue,
	sink event.Sink,
	m metrics.ScreenMetrics,
	clock clockwork.Clock,
) *Screen {
	if sink == nil {
		sink = event.Discard{}
	}
	if m == nil {
		m = metrics.Nop{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Screen{
		l:        l.With(zap.String("component", "screen"), zap.Stringer("policy", policy)),
		policy:   policy,
		timeUnit: timeUnit,
		queue:    queue,
		sink:     sink,
		metrics:  m,
		clock:    clock,
	}
}

// Run broadcasts interviews until the policy says stop. Cancelling ctx
// interrupts both waiting and broadcasting; the error is then ctx.Err().
func (s *Screen) Run(ctx context.Context) (Result, error) {
	var res Result

	for {
		item, reason := s.policy.await(ctx, s.queue)

		switch reason {
		case ReasonIdleTimeout:
			s.metrics.IncIdleTimeouts()
			s.emit(event.ShutdownIdle, 0)
			s.l.Info("queue idle, finishing", zap.Int("broadcast", res.Broadcast))
			res.Reason = reason
			return res, nil

		case ReasonSentinel:
			s.metrics.IncSentinels()
			s.emit(event.ShutdownSentinel, 0)
			s.l.Info("sentinel received, finishing", zap.Int("broadcast", res.Broadcast))
			res.Reason = reason
			return res, nil

		case ReasonCancelled:
			res.Reason = reason
			s.l.Warn("cancelled while waiting", zap.Int("broadcast", res.Broadcast))
			return res, fmt.Errorf("screen: cancelled while waiting: %w", ctx.Err())
		}

		if err := s.broadcast(ctx, item.Duration()); err != nil {
			res.Reason = ReasonCancelled
			return res, err
		}
		res.Broadcast++
	}
}

func (s *Screen) broadcast(ctx context.Context, duration int) error {
	s.emit(event.ConsumerStart, duration)
	start := s.clock.Now()

	if err := concurrency.Sleep(ctx, s.clock, time.Duration(duration)*s.timeUnit); err != nil {
		s.l.Warn("broadcast interrupted", zap.Error(err), zap.Int("duration", duration))
		return fmt.Errorf("screen: broadcast interrupted: %w", err)
	}

	s.metrics.ObserveBroadcast(s.clock.Since(start))
	s.metrics.IncBroadcast()
	s.emit(event.ConsumerDone, duration)

	return nil
}

func (s *Screen) emit(c event.Category, duration int) {
	s.sink.Emit(event.Event{
		Category: c,
		Source:   Name,
		Duration: duration,
		At:       s.clock.Now(),
	})
}
