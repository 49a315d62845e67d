package reporter

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
	"gitlab.com/justnurik/newsroom/pkg/random"
)

type Config struct {
	// TimeUnit is the real length of one unit of interview duration.
	TimeUnit time.Duration
	// Pause follows every push.
	Pause time.Duration
}

// Reporter records a random number of interviews and pushes each one to the
// queue as soon as it is recorded.
type Reporter struct {
	l    *zap.Logger
	name string

	config  Config
	queue   *interview.Queue
	source  random.Source
	sink    event.Sink
	metrics metrics.ReporterMetrics
	clock   clockwork.Clock
}

func New(
	l *zap.Logger,
	name string,
	config Config,
	queue *interview.Queue,
	source random.Source,
	sink event.Sink,
	m metrics.ReporterMetrics,
	clock clockwork.Clock,
) *Reporter {
	if sink == nil {
		sink = event.Discard{}
	}
	if m == nil {
		m = metrics.Nop{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Reporter{
		l:       l.With(zap.String("component", "reporter"), zap.String("reporter", name)),
		name:    name,
		config:  config,
		queue:   queue,
		source:  source,
		sink:    sink,
		metrics: m,
		clock:   clock,
	}
}

func (r *Reporter) Name() string {
	return r.name
}

// Run returns once every interview is queued. Pushing never blocks, so the
// only way to stop early is to cancel ctx; an interview still being recorded
// at that point is dropped.
func (r *Reporter) Run(ctx context.Context) (recorded int, err error) {
	count := r.source.Count()
	r.l.Debug("start", zap.Int("interviews", count))

	for i := range count {
		duration := r.source.Duration()

		r.emit(event.ProducerStart, duration)
		if err := concurrency.Sleep(ctx, r.clock, time.Duration(duration)*r.config.TimeUnit); err != nil {
			r.l.Warn("recording interrupted", zap.Error(err), zap.Int("interview", i))
			return recorded, fmt.Errorf("%s: recording interrupted: %w", r.name, err)
		}
		r.emit(event.ProducerDone, duration)

		r.queue.Add(duration)
		r.metrics.IncRecorded()
		recorded++

		r.l.Debug("interview queued", zap.Int("interview", i), zap.Int("duration", duration))

		if err := concurrency.Sleep(ctx, r.clock, r.config.Pause); err != nil {
			return recorded, fmt.Errorf("%s: pause interrupted: %w", r.name, err)
		}
	}

	r.l.Debug("done", zap.Int("recorded", recorded))
	return recorded, nil
}

func (r *Reporter) emit(c event.Category, duration int) {
	r.sink.Emit(event.Event{
		Category: c,
		Source:   r.name,
		Duration: duration,
		At:       r.clock.Now(),
	})
}
