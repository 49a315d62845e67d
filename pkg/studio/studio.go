package studio

import (
	"context"
	"fmt"
	"io"

	"github.com/gofrs/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gitlab.com/justnurik/newsroom/pkg/concurrency"
	"gitlab.com/justnurik/newsroom/pkg/config"
	"gitlab.com/justnurik/newsroom/pkg/event"
	"gitlab.com/justnurik/newsroom/pkg/interview"
	"gitlab.com/justnurik/newsroom/pkg/metrics"
	"gitlab.com/justnurik/newsroom/pkg/random"
	"gitlab.com/justnurik/newsroom/pkg/reporter"
	"gitlab.com/justnurik/newsroom/pkg/screen"
)

type Summary struct {
	RunID  string
	Policy string

	Recorded  int
	Broadcast int
	// Stranded interviews were queued but never broadcast. Only the idle
	// timeout policy can leave any.
	Stranded int

	Reason      screen.Reason
	PerReporter map[string]int
}

type Studio struct {
	l *zap.Logger

	config  config.Config
	clock   clockwork.Clock
	sink    event.Sink
	metrics *metrics.Metrics

	newSource func(index int) random.Source
	depthOut  io.Writer
}

type Option func(*Studio)

func WithClock(clock clockwork.Clock) Option {
	return func(s *Studio) { s.clock = clock }
}

func WithSink(sink event.Sink) Option {
	return func(s *Studio) { s.sink = sink }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Studio) { s.metrics = m }
}

// WithSources replaces the random sources, one per reporter index.
func WithSources(newSource func(index int) random.Source) Option {
	return func(s *Studio) { s.newSource = newSource }
}

// WithDepthOutput enables the queue depth bar when the config sets an
// interval.
func WithDepthOutput(w io.Writer) Option {
	return func(s *Studio) { s.depthOut = w }
}

func New(l *zap.Logger, cfg config.Config, opts ...Option) *Studio {
	s := &Studio{
		l:      l,
		config: cfg,
		clock:  clockwork.NewRealClock(),
		sink:   event.Discard{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.newSource == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = s.clock.Now().UnixNano()
		}
		s.newSource = func(index int) random.Source {
			return random.NewUniform(seed+int64(index), cfg.Items(), cfg.Durations())
		}
	}

	return s
}

func (s *Studio) policy() screen.Policy {
	if s.config.Policy == config.PolicyIdleTimeout {
		return screen.IdleTimeout(s.config.IdleTimeout)
	}
	return screen.Sentinel()
}

// Run starts every reporter and the screen together and returns once all of
// them are finished. With the sentinel policy the sentinel is queued only
// after the last reporter has returned, so it always trails every interview.
func (s *Studio) Run(ctx context.Context) (Summary, error) {
	l := s.l.With(zap.String("component", "studio"))

	if err := s.config.Validate(); err != nil {
		l.Error("invalid config", zap.Error(err))
		return Summary{}, err
	}

	runID, err := uuid.NewV4()
	if err != nil {
		return Summary{}, fmt.Errorf("generate run id: %w", err)
	}

	policy := s.policy()
	runLog := s.l.With(zap.String("run_id", runID.String()))
	l = l.With(zap.String("run_id", runID.String()), zap.Stringer("policy", policy))

	var (
		reporterMetrics metrics.ReporterMetrics = metrics.Nop{}
		screenMetrics   metrics.ScreenMetrics   = metrics.Nop{}
		queueMetrics    metrics.QueueMetrics    = metrics.Nop{}
	)
	if s.metrics != nil {
		reporterMetrics, screenMetrics, queueMetrics = s.metrics, s.metrics, s.metrics
	}

	queue := interview.NewQueue(s.clock)
	tally := concurrency.NewTally[string](s.config.Producers)

	if s.depthOut != nil && s.config.DepthInterval > 0 {
		monitor := metrics.NewDepthMonitor(s.depthOut, queue.Len, queueMetrics, s.clock, s.config.DepthInterval)
		defer monitor.Stop()
	}

	l.Info("start",
		zap.Int("producers", s.config.Producers),
		zap.Duration("time_unit", s.config.TimeUnit))

	screenCtx, cancelScreen := context.WithCancel(ctx)
	defer cancelScreen()

	var result screen.Result
	var screenGroup errgroup.Group
	screenGroup.Go(func() error {
		var err error
		result, err = screen.New(runLog, policy, s.config.TimeUnit, queue, s.sink, screenMetrics, s.clock).Run(screenCtx)
		return err
	})

	reporters, reportersCtx := errgroup.WithContext(ctx)
	reporterConfig := reporter.Config{
		TimeUnit: s.config.TimeUnit,
		Pause:    s.config.InterItemPause,
	}
	for i := range s.config.Producers {
		r := reporter.New(runLog, fmt.Sprintf("reporter-%d", i+1), reporterConfig, queue, s.newSource(i), s.sink, reporterMetrics, s.clock)

		reporters.Go(func() error {
			recorded, err := r.Run(reportersCtx)
			tally.Add(r.Name(), recorded)
			return err
		})
	}

	reportersErr := reporters.Wait()
	switch {
	case reportersErr != nil:
		// the sentinel is queued only after a clean join
		cancelScreen()
	case policy.RequiresSentinel():
		queue.AddSentinel()
		l.Debug("sentinel queued", zap.Int("recorded", tally.Total()))
	}

	screenErr := screenGroup.Wait()

	summary := Summary{
		RunID:       runID.String(),
		Policy:      policy.String(),
		Recorded:    tally.Total(),
		Broadcast:   result.Broadcast,
		Reason:      result.Reason,
		PerReporter: tally.Snapshot(),
	}
	for _, item := range queue.Drain() {
		if !item.IsSentinel() {
			summary.Stranded++
		}
	}

	if reportersErr != nil {
		l.Error("reporters stopped", zap.Error(reportersErr))
		return summary, fmt.Errorf("reporters stopped: %w", reportersErr)
	}
	if screenErr != nil {
		l.Error("screen stopped", zap.Error(screenErr))
		return summary, fmt.Errorf("screen stopped: %w", screenErr)
	}

	l.Info("done",
		zap.Int("recorded", summary.Recorded),
		zap.Int("broadcast", summary.Broadcast),
		zap.Int("stranded", summary.Stranded),
		zap.Stringer("reason", summary.Reason))

	if summary.Stranded > 0 {
		l.Warn("interviews left without a screen", zap.Int("stranded", summary.Stranded))
	}

	return summary, nil
}

func (s Summary) String() string {
	return fmt.Sprintf("run %s (%s): recorded %d, broadcast %d, stranded %d, stopped by %s",
		s.RunID, s.Policy, s.Recorded, s.Broadcast, s.Stranded, s.Reason)
}
