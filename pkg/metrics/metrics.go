package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReporterMetrics is what a reporter reports.
type ReporterMetrics interface {
	IncRecorded()
}

// ScreenMetrics is what the screen reports.
type ScreenMetrics interface {
	IncBroadcast()
	IncIdleTimeouts()
	IncSentinels()
	ObserveBroadcast(d time.Duration)
}

// QueueMetrics tracks the backlog.
type QueueMetrics interface {
	SetQueueDepth(n int)
}

type Metrics struct {
	Recorded     prometheus.Counter
	Broadcast    prometheus.Counter
	IdleTimeouts prometheus.Counter
	Sentinels    prometheus.Counter

	QueueDepth    prometheus.Gauge
	BroadcastTime prometheus.Histogram
}

var _ ReporterMetrics = (*Metrics)(nil)
var _ ScreenMetrics = (*Metrics)(nil)
var _ QueueMetrics = (*Metrics)(nil)

func (m *Metrics) IncRecorded()        { m.Recorded.Inc() }
func (m *Metrics) IncBroadcast()       { m.Broadcast.Inc() }
func (m *Metrics) IncIdleTimeouts()    { m.IdleTimeouts.Inc() }
func (m *Metrics) IncSentinels()       { m.Sentinels.Inc() }
func (m *Metrics) SetQueueDepth(n int) { m.QueueDepth.Set(float64(n)) }

func (m *Metrics) ObserveBroadcast(d time.Duration) {
	m.BroadcastTime.Observe(d.Seconds())
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		Recorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interviews_recorded_total",
			Help:      "Total number of interviews pushed to the queue by reporters",
		}),
		Broadcast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interviews_broadcast_total",
			Help:      "Total number of interviews broadcast by the screen",
		}),
		IdleTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screen_idle_timeouts_total",
			Help:      "Number of times the screen stopped after an idle window",
		}),
		Sentinels: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screen_sentinels_total",
			Help:      "Number of sentinels received by the screen",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Interviews waiting to be broadcast",
		}),
		BroadcastTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "broadcast_duration_seconds",
			Help:      "Wall time spent broadcasting one interview",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}

	reg.MustRegister(
		m.Recorded,
		m.Broadcast,
		m.IdleTimeouts,
		m.Sentinels,
		m.QueueDepth,
		m.BroadcastTime,
	)

	return m
}

// Nop drops everything.
type Nop struct{}

func (Nop) IncRecorded()                   {}
func (Nop) IncBroadcast()                  {}
func (Nop) IncIdleTimeouts()               {}
func (Nop) IncSentinels()                  {}
func (Nop) SetQueueDepth(int)              {}
func (Nop) ObserveBroadcast(time.Duration) {}
