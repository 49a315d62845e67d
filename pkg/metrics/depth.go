package metrics

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DepthMonitor samples the queue backlog every interval, publishes it to the
// gauge and draws it as a bar on w.
type DepthMonitor struct {
	wg    sync.WaitGroup
	close chan struct{}

	w     io.Writer
	depth func() int
	gauge QueueMetrics

	clock    clockwork.Clock
	interval time.Duration
}

func NewDepthMonitor(
	w io.Writer,
	depth func() int,
	gauge QueueMetrics,
	clock clockwork.Clock,
	interval time.Duration,
) *DepthMonitor {
	if gauge == nil {
		gauge = Nop{}
	}

	m := &DepthMonitor{
		close:    make(chan struct{}),
		w:        w,
		depth:    depth,
		gauge:    gauge,
		clock:    clock,
		interval: interval,
	}

	m.wg.Add(1)
	go m.show()

	return m
}

func (m *DepthMonitor) show() {
	defer m.wg.Done()

	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.close:
			return
		case <-ticker.Chan():
		}

		n := m.depth()
		m.gauge.SetQueueDepth(n)
		fmt.Fprintf(m.w, "queue %3d %s\n", n, strings.Repeat("█", n))
	}
}

// Stop waits for the sampling goroutine to exit. The final depth is published
// to the gauge.
func (m *DepthMonitor) Stop() {
	close(m.close)
	m.wg.Wait()

	m.gauge.SetQueueDepth(m.depth())
}
