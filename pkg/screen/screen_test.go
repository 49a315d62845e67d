package screen

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"gitlab.com/justnurik/newsroom/pkg/event"
	"gitlab.com/justnurik/newsroom/pkg/interview"
	"gitlab.com/justnurik/newsroom/pkg/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type run struct {
	res Result
	err error
}

func start(ctx context.Context, s *Screen) <-chan run {
	done := make(chan run, 1)
	go func() {
		res, err := s.Run(ctx)
		done <- run{res, err}
	}()
	return done
}

func wait(t *testing.T, done <-chan run) run {
	t.Helper()

	select {
	case r := <-done:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("screen did not stop")
		return run{}
	}
}

func TestScreen_SentinelDrainsThenStops(t *testing.T) {
	q := interview.NewQueue(nil)
	q.Add(1)
	q.Add(2)
	q.AddSentinel()

	rec := event.NewRecorder()
	m := metrics.New(prometheus.NewRegistry(), "test")
	s := New(zaptest.NewLogger(t), Sentinel(), time.Millisecond, q, rec, m, nil)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Broadcast: 2, Reason: ReasonSentinel}, res)

	started := rec.Filter(event.ConsumerStart)
	require.Len(t, started, 2)
	assert.Equal(t, 1, started[0].Duration)
	assert.Equal(t, 2, started[1].Duration)

	events := rec.Events()
	assert.Equal(t, event.ShutdownSentinel, events[len(events)-1].Category)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Broadcast))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Sentinels))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.IdleTimeouts))
}

func TestScreen_SentinelWaitsForLateWork(t *testing.T) {
	q := interview.NewQueue(nil)
	s := New(zaptest.NewLogger(t), Sentinel(), time.Millisecond, q, nil, nil, nil)

	done := start(context.Background(), s)

	select {
	case <-done:
		t.Fatal("sentinel screen stopped without a sentinel")
	case <-time.After(50 * time.Millisecond):
	}

	q.Add(1)
	q.AddSentinel()

	r := wait(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, Result{Broadcast: 1, Reason: ReasonSentinel}, r.res)
}

// goroutineState returns the scheduler state of the first goroutine whose
// stack contains frame.
func goroutineState(frame string) string {
	buf := make([]byte, 1<<20)
	buf = buf[:runtime.Stack(buf, true)]

	for _, g := range strings.Split(string(buf), "\n\n") {
		if !strings.Contains(g, frame) {
			continue
		}
		header, _, _ := strings.Cut(g, "\n")
		if start, end := strings.IndexByte(header, '['), strings.IndexByte(header, ']'); start >= 0 && end > start {
			return header[start+1 : end]
		}
	}
	return ""
}

func TestScreen_SentinelWaitIsParked(t *testing.T) {
	q := interview.NewQueue(nil)
	s := New(zaptest.NewLogger(t), Sentinel(), time.Millisecond, q, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := start(ctx, s)

	const frame = "screen.(*Screen).Run("
	require.Eventually(t, func() bool {
		return goroutineState(frame) != ""
	}, time.Second, time.Millisecond)

	for range 20 {
		state := goroutineState(frame)
		require.True(t,
			strings.HasPrefix(state, "select") || strings.HasPrefix(state, "chan receive"),
			"screen is %q while the queue is empty", state)
		time.Sleep(time.Millisecond)
	}

	cancel()
	r := wait(t, done)
	require.ErrorIs(t, r.err, context.Canceled)
	assert.Equal(t, ReasonCancelled, r.res.Reason)
}

func TestScreen_IdleTimeoutOnEmptyQueue(t *testing.T) {
	clock := clockwork.NewFakeClock()
	q := interview.NewQueue(clock)
	rec := event.NewRecorder()

	s := New(zaptest.NewLogger(t), IdleTimeout(10*time.Second), time.Second, q, rec, nil, clock)
	done := start(context.Background(), s)

	clock.BlockUntil(1)
	clock.Advance(10 * time.Second)

	r := wait(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, Result{Broadcast: 0, Reason: ReasonIdleTimeout}, r.res)

	shutdown := rec.Filter(event.ShutdownIdle)
	require.Len(t, shutdown, 1)
	assert.Equal(t, Name, shutdown[0].Source)
}

func TestScreen_IdleWindowStartsAfterBroadcast(t *testing.T) {
	clock := clockwork.NewFakeClock()
	q := interview.NewQueue(clock)
	q.Add(2)

	rec := event.NewRecorder()
	s := New(zaptest.NewLogger(t), IdleTimeout(10*time.Second), time.Second, q, rec, nil, clock)
	begin := clock.Now()
	done := start(context.Background(), s)

	// broadcasting
	clock.BlockUntil(1)
	clock.Advance(2 * time.Second)

	// idle window
	clock.BlockUntil(1)
	clock.Advance(9 * time.Second)

	select {
	case <-done:
		t.Fatal("idle window ended early")
	case <-time.After(20 * time.Millisecond):
	}

	clock.Advance(time.Second)

	r := wait(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, Result{Broadcast: 1, Reason: ReasonIdleTimeout}, r.res)

	finished := rec.Filter(event.ConsumerDone)
	require.Len(t, finished, 1)
	assert.Equal(t, 2*time.Second, finished[0].At.Sub(begin))

	shutdown := rec.Filter(event.ShutdownIdle)
	require.Len(t, shutdown, 1)
	assert.Equal(t, 12*time.Second, shutdown[0].At.Sub(begin))
}

func TestScreen_CancelWhileWaiting(t *testing.T) {
	q := interview.NewQueue(nil)
	s := New(zaptest.NewLogger(t), Sentinel(), time.Millisecond, q, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := start(ctx, s)
	cancel()

	r := wait(t, done)
	assert.ErrorIs(t, r.err, context.Canceled)
	assert.Equal(t, ReasonCancelled, r.res.Reason)
}

func TestScreen_CancelWhileBroadcasting(t *testing.T) {
	clock := clockwork.NewFakeClock()
	q := interview.NewQueue(clock)
	q.Add(5)

	s := New(zaptest.NewLogger(t), IdleTimeout(time.Second), time.Second, q, nil, nil, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := start(ctx, s)

	clock.BlockUntil(1)
	cancel()

	r := wait(t, done)
	assert.ErrorIs(t, r.err, context.Canceled)
	assert.Equal(t, Result{Broadcast: 0, Reason: ReasonCancelled}, r.res)
}

func TestPolicy(t *testing.T) {
	assert.True(t, Sentinel().RequiresSentinel())
	assert.False(t, IdleTimeout(time.Second).RequiresSentinel())
	assert.Equal(t, "sentinel", Sentinel().String())
	assert.Equal(t, "idle-timeout(1s)", IdleTimeout(time.Second).String())

	assert.Equal(t, "idle-timeout", ReasonIdleTimeout.String())
	assert.Equal(t, "sentinel", ReasonSentinel.String())
	assert.Equal(t, "cancelled", ReasonCancelled.String())
}
