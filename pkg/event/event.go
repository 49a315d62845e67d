package event

import (
	"sync"
	"time"
)

type Category string

const (
	ProducerStart    Category = "producer-start"
	ProducerDone     Category = "producer-done"
	ConsumerStart    Category = "consumer-start"
	ConsumerDone     Category = "consumer-done"
	ShutdownIdle     Category = "shutdown-idle"
	ShutdownSentinel Category = "shutdown-sentinel"
)

// Event is one state transition of a reporter or of the screen.
type Event struct {
	Category Category
	Source   string
	Duration int
	At       time.Time
}

type Sink interface {
	Emit(Event)
}

type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

type Discard struct{}

func (Discard) Emit(Event) {}

type tee []Sink

// Tee emits every event to each of sinks in order.
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

func (t tee) Emit(e Event) {
	for _, s := range t {
		s.Emit(e)
	}
}

// Recorder keeps every emitted event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{events: make([]Event, 0)}
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Filter returns the recorded events of the given category in emission order.
func (r *Recorder) Filter(c Category) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, 0)
	for _, e := range r.events {
		if e.Category == c {
			out = append(out, e)
		}
	}
	return out
}
