package installer

import (
	"fmt"
	"sync"

	"github.com/itchio/wharf/state"
)

type EventType string

const (
	EventLog      EventType = "log"
	EventProgress EventType = "progress"
)

// Event is something the executor wants its observer to know about
type Event struct {
	Type EventType `json:"type"`

	// For log events: "debug", "info", "warning" or "error"
	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`

	// For progress events. Mode is ModeUnchanged unless it
	// differs from the one in the previous progress event.
	Mode     Mode    `json:"mode,omitempty"`
	Progress float64 `json:"progress"`
}

func (ev Event) String() string {
	switch ev.Type {
	case EventLog:
		return fmt.Sprintf("[%s] %s", ev.Level, ev.Message)
	case EventProgress:
		if ev.Mode == ModeUnchanged {
			return fmt.Sprintf("progress %.2f", ev.Progress)
		}
		return fmt.Sprintf("progress %.2f (%s)", ev.Progress, ev.Mode)
	}
	return string(ev.Type)
}

// EventQueue carries events from one producer to one consumer.
// Post never blocks and never drops events: they pile up until the
// consumer reads them from Events(), in the order they were posted.
type EventQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []Event
	closed  bool

	out chan Event
}

func NewEventQueue() *EventQueue {
	q := &EventQueue{
		out: make(chan Event),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.pump()
	return q
}

// Post queues an event. Posting to a closed queue does nothing.
func (q *EventQueue) Post(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.pending = append(q.pending, ev)
	q.cond.Signal()
}

// Close marks the end of the stream. Events posted before Close
// are still delivered, then the channel is closed.
func (q *EventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Signal()
}

// Events returns the channel events are delivered on.
func (q *EventQueue) Events() <-chan Event {
	return q.out
}

func (q *EventQueue) pump() {
	defer close(q.out)

	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			// closed and drained
			q.mu.Unlock()
			return
		}
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, ev := range batch {
			q.out <- ev
		}
	}
}

// Log posts a log event
func (q *EventQueue) Log(level string, msg string) {
	q.Post(Event{
		Type:    EventLog,
		Level:   level,
		Message: msg,
	})
}

// Progress posts a progress event
func (q *EventQueue) Progress(mode Mode, progress float64) {
	q.Post(Event{
		Type:     EventProgress,
		Mode:     mode,
		Progress: progress,
	})
}

// Consumer returns a state.Consumer whose messages end up
// as log events on this queue.
func (q *EventQueue) Consumer() *state.Consumer {
	return &state.Consumer{
		OnMessage: func(level string, msg string) {
			q.Log(level, msg)
		},
	}
}
