// internal/protocol/events.go
package protocol

import (
	"sync"
	"time"

	"dipcoater-service/internal/model"
)

// EventQueue delivers link events in emission order without ever blocking the
// publisher. Pending events are buffered without bound; Events must be drained.
type EventQueue struct {
	mu      sync.Mutex
	pending []model.LinkEvent
	seq     uint64
	closed  bool
	notify  chan struct{}
	out     chan model.LinkEvent
}

// NewEventQueue creates a queue and starts its delivery goroutine
func NewEventQueue() *EventQueue {
	q := &EventQueue{
		notify: make(chan struct{}, 1),
		out:    make(chan model.LinkEvent),
	}

	go q.pump()
	return q
}

// Publish stamps and enqueues an event
func (q *EventQueue) Publish(event model.LinkEvent) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.seq++
	event.Seq = q.seq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	q.pending = append(q.pending, event)
	q.mu.Unlock()

	q.wake()
}

// Events returns the ordered delivery channel. It is closed after Close once
// every pending event has been delivered.
func (q *EventQueue) Events() <-chan model.LinkEvent {
	return q.out
}

// Close stops accepting events
func (q *EventQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.wake()
}

func (q *EventQueue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *EventQueue) pump() {
	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		closed := q.closed
		q.mu.Unlock()

		for _, event := range batch {
			q.out <- event
		}

		if len(batch) > 0 {
			continue
		}
		if closed {
			close(q.out)
			return
		}
		<-q.notify
	}
}
