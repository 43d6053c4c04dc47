package viewer

import (
	"sync"
)

// Event is the type of callback functions posted to the main thread.
type Event func()

// EventQueue carries events from background goroutines to the
// goroutine that drains it. Once closed, posting never blocks.
type EventQueue struct {
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func NewEventQueue(size int) *EventQueue {
	return &EventQueue{
		events: make(chan Event, size),
		done:   make(chan struct{}),
	}
}

// Post queues ev and reports whether it was accepted. With dropIfFull
// a full queue drops ev; otherwise Post waits for room or for Close.
func (q *EventQueue) Post(ev Event, dropIfFull bool) bool {
	select {
	case <-q.done:
		return false
	default:
	}
	if dropIfFull {
		select {
		case q.events <- ev:
			return true
		default:
			return false
		}
	}
	select {
	case q.events <- ev:
		return true
	case <-q.done:
		return false
	}
}

// Drain runs the queued events and returns how many ran.
func (q *EventQueue) Drain() int {
	n := 0
	for {
		select {
		case ev := <-q.events:
			ev()
			n++
		default:
			return n
		}
	}
}

// Close releases blocked posters. Queued events are discarded.
func (q *EventQueue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
}
