package events

import (
	"log/slog"
	"sync"
)

// DefaultEventBufferSize is the default buffer size for the event channel.
const DefaultEventBufferSize = 100

// Bus carries node events from the control connection to the single
// consumer. One channel for every event type keeps per-guild emission
// order intact end to end.
type Bus struct {
	events chan NodeEvent

	closed bool
	mu     sync.RWMutex
}

// NewBus creates a new Bus with the given buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}
	return &Bus{
		events: make(chan NodeEvent, bufferSize),
	}
}

// Publish enqueues an event for the consumer.
// Non-blocking: if the buffer is full, the event is dropped with a warning.
func (b *Bus) Publish(event NodeEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "event", eventName(event))
		return
	}

	select {
	case b.events <- event:
		slog.Debug("published node event", "event", eventName(event))
	default:
		slog.Warn("event buffer full, dropping node event", "event", eventName(event))
	}
}

// Events returns the consumer's channel.
func (b *Bus) Events() <-chan NodeEvent {
	return b.events
}

// Close closes the event channel. After calling Close, publishing will no
// longer send events.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.events)

	slog.Debug("event bus closed")
}

func eventName(event NodeEvent) string {
	switch event.(type) {
	case ReadyEvent:
		return "Ready"
	case TrackEndedEvent:
		return "TrackEnded"
	case ProgressEvent:
		return "Progress"
	default:
		return "Unknown"
	}
}
