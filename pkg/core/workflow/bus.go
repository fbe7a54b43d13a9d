// Package workflow provides lightweight automation: a fire-and-forget
// event bus and a next-run scheduler for recurring jobs.
package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one published notification. Payload is advisory; subscribers
// get the same map, so they must not mutate it.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Published time.Time              `json:"published"`
}

// Handler consumes one event. Handlers run synchronously on the
// publisher's goroutine; a slow handler slows the publisher, a panicking
// handler is the handler's own bug.
type Handler func(Event)

// Bus is an in-process pub/sub with no delivery guarantee, no retry, and
// no cross-subscriber ordering guarantee beyond registration order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(eventType string, h Handler) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
	b.mu.Unlock()
}

// Publish fans an event out to every subscriber of its type, in
// registration order. Returns the assigned event id.
func (b *Bus) Publish(eventType string, payload map[string]interface{}) string {
	ev := Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Payload:   payload,
		Published: time.Now().UTC(),
	}
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[eventType]...)
	b.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
	return ev.ID
}
