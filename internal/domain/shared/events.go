package shared

import (
	"sync"
	"time"
)

// DomainEvent represents an event that has occurred in the domain
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// EventHandler handles domain events
type EventHandler func(event DomainEvent)

// Dispatcher fans domain events out to in-process subscribers.
// Handlers run synchronously on the publishing goroutine and must not block.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []EventHandler
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers a handler for every event
func (d *Dispatcher) Subscribe(handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, handler)
}

// Publish delivers the events to all handlers in registration order
func (d *Dispatcher) Publish(events ...DomainEvent) {
	d.mu.RLock()
	handlers := make([]EventHandler, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.RUnlock()

	for _, event := range events {
		if event == nil {
			continue
		}
		for _, h := range handlers {
			h(event)
		}
	}
}
