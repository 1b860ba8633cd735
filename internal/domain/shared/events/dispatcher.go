package events

import (
	"fmt"
	"sync"
)

// Dispatcher delivers events to subscribed handlers synchronously, in
// the order they were published. It implements EventPublisher.
//
// Delivery happens on the publishing goroutine, so handlers run inside
// the same transaction scope as the use case that emitted the event.
// Handlers must therefore be quick and must not call back into the
// publishing use case.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	catchAll []Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]Handler)}
}

// Subscribe registers handler for the given event type. An empty
// eventType subscribes to every event.
func (d *Dispatcher) Subscribe(eventType string, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("event handler cannot be nil")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if eventType == "" {
		d.catchAll = append(d.catchAll, handler)
		return nil
	}
	d.handlers[eventType] = append(d.handlers[eventType], handler)
	return nil
}

// Publish delivers event to all matching handlers. The first handler
// error stops delivery and is returned to the publisher.
func (d *Dispatcher) Publish(event DomainEvent) error {
	if event == nil {
		return nil
	}

	d.mu.RLock()
	handlers := make([]Handler, 0, len(d.catchAll)+len(d.handlers[event.GetEventType()]))
	handlers = append(handlers, d.handlers[event.GetEventType()]...)
	handlers = append(handlers, d.catchAll...)
	d.mu.RUnlock()

	for _, h := range handlers {
		if err := h(event); err != nil {
			return fmt.Errorf("handle %s: %w", event.GetEventType(), err)
		}
	}
	return nil
}

// PublishAll delivers events in order, stopping at the first error.
func (d *Dispatcher) PublishAll(events []DomainEvent) error {
	for _, event := range events {
		if err := d.Publish(event); err != nil {
			return err
		}
	}
	return nil
}
