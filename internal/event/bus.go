package event

import "sync"

// Handler processes one event. Handlers run on the publisher's goroutine;
// anything slow should hand off to its own channel.
type Handler func(Event)

// Bus is a synchronous in-process event bus. Consumers subscribe per event
// type instead of overwriting a single callback slot, so multiple observers
// can watch the same stream.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[Type][]Handler)}
}

// Subscribe registers a handler for a given event type.
// Subscribers are invoked in registration order.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// Publish dispatches an event to all handlers registered for its type.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := b.handlers[e.EventType()]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}
