package events

import (
	"context"
	"errors"
	"sync"

	"github.com/spec-kit/compliance-service/internal/domain"
)

// Wildcard subscribes a handler to every event name.
const Wildcard = "*"

// EventHandler handles a committed domain event.
type EventHandler func(context.Context, domain.DomainEvent) error

// Dispatcher fans committed events out to subscribers. Events are already durable in the
// event store when published; handlers only propagate them.
type Dispatcher interface {
	Publish(ctx context.Context, event domain.DomainEvent) error
	Subscribe(name string, handler EventHandler)
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[string][]EventHandler
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[string][]EventHandler),
	}
}

// Publish invokes every matching handler and joins their errors.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event domain.DomainEvent) error {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Name]...)
	handlers = append(handlers, d.listeners[Wildcard]...)
	d.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for an event name, or Wildcard for all.
func (d *inMemoryDispatcher) Subscribe(name string, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[name] = append(d.listeners[name], handler)
}
