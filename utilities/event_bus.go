package utilities

import "sync"

type EventHandler func(interface{})

// Event names published on the bus.
const (
	EventSessionCompleted = "session_completed"
)

type EventBus struct {
	handlers map[string][]EventHandler
	mu       sync.RWMutex
	inflight sync.WaitGroup
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[string][]EventHandler),
	}
}

func (eb *EventBus) Subscribe(event string, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.handlers[event] = append(eb.handlers[event], handler)
}

// Publish runs every handler for event on its own goroutine and returns at once.
// A panicking handler is contained so it cannot take the publisher down.
func (eb *EventBus) Publish(event string, data interface{}) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if handlers, found := eb.handlers[event]; found {
		for _, handler := range handlers {
			eb.inflight.Add(1)
			go func(h EventHandler) {
				defer eb.inflight.Done()
				defer func() {
					if r := recover(); r != nil {
						Error("event handler for %s panicked: %v", event, r)
					}
				}()
				h(data)
			}(handler)
		}
	}
}

// Wait blocks until every handler started so far has returned.
func (eb *EventBus) Wait() {
	eb.inflight.Wait()
}

// Global instance
var GlobalEventBus = NewEventBus()
