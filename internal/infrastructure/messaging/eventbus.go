// Package messaging implements the in-memory event bus that carries
// domain events to their subscribers.
package messaging

import (
	"runtime/debug"
	"sync"

	"github.com/language-study/study-hub/internal/domain/shared"
	"github.com/language-study/study-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// Suitable for a single-instance deployment. Delivery is asynchronous
// through a bounded worker pool; a panicking handler is recovered and
// logged so one bad subscriber cannot take the process down.
// ══════════════════════════════════════════════════════════════════════════════

// Handler consumes one event.
type Handler interface {
	Handle(e shared.Event)
}

// Bus implements shared.EventPublisher.
type Bus struct {
	mu          sync.RWMutex
	handlers    map[string][]Handler
	allHandlers []Handler
	workerPool  chan struct{}
	log         *logger.Logger
	closed      bool
	wg          sync.WaitGroup
}

// NewBus creates the bus. workers bounds concurrent deliveries.
func NewBus(workers int, log *logger.Logger) *Bus {
	if workers <= 0 {
		workers = 10
	}
	if log == nil {
		log = logger.Default()
	}
	return &Bus{
		handlers:   make(map[string][]Handler),
		workerPool: make(chan struct{}, workers),
		log:        log.With(logger.Component("event_bus")),
	}
}

// Subscribe registers a handler for one event name.
func (b *Bus) Subscribe(eventName string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], h)
}

// SubscribeAll registers a handler for every event.
func (b *Bus) SubscribeAll(h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allHandlers = append(b.allHandlers, h)
}

// Publish delivers the event to its subscribers asynchronously. Events
// published after Close are dropped.
func (b *Bus) Publish(event shared.Event) {
	if event == nil {
		return
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	handlers := make([]Handler, 0, len(b.handlers[event.EventName()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventName()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			b.workerPool <- struct{}{}
			defer func() { <-b.workerPool }()
			b.deliver(h, event)
		}(h)
	}
}

func (b *Bus) deliver(h Handler, event shared.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				logger.String("event", event.EventName()),
				logger.Any("panic", r),
				logger.String("stack", string(debug.Stack())),
			)
		}
	}()
	h.Handle(event)
}

// Close stops accepting events and waits for in-flight deliveries.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
}
