package events

import (
	"sync"
	"sync/atomic"
)

// Event is a generic type placeholder for any event type
type Event any

// Subscriber is a channel that transports events of type T
type Subscriber[T Event] chan T

// EventBus fans submission progress out to every subscriber. Publish never
// blocks: a subscriber whose buffer is full misses the event.
type EventBus[T Event] struct {
	subscribers map[Subscriber[T]]struct{}
	mutex       sync.RWMutex
	bufferSize  int
	dropped     atomic.Uint64
	closed      bool
}

func NewEventBus[T Event]() *EventBus[T] {
	return &EventBus[T]{
		subscribers: make(map[Subscriber[T]]struct{}),
		bufferSize:  100,
	}
}

func (bus *EventBus[T]) Subscribe() Subscriber[T] {
	ch := make(Subscriber[T], bus.bufferSize)
	bus.mutex.Lock()
	defer bus.mutex.Unlock()

	if bus.closed {
		close(ch)
		return ch
	}
	bus.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes ch and closes it. It is safe to call after Close.
func (bus *EventBus[T]) Unsubscribe(ch Subscriber[T]) {
	bus.mutex.Lock()
	defer bus.mutex.Unlock()

	if _, ok := bus.subscribers[ch]; ok {
		delete(bus.subscribers, ch)
		close(ch)
	}
}

// Publish broadcasts an event of type T to all registered subscribers
func (bus *EventBus[T]) Publish(event T) {
	bus.mutex.RLock()
	defer bus.mutex.RUnlock()

	for subscriber := range bus.subscribers {
		select {
		case subscriber <- event:
		default:
			bus.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of registered subscribers
func (bus *EventBus[T]) Subscribers() int {
	bus.mutex.RLock()
	defer bus.mutex.RUnlock()
	return len(bus.subscribers)
}

// Dropped returns how many deliveries were skipped because a subscriber was full
func (bus *EventBus[T]) Dropped() uint64 {
	return bus.dropped.Load()
}

// Close closes every subscriber channel. Later subscribers receive a closed channel.
func (bus *EventBus[T]) Close() {
	bus.mutex.Lock()
	defer bus.mutex.Unlock()

	if bus.closed {
		return
	}
	bus.closed = true
	for ch := range bus.subscribers {
		delete(bus.subscribers, ch)
		close(ch)
	}
}
