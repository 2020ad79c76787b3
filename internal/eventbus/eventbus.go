// Package eventbus fans engine events out to in-process subscribers. The
// engine publishes run, conflict, resolution and simulation records on one
// untyped bus; consumers interested in a single kind narrow their
// subscription with Filtered.
package eventbus

import "sync"

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls behind by more than this loses events instead of stalling the
// publisher.
const subscriberBuffer = 8

// Event is any record published by the engine.
type Event interface{}

// EventBus is the publish/subscribe contract the engine fans out on.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus is the channel-based EventBus used by the service wiring.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	closed bool
}

// New creates an empty bus with no subscribers.
func New() *Bus { return &Bus{} }

// Publish delivers the event to every subscriber without blocking. A
// subscriber with a full buffer misses the event.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a subscriber and returns its receive channel.
// Subscribing to a closed bus yields an already closed channel.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close drops all subscribers and closes their channels. Publishing on a
// closed bus is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.mu.Unlock()
}
