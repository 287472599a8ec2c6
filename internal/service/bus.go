package service

import (
	"strconv"
	"sync"
	"sync/atomic"
)

// Resource and action names carried by events.
const (
	ResourceBuildings = "buildings"
	ActionCreated     = "created"
)

// subscriberBuffer is how many events a stream may fall behind before it
// starts missing them.
const subscriberBuffer = 16

// Event announces a saved record to open picker streams.
type Event struct {
	Resource string
	Action   string
	ID       string
}

// BuildingCreated is the event published after a successful save.
func BuildingCreated(id int64) Event {
	return Event{Resource: ResourceBuildings, Action: ActionCreated, ID: strconv.FormatInt(id, 10)}
}

// EventBus fans events out to subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the event.
type EventBus struct {
	mu      sync.RWMutex
	subs    map[chan Event]struct{}
	dropped atomic.Int64
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]struct{})}
}

// Publish delivers e and returns how many subscribers received it.
func (b *EventBus) Publish(e Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	delivered := 0
	for ch := range b.subs {
		select {
		case ch <- e:
			delivered++
		default:
			b.dropped.Add(1)
		}
	}
	return delivered
}

// Subscribe returns a buffered channel of future events.
func (b *EventBus) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe closes ch. Calling it twice is harmless.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; !ok {
		return
	}
	delete(b.subs, ch)
	close(ch)
}

// Dropped counts deliveries skipped because a subscriber was full.
func (b *EventBus) Dropped() int64 {
	return b.dropped.Load()
}
