package event

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/docstorm/internal/event/topic"
)

// Handler receives published events.
type Handler interface {
	Handle(tp topic.Topic, payload any) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(tp topic.Topic, payload any) error

// Handle calls the function.
func (f HandlerFunc) Handle(tp topic.Topic, payload any) error {
	return f(tp, payload)
}

// Subscription identifies a registered handler.
type Subscription uint64

// Stats reports bus activity counters.
type Stats struct {
	EventsPublished  uint64
	HandlersExecuted uint64
	HandlerErrors    uint64
}

// Bus is a synchronous publish/subscribe bus. Delivery happens on the
// publishing goroutine in subscription order. Safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	nextID Subscription
	subs   []subscriber
	stats  Stats
}

type subscriber struct {
	id      Subscription
	pattern topic.Topic
	handler Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for every topic matching pattern.
func (b *Bus) Subscribe(pattern topic.Topic, h Handler) (Subscription, error) {
	if h == nil {
		return 0, ErrNilHandler
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subs = append(b.subs, subscriber{id: b.nextID, pattern: pattern, handler: h})
	return b.nextID, nil
}

// SubscribeFunc registers a function handler for every topic matching
// pattern.
func (b *Bus) SubscribeFunc(pattern topic.Topic, fn HandlerFunc) (Subscription, error) {
	if fn == nil {
		return 0, ErrNilHandler
	}
	return b.Subscribe(pattern, fn)
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(sub Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return nil
		}
	}
	return ErrNotSubscribed
}

// Publish delivers payload under tp to every matching handler and returns
// their joined errors. A failing handler does not stop delivery.
func (b *Bus) Publish(tp topic.Topic, payload any) error {
	b.mu.RLock()
	matched := make([]subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		if s.pattern.Matches(tp) {
			matched = append(matched, s)
		}
	}
	b.mu.RUnlock()

	var errs []error
	for _, s := range matched {
		if err := s.handler.Handle(tp, payload); err != nil {
			errs = append(errs, fmt.Errorf("handler for %q: %w", s.pattern, err))
		}
	}

	b.mu.Lock()
	b.stats.EventsPublished++
	b.stats.HandlersExecuted += uint64(len(matched))
	b.stats.HandlerErrors += uint64(len(errs))
	b.mu.Unlock()

	return errors.Join(errs...)
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stats
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
