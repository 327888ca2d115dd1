package event

import (
	"errors"
	"sync"
	"testing"

	"github.com/dshills/docstorm/internal/event/topic"
)

func TestPublishDeliversToMatching(t *testing.T) {
	b := NewBus()
	var got []topic.Topic
	if _, err := b.SubscribeFunc("document.*", func(tp topic.Topic, _ any) error {
		got = append(got, tp)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.SubscribeFunc("config.*", func(tp topic.Topic, _ any) error {
		t.Errorf("config handler received %q", tp)
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if err := b.Publish("document.changed", nil); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "document.changed" {
		t.Errorf("delivered = %v", got)
	}
}

func TestPublishPayload(t *testing.T) {
	b := NewBus()
	var got any
	_, _ = b.SubscribeFunc("document.changed", func(_ topic.Topic, payload any) error {
		got = payload
		return nil
	})
	if err := b.Publish("document.changed", 42); err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Errorf("payload = %v", got)
	}
}

func TestHandlerErrorsJoined(t *testing.T) {
	b := NewBus()
	boom := errors.New("boom")
	var secondRan bool
	_, _ = b.SubscribeFunc("t", func(topic.Topic, any) error { return boom })
	_, _ = b.SubscribeFunc("t", func(topic.Topic, any) error {
		secondRan = true
		return nil
	})

	err := b.Publish("t", nil)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
	if !secondRan {
		t.Error("failing handler blocked later delivery")
	}
}

func TestUnsubscribe(t *testing.T) {
	b := NewBus()
	sub, err := b.SubscribeFunc("t", func(topic.Topic, any) error {
		t.Error("unsubscribed handler ran")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Unsubscribe(sub); err != nil {
		t.Fatal(err)
	}
	if err := b.Unsubscribe(sub); !errors.Is(err, ErrNotSubscribed) {
		t.Errorf("double unsubscribe err = %v", err)
	}
	if err := b.Publish("t", nil); err != nil {
		t.Fatal(err)
	}
	if b.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount = %d", b.SubscriberCount())
	}
}

func TestNilHandlerRejected(t *testing.T) {
	b := NewBus()
	if _, err := b.Subscribe("t", nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("err = %v, want ErrNilHandler", err)
	}
}

func TestStats(t *testing.T) {
	b := NewBus()
	_, _ = b.SubscribeFunc("**", func(topic.Topic, any) error { return nil })
	_ = b.Publish("a", nil)
	_ = b.Publish("b.c", nil)

	s := b.Stats()
	if s.EventsPublished != 2 || s.HandlersExecuted != 2 || s.HandlerErrors != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestConcurrentPublish(t *testing.T) {
	b := NewBus()
	var mu sync.Mutex
	count := 0
	_, _ = b.SubscribeFunc("t", func(topic.Topic, any) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = b.Publish("t", nil)
			}
		}()
	}
	wg.Wait()

	if count != 400 {
		t.Errorf("deliveries = %d, want 400", count)
	}
}
