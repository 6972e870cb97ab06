package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	defer b.Close(context.Background())

	var mu sync.Mutex
	var got []Event
	done := make(chan struct{})

	b.Subscribe(EventTypeApply, func(ev Event) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
		close(done)
	})

	b.Publish(Event{Type: EventTypeApply, Data: map[string]interface{}{"fixture_id": "w1"}})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].Data["fixture_id"] != "w1" {
		t.Errorf("got = %+v", got)
	}
}

func TestPublishUnsubscribedTypeIsDropped(t *testing.T) {
	b := New()
	defer b.Close(context.Background())

	// No handler registered; must not block or panic.
	b.Publish(Event{Type: EventTypeTelemetry})
}

func TestMultipleHandlers(t *testing.T) {
	b := NewWithConfig(2, 10)
	defer b.Close(context.Background())

	var wg sync.WaitGroup
	wg.Add(2)
	b.Subscribe(EventTypeRaveStart, func(Event) { wg.Done() })
	b.Subscribe(EventTypeRaveStart, func(Event) { wg.Done() })

	b.Publish(Event{Type: EventTypeRaveStart})

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not all handlers fired")
	}
}

func TestHandlerPanicIsContained(t *testing.T) {
	b := NewWithConfig(1, 10)
	defer b.Close(context.Background())

	fired := make(chan struct{})
	b.Subscribe(EventTypeRaveStop, func(Event) { panic("boom") })
	b.Subscribe(EventTypeRaveStop, func(Event) { close(fired) })

	b.Publish(Event{Type: EventTypeRaveStop})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("panic in one handler starved the others")
	}
}

func TestCloseDropsLatePublishes(t *testing.T) {
	b := New()
	b.Subscribe(EventTypeApply, func(Event) {})
	b.Close(context.Background())

	// Publishing after close must not panic.
	b.Publish(Event{Type: EventTypeApply})
}
