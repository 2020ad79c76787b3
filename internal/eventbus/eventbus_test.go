package eventbus

import "testing"

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Publish("hello")
	v := <-ch
	if v != "hello" {
		t.Fatalf("expected hello got %v", v)
	}
	bus.Unsubscribe(ch)
}

func TestBusClose(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
}

func TestBusUnsubscribeAfterClose(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}

func TestFilteredNarrowsByType(t *testing.T) {
	bus := New()
	strs, cancel := Filtered[string](bus)
	defer cancel()
	bus.Publish(41)
	bus.Publish("done")
	if v := <-strs; v != "done" {
		t.Fatalf("expected done got %v", v)
	}
}

func TestFilteredCancelClosesChannel(t *testing.T) {
	bus := New()
	strs, cancel := Filtered[string](bus)
	cancel()
	if _, ok := <-strs; ok {
		t.Fatalf("expected channel closed after cancel")
	}
}

func TestBusPublishDoesNotBlock(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	for i := 0; i < 20; i++ {
		bus.Publish(i)
	}
	// The subscriber buffer holds 8 events; the rest are dropped silently.
	if len(ch) != 8 {
		t.Fatalf("expected a full buffer, got %d", len(ch))
	}
	bus.Close()
}
