package events

import (
	"testing"
	"time"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()
	a, cancelA := bus.Subscribe(4)
	defer cancelA()
	b, cancelB := bus.Subscribe(4)
	defer cancelB()

	bus.Publish(Event{Kind: Created, Entity: TransactionEntity, ID: "t1"})

	for _, ch := range []<-chan Event{a, b} {
		select {
		case e := <-ch:
			if e.ID != "t1" || e.At.IsZero() {
				t.Fatalf("unexpected event %+v", e)
			}
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)
	defer cancel()

	bus.Publish(Event{ID: "first"})
	bus.Publish(Event{ID: "second"})

	if e := <-ch; e.ID != "first" {
		t.Fatalf("expected first event, got %q", e.ID)
	}
	select {
	case e := <-ch:
		t.Fatalf("expected the second event to be dropped, got %+v", e)
	default:
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel")
	}
	if n := bus.Subscribers(); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
	bus.Publish(Event{ID: "after cancel"})
}
