package events

import "testing"

func TestPublishSubscribe(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventMessageCreated)
	other := bus.Subscribe(EventContentSaved)

	bus.Publish(EventMessageCreated, Payload{"id": "m1"})

	select {
	case p := <-sub:
		if p["id"] != "m1" {
			t.Fatalf("unexpected payload %v", p)
		}
	default:
		t.Fatal("expected payload")
	}

	select {
	case p := <-other:
		t.Fatalf("unexpected delivery to other topic: %v", p)
	default:
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventMessageCreated)
	for i := 0; i < 100; i++ {
		bus.Publish(EventMessageCreated, Payload{"i": i})
	}
	if len(sub) != cap(sub) {
		t.Fatalf("expected full buffer, got %d", len(sub))
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventMessageCreated)
	bus.Unsubscribe(EventMessageCreated, sub)
	bus.Unsubscribe(EventMessageCreated, sub)

	if _, open := <-sub; open {
		t.Fatal("expected closed channel")
	}
	bus.Publish(EventMessageCreated, Payload{})
}
