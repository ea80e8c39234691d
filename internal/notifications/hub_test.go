package notifications

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestHubPublishSubscribe проверяет доставку событий подписчику.
func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	defer unsubscribe()

	hub.Publish(userID, Event{Type: EventExpensePending})

	select {
	case event := <-ch:
		if event.Type != EventExpensePending {
			t.Fatalf("expected event type %s, got %s", EventExpensePending, event.Type)
		}
		if event.Timestamp.IsZero() {
			t.Fatal("expected timestamp to be set")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected event to be delivered")
	}
}

// TestHubUnsubscribe проверяет закрытие канала после отписки.
func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed")
	}
}

// TestHubBroadcastSkipsActor: инициатор не получает собственное событие.
func TestHubBroadcastSkipsActor(t *testing.T) {
	hub := NewHub()
	actor := uuid.New()
	partner := uuid.New()

	actorCh, actorUnsub := hub.Subscribe(actor)
	defer actorUnsub()
	partnerCh, partnerUnsub := hub.Subscribe(partner)
	defer partnerUnsub()

	hub.Broadcast(actor, Event{Type: EventExpensePending})

	select {
	case event := <-partnerCh:
		if event.Type != EventExpensePending {
			t.Fatalf("unexpected event type %s", event.Type)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected partner to receive the event")
	}

	select {
	case event := <-actorCh:
		t.Fatalf("actor should not receive own event, got %s", event.Type)
	default:
	}
}
