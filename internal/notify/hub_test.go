package notify

import (
	"sync"
	"testing"

	"github.com/hazelwick/spotless/internal/model"
)

func TestHubFanOut(t *testing.T) {
	hub := NewHub()

	var mu sync.Mutex
	var got []string
	sub := func(name string) func(Event) {
		return func(ev Event) {
			mu.Lock()
			got = append(got, name+":"+string(ev.Type))
			mu.Unlock()
		}
	}

	unsubA := hub.Subscribe(1, sub("a"))
	defer unsubA()
	unsubB := hub.Subscribe(1, sub("b"))
	defer unsubB()
	unsubC := hub.Subscribe(2, sub("c"))
	defer unsubC()

	hub.Publish(1, Event{Type: EventNew, Notification: &model.Notification{ID: 7}})

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("deliveries = %d, want 2", len(got))
	}
	for _, g := range got {
		if g != "a:new" && g != "b:new" {
			t.Errorf("unexpected delivery %q", g)
		}
	}
}

func TestHubPublishWithNoSubscribersIsDropped(t *testing.T) {
	hub := NewHub()
	// Must not panic or block.
	hub.Publish(42, Event{Type: EventBulk})
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()

	calls := 0
	unsub := hub.Subscribe(1, func(Event) { calls++ })
	if hub.Subscribers(1) != 1 {
		t.Fatalf("subscribers = %d, want 1", hub.Subscribers(1))
	}

	unsub()
	if hub.Subscribers(1) != 0 {
		t.Errorf("subscribers = %d, want 0 after unsubscribe", hub.Subscribers(1))
	}

	hub.Publish(1, Event{Type: EventNew})
	if calls != 0 {
		t.Errorf("unsubscribed listener received %d events", calls)
	}

	// Double unsubscribe is safe and must not disturb later subscribers.
	replacement := hub.Subscribe(1, func(Event) {})
	defer replacement()
	unsub()
	if hub.Subscribers(1) != 1 {
		t.Errorf("subscribers = %d, want 1 after stale unsubscribe", hub.Subscribers(1))
	}
}

func TestHubConcurrentPublishAndSubscribe(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		userID := int64(i % 3)
		go func() {
			defer wg.Done()
			unsub := hub.Subscribe(userID, func(Event) {})
			unsub()
		}()
		go func() {
			defer wg.Done()
			hub.Publish(userID, Event{Type: EventUpdate})
		}()
	}
	wg.Wait()
}
