// Package notify fans notification events out to connected clients. The
// hub is process-local: delivery reaches subscribers on this instance
// only, and clients reconcile through the notification API on reconnect.
package notify

import (
	"sync"

	"github.com/hazelwick/spotless/internal/model"
)

type EventType string

const (
	EventNew    EventType = "new"
	EventUpdate EventType = "update"
	EventBulk   EventType = "bulk"
)

// Event is what subscribers receive. Notification is set for new/update
// events; bulk events (mark-all-read) carry only the type and the client
// refetches.
type Event struct {
	Type         EventType           `json:"type"`
	Notification *model.Notification `json:"notification,omitempty"`
}

// Hub is the per-user subscriber registry. Publish is synchronous and
// drops events with no listeners; it is an optimization over the pull
// API, not a delivery guarantee.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int64]map[int64]func(Event)
	nextID int64
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[int64]map[int64]func(Event)),
	}
}

// Subscribe registers a listener for a user's events and returns the
// unsubscribe function. Callers must invoke it on every exit path; the
// registry only shrinks through it.
func (h *Hub) Subscribe(userID int64, fn func(Event)) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	listeners, ok := h.subs[userID]
	if !ok {
		listeners = make(map[int64]func(Event))
		h.subs[userID] = listeners
	}
	listeners[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			if listeners, ok := h.subs[userID]; ok {
				delete(listeners, id)
				if len(listeners) == 0 {
					delete(h.subs, userID)
				}
			}
			h.mu.Unlock()
		})
	}
}

// Publish delivers an event to every current subscriber for the user.
func (h *Hub) Publish(userID int64, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, fn := range h.subs[userID] {
		fn(ev)
	}
}

// Subscribers returns the number of active listeners for a user.
func (h *Hub) Subscribers(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
