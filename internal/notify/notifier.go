package notify

import (
	"log/slog"

	"github.com/hazelwick/spotless/internal/model"
	"github.com/hazelwick/spotless/internal/push"
	"github.com/hazelwick/spotless/internal/store"
)

// Notifier persists a notification, then fans it out over the in-process
// hub and, when configured, web push. Hub and push delivery are best
// effort; the stored row is the source of truth.
type Notifier struct {
	notifications *store.NotificationStore
	pushSubs      *store.PushStore
	hub           *Hub
	pushSvc       *push.Service
	logger        *slog.Logger
}

func NewNotifier(notifications *store.NotificationStore, pushSubs *store.PushStore, hub *Hub, pushSvc *push.Service, logger *slog.Logger) *Notifier {
	return &Notifier{
		notifications: notifications,
		pushSubs:      pushSubs,
		hub:           hub,
		pushSvc:       pushSvc,
		logger:        logger,
	}
}

// Hub exposes the underlying hub for the stream transport.
func (n *Notifier) Hub() *Hub {
	return n.hub
}

// Notify creates a notification row and delivers it.
func (n *Notifier) Notify(userID int64, kind, title, body string) (*model.Notification, error) {
	row, err := n.notifications.Create(userID, kind, title, body)
	if err != nil {
		return nil, err
	}

	n.hub.Publish(userID, Event{Type: EventNew, Notification: row})
	n.sendPush(userID, title, body)
	return row, nil
}

// PublishUpdate announces a single changed notification (e.g. mark-read).
func (n *Notifier) PublishUpdate(userID int64, row *model.Notification) {
	n.hub.Publish(userID, Event{Type: EventUpdate, Notification: row})
}

// PublishBulk announces a bulk change; clients refetch.
func (n *Notifier) PublishBulk(userID int64) {
	n.hub.Publish(userID, Event{Type: EventBulk})
}

func (n *Notifier) sendPush(userID int64, title, body string) {
	if n.pushSvc == nil {
		return
	}
	subs, err := n.pushSubs.ListByUser(userID)
	if err != nil {
		n.logger.Error("list push subscriptions", "error", err)
		return
	}
	for i := range subs {
		sub := subs[i]
		go func() {
			err := n.pushSvc.Send(&sub, push.Payload{Title: title, Body: body})
			if err == push.ErrExpired {
				if err := n.pushSubs.DeleteByEndpoint(sub.Endpoint); err != nil {
					n.logger.Error("prune expired push subscription", "error", err)
				}
				return
			}
			if err != nil {
				n.logger.Error("send push", "error", err)
			}
		}()
	}
}
