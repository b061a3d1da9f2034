package handler

import (
	"log/slog"
	"net/http"

	"github.com/hazelwick/spotless/internal/auth"
	"github.com/hazelwick/spotless/internal/notify"
	"github.com/hazelwick/spotless/internal/push"
	"github.com/hazelwick/spotless/internal/store"
)

type NotificationHandler struct {
	notifications *store.NotificationStore
	pushSubs      *store.PushStore
	notifier      *notify.Notifier
	pushSvc       *push.Service
	logger        *slog.Logger
}

func NewNotificationHandler(notifications *store.NotificationStore, pushSubs *store.PushStore, notifier *notify.Notifier, pushSvc *push.Service, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		pushSubs:      pushSubs,
		notifier:      notifier,
		pushSvc:       pushSvc,
		logger:        logger,
	}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	f := store.NotificationFilter{UnreadOnly: r.URL.Query().Get("unread") == "true"}
	page, err := h.notifications.ListByUser(auth.UserID(r.Context()), f, pageRequest(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.CountUnread(auth.UserID(r.Context()))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondValidation(w, h.logger, "invalid id")
		return
	}
	userID := auth.UserID(r.Context())

	existing, err := h.notifications.GetByID(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if existing == nil || existing.UserID != userID {
		respondJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}

	n, err := h.notifications.MarkRead(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.notifier.PublishUpdate(userID, n)
	respondJSON(w, http.StatusOK, n)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	n, err := h.notifications.MarkAllRead(userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if n > 0 {
		h.notifier.PublishBulk(userID)
	}
	respondJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

func (h *NotificationHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	n, err := h.notifications.DeleteAllForUser(userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if n > 0 {
		h.notifier.PublishBulk(userID)
	}
	respondJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// VAPIDKey hands the browser the public key it needs to subscribe.
func (h *NotificationHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	key := h.pushSvc.VAPIDPublicKey()
	if key == "" {
		respondJSON(w, http.StatusNotFound, errorBody{Error: "push not configured"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"key": key})
}

type pushSubscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req pushSubscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		respondValidation(w, h.logger, "endpoint and keys are required")
		return
	}
	sub, err := h.pushSubs.Upsert(auth.UserID(r.Context()), req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, sub)
}

type pushUnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (h *NotificationHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req pushUnsubscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.Endpoint == "" {
		respondValidation(w, h.logger, "endpoint is required")
		return
	}
	if err := h.pushSubs.DeleteByEndpoint(req.Endpoint); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
