// Package server wires the stores, handlers and middleware into the HTTP API.
package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/hazelwick/spotless/internal/email"
	"github.com/hazelwick/spotless/internal/handler"
	"github.com/hazelwick/spotless/internal/middleware"
	"github.com/hazelwick/spotless/internal/notify"
	"github.com/hazelwick/spotless/internal/push"
	"github.com/hazelwick/spotless/internal/store"
)

type Server struct {
	logger  *slog.Logger
	limiter *middleware.RateLimiter

	sessions       *store.SessionStore
	portalSessions *store.PortalSessionStore
	magicLinks     *store.MagicLinkStore

	handler http.Handler
}

func New(sqlDB *sql.DB, emailClient *email.Client, pushSvc *push.Service, logger *slog.Logger) *Server {
	db := store.NewDB(sqlDB)

	users := store.NewUserStore(db)
	customers := store.NewCustomerStore(db)
	properties := store.NewPropertyStore(db)
	services := store.NewServiceStore(db)
	bookings := store.NewBookingStore(db)
	summaries := store.NewBookingSummaryStore(db)
	leads := store.NewLeadStore(db)
	notifications := store.NewNotificationStore(db)
	pushSubs := store.NewPushStore(db)
	sessions := store.NewSessionStore(db)
	portalSessions := store.NewPortalSessionStore(db)
	magicLinks := store.NewMagicLinkStore(db)

	hub := notify.NewHub()
	notifier := notify.NewNotifier(notifications, pushSubs, hub, pushSvc, logger)

	authH := handler.NewAuthHandler(users, sessions, logger)
	portalH := handler.NewPortalHandler(customers, properties, bookings, magicLinks, portalSessions, emailClient, logger)
	customerH := handler.NewCustomerHandler(customers, bookings, logger)
	propertyH := handler.NewPropertyHandler(properties, logger)
	serviceH := handler.NewServiceHandler(services, logger)
	bookingH := handler.NewBookingHandler(bookings, summaries, notifier, logger)
	leadH := handler.NewLeadHandler(leads, logger)
	notificationH := handler.NewNotificationHandler(notifications, pushSubs, notifier, pushSvc, logger)
	userH := handler.NewUserHandler(users, sessions, logger)

	s := &Server{
		logger:         logger,
		limiter:        middleware.NewRateLimiter(),
		sessions:       sessions,
		portalSessions: portalSessions,
		magicLinks:     magicLinks,
	}

	requireAuth := middleware.RequireAuth(sessions, users)
	requirePortal := middleware.RequirePortal(portalSessions)
	publicLimit := middleware.RateLimit(s.limiter, middleware.RealIP, 10, time.Minute)

	authed := func(h http.HandlerFunc) http.Handler { return requireAuth(h) }
	adminOnly := func(h http.HandlerFunc) http.Handler { return requireAuth(middleware.RequireAdmin(h)) }
	portal := func(h http.HandlerFunc) http.Handler { return requirePortal(h) }

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Public surface, rate limited by client IP.
	mux.Handle("POST /api/auth/login", publicLimit(http.HandlerFunc(authH.Login)))
	mux.Handle("POST /api/leads", publicLimit(http.HandlerFunc(leadH.Create)))
	mux.Handle("GET /api/services/public", publicLimit(http.HandlerFunc(serviceH.ListPublic)))
	mux.Handle("POST /api/portal/request-link", publicLimit(http.HandlerFunc(portalH.RequestLink)))
	mux.Handle("GET /api/portal/verify", publicLimit(http.HandlerFunc(portalH.Verify)))

	// Staff panel.
	mux.Handle("POST /api/auth/logout", authed(authH.Logout))
	mux.Handle("POST /api/auth/logout-all", authed(authH.LogoutAll))
	mux.Handle("GET /api/auth/me", authed(authH.Me))
	mux.Handle("POST /api/auth/password", authed(authH.ChangePassword))

	mux.Handle("GET /api/customers", authed(customerH.List))
	mux.Handle("POST /api/customers", authed(customerH.Create))
	mux.Handle("GET /api/customers/{id}", authed(customerH.Get))
	mux.Handle("PUT /api/customers/{id}", authed(customerH.Update))
	mux.Handle("DELETE /api/customers/{id}", authed(customerH.Delete))
	mux.Handle("POST /api/customers/{id}/restore", authed(customerH.Restore))

	mux.Handle("GET /api/properties", authed(propertyH.List))
	mux.Handle("POST /api/properties", authed(propertyH.Create))
	mux.Handle("GET /api/properties/{id}", authed(propertyH.Get))
	mux.Handle("PUT /api/properties/{id}", authed(propertyH.Update))
	mux.Handle("DELETE /api/properties/{id}", authed(propertyH.Delete))
	mux.Handle("POST /api/properties/{id}/restore", authed(propertyH.Restore))

	mux.Handle("GET /api/services", authed(serviceH.List))
	mux.Handle("POST /api/services", authed(serviceH.Create))
	mux.Handle("GET /api/services/{id}", authed(serviceH.Get))
	mux.Handle("PUT /api/services/{id}", authed(serviceH.Update))
	mux.Handle("DELETE /api/services/{id}", authed(serviceH.Delete))
	mux.Handle("POST /api/services/{id}/restore", authed(serviceH.Restore))

	mux.Handle("GET /api/bookings", authed(bookingH.List))
	mux.Handle("POST /api/bookings", authed(bookingH.Create))
	mux.Handle("GET /api/bookings/count", authed(bookingH.Count))
	mux.Handle("GET /api/bookings/{id}", authed(bookingH.Get))
	mux.Handle("PUT /api/bookings/{id}", authed(bookingH.Update))
	mux.Handle("DELETE /api/bookings/{id}", authed(bookingH.Delete))
	mux.Handle("POST /api/bookings/{id}/status", authed(bookingH.UpdateStatus))
	mux.Handle("POST /api/bookings/{id}/restore", authed(bookingH.Restore))
	mux.Handle("GET /api/bookings/{id}/summary", authed(bookingH.GetSummary))
	mux.Handle("PUT /api/bookings/{id}/summary", authed(bookingH.PutSummary))

	mux.Handle("GET /api/leads", authed(leadH.List))
	mux.Handle("GET /api/leads/{id}", authed(leadH.Get))
	mux.Handle("POST /api/leads/{id}/status", authed(leadH.UpdateStatus))
	mux.Handle("DELETE /api/leads/{id}", authed(leadH.Delete))
	mux.Handle("POST /api/leads/{id}/restore", authed(leadH.Restore))

	mux.Handle("GET /api/notifications", authed(notificationH.List))
	mux.Handle("GET /api/notifications/unread-count", authed(notificationH.UnreadCount))
	mux.Handle("POST /api/notifications/{id}/read", authed(notificationH.MarkRead))
	mux.Handle("POST /api/notifications/read-all", authed(notificationH.MarkAllRead))
	mux.Handle("DELETE /api/notifications", authed(notificationH.DeleteAll))
	mux.Handle("GET /api/notifications/stream", authed(notify.HandleStream(hub, logger)))

	mux.Handle("GET /api/push/vapid-key", authed(notificationH.VAPIDKey))
	mux.Handle("POST /api/push/subscribe", authed(notificationH.Subscribe))
	mux.Handle("POST /api/push/unsubscribe", authed(notificationH.Unsubscribe))

	// Staff management is admin only.
	mux.Handle("GET /api/users", adminOnly(userH.List))
	mux.Handle("POST /api/users", adminOnly(userH.Create))
	mux.Handle("GET /api/users/{id}", adminOnly(userH.Get))
	mux.Handle("PUT /api/users/{id}", adminOnly(userH.Update))
	mux.Handle("DELETE /api/users/{id}", adminOnly(userH.Delete))
	mux.Handle("POST /api/users/{id}/restore", adminOnly(userH.Restore))

	// Customer portal.
	mux.Handle("GET /api/portal/me", portal(portalH.Me))
	mux.Handle("GET /api/portal/bookings", portal(portalH.Bookings))
	mux.Handle("POST /api/portal/logout", portal(portalH.Logout))

	s.handler = middleware.RequestLogger(logger)(mux)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// RunHygiene clears dead token rows and stale rate-limit entries. The
// entrypoint calls it on a timer.
func (s *Server) RunHygiene() {
	if n, err := s.sessions.DeleteExpired(); err != nil {
		s.logger.Error("delete expired sessions", "error", err)
	} else if n > 0 {
		s.logger.Info("deleted expired sessions", "count", n)
	}
	if n, err := s.portalSessions.DeleteExpired(); err != nil {
		s.logger.Error("delete expired portal sessions", "error", err)
	} else if n > 0 {
		s.logger.Info("deleted expired portal sessions", "count", n)
	}
	if n, err := s.magicLinks.DeleteExpired(); err != nil {
		s.logger.Error("delete expired magic link tokens", "error", err)
	} else if n > 0 {
		s.logger.Info("deleted expired magic link tokens", "count", n)
	}
	s.limiter.Cleanup()
}
