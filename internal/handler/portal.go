package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hazelwick/spotless/internal/auth"
	"github.com/hazelwick/spotless/internal/email"
	"github.com/hazelwick/spotless/internal/middleware"
	"github.com/hazelwick/spotless/internal/model"
	"github.com/hazelwick/spotless/internal/store"
)

// PortalHandler drives the magic-link flow and the customer-facing reads.
type PortalHandler struct {
	customers      *store.CustomerStore
	properties     *store.PropertyStore
	bookings       *store.BookingStore
	magicLinks     *store.MagicLinkStore
	portalSessions *store.PortalSessionStore
	email          *email.Client
	logger         *slog.Logger
}

func NewPortalHandler(
	customers *store.CustomerStore,
	properties *store.PropertyStore,
	bookings *store.BookingStore,
	magicLinks *store.MagicLinkStore,
	portalSessions *store.PortalSessionStore,
	emailClient *email.Client,
	logger *slog.Logger,
) *PortalHandler {
	return &PortalHandler{
		customers:      customers,
		properties:     properties,
		bookings:       bookings,
		magicLinks:     magicLinks,
		portalSessions: portalSessions,
		email:          emailClient,
		logger:         logger,
	}
}

type requestLinkRequest struct {
	Email string `json:"email"`
}

// RequestLink issues a magic link for a known customer email. The
// response is 202 either way so the endpoint cannot be used to probe
// which emails exist.
func (h *PortalHandler) RequestLink(w http.ResponseWriter, r *http.Request) {
	var req requestLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.Email == "" {
		respondValidation(w, h.logger, "email is required")
		return
	}

	customer, err := h.customers.GetByEmail(req.Email)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if customer == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if _, err := h.magicLinks.InvalidateExpiredForEmail(customer.Email); err != nil {
		respondError(w, h.logger, err)
		return
	}

	raw, hash, err := auth.NewToken()
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if _, err := h.magicLinks.Create(customer.Email, hash, time.Now().UTC().Add(store.MagicLinkTTL)); err != nil {
		respondError(w, h.logger, err)
		return
	}

	if err := h.email.SendMagicLink(customer.Email, raw); err != nil {
		h.logger.Error("send magic link", "error", err)
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "could not send email"})
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Verify consumes a magic link and issues a portal session. The token is
// single-use: the conditional consume decides the winner under concurrent
// replay, and losers get 401.
func (h *PortalHandler) Verify(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		respondValidation(w, h.logger, "token is required")
		return
	}

	token, err := h.magicLinks.FindValidByHash(auth.HashToken(raw))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if token == nil {
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid or expired link"})
		return
	}

	won, err := h.magicLinks.Consume(token.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if !won {
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid or expired link"})
		return
	}

	rawSession, hash, err := auth.NewToken()
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	sess, err := h.portalSessions.Create(token.Email, hash, time.Now().UTC().Add(store.PortalSessionTTL), r.UserAgent(), middleware.RealIP(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	setSessionCookie(w, middleware.PortalCookieName, rawSession, sess.ExpiresAt)
	respondJSON(w, http.StatusOK, map[string]any{
		"token":      rawSession,
		"expires_at": sess.ExpiresAt,
		"email":      sess.Email,
	})
}

// Logout revokes the current portal session.
func (h *PortalHandler) Logout(w http.ResponseWriter, r *http.Request) {
	pc, ok := auth.PortalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.portalSessions.RevokeByID(pc.SessionID, "logout"); err != nil {
		respondError(w, h.logger, err)
		return
	}
	clearSessionCookie(w, middleware.PortalCookieName)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the portal customer's profile and properties.
func (h *PortalHandler) Me(w http.ResponseWriter, r *http.Request) {
	pc, _ := auth.PortalFromContext(r.Context())

	customer, err := h.customers.GetByEmail(pc.Email)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if customer == nil {
		// Customer offboarded while the session was live.
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	properties, err := h.properties.ListByCustomer(customer.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if properties == nil {
		properties = []model.Property{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"customer":   customer,
		"properties": properties,
	})
}

// Bookings pages the portal customer's bookings.
func (h *PortalHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	pc, _ := auth.PortalFromContext(r.Context())

	customer, err := h.customers.GetByEmail(pc.Email)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if customer == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	page, err := h.bookings.List(store.BookingFilter{CustomerID: customer.ID}, pageRequest(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}
