package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hazelwick/spotless/internal/auth"
	"github.com/hazelwick/spotless/internal/database"
	"github.com/hazelwick/spotless/internal/store"
)

func setupAuthTest(t *testing.T) (*store.UserStore, *store.SessionStore, *store.PortalSessionStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	wrapped := store.NewDB(db)
	return store.NewUserStore(wrapped), store.NewSessionStore(wrapped), store.NewPortalSessionStore(wrapped)
}

func TestRequireAuth(t *testing.T) {
	users, sessions, _ := setupAuthTest(t)

	user, err := users.Create("staff@example.com", "Staff", "hash", "staff")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	raw, hash, err := auth.NewToken()
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if _, err := sessions.Create(user.ID, hash, time.Now().UTC().Add(time.Hour), "", ""); err != nil {
		t.Fatalf("create session: %v", err)
	}

	var gotCtx auth.Context
	handler := RequireAuth(sessions, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCtx, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// No credential.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/customers", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", rec.Code)
	}

	// Bearer header.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/customers", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("bearer status = %d, want 200", rec.Code)
	}
	if gotCtx.UserID != user.ID || gotCtx.Role != "staff" {
		t.Errorf("auth context = %+v", gotCtx)
	}

	// Cookie credential works too.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/customers", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: raw})
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("cookie status = %d, want 200", rec.Code)
	}

	// Garbage token.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/customers", nil)
	req.Header.Set("Authorization", "Bearer nope")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthDeletedUserLosesAccess(t *testing.T) {
	users, sessions, _ := setupAuthTest(t)

	user, _ := users.Create("staff@example.com", "Staff", "hash", "staff")
	raw, hash, _ := auth.NewToken()
	sessions.Create(user.ID, hash, time.Now().UTC().Add(time.Hour), "", "")

	if err := users.Delete(user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	handler := RequireAuth(sessions, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/customers", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("deleted user status = %d, want 401 while session row is still live", rec.Code)
	}
}

func TestRequirePortal(t *testing.T) {
	_, _, portalSessions := setupAuthTest(t)

	raw, hash, _ := auth.NewToken()
	if _, err := portalSessions.Create("c@example.com", hash, time.Now().UTC().Add(time.Hour), "", ""); err != nil {
		t.Fatalf("create portal session: %v", err)
	}

	var gotEmail string
	handler := RequirePortal(portalSessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pc, _ := auth.PortalFromContext(r.Context())
		gotEmail = pc.Email
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/portal/me", nil)
	req.AddCookie(&http.Cookie{Name: PortalCookieName, Value: raw})
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("portal status = %d, want 200", rec.Code)
	}
	if gotEmail != "c@example.com" {
		t.Errorf("portal email = %q", gotEmail)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/portal/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no credential status = %d, want 401", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/users", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.Context{UserID: 1, Role: "admin"}))
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/users", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.Context{UserID: 2, Role: "staff"}))
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("staff status = %d, want 403", rec.Code)
	}
}
