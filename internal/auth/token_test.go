package auth

import (
	"context"
	"testing"
)

func TestNewTokenIsHashedAndUnique(t *testing.T) {
	raw1, hash1, err := NewToken()
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	raw2, hash2, err := NewToken()
	if err != nil {
		t.Fatalf("new token: %v", err)
	}

	if len(raw1) != 64 {
		t.Errorf("raw token length = %d, want 64 hex chars", len(raw1))
	}
	if raw1 == raw2 || hash1 == hash2 {
		t.Error("consecutive tokens should differ")
	}
	if hash1 != HashToken(raw1) {
		t.Error("returned hash should match HashToken of the raw token")
	}
	if hash1 == raw1 {
		t.Error("hash must not equal the raw token")
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Error("same input should hash identically")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Error("different inputs should hash differently")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if !CheckPassword(hash, "hunter2hunter2") {
		t.Error("correct password should verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password should not verify")
	}
}

func TestAuthContextRoundTrip(t *testing.T) {
	ctx := WithAuth(context.Background(), Context{UserID: 7, Role: "admin", SessionID: 3})

	ac, ok := FromContext(ctx)
	if !ok || ac.UserID != 7 || ac.SessionID != 3 {
		t.Fatalf("auth context = %+v ok=%v", ac, ok)
	}
	if UserID(ctx) != 7 {
		t.Errorf("UserID = %d, want 7", UserID(ctx))
	}
	if !IsAdmin(ctx) {
		t.Error("admin role should report IsAdmin")
	}

	if _, ok := FromContext(context.Background()); ok {
		t.Error("empty context should not carry auth")
	}
	if IsAdmin(WithAuth(context.Background(), Context{Role: "staff"})) {
		t.Error("staff role should not report IsAdmin")
	}
}

func TestPortalContextRoundTrip(t *testing.T) {
	ctx := WithPortal(context.Background(), PortalContext{Email: "c@example.com", SessionID: 9})
	pc, ok := PortalFromContext(ctx)
	if !ok || pc.Email != "c@example.com" || pc.SessionID != 9 {
		t.Fatalf("portal context = %+v ok=%v", pc, ok)
	}
	if _, ok := PortalFromContext(context.Background()); ok {
		t.Error("empty context should not carry portal auth")
	}
}
