package auth

import (
	"context"
	"testing"
)

func TestWithPrincipalRoundTripAdmin(t *testing.T) {
	ctx := WithPrincipal(context.Background(), AdminPrincipal{
		AdminID:   7,
		Username:  "editor",
		SessionID: 3,
	})

	a, ok := AdminFromContext(ctx)
	if !ok {
		t.Fatal("expected admin principal")
	}
	if a.AdminID != 7 {
		t.Errorf("AdminID = %d, want 7", a.AdminID)
	}
	if a.Username != "editor" {
		t.Errorf("Username = %q, want %q", a.Username, "editor")
	}
	if !IsAdmin(ctx) {
		t.Error("IsAdmin = false, want true")
	}
	if _, ok := UserFromContext(ctx); ok {
		t.Error("admin context should not yield a user principal")
	}
}

func TestWithPrincipalRoundTripUser(t *testing.T) {
	ctx := WithPrincipal(context.Background(), UserPrincipal{
		UserID: 42,
		Email:  "alice@example.com",
		Name:   "Alice",
	})

	u, ok := UserFromContext(ctx)
	if !ok {
		t.Fatal("expected user principal")
	}
	if u.UserID != 42 {
		t.Errorf("UserID = %d, want 42", u.UserID)
	}
	if IsAdmin(ctx) {
		t.Error("IsAdmin = true for a user principal")
	}
	if _, ok := AdminFromContext(ctx); ok {
		t.Error("user context should not yield an admin principal")
	}
}

func TestFromContextEmpty(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("expected no principal in empty context")
	}
	if IsAdmin(context.Background()) {
		t.Error("IsAdmin = true for empty context")
	}
}
