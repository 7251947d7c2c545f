package httpapi

import (
	"net/http"
	"testing"
	"time"

	"fuelpos/backend/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	auth := NewAuthManager("round-trip-secret", time.Hour)

	resp, err := auth.Issue(domain.Actor{Username: "manager", Role: domain.RoleManager, StationID: "stn-main"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if resp.Role != domain.RoleManager || resp.StationID != "stn-main" {
		t.Fatalf("unexpected login response %+v", resp)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if actor.Username != "manager" || actor.Role != domain.RoleManager || actor.StationID != "stn-main" {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewAuthManager("secret-a", time.Hour)
	verifier := NewAuthManager("secret-b", time.Hour)

	resp, err := issuer.Issue(domain.Actor{Username: "admin", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.ParseToken(resp.AccessToken); err == nil {
		t.Fatal("token signed with another secret was accepted")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	auth := NewAuthManager("expired-secret", time.Hour)
	auth.tokenTTL = -time.Minute

	resp, err := auth.Issue(domain.Actor{Username: "admin", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := auth.ParseToken(resp.AccessToken); err == nil {
		t.Fatal("expired token was accepted")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "cashier",
		"password": "not-the-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	handler := newTestAPI(t)

	var last int
	for i := 0; i < 6; i++ {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"username": "cashier",
			"password": "wrong",
		})
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after repeated failures, got %d", last)
	}
}

func TestMissingAndGarbageTokens(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/products", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/products", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", rec.Code)
	}
}
