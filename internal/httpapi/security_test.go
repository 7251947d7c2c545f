package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestCashierCannotCreateProducts(t *testing.T) {
	handler := newTestAPI(t)
	cashier := login(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/products", cashier, map[string]any{
		"sku":        "LUB-0W20",
		"name":       "Engine Oil 0W20",
		"category":   "lubricant",
		"unit_price": "30.00",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestStationScopeEnforcedAcrossStations(t *testing.T) {
	handler := newTestAPI(t)
	admin := login(t, handler, "admin", "admin123")
	manager := login(t, handler, "manager", "manager123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/stations", admin, map[string]any{
		"code": "NORTH",
		"name": "North Station",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create station: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var created struct {
		Station struct {
			ID string `json:"id"`
		} `json:"station"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode station: %v", err)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/stations/"+created.Station.ID+"/settings", manager, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cross-station settings: expected 403, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/stations/"+created.Station.ID+"/settings", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin settings read: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestUnknownJSONFieldsRejected(t *testing.T) {
	handler := newTestAPI(t)
	admin := login(t, handler, "admin", "admin123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/suppliers", admin, map[string]any{
		"name":       "FuelCo Two",
		"unexpected": "field",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestSecurityHeadersPresent(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/healthz", "", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options = %q", got)
	}
}

func TestPasswordChangeScope(t *testing.T) {
	handler := newTestAPI(t)
	cashier := login(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodPut, "/api/v1/users/manager/password", cashier, map[string]any{
		"password": "hijacked1",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPut, "/api/v1/users/cashier/password", cashier, map[string]any{
		"password": "rotated1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("self password change: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	if token := login(t, handler, "cashier", "rotated1"); token == "" {
		t.Fatal("login with rotated password failed")
	}
}
