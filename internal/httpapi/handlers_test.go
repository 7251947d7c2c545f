package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fuelpos/backend/internal/service"
	"fuelpos/backend/internal/store/memory"
)

// newTestAPI builds a full API with the seeded in-memory store, a real
// AuthManager and a real Service so handler tests exercise the complete
// request path.
func newTestAPI(t *testing.T) http.Handler {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, nil)
	auth := NewAuthManager("test-secret-key", time.Hour)
	return New(svc, auth, []string{"*"}).Handler()
}

func login(t *testing.T, handler http.Handler, username string, password string) string {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d (body: %s)", username, rec.Code, rec.Body.String())
	}
	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return body.AccessToken
}

func doJSON(t *testing.T, handler http.Handler, method string, path string, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func saleBody(litres string, price string) map[string]any {
	subtotal := mulMoney(litres, price)
	return map[string]any{
		"transaction": map[string]any{
			"station_id":         "stn-main",
			"payment_method":     "cash",
			"subtotal":           subtotal,
			"tax_amount":         "0",
			"total_amount":       subtotal,
			"paid_amount":        subtotal,
			"outstanding_amount": "0",
		},
		"items": []map[string]any{
			{"product_id": "prd-petrol", "tank_id": "tnk-petrol", "quantity": litres, "unit_price": price},
		},
	}
}

// mulMoney multiplies two decimal strings for test payloads, keeping two
// fractional digits the way the till would send them.
func mulMoney(a string, b string) string {
	var x, y float64
	fmt.Sscanf(a, "%f", &x)
	fmt.Sscanf(b, "%f", &y)
	return fmt.Sprintf("%.2f", x*y)
}

func TestHandleHealth(t *testing.T) {
	handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestSaleLifecycleOverHTTP(t *testing.T) {
	handler := newTestAPI(t)
	cashier := login(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", cashier, saleBody("10", "1.85"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create sale: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var created struct {
		Sale struct {
			ID            string `json:"id"`
			InvoiceNumber string `json:"invoice_number"`
		} `json:"sale"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode sale: %v", err)
	}
	if created.Sale.ID == "" || created.Sale.InvoiceNumber == "" {
		t.Fatalf("incomplete sale in response: %+v", created.Sale)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/sales/"+created.Sale.ID, cashier, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get sale: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/sales?station_id=stn-main", cashier, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list sales: expected 200, got %d", rec.Code)
	}
	var listed struct {
		Sales []json.RawMessage `json:"sales"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Sales) != 1 {
		t.Fatalf("listed %d sales, want 1", len(listed.Sales))
	}

	manager := login(t, handler, "manager", "manager123")
	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/sales/"+created.Sale.ID, manager, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete sale: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/sales/"+created.Sale.ID, cashier, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted sale: expected 404, got %d", rec.Code)
	}
}

func TestSaleInsufficientStockReturnsConflict(t *testing.T) {
	handler := newTestAPI(t)
	cashier := login(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", cashier, saleBody("999999", "1.85"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestSaleValidationErrorCarriesFields(t *testing.T) {
	handler := newTestAPI(t)
	cashier := login(t, handler, "cashier", "cashier123")

	body := saleBody("10", "1.85")
	body["items"] = []map[string]any{}
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", cashier, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Error  string `json:"error"`
		Fields []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"fields"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if len(resp.Fields) == 0 {
		t.Fatalf("expected field errors, got %+v", resp)
	}
}

func TestPurchaseOrderReceiveOverHTTP(t *testing.T) {
	handler := newTestAPI(t)
	manager := login(t, handler, "manager", "manager123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/purchase-orders", manager, map[string]any{
		"order": map[string]any{
			"station_id":     "stn-main",
			"supplier_id":    "sup-fuelco",
			"payment_method": "credit",
			"paid_amount":    "0",
		},
		"items": []map[string]any{
			{"product_id": "prd-petrol", "tank_id": "tnk-petrol", "quantity": "1000", "unit_cost": "1.20"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create order: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var created struct {
		Order struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"order"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if created.Order.Status != "pending" {
		t.Fatalf("status = %q, want pending", created.Order.Status)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/purchase-orders/"+created.Order.ID+"/receive", manager, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("receive: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/purchase-orders/"+created.Order.ID+"/receive", manager, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second receive: expected 409, got %d", rec.Code)
	}
}

func TestReconciliationEndpoint(t *testing.T) {
	handler := newTestAPI(t)
	manager := login(t, handler, "manager", "manager123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/reconciliation/stn-main", manager, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var result struct {
		StationID string `json:"station_id"`
		Applied   bool   `json:"applied"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.StationID != "stn-main" || result.Applied {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestDailyReportCSVExport(t *testing.T) {
	handler := newTestAPI(t)
	cashier := login(t, handler, "cashier", "cashier123")
	manager := login(t, handler, "manager", "manager123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", cashier, saleBody("10", "1.85"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create sale: expected 201, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reports/daily?station_id=stn-main&format=csv", manager, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv; charset=utf-8" {
		t.Fatalf("content type = %q", got)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("summary,transactions,1")) {
		t.Fatalf("csv missing transaction count:\n%s", rec.Body.String())
	}
}
