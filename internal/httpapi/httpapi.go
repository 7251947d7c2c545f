package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"fuelpos/backend/internal/domain"
	"fuelpos/backend/internal/service"
	"fuelpos/backend/internal/store"
)

type API struct {
	service        *service.Service
	auth           *AuthManager
	allowedOrigins []string
	loginLimiter   *attemptLimiter
}

func New(svc *service.Service, auth *AuthManager, allowedOrigins []string) *API {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &API{
		service:        svc,
		auth:           auth,
		allowedOrigins: allowedOrigins,
		loginLimiter:   newAttemptLimiter(5, time.Minute),
	}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(securityHeaders)
	r.Use(logRequests)

	r.Get("/healthz", a.handleHealth)
	r.Post("/api/v1/auth/login", a.handleLogin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(a.requireAuth)

		r.Route("/sales", func(r chi.Router) {
			r.Post("/", a.handleSaleCreate)
			r.Get("/", a.handleSaleList)
			r.Get("/{id}", a.handleSaleGet)
			r.Put("/{id}", a.handleSaleUpdate)
			r.Delete("/{id}", a.handleSaleDelete)
		})

		r.Route("/purchase-orders", func(r chi.Router) {
			r.Post("/", a.handlePurchaseCreate)
			r.Get("/", a.handlePurchaseList)
			r.Get("/{id}", a.handlePurchaseGet)
			r.Post("/{id}/receive", a.handlePurchaseReceive)
		})

		r.Post("/payments", a.handlePaymentCreate)
		r.Get("/payments", a.handlePaymentList)
		r.Post("/expenses", a.handleExpenseCreate)
		r.Get("/expenses", a.handleExpenseList)
		r.Post("/journal-entries", a.handleJournalCreate)
		r.Get("/journal-entries", a.handleJournalList)
		r.Post("/reconciliation/{stationID}", a.handleReconcile)

		r.Post("/stations", a.handleStationCreate)
		r.Get("/stations", a.handleStationList)
		r.Get("/stations/{id}/settings", a.handleSettingsGet)
		r.Put("/stations/{id}/settings", a.handleSettingsUpdate)

		r.Post("/products", a.handleProductCreate)
		r.Get("/products", a.handleProductList)
		r.Patch("/products/{id}", a.handleProductUpdate)

		r.Route("/tanks", func(r chi.Router) {
			r.Post("/", a.handleTankCreate)
			r.Get("/", a.handleTankList)
			r.Post("/{id}/adjust", a.handleTankAdjust)
			r.Get("/{id}/movements", a.handleTankMovements)
		})

		r.Post("/pumps", a.handlePumpCreate)
		r.Get("/pumps", a.handlePumpList)
		r.Post("/pump-readings", a.handlePumpReadingCreate)
		r.Get("/pump-readings", a.handlePumpReadingList)

		r.Post("/customers", a.handleCustomerCreate)
		r.Get("/customers", a.handleCustomerList)
		r.Post("/suppliers", a.handleSupplierCreate)
		r.Get("/suppliers", a.handleSupplierList)
		r.Post("/accounts", a.handleAccountCreate)
		r.Get("/accounts", a.handleAccountList)

		r.Post("/users", a.handleUserCreate)
		r.Get("/users", a.handleUserList)
		r.Put("/users/{username}/password", a.handlePasswordChange)
		r.Get("/audit-logs", a.handleAuditLogs)

		r.Get("/reports/daily", a.handleDailyReport)
		r.Get("/reports/financial", a.handleFinancialReport)
		r.Get("/reports/aging", a.handleAgingReport)
	})

	return r
}

// requireAuth parses the bearer token and stores the actor in the request
// context. Role checks happen in the service layer, not here.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}
		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(service.WithActor(r.Context(), actor)))
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}
		next.ServeHTTP(w, r)
	})
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	actor, err := a.service.Authenticate(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}
	resp, err := a.auth.Issue(actor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- sales ---

func (a *API) handleSaleCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.SaleCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sale, err := a.service.RecordSale(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"sale": sale})
}

func (a *API) handleSaleList(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)
	sales, err := a.service.ListSales(r.Context(), r.URL.Query().Get("station_id"), from, to, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
}

func (a *API) handleSaleGet(w http.ResponseWriter, r *http.Request) {
	sale, err := a.service.GetSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sale": sale})
}

func (a *API) handleSaleUpdate(w http.ResponseWriter, r *http.Request) {
	var req domain.SaleCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sale, err := a.service.UpdateSale(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sale": sale})
}

func (a *API) handleSaleDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteSale(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// --- purchases ---

func (a *API) handlePurchaseCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.PurchaseCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	order, err := a.service.CreatePurchaseOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"order": order})
}

func (a *API) handlePurchaseList(w http.ResponseWriter, r *http.Request) {
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)
	orders, err := a.service.ListPurchaseOrders(r.Context(), r.URL.Query().Get("station_id"), r.URL.Query().Get("status"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (a *API) handlePurchaseGet(w http.ResponseWriter, r *http.Request) {
	order, err := a.service.GetPurchaseOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (a *API) handlePurchaseReceive(w http.ResponseWriter, r *http.Request) {
	order, err := a.service.ReceivePurchaseOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

// --- payments, expenses, ledger ---

func (a *API) handlePaymentCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	payment, err := a.service.RecordPayment(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"payment": payment})
}

func (a *API) handlePaymentList(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	payments, err := a.service.ListPayments(r.Context(), r.URL.Query().Get("station_id"), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (a *API) handleExpenseCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.ExpenseCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	expense, err := a.service.RecordExpense(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"expense": expense})
}

func (a *API) handleExpenseList(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	expenses, err := a.service.ListExpenses(r.Context(), r.URL.Query().Get("station_id"), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

func (a *API) handleJournalCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.JournalEntryCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entry, err := a.service.CreateJournalEntry(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})
}

func (a *API) handleJournalList(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)
	entries, err := a.service.ListJournalEntries(r.Context(), r.URL.Query().Get("station_id"), from, to, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (a *API) handleReconcile(w http.ResponseWriter, r *http.Request) {
	apply := strings.EqualFold(r.URL.Query().Get("apply"), "true")
	result, err := a.service.Reconcile(r.Context(), chi.URLParam(r, "stationID"), apply)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// --- stations & settings ---

func (a *API) handleStationCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.StationCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	station, err := a.service.CreateStation(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"station": station})
}

func (a *API) handleStationList(w http.ResponseWriter, r *http.Request) {
	stations, err := a.service.ListStations(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stations": stations})
}

func (a *API) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	settings, err := a.service.GetSettings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

func (a *API) handleSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	var req domain.SettingsUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	settings, err := a.service.UpdateSettings(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

// --- master data ---

func (a *API) handleProductCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	product, err := a.service.CreateProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"product": product})
}

func (a *API) handleProductList(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (a *API) handleProductUpdate(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	product, err := a.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (a *API) handleTankCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.TankCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tank, err := a.service.CreateTank(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"tank": tank})
}

func (a *API) handleTankList(w http.ResponseWriter, r *http.Request) {
	tanks, err := a.service.ListTanks(r.Context(), r.URL.Query().Get("station_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tanks": tanks})
}

func (a *API) handleTankAdjust(w http.ResponseWriter, r *http.Request) {
	var req domain.TankAdjustRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	movement, err := a.service.AdjustTank(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"movement": movement})
}

func (a *API) handleTankMovements(w http.ResponseWriter, r *http.Request) {
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)
	movements, err := a.service.ListStockMovements(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"movements": movements})
}

func (a *API) handlePumpCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.PumpCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pump, err := a.service.CreatePump(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"pump": pump})
}

func (a *API) handlePumpList(w http.ResponseWriter, r *http.Request) {
	pumps, err := a.service.ListPumps(r.Context(), r.URL.Query().Get("station_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pumps": pumps})
}

func (a *API) handlePumpReadingCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.PumpReadingCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	reading, err := a.service.RecordPumpReading(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"reading": reading})
}

func (a *API) handlePumpReadingList(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	readings, err := a.service.ListPumpReadings(r.Context(), r.URL.Query().Get("pump_id"), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"readings": readings})
}

func (a *API) handleCustomerCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.CustomerCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	customer, err := a.service.CreateCustomer(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"customer": customer})
}

func (a *API) handleCustomerList(w http.ResponseWriter, r *http.Request) {
	customers, err := a.service.ListCustomers(r.Context(), r.URL.Query().Get("station_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
}

func (a *API) handleSupplierCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.SupplierCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	supplier, err := a.service.CreateSupplier(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"supplier": supplier})
}

func (a *API) handleSupplierList(w http.ResponseWriter, r *http.Request) {
	suppliers, err := a.service.ListSuppliers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suppliers": suppliers})
}

func (a *API) handleAccountCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.AccountCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account, err := a.service.CreateAccount(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"account": account})
}

func (a *API) handleAccountList(w http.ResponseWriter, r *http.Request) {
	accounts, err := a.service.ListAccounts(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

// --- users & audit ---

func (a *API) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.UserCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	user, err := a.service.CreateUser(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (a *API) handleUserList(w http.ResponseWriter, r *http.Request) {
	users, err := a.service.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (a *API) handlePasswordChange(w http.ResponseWriter, r *http.Request) {
	var req domain.PasswordUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.service.ChangePassword(r.Context(), chi.URLParam(r, "username"), req); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)
	logs, err := a.service.ListAuditLogs(r.Context(), r.URL.Query().Get("station_id"), from, to, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

// --- reports ---

func (a *API) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	day := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("date must be YYYY-MM-DD"))
			return
		}
		day = parsed
	}

	report, err := a.service.GetDailyReport(r.Context(), r.URL.Query().Get("station_id"), day)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "daily-report-"+report.Date+".csv"))
		_, _ = w.Write([]byte(dailyReportToCSV(report)))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleFinancialReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if to.IsZero() {
		to = time.Now().UTC().Add(24 * time.Hour)
	}
	report, err := a.service.GetFinancialReport(r.Context(), r.URL.Query().Get("station_id"), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleAgingReport(w http.ResponseWriter, r *http.Request) {
	asOf := time.Time{}
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("as_of must be YYYY-MM-DD"))
			return
		}
		asOf = parsed
	}
	report, err := a.service.GetAgingReport(r.Context(), r.URL.Query().Get("station_id"), r.URL.Query().Get("side"), asOf)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func dailyReportToCSV(report domain.DailyReport) string {
	lines := []string{
		"section,key,value",
		fmt.Sprintf("summary,date,%s", report.Date),
		fmt.Sprintf("summary,station_id,%s", report.StationID),
		fmt.Sprintf("summary,transactions,%d", report.Transactions),
		fmt.Sprintf("summary,gross_sales,%s", report.GrossSales),
		fmt.Sprintf("summary,tax_collected,%s", report.TaxCollected),
		fmt.Sprintf("summary,total_receivables,%s", report.TotalReceivables),
		fmt.Sprintf("summary,total_payables,%s", report.TotalPayables),
		fmt.Sprintf("summary,cash_in,%s", report.CashFlow.CashIn),
		fmt.Sprintf("summary,cash_out,%s", report.CashFlow.CashOut),
		fmt.Sprintf("summary,cash_net,%s", report.CashFlow.Net),
	}
	for _, method := range report.SalesByMethod {
		lines = append(lines, fmt.Sprintf("payment,%s_transactions,%d", method.PaymentMethod, method.Transactions))
		lines = append(lines, fmt.Sprintf("payment,%s_total,%s", method.PaymentMethod, method.Total))
	}
	for _, product := range report.SalesByProduct {
		lines = append(lines, fmt.Sprintf("product,%s_quantity,%s", product.ProductName, product.Quantity))
		lines = append(lines, fmt.Sprintf("product,%s_total,%s", product.ProductName, product.Total))
	}
	for _, category := range report.ExpensesByCategory {
		lines = append(lines, fmt.Sprintf("expense,%s_total,%s", category.Category, category.Total))
	}
	return strings.Join(lines, "\n") + "\n"
}

// --- plumbing ---

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

// parseRange reads optional from/to date parameters. The to bound is made
// inclusive of the named day.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	var from, to time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, errors.New("from must be YYYY-MM-DD")
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, errors.New("to must be YYYY-MM-DD")
		}
		to = parsed.Add(24 * time.Hour)
	}
	return from, to, nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

// writeServiceError maps service and store errors onto HTTP statuses.
// Validation failures carry their field details in the body.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *store.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
	case errors.Is(err, store.ErrValidation):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrInsufficientStock),
		errors.Is(err, store.ErrOverpayment):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx bodies stay generic so internal detail never reaches clients.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
