package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"fuelpos/backend/internal/domain"
	"fuelpos/backend/internal/store"
	"fuelpos/backend/internal/xid"
)

// Store is a mutex-guarded in-memory implementation of store.Repository used
// in dev/demo mode (no DATABASE_URL) and by the test suite. Multi-step flows
// validate everything before the first mutation so a failure leaves the maps
// untouched, mirroring the transactional postgres store.
type Store struct {
	mu           sync.RWMutex
	stations     map[string]domain.Station
	settings     map[string]domain.StationSettings
	users        map[string]domain.UserAccount
	products     map[string]domain.Product
	productSKUs  map[string]string
	tanks        map[string]domain.Tank
	pumps        map[string]domain.Pump
	readings     map[string]domain.PumpReading
	customers    map[string]domain.Customer
	suppliers    map[string]domain.Supplier
	accounts     map[string]domain.Account
	accountCodes map[string]string
	sales        map[string]domain.SalesTransaction
	invoiceNos   map[string]string
	purchases    map[string]domain.PurchaseOrder
	orderNos     map[string]string
	movements    []domain.StockMovement
	expenses     map[string]domain.Expense
	payments     map[string]domain.Payment
	journals     map[string]domain.JournalEntry
	entryNos     map[string]string
	auditLogs    []domain.AuditLog
}

// seedUsers builds the initial accounts for dev/demo mode. Credentials come
// from SEED_ADMIN_PASSWORD / SEED_MANAGER_PASSWORD / SEED_CASHIER_PASSWORD;
// hardcoded dev defaults are used with a warning when unset. These are never
// used in production (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers(stationID string) map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	managerPwd := envOr("SEED_MANAGER_PASSWORD", "manager123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD, SEED_MANAGER_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username  string
		password  string
		role      string
		stationID string
	}{
		{"admin", adminPwd, domain.RoleAdmin, ""},
		{"manager", managerPwd, domain.RoleManager, stationID},
		{"cashier", cashierPwd, domain.RoleCashier, stationID},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			StationID: u.stationID,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func NewSeeded() *Store {
	now := time.Now().UTC()

	station := domain.Station{
		ID: "stn-main", Code: "MAIN", Name: "Main Station", Address: "1 Depot Road",
		Active: true, CreatedAt: now,
	}

	products := []domain.Product{
		{ID: "prd-petrol", SKU: "FUEL-P95", Name: "Petrol 95", Category: domain.CategoryFuel, UnitPrice: dec("1.85"), Active: true, CreatedAt: now},
		{ID: "prd-diesel", SKU: "FUEL-D", Name: "Diesel", Category: domain.CategoryFuel, UnitPrice: dec("1.60"), Active: true, CreatedAt: now},
		{ID: "prd-oil", SKU: "LUB-5W30", Name: "Engine Oil 5W-30", Category: domain.CategoryLubricant, UnitPrice: dec("24.00"), Active: true, CreatedAt: now},
		{ID: "prd-wash", SKU: "SVC-WASH", Name: "Car Wash", Category: domain.CategoryOther, UnitPrice: dec("8.00"), Active: true, CreatedAt: now},
	}

	tanks := []domain.Tank{
		{ID: "tnk-petrol", StationID: station.ID, ProductID: "prd-petrol", Name: "Tank 1 (Petrol)", Capacity: dec("20000"), CurrentStock: dec("12000"), CreatedAt: now},
		{ID: "tnk-diesel", StationID: station.ID, ProductID: "prd-diesel", Name: "Tank 2 (Diesel)", Capacity: dec("15000"), CurrentStock: dec("9000"), CreatedAt: now},
	}

	pumps := []domain.Pump{
		{ID: "pmp-1", StationID: station.ID, TankID: "tnk-petrol", Name: "Pump 1", Active: true, CreatedAt: now},
		{ID: "pmp-2", StationID: station.ID, TankID: "tnk-petrol", Name: "Pump 2", Active: true, CreatedAt: now},
		{ID: "pmp-3", StationID: station.ID, TankID: "tnk-diesel", Name: "Pump 3", Active: true, CreatedAt: now},
	}

	customers := []domain.Customer{
		{ID: "cus-haulage", StationID: station.ID, Name: "Northside Haulage", Phone: "555-0101", CreditLimit: dec("5000.00"), OutstandingAmount: decimal.Zero, CreatedAt: now},
		{ID: "cus-taxi", StationID: station.ID, Name: "City Taxi Co-op", Phone: "555-0102", CreditLimit: dec("1500.00"), OutstandingAmount: decimal.Zero, CreatedAt: now},
	}

	suppliers := []domain.Supplier{
		{ID: "sup-fuelco", Name: "FuelCo Distribution", Phone: "555-0201", OutstandingAmount: decimal.Zero, CreatedAt: now},
	}

	accounts := []domain.Account{
		{ID: "acc-cash", Code: "1000", Name: "Cash", Type: domain.AccountAsset, Active: true, CreatedAt: now},
		{ID: "acc-ar", Code: "1100", Name: "Accounts Receivable", Type: domain.AccountAsset, Active: true, CreatedAt: now},
		{ID: "acc-inventory", Code: "1200", Name: "Fuel Inventory", Type: domain.AccountAsset, Active: true, CreatedAt: now},
		{ID: "acc-ap", Code: "2000", Name: "Accounts Payable", Type: domain.AccountLiability, Active: true, CreatedAt: now},
		{ID: "acc-tax", Code: "2100", Name: "Tax Payable", Type: domain.AccountLiability, Active: true, CreatedAt: now},
		{ID: "acc-revenue", Code: "4000", Name: "Fuel Sales Revenue", Type: domain.AccountRevenue, Active: true, CreatedAt: now},
		{ID: "acc-expense", Code: "6000", Name: "Operating Expenses", Type: domain.AccountExpense, Active: true, CreatedAt: now},
	}

	s := &Store{
		stations:     map[string]domain.Station{station.ID: station},
		settings:     map[string]domain.StationSettings{},
		users:        seedUsers(station.ID),
		products:     map[string]domain.Product{},
		productSKUs:  map[string]string{},
		tanks:        map[string]domain.Tank{},
		pumps:        map[string]domain.Pump{},
		readings:     map[string]domain.PumpReading{},
		customers:    map[string]domain.Customer{},
		suppliers:    map[string]domain.Supplier{},
		accounts:     map[string]domain.Account{},
		accountCodes: map[string]string{},
		sales:        map[string]domain.SalesTransaction{},
		invoiceNos:   map[string]string{},
		purchases:    map[string]domain.PurchaseOrder{},
		orderNos:     map[string]string{},
		movements:    make([]domain.StockMovement, 0, 128),
		expenses:     map[string]domain.Expense{},
		payments:     map[string]domain.Payment{},
		journals:     map[string]domain.JournalEntry{},
		entryNos:     map[string]string{},
		auditLogs:    make([]domain.AuditLog, 0, 128),
	}
	for _, p := range products {
		s.products[p.ID] = p
		s.productSKUs[p.SKU] = p.ID
	}
	for _, t := range tanks {
		s.tanks[t.ID] = t
	}
	for _, p := range pumps {
		s.pumps[p.ID] = p
	}
	for _, c := range customers {
		s.customers[c.ID] = c
	}
	for _, sp := range suppliers {
		s.suppliers[sp.ID] = sp
	}
	for _, a := range accounts {
		s.accounts[a.ID] = a
		s.accountCodes[a.Code] = a.ID
	}
	return s
}

func cmpString(a, b string) int {
	return strings.Compare(a, b)
}

// --- stations & settings ---

func (s *Store) CreateStation(_ context.Context, station domain.Station) (*domain.Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	station.Code = strings.ToUpper(strings.TrimSpace(station.Code))
	station.Name = strings.TrimSpace(station.Name)
	if station.Code == "" || station.Name == "" {
		return nil, store.Invalid("code", "code and name are required")
	}
	for _, existing := range s.stations {
		if existing.Code == station.Code {
			return nil, store.ErrConflict
		}
	}
	if station.ID == "" {
		station.ID = xid.New("stn")
	}
	if station.CreatedAt.IsZero() {
		station.CreatedAt = time.Now().UTC()
	}
	station.Active = true
	s.stations[station.ID] = station
	created := station
	return &created, nil
}

func (s *Store) ListStations(_ context.Context) ([]domain.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stations := make([]domain.Station, 0, len(s.stations))
	for _, st := range s.stations {
		stations = append(stations, st)
	}
	slices.SortFunc(stations, func(a, b domain.Station) int { return cmpString(a.Code, b.Code) })
	return stations, nil
}

func (s *Store) GetStation(_ context.Context, id string) (*domain.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.stations[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := st
	return &found, nil
}

func (s *Store) GetOrCreateSettings(_ context.Context, stationID string) (*domain.StationSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stations[stationID]; !exists {
		return nil, store.ErrNotFound
	}
	settings, exists := s.settings[stationID]
	if !exists {
		settings = domain.StationSettings{
			StationID: stationID,
			TaxRate:   decimal.Zero,
			Currency:  "USD",
			UpdatedAt: time.Now().UTC(),
		}
		s.settings[stationID] = settings
	}
	found := settings
	return &found, nil
}

func (s *Store) UpdateSettings(_ context.Context, settings domain.StationSettings) (*domain.StationSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if settings.TaxRate.IsNegative() {
		return nil, store.Invalid("tax_rate", "must not be negative")
	}
	if _, exists := s.settings[settings.StationID]; !exists {
		if _, stationExists := s.stations[settings.StationID]; !stationExists {
			return nil, store.ErrNotFound
		}
	}
	if settings.Currency == "" {
		settings.Currency = "USD"
	}
	settings.UpdatedAt = time.Now().UTC()
	s.settings[settings.StationID] = settings
	updated := settings
	return &updated, nil
}

// --- users ---

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.Invalid("username", "username and password are required")
	}
	if _, exists := s.users[user.Username]; exists {
		return store.ErrConflict
	}
	if user.Role == "" {
		user.Role = domain.RoleCashier
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int { return cmpString(a.Username, b.Username) })
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.Invalid("username", "username and password are required")
	}
	user, exists := s.users[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.users[username] = user
	return nil
}

// --- products ---

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product.SKU = strings.ToUpper(strings.TrimSpace(product.SKU))
	product.Name = strings.TrimSpace(product.Name)
	if product.SKU == "" || product.Name == "" || product.Category == "" {
		return nil, store.Invalid("sku", "sku, name and category are required")
	}
	if product.UnitPrice.IsNegative() {
		return nil, store.Invalid("unit_price", "must not be negative")
	}
	if _, exists := s.productSKUs[product.SKU]; exists {
		return nil, store.ErrConflict
	}
	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	product.Active = true
	product.UnitPrice = product.UnitPrice.Round(2)
	s.products[product.ID] = product
	s.productSKUs[product.SKU] = product.ID
	created := product
	return &created, nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if !p.Active {
			continue
		}
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.Category, b.Category)
	})
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := p
	return &found, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.Name == "" || product.Category == "" {
		return nil, store.Invalid("name", "name and category are required")
	}
	if product.UnitPrice.IsNegative() {
		return nil, store.Invalid("unit_price", "must not be negative")
	}
	existing, exists := s.products[product.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	product.SKU = existing.SKU
	product.CreatedAt = existing.CreatedAt
	product.UnitPrice = product.UnitPrice.Round(2)
	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

// --- tanks, movements, pumps, readings ---

func (s *Store) CreateTank(_ context.Context, tank domain.Tank) (*domain.Tank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tank.Name = strings.TrimSpace(tank.Name)
	if tank.StationID == "" || tank.ProductID == "" || tank.Name == "" {
		return nil, store.Invalid("name", "station_id, product_id and name are required")
	}
	if tank.Capacity.IsNegative() || tank.CurrentStock.IsNegative() {
		return nil, store.Invalid("capacity", "capacity and stock must not be negative")
	}
	if _, exists := s.stations[tank.StationID]; !exists {
		return nil, store.ErrNotFound
	}
	if _, exists := s.products[tank.ProductID]; !exists {
		return nil, store.ErrNotFound
	}
	if tank.ID == "" {
		tank.ID = xid.New("tnk")
	}
	if tank.CreatedAt.IsZero() {
		tank.CreatedAt = time.Now().UTC()
	}
	tank.Capacity = tank.Capacity.Round(3)
	tank.CurrentStock = tank.CurrentStock.Round(3)
	s.tanks[tank.ID] = tank

	if tank.CurrentStock.IsPositive() {
		s.movements = append(s.movements, domain.StockMovement{
			ID:            xid.New("mov"),
			TankID:        tank.ID,
			MovementType:  domain.MovementIn,
			Quantity:      tank.CurrentStock,
			PreviousStock: decimal.Zero,
			NewStock:      tank.CurrentStock,
			ReferenceType: domain.ReferenceAdjustment,
			Notes:         "initial stock",
			CreatedAt:     tank.CreatedAt,
		})
	}
	created := tank
	return &created, nil
}

func (s *Store) ListTanks(_ context.Context, stationID string) ([]domain.Tank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tanks := make([]domain.Tank, 0, len(s.tanks))
	for _, t := range s.tanks {
		if stationID != "" && t.StationID != stationID {
			continue
		}
		tanks = append(tanks, t)
	}
	slices.SortFunc(tanks, func(a, b domain.Tank) int { return cmpString(a.Name, b.Name) })
	return tanks, nil
}

func (s *Store) GetTank(_ context.Context, id string) (*domain.Tank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.tanks[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := t
	return &found, nil
}

// shiftTankLocked mutates a tank's stock by delta; the caller holds the write
// lock and has already validated sufficiency for negative deltas.
func (s *Store) shiftTankLocked(tankID string, delta decimal.Decimal) decimal.Decimal {
	tank := s.tanks[tankID]
	tank.CurrentStock = tank.CurrentStock.Add(delta)
	s.tanks[tankID] = tank
	return tank.CurrentStock
}

func (s *Store) AdjustTankStock(_ context.Context, tankID string, delta decimal.Decimal, notes string) (*domain.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if delta.IsZero() {
		return nil, store.Invalid("quantity", "must not be zero")
	}
	delta = delta.Round(3)
	tank, exists := s.tanks[tankID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if tank.CurrentStock.Add(delta).IsNegative() {
		return nil, store.ErrInsufficientStock
	}

	newStock := s.shiftTankLocked(tankID, delta)
	movement := domain.StockMovement{
		ID:            xid.New("mov"),
		TankID:        tankID,
		MovementType:  domain.MovementAdjustment,
		Quantity:      delta.Abs(),
		PreviousStock: newStock.Sub(delta),
		NewStock:      newStock,
		ReferenceType: domain.ReferenceAdjustment,
		Notes:         notes,
		CreatedAt:     time.Now().UTC(),
	}
	s.movements = append(s.movements, movement)
	return &movement, nil
}

func (s *Store) ListStockMovements(_ context.Context, tankID string, limit int) ([]domain.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	movements := make([]domain.StockMovement, 0, limit)
	for i := len(s.movements) - 1; i >= 0 && len(movements) < limit; i-- {
		if s.movements[i].TankID == tankID {
			movements = append(movements, s.movements[i])
		}
	}
	return movements, nil
}

func (s *Store) CreatePump(_ context.Context, pump domain.Pump) (*domain.Pump, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pump.Name = strings.TrimSpace(pump.Name)
	if pump.StationID == "" || pump.TankID == "" || pump.Name == "" {
		return nil, store.Invalid("name", "station_id, tank_id and name are required")
	}
	if _, exists := s.tanks[pump.TankID]; !exists {
		return nil, store.ErrNotFound
	}
	if pump.ID == "" {
		pump.ID = xid.New("pmp")
	}
	if pump.CreatedAt.IsZero() {
		pump.CreatedAt = time.Now().UTC()
	}
	pump.Active = true
	s.pumps[pump.ID] = pump
	created := pump
	return &created, nil
}

func (s *Store) ListPumps(_ context.Context, stationID string) ([]domain.Pump, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pumps := make([]domain.Pump, 0, len(s.pumps))
	for _, p := range s.pumps {
		if stationID != "" && p.StationID != stationID {
			continue
		}
		pumps = append(pumps, p)
	}
	slices.SortFunc(pumps, func(a, b domain.Pump) int { return cmpString(a.Name, b.Name) })
	return pumps, nil
}

func (s *Store) CreatePumpReading(_ context.Context, reading domain.PumpReading) (*domain.PumpReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reading.PumpID == "" {
		return nil, store.Invalid("pump_id", "is required")
	}
	if reading.ClosingReading.LessThan(reading.OpeningReading) {
		return nil, store.Invalid("closing_reading", "must not be below opening_reading")
	}
	if _, exists := s.pumps[reading.PumpID]; !exists {
		return nil, store.ErrNotFound
	}
	day := reading.ReadingDate.UTC().Truncate(24 * time.Hour)
	for _, existing := range s.readings {
		if existing.PumpID == reading.PumpID && existing.ReadingDate.Equal(day) {
			return nil, store.ErrConflict
		}
	}
	if reading.ID == "" {
		reading.ID = xid.New("rdg")
	}
	if reading.CreatedAt.IsZero() {
		reading.CreatedAt = time.Now().UTC()
	}
	reading.ReadingDate = day
	reading.OpeningReading = reading.OpeningReading.Round(3)
	reading.ClosingReading = reading.ClosingReading.Round(3)
	s.readings[reading.ID] = reading
	created := reading
	return &created, nil
}

func (s *Store) ListPumpReadings(_ context.Context, pumpID string, from time.Time, to time.Time) ([]domain.PumpReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	readings := make([]domain.PumpReading, 0, 32)
	for _, r := range s.readings {
		if r.PumpID != pumpID {
			continue
		}
		if r.ReadingDate.Before(from) || !r.ReadingDate.Before(to) {
			continue
		}
		readings = append(readings, r)
	}
	slices.SortFunc(readings, func(a, b domain.PumpReading) int {
		if a.ReadingDate.Before(b.ReadingDate) {
			return -1
		}
		if a.ReadingDate.After(b.ReadingDate) {
			return 1
		}
		return 0
	})
	return readings, nil
}

// --- customers, suppliers, accounts ---

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer.Name = strings.TrimSpace(customer.Name)
	if customer.StationID == "" || customer.Name == "" {
		return nil, store.Invalid("name", "station_id and name are required")
	}
	if customer.CreditLimit.IsNegative() {
		return nil, store.Invalid("credit_limit", "must not be negative")
	}
	if _, exists := s.stations[customer.StationID]; !exists {
		return nil, store.ErrNotFound
	}
	if customer.ID == "" {
		customer.ID = xid.New("cus")
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}
	customer.CreditLimit = customer.CreditLimit.Round(2)
	customer.OutstandingAmount = customer.OutstandingAmount.Round(2)
	s.customers[customer.ID] = customer
	created := customer
	return &created, nil
}

func (s *Store) ListCustomers(_ context.Context, stationID string) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		if stationID != "" && c.StationID != stationID {
			continue
		}
		customers = append(customers, c)
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int { return cmpString(a.Name, b.Name) })
	return customers, nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.customers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := c
	return &found, nil
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, store.Invalid("name", "is required")
	}
	if supplier.ID == "" {
		supplier.ID = xid.New("sup")
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}
	supplier.OutstandingAmount = supplier.OutstandingAmount.Round(2)
	s.suppliers[supplier.ID] = supplier
	created := supplier
	return &created, nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suppliers := make([]domain.Supplier, 0, len(s.suppliers))
	for _, sp := range s.suppliers {
		suppliers = append(suppliers, sp)
	}
	slices.SortFunc(suppliers, func(a, b domain.Supplier) int { return cmpString(a.Name, b.Name) })
	return suppliers, nil
}

func (s *Store) GetSupplier(_ context.Context, id string) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp, exists := s.suppliers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := sp
	return &found, nil
}

func (s *Store) CreateAccount(_ context.Context, account domain.Account) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account.Code = strings.ToUpper(strings.TrimSpace(account.Code))
	account.Name = strings.TrimSpace(account.Name)
	if account.Code == "" || account.Name == "" || account.Type == "" {
		return nil, store.Invalid("code", "code, name and type are required")
	}
	if _, exists := s.accountCodes[account.Code]; exists {
		return nil, store.ErrConflict
	}
	if account.ID == "" {
		account.ID = xid.New("acc")
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	account.Active = true
	s.accounts[account.ID] = account
	s.accountCodes[account.Code] = account.ID
	created := account
	return &created, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		accounts = append(accounts, a)
	}
	slices.SortFunc(accounts, func(a, b domain.Account) int { return cmpString(a.Code, b.Code) })
	return accounts, nil
}
