package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fuelpos/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOverpayment       = errors.New("payment exceeds outstanding balance")
	ErrValidation        = errors.New("validation failed")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries per-field detail for 400 responses. It unwraps to
// ErrValidation so callers can match it with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func Invalid(field string, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Repository is the single persistence boundary: every entity, including
// expenses and pump readings, is reached through it.
type Repository interface {
	// Stations and settings.
	CreateStation(ctx context.Context, station domain.Station) (*domain.Station, error)
	ListStations(ctx context.Context) ([]domain.Station, error)
	GetStation(ctx context.Context, id string) (*domain.Station, error)
	GetOrCreateSettings(ctx context.Context, stationID string) (*domain.StationSettings, error)
	UpdateSettings(ctx context.Context, settings domain.StationSettings) (*domain.StationSettings, error)

	// Users.
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error

	// Products.
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)

	// Tanks, pumps, readings.
	CreateTank(ctx context.Context, tank domain.Tank) (*domain.Tank, error)
	ListTanks(ctx context.Context, stationID string) ([]domain.Tank, error)
	GetTank(ctx context.Context, id string) (*domain.Tank, error)
	AdjustTankStock(ctx context.Context, tankID string, delta decimal.Decimal, notes string) (*domain.StockMovement, error)
	ListStockMovements(ctx context.Context, tankID string, limit int) ([]domain.StockMovement, error)
	CreatePump(ctx context.Context, pump domain.Pump) (*domain.Pump, error)
	ListPumps(ctx context.Context, stationID string) ([]domain.Pump, error)
	CreatePumpReading(ctx context.Context, reading domain.PumpReading) (*domain.PumpReading, error)
	ListPumpReadings(ctx context.Context, pumpID string, from time.Time, to time.Time) ([]domain.PumpReading, error)

	// Parties.
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	ListCustomers(ctx context.Context, stationID string) ([]domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	GetSupplier(ctx context.Context, id string) (*domain.Supplier, error)

	// Chart of accounts.
	CreateAccount(ctx context.Context, account domain.Account) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// Sales. CreateSale persists the header, its items, the derived stock
	// movements, the customer balance change and the journal entry in one
	// transaction; a failure at any step leaves nothing behind.
	CreateSale(ctx context.Context, sale domain.SalesTransaction, journal *domain.JournalEntry) (*domain.SalesTransaction, error)
	UpdateSale(ctx context.Context, sale domain.SalesTransaction) (*domain.SalesTransaction, error)
	DeleteSale(ctx context.Context, id string) error
	GetSale(ctx context.Context, id string) (*domain.SalesTransaction, error)
	ListSales(ctx context.Context, stationID string, from time.Time, to time.Time, limit int) ([]domain.SalesTransaction, error)

	// Purchases.
	CreatePurchaseOrder(ctx context.Context, order domain.PurchaseOrder, journal *domain.JournalEntry) (*domain.PurchaseOrder, error)
	GetPurchaseOrder(ctx context.Context, id string) (*domain.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, stationID string, status string, limit int) ([]domain.PurchaseOrder, error)
	ReceivePurchaseOrder(ctx context.Context, id string, receivedBy string, receivedAt time.Time) (*domain.PurchaseOrder, error)

	// Expenses and payments.
	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	ListExpenses(ctx context.Context, stationID string, from time.Time, to time.Time) ([]domain.Expense, error)
	CreatePayment(ctx context.Context, payment domain.Payment, journal *domain.JournalEntry) (*domain.Payment, error)
	ListPayments(ctx context.Context, stationID string, from time.Time, to time.Time) ([]domain.Payment, error)

	// Ledger.
	CreateJournalEntry(ctx context.Context, entry domain.JournalEntry) (*domain.JournalEntry, error)
	ListJournalEntries(ctx context.Context, stationID string, from time.Time, to time.Time, limit int) ([]domain.JournalEntry, error)

	// Reconciliation and reports.
	RecomputeBalances(ctx context.Context, stationID string, apply bool) ([]domain.BalanceDrift, error)
	GetDailyReport(ctx context.Context, stationID string, from time.Time, to time.Time) (domain.DailyReport, error)
	GetFinancialReport(ctx context.Context, stationID string, from time.Time, to time.Time) (domain.FinancialReport, error)
	GetAgingReport(ctx context.Context, stationID string, side string, asOf time.Time) (domain.AgingReport, error)

	// Audit trail.
	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, stationID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)
}
