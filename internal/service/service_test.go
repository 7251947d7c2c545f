package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fuelpos/backend/internal/domain"
	"fuelpos/backend/internal/store"
	"fuelpos/backend/internal/store/memory"
)

func newTestService() (*Service, *memory.Store) {
	repo := memory.NewSeeded()
	return New(repo, nil), repo
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: domain.RoleAdmin})
}

func cashierCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "cashier", Role: domain.RoleCashier, StationID: "stn-main"})
}

func managerCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "manager", Role: domain.RoleManager, StationID: "stn-main"})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// petrolSale builds a cash sale of the given litres at the seeded petrol price.
func petrolSale(litres string, method string, paidFraction string) domain.SaleCreateRequest {
	qty := dec(litres)
	subtotal := qty.Mul(dec("1.85")).Round(2)
	paid := subtotal.Mul(dec(paidFraction)).Round(2)
	return domain.SaleCreateRequest{
		Transaction: domain.SaleHeaderInput{
			StationID:         "stn-main",
			PaymentMethod:     method,
			Subtotal:          subtotal,
			TaxAmount:         decimal.Zero,
			TotalAmount:       subtotal,
			PaidAmount:        paid,
			OutstandingAmount: subtotal.Sub(paid),
		},
		Items: []domain.SaleItemInput{
			{ProductID: "prd-petrol", TankID: "tnk-petrol", Quantity: qty, UnitPrice: dec("1.85")},
		},
	}
}

func TestRecordSaleCashMovesStockAndPostsJournal(t *testing.T) {
	svc, repo := newTestService()
	ctx := cashierCtx()

	sale, err := svc.RecordSale(ctx, petrolSale("10.000", domain.PaymentMethodCash, "1"))
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}
	if !strings.HasPrefix(sale.InvoiceNumber, "INV-") {
		t.Fatalf("unexpected invoice number %q", sale.InvoiceNumber)
	}
	if !sale.TotalAmount.Equal(dec("18.50")) {
		t.Fatalf("total = %s, want 18.50", sale.TotalAmount)
	}
	if sale.Cashier != "cashier" {
		t.Fatalf("cashier = %q", sale.Cashier)
	}

	tank, err := repo.GetTank(ctx, "tnk-petrol")
	if err != nil {
		t.Fatalf("GetTank: %v", err)
	}
	if !tank.CurrentStock.Equal(dec("11990")) {
		t.Fatalf("stock = %s, want 11990", tank.CurrentStock)
	}

	movements, err := repo.ListStockMovements(ctx, "tnk-petrol", 5)
	if err != nil {
		t.Fatalf("ListStockMovements: %v", err)
	}
	if len(movements) == 0 {
		t.Fatal("no stock movement recorded")
	}
	last := movements[0]
	if last.MovementType != domain.MovementOut || last.ReferenceID != sale.ID {
		t.Fatalf("unexpected movement %+v", last)
	}
	if !last.PreviousStock.Sub(last.Quantity).Equal(last.NewStock) {
		t.Fatalf("movement arithmetic broken: %s - %s != %s", last.PreviousStock, last.Quantity, last.NewStock)
	}

	entries, err := svc.ListJournalEntries(adminCtx(), "stn-main", zeroTime(), zeroTime(), 10)
	if err != nil {
		t.Fatalf("ListJournalEntries: %v", err)
	}
	found := false
	for _, entry := range entries {
		if entry.ReferenceType == domain.ReferenceSale && entry.ReferenceID == sale.ID {
			found = true
			if !entry.Balanced() {
				t.Fatalf("sale journal not balanced: %+v", entry)
			}
		}
	}
	if !found {
		t.Fatal("no journal entry posted for the sale")
	}
}

func TestRecordSaleRejectsBadHeaders(t *testing.T) {
	svc, repo := newTestService()
	ctx := cashierCtx()

	cases := map[string]domain.SaleCreateRequest{
		"underpaid cash":  petrolSale("10", domain.PaymentMethodCash, "0.5"),
		"wrong subtotal":  {Transaction: domain.SaleHeaderInput{StationID: "stn-main", PaymentMethod: "cash", Subtotal: dec("99"), TotalAmount: dec("99"), PaidAmount: dec("99")}, Items: petrolSale("10", "cash", "1").Items},
		"no items":        {Transaction: petrolSale("10", "cash", "1").Transaction},
		"credit no party": petrolSale("10", domain.PaymentMethodCredit, "0"),
	}
	overpaid := petrolSale("10", domain.PaymentMethodCash, "1")
	overpaid.Transaction.PaidAmount = dec("100.00")
	cases["overpaid"] = overpaid

	for name, req := range cases {
		if _, err := svc.RecordSale(ctx, req); !errors.Is(err, store.ErrValidation) {
			t.Errorf("%s: err = %v, want validation error", name, err)
		}
	}

	tank, _ := repo.GetTank(ctx, "tnk-petrol")
	if !tank.CurrentStock.Equal(dec("12000")) {
		t.Fatalf("stock moved on rejected sales: %s", tank.CurrentStock)
	}
}

func TestRecordSaleInsufficientStockLeavesNothingBehind(t *testing.T) {
	svc, repo := newTestService()
	ctx := cashierCtx()

	_, err := svc.RecordSale(ctx, petrolSale("12001", domain.PaymentMethodCash, "1"))
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	tank, _ := repo.GetTank(ctx, "tnk-petrol")
	if !tank.CurrentStock.Equal(dec("12000")) {
		t.Fatalf("stock = %s, want 12000", tank.CurrentStock)
	}
	sales, err := svc.ListSales(ctx, "stn-main", zeroTime(), zeroTime(), 10)
	if err != nil {
		t.Fatalf("ListSales: %v", err)
	}
	if len(sales) != 0 {
		t.Fatalf("found %d sales after a failed one", len(sales))
	}
}

func TestCreditSaleRaisesOutstandingAndHonoursLimit(t *testing.T) {
	svc, repo := newTestService()
	ctx := cashierCtx()

	req := petrolSale("100", domain.PaymentMethodCredit, "0")
	req.Transaction.CustomerID = "cus-taxi"
	sale, err := svc.RecordSale(ctx, req)
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}

	customer, err := repo.GetCustomer(ctx, "cus-taxi")
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if !customer.OutstandingAmount.Equal(sale.OutstandingAmount) {
		t.Fatalf("outstanding = %s, want %s", customer.OutstandingAmount, sale.OutstandingAmount)
	}

	// Seeded limit is 1500; this pushes past it.
	big := petrolSale("800", domain.PaymentMethodCredit, "0")
	big.Transaction.CustomerID = "cus-taxi"
	if _, err := svc.RecordSale(ctx, big); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("err = %v, want credit limit rejection", err)
	}
}

func TestUpdateAndDeleteSaleRestoreStock(t *testing.T) {
	svc, repo := newTestService()
	ctx := managerCtx()

	sale, err := svc.RecordSale(ctx, petrolSale("10", domain.PaymentMethodCash, "1"))
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}

	updated, err := svc.UpdateSale(ctx, sale.ID, petrolSale("4", domain.PaymentMethodCash, "1"))
	if err != nil {
		t.Fatalf("UpdateSale: %v", err)
	}
	if updated.InvoiceNumber != sale.InvoiceNumber {
		t.Fatalf("invoice changed on edit: %q -> %q", sale.InvoiceNumber, updated.InvoiceNumber)
	}
	tank, _ := repo.GetTank(ctx, "tnk-petrol")
	if !tank.CurrentStock.Equal(dec("11996")) {
		t.Fatalf("stock after edit = %s, want 11996", tank.CurrentStock)
	}

	if err := svc.DeleteSale(ctx, sale.ID); err != nil {
		t.Fatalf("DeleteSale: %v", err)
	}
	tank, _ = repo.GetTank(ctx, "tnk-petrol")
	if !tank.CurrentStock.Equal(dec("12000")) {
		t.Fatalf("stock after delete = %s, want 12000", tank.CurrentStock)
	}
	if _, err := svc.GetSale(ctx, sale.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetSale after delete: %v", err)
	}
}

func TestPaymentsSettleReceivablesAndRejectOverpayment(t *testing.T) {
	svc, repo := newTestService()
	ctx := cashierCtx()

	req := petrolSale("100", domain.PaymentMethodCredit, "0")
	req.Transaction.CustomerID = "cus-haulage"
	sale, err := svc.RecordSale(ctx, req)
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}

	payment, err := svc.RecordPayment(ctx, domain.PaymentCreateRequest{
		StationID:   "stn-main",
		PaymentType: domain.PaymentTypeReceivable,
		CustomerID:  "cus-haulage",
		Amount:      dec("40.00"),
		Method:      domain.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if !payment.Amount.Equal(dec("40.00")) {
		t.Fatalf("payment amount = %s", payment.Amount)
	}

	customer, _ := repo.GetCustomer(ctx, "cus-haulage")
	want := sale.OutstandingAmount.Sub(dec("40.00"))
	if !customer.OutstandingAmount.Equal(want) {
		t.Fatalf("outstanding = %s, want %s", customer.OutstandingAmount, want)
	}

	_, err = svc.RecordPayment(ctx, domain.PaymentCreateRequest{
		StationID:   "stn-main",
		PaymentType: domain.PaymentTypeReceivable,
		CustomerID:  "cus-haulage",
		Amount:      dec("10000.00"),
		Method:      domain.PaymentMethodCash,
	})
	if !errors.Is(err, store.ErrOverpayment) {
		t.Fatalf("err = %v, want ErrOverpayment", err)
	}
}

func TestPurchaseOrderStocksTanksOnReceiptOnly(t *testing.T) {
	svc, repo := newTestService()
	ctx := managerCtx()

	order, err := svc.CreatePurchaseOrder(ctx, domain.PurchaseCreateRequest{
		Order: domain.PurchaseHeaderInput{
			StationID:     "stn-main",
			SupplierID:    "sup-fuelco",
			PaymentMethod: domain.PaymentMethodCredit,
			PaidAmount:    decimal.Zero,
		},
		Items: []domain.PurchaseItemInput{
			{ProductID: "prd-petrol", TankID: "tnk-petrol", Quantity: dec("1000"), UnitCost: dec("1.20")},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	if order.Status != domain.PurchaseStatusPending {
		t.Fatalf("status = %q, want pending", order.Status)
	}

	tank, _ := repo.GetTank(ctx, "tnk-petrol")
	if !tank.CurrentStock.Equal(dec("12000")) {
		t.Fatalf("stock moved before receipt: %s", tank.CurrentStock)
	}
	supplier, _ := repo.GetSupplier(ctx, "sup-fuelco")
	if !supplier.OutstandingAmount.Equal(order.OutstandingAmount) {
		t.Fatalf("supplier outstanding = %s, want %s", supplier.OutstandingAmount, order.OutstandingAmount)
	}

	received, err := svc.ReceivePurchaseOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("ReceivePurchaseOrder: %v", err)
	}
	if received.Status != domain.PurchaseStatusReceived || received.ReceivedAt == nil {
		t.Fatalf("unexpected received order %+v", received)
	}
	tank, _ = repo.GetTank(ctx, "tnk-petrol")
	if !tank.CurrentStock.Equal(dec("13000")) {
		t.Fatalf("stock after receipt = %s, want 13000", tank.CurrentStock)
	}

	if _, err := svc.ReceivePurchaseOrder(ctx, order.ID); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("second receive: err = %v, want ErrConflict", err)
	}
}

func TestPurchaseOrderAppliesStationTaxRatePercent(t *testing.T) {
	svc, _ := newTestService()
	ctx := managerCtx()

	rate := dec("10")
	if _, err := svc.UpdateSettings(ctx, "stn-main", domain.SettingsUpdateRequest{TaxRate: &rate}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	order, err := svc.CreatePurchaseOrder(ctx, domain.PurchaseCreateRequest{
		Order: domain.PurchaseHeaderInput{
			StationID:     "stn-main",
			SupplierID:    "sup-fuelco",
			PaymentMethod: domain.PaymentMethodCredit,
			PaidAmount:    decimal.Zero,
		},
		Items: []domain.PurchaseItemInput{
			{ProductID: "prd-petrol", TankID: "tnk-petrol", Quantity: dec("1000"), UnitCost: dec("1.20")},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	if !order.Subtotal.Equal(dec("1200.00")) {
		t.Fatalf("subtotal = %s, want 1200.00", order.Subtotal)
	}
	if !order.TaxAmount.Equal(dec("120.00")) {
		t.Fatalf("tax = %s, want 120.00 (10%% of subtotal)", order.TaxAmount)
	}
	if !order.TotalAmount.Equal(dec("1320.00")) {
		t.Fatalf("total = %s, want 1320.00", order.TotalAmount)
	}
	if !order.OutstandingAmount.Equal(dec("1320.00")) {
		t.Fatalf("outstanding = %s, want 1320.00", order.OutstandingAmount)
	}

	entries, err := svc.ListJournalEntries(adminCtx(), "stn-main", zeroTime(), zeroTime(), 10)
	if err != nil {
		t.Fatalf("ListJournalEntries: %v", err)
	}
	found := false
	for _, entry := range entries {
		if entry.ReferenceType != domain.ReferencePurchase || entry.ReferenceID != order.ID {
			continue
		}
		found = true
		if !entry.Balanced() {
			t.Fatalf("purchase journal not balanced: %+v", entry)
		}
		for _, line := range entry.Lines {
			if line.AccountCode == accountInventory && !line.Debit.Equal(dec("1320.00")) {
				t.Fatalf("inventory debit = %s, want 1320.00", line.Debit)
			}
		}
	}
	if !found {
		t.Fatal("no journal entry posted for the order")
	}
}

func TestUpdateSettingsBoundsTaxRate(t *testing.T) {
	svc, _ := newTestService()
	ctx := managerCtx()

	over := dec("250")
	if _, err := svc.UpdateSettings(ctx, "stn-main", domain.SettingsUpdateRequest{TaxRate: &over}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("tax_rate=250: err = %v, want ErrValidation", err)
	}

	negative := dec("-1")
	if _, err := svc.UpdateSettings(ctx, "stn-main", domain.SettingsUpdateRequest{TaxRate: &negative}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("tax_rate=-1: err = %v, want ErrValidation", err)
	}
}

func TestReconcileDetectsAndRepairsDrift(t *testing.T) {
	svc, repo := newTestService()
	ctx := cashierCtx()

	req := petrolSale("100", domain.PaymentMethodCredit, "0")
	req.Transaction.CustomerID = "cus-haulage"
	sale, err := svc.RecordSale(ctx, req)
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}

	repo.SkewCustomerBalance("cus-haulage", dec("999.99"))

	result, err := svc.Reconcile(managerCtx(), "stn-main", false)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(result.Drifts) != 1 {
		t.Fatalf("drifts = %d, want 1", len(result.Drifts))
	}
	drift := result.Drifts[0]
	if drift.PartyID != "cus-haulage" || !drift.Computed.Equal(sale.OutstandingAmount) {
		t.Fatalf("unexpected drift %+v", drift)
	}

	if _, err := svc.Reconcile(managerCtx(), "stn-main", true); err != nil {
		t.Fatalf("Reconcile apply: %v", err)
	}
	customer, _ := repo.GetCustomer(ctx, "cus-haulage")
	if !customer.OutstandingAmount.Equal(sale.OutstandingAmount) {
		t.Fatalf("outstanding after repair = %s, want %s", customer.OutstandingAmount, sale.OutstandingAmount)
	}

	clean, err := svc.Reconcile(managerCtx(), "stn-main", false)
	if err != nil {
		t.Fatalf("Reconcile after repair: %v", err)
	}
	if len(clean.Drifts) != 0 {
		t.Fatalf("drifts remain after repair: %+v", clean.Drifts)
	}
}

func TestCreateJournalEntryRejectsUnbalancedLines(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateJournalEntry(managerCtx(), domain.JournalEntryCreateRequest{
		StationID: "stn-main",
		Lines: []domain.JournalLineInput{
			{AccountCode: "6000", Debit: dec("50.00")},
			{AccountCode: "1000", Credit: dec("40.00")},
		},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestRoleAndStationScoping(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.CreateProduct(cashierCtx(), domain.ProductCreateRequest{
		SKU: "X", Name: "X", Category: domain.CategoryOther, UnitPrice: dec("1"),
	}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cashier CreateProduct: err = %v, want ErrForbidden", err)
	}

	other, err := svc.CreateStation(adminCtx(), domain.StationCreateRequest{Code: "NORTH", Name: "North Station"})
	if err != nil {
		t.Fatalf("CreateStation: %v", err)
	}
	if _, err := svc.GetSettings(managerCtx(), other.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-station settings read: err = %v, want ErrForbidden", err)
	}

	if _, err := svc.RecordSale(context.Background(), petrolSale("1", "cash", "1")); !errors.Is(err, ErrForbidden) {
		t.Fatalf("anonymous RecordSale: err = %v, want ErrForbidden", err)
	}
}

func TestDailyReportAggregatesSalesAndExpenses(t *testing.T) {
	svc, _ := newTestService()
	ctx := cashierCtx()

	sale, err := svc.RecordSale(ctx, petrolSale("20", domain.PaymentMethodCash, "1"))
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}
	if _, err := svc.RecordExpense(ctx, domain.ExpenseCreateRequest{
		StationID: "stn-main",
		Category:  "utilities",
		Amount:    dec("12.00"),
	}); err != nil {
		t.Fatalf("RecordExpense: %v", err)
	}

	report, err := svc.GetDailyReport(managerCtx(), "stn-main", sale.CreatedAt)
	if err != nil {
		t.Fatalf("GetDailyReport: %v", err)
	}
	if report.Transactions != 1 {
		t.Fatalf("transactions = %d, want 1", report.Transactions)
	}
	if !report.GrossSales.Equal(sale.TotalAmount) {
		t.Fatalf("gross = %s, want %s", report.GrossSales, sale.TotalAmount)
	}
	wantNet := sale.PaidAmount.Sub(dec("12.00"))
	if !report.CashFlow.Net.Equal(wantNet) {
		t.Fatalf("cash flow net = %s, want %s", report.CashFlow.Net, wantNet)
	}
}

func TestAuthenticateSeededUsers(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	actor, err := svc.Authenticate(ctx, domain.LoginRequest{Username: "Manager", Password: "manager123"})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if actor.Role != domain.RoleManager || actor.StationID != "stn-main" {
		t.Fatalf("unexpected actor %+v", actor)
	}

	if _, err := svc.Authenticate(ctx, domain.LoginRequest{Username: "manager", Password: "wrong"}); err == nil {
		t.Fatal("wrong password accepted")
	}
}

func zeroTime() time.Time { return time.Time{} }
