package memory

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"fuelpos/backend/internal/domain"
	"fuelpos/backend/internal/store"
	"fuelpos/backend/internal/xid"
)

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.StationID == "" || expense.Category == "" {
		return nil, store.Invalid("category", "station_id and category are required")
	}
	if !expense.Amount.IsPositive() {
		return nil, store.Invalid("amount", "must be positive")
	}
	if _, exists := s.stations[expense.StationID]; !exists {
		return nil, store.ErrNotFound
	}
	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}
	if expense.ExpenseDate.IsZero() {
		expense.ExpenseDate = expense.CreatedAt
	}
	expense.ExpenseDate = expense.ExpenseDate.UTC().Truncate(24 * time.Hour)
	expense.Amount = expense.Amount.Round(2)
	s.expenses[expense.ID] = expense
	created := expense
	return &created, nil
}

func (s *Store) ListExpenses(_ context.Context, stationID string, from time.Time, to time.Time) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := make([]domain.Expense, 0, 32)
	for _, e := range s.expenses {
		if stationID != "" && e.StationID != stationID {
			continue
		}
		if e.ExpenseDate.Before(from) || !e.ExpenseDate.Before(to) {
			continue
		}
		expenses = append(expenses, e)
	}
	slices.SortFunc(expenses, func(a, b domain.Expense) int {
		if a.ExpenseDate.After(b.ExpenseDate) {
			return -1
		}
		if a.ExpenseDate.Before(b.ExpenseDate) {
			return 1
		}
		return cmpString(a.ID, b.ID)
	})
	return expenses, nil
}

func (s *Store) CreatePayment(_ context.Context, payment domain.Payment, journal *domain.JournalEntry) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !payment.Amount.IsPositive() {
		return nil, store.Invalid("amount", "must be positive")
	}
	payment.Amount = payment.Amount.Round(2)
	if journal != nil {
		if err := checkJournal(journal); err != nil {
			return nil, err
		}
	}

	switch payment.PaymentType {
	case domain.PaymentTypeReceivable:
		customer, exists := s.customers[payment.CustomerID]
		if !exists {
			return nil, store.ErrNotFound
		}
		if customer.OutstandingAmount.LessThan(payment.Amount) {
			return nil, store.ErrOverpayment
		}
		customer.OutstandingAmount = customer.OutstandingAmount.Sub(payment.Amount)
		s.customers[payment.CustomerID] = customer
	case domain.PaymentTypePayable:
		supplier, exists := s.suppliers[payment.SupplierID]
		if !exists {
			return nil, store.ErrNotFound
		}
		if supplier.OutstandingAmount.LessThan(payment.Amount) {
			return nil, store.ErrOverpayment
		}
		supplier.OutstandingAmount = supplier.OutstandingAmount.Sub(payment.Amount)
		s.suppliers[payment.SupplierID] = supplier
	default:
		return nil, store.Invalid("payment_type", "must be receivable or payable")
	}

	if payment.ID == "" {
		payment.ID = xid.New("pay")
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	s.payments[payment.ID] = payment
	if journal != nil {
		journal.ReferenceType = domain.ReferencePayment
		journal.ReferenceID = payment.ID
		s.insertJournalLocked(journal)
	}
	created := payment
	return &created, nil
}

func (s *Store) ListPayments(_ context.Context, stationID string, from time.Time, to time.Time) ([]domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payments := make([]domain.Payment, 0, 32)
	for _, p := range s.payments {
		if stationID != "" && p.StationID != stationID {
			continue
		}
		if p.CreatedAt.Before(from) || !p.CreatedAt.Before(to) {
			continue
		}
		payments = append(payments, p)
	}
	slices.SortFunc(payments, func(a, b domain.Payment) int {
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return 1
		}
		return cmpString(a.ID, b.ID)
	})
	return payments, nil
}

func checkJournal(entry *domain.JournalEntry) error {
	if len(entry.Lines) < 2 {
		return store.Invalid("lines", "at least two lines are required")
	}
	if !entry.Balanced() {
		return store.Invalid("lines", "debits must equal credits")
	}
	return nil
}

func (s *Store) insertJournalLocked(entry *domain.JournalEntry) {
	if entry.ID == "" {
		entry.ID = xid.New("jrn")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.EntryDate.IsZero() {
		entry.EntryDate = entry.CreatedAt
	}
	entry.EntryDate = entry.EntryDate.UTC().Truncate(24 * time.Hour)
	for i := range entry.Lines {
		line := &entry.Lines[i]
		if line.ID == "" {
			line.ID = xid.New("jln")
		}
		line.EntryID = entry.ID
	}
	stored := *entry
	stored.Lines = slices.Clone(entry.Lines)
	s.journals[entry.ID] = stored
	s.entryNos[entry.EntryNumber] = entry.ID
}

func (s *Store) CreateJournalEntry(_ context.Context, entry domain.JournalEntry) (*domain.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkJournal(&entry); err != nil {
		return nil, err
	}
	if _, exists := s.entryNos[entry.EntryNumber]; exists {
		return nil, store.ErrConflict
	}
	s.insertJournalLocked(&entry)
	created := entry
	return &created, nil
}

func (s *Store) ListJournalEntries(_ context.Context, stationID string, from time.Time, to time.Time, limit int) ([]domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	entries := make([]domain.JournalEntry, 0, limit)
	for _, e := range s.journals {
		if stationID != "" && e.StationID != stationID {
			continue
		}
		if e.EntryDate.Before(from) || !e.EntryDate.Before(to) {
			continue
		}
		e.Lines = slices.Clone(e.Lines)
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b domain.JournalEntry) int {
		if a.EntryDate.After(b.EntryDate) {
			return -1
		}
		if a.EntryDate.Before(b.EntryDate) {
			return 1
		}
		return cmpString(a.ID, b.ID)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// RecomputeBalances rebuilds outstanding balances from sale/purchase and
// payment history and reports per-party drift, rewriting the stored value
// when apply is set.
func (s *Store) RecomputeBalances(_ context.Context, stationID string, apply bool) ([]domain.BalanceDrift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drifts := make([]domain.BalanceDrift, 0, 8)

	customerIDs := make([]string, 0, len(s.customers))
	for id, c := range s.customers {
		if stationID != "" && c.StationID != stationID {
			continue
		}
		customerIDs = append(customerIDs, id)
	}
	slices.SortFunc(customerIDs, cmpString)
	for _, id := range customerIDs {
		customer := s.customers[id]
		computed := decimal.Zero
		for _, sale := range s.sales {
			if sale.CustomerID == id && sale.PaymentMethod == domain.PaymentMethodCredit {
				computed = computed.Add(sale.OutstandingAmount)
			}
		}
		for _, payment := range s.payments {
			if payment.CustomerID == id && payment.PaymentType == domain.PaymentTypeReceivable {
				computed = computed.Sub(payment.Amount)
			}
		}
		if customer.OutstandingAmount.Equal(computed) {
			continue
		}
		drifts = append(drifts, domain.BalanceDrift{
			PartyType: "customer",
			PartyID:   id,
			PartyName: customer.Name,
			Stored:    customer.OutstandingAmount,
			Computed:  computed,
			Drift:     customer.OutstandingAmount.Sub(computed),
		})
		if apply {
			customer.OutstandingAmount = computed
			s.customers[id] = customer
		}
	}

	supplierIDs := make([]string, 0, len(s.suppliers))
	for id := range s.suppliers {
		supplierIDs = append(supplierIDs, id)
	}
	slices.SortFunc(supplierIDs, cmpString)
	for _, id := range supplierIDs {
		supplier := s.suppliers[id]
		computed := decimal.Zero
		for _, order := range s.purchases {
			if order.SupplierID != id {
				continue
			}
			if stationID != "" && order.StationID != stationID {
				continue
			}
			computed = computed.Add(order.OutstandingAmount)
		}
		for _, payment := range s.payments {
			if payment.SupplierID != id || payment.PaymentType != domain.PaymentTypePayable {
				continue
			}
			if stationID != "" && payment.StationID != stationID {
				continue
			}
			computed = computed.Sub(payment.Amount)
		}
		if supplier.OutstandingAmount.Equal(computed) {
			continue
		}
		drifts = append(drifts, domain.BalanceDrift{
			PartyType: "supplier",
			PartyID:   id,
			PartyName: supplier.Name,
			Stored:    supplier.OutstandingAmount,
			Computed:  computed,
			Drift:     supplier.OutstandingAmount.Sub(computed),
		})
		if apply {
			supplier.OutstandingAmount = computed
			s.suppliers[id] = supplier
		}
	}

	return drifts, nil
}

// SkewCustomerBalance overwrites a customer's stored outstanding without any
// backing history. Test hook for the reconciliation flow.
func (s *Store) SkewCustomerBalance(customerID string, amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer, exists := s.customers[customerID]
	if !exists {
		return
	}
	customer.OutstandingAmount = amount
	s.customers[customerID] = customer
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, stationID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	logs := make([]domain.AuditLog, 0, limit)
	for i := len(s.auditLogs) - 1; i >= 0 && len(logs) < limit; i-- {
		entry := s.auditLogs[i]
		if stationID != "" && entry.StationID != stationID {
			continue
		}
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		logs = append(logs, entry)
	}
	return logs, nil
}
