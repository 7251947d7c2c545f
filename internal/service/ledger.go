package service

import (
	"context"
	"strconv"
	"time"

	"fuelpos/backend/internal/domain"
	"fuelpos/backend/internal/store"
)

// RecordExpense stores the expense and posts it to the ledger. The posting is
// a second repository call: a failure there surfaces to the caller while the
// expense row stays, and the next reconciliation report will show the gap.
func (s *Service) RecordExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	actor, err := requireRole(ctx)
	if err != nil {
		return domain.Expense{}, err
	}
	if err := s.check(req); err != nil {
		return domain.Expense{}, err
	}
	if err := scopeStation(actor, req.StationID); err != nil {
		return domain.Expense{}, err
	}
	if !req.Amount.IsPositive() {
		return domain.Expense{}, store.Invalid("amount", "must be positive")
	}

	now := time.Now().UTC()
	expenseDate := now
	if req.ExpenseDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ExpenseDate)
		if err != nil {
			return domain.Expense{}, store.Invalid("expense_date", "must be YYYY-MM-DD")
		}
		expenseDate = parsed
	}

	created, err := s.repo.CreateExpense(ctx, domain.Expense{
		StationID:   req.StationID,
		Category:    req.Category,
		Amount:      req.Amount.Round(2),
		Description: req.Description,
		ExpenseDate: expenseDate,
		RecordedBy:  actor.Username,
		CreatedAt:   now,
	})
	if err != nil {
		return domain.Expense{}, err
	}

	_, err = s.repo.CreateJournalEntry(ctx, domain.JournalEntry{
		EntryNumber:   entryNumber(now),
		StationID:     created.StationID,
		EntryDate:     created.ExpenseDate,
		Description:   "expense " + created.Category,
		ReferenceType: domain.ReferenceExpense,
		ReferenceID:   created.ID,
		Lines: []domain.JournalLine{
			{AccountCode: accountExpense, Debit: created.Amount, Memo: created.Category},
			{AccountCode: accountCash, Credit: created.Amount, Memo: "expense paid"},
		},
	})
	if err != nil {
		return domain.Expense{}, err
	}

	s.dropDailyReport(ctx, created.StationID, created.ExpenseDate)
	s.logAudit(ctx, created.StationID, "expense_record", "expense", created.ID, "category="+created.Category+",amount="+created.Amount.String())
	return *created, nil
}

func (s *Service) ListExpenses(ctx context.Context, stationID string, from time.Time, to time.Time) ([]domain.Expense, error) {
	actor, err := requireRole(ctx)
	if err != nil {
		return nil, err
	}
	if err := scopeStation(actor, stationID); err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = time.Now().UTC().Add(24 * time.Hour)
	}
	return s.repo.ListExpenses(ctx, stationID, from, to)
}

// RecordPayment settles part of a customer or supplier balance. The balance
// decrement, the payment row and the journal posting share one repository
// transaction; paying more than is outstanding fails whole.
func (s *Service) RecordPayment(ctx context.Context, req domain.PaymentCreateRequest) (domain.Payment, error) {
	roles := []string{}
	if req.PaymentType == domain.PaymentTypePayable {
		roles = []string{domain.RoleAdmin, domain.RoleManager}
	}
	actor, err := requireRole(ctx, roles...)
	if err != nil {
		return domain.Payment{}, err
	}
	if err := s.check(req); err != nil {
		return domain.Payment{}, err
	}
	if err := scopeStation(actor, req.StationID); err != nil {
		return domain.Payment{}, err
	}
	if !req.Amount.IsPositive() {
		return domain.Payment{}, store.Invalid("amount", "must be positive")
	}

	switch req.PaymentType {
	case domain.PaymentTypeReceivable:
		if req.CustomerID == "" {
			return domain.Payment{}, store.Invalid("customer_id", "is required for receivable payments")
		}
		customer, err := s.repo.GetCustomer(ctx, req.CustomerID)
		if err != nil {
			return domain.Payment{}, err
		}
		if customer.StationID != req.StationID {
			return domain.Payment{}, store.Invalid("customer_id", "customer belongs to another station")
		}
	case domain.PaymentTypePayable:
		if req.SupplierID == "" {
			return domain.Payment{}, store.Invalid("supplier_id", "is required for payable payments")
		}
		if _, err := s.repo.GetSupplier(ctx, req.SupplierID); err != nil {
			return domain.Payment{}, err
		}
	}

	now := time.Now().UTC()
	payment := domain.Payment{
		StationID:   req.StationID,
		PaymentType: req.PaymentType,
		CustomerID:  req.CustomerID,
		SupplierID:  req.SupplierID,
		Amount:      req.Amount.Round(2),
		Method:      req.Method,
		Reference:   req.Reference,
		Notes:       req.Notes,
		CreatedAt:   now,
	}

	created, err := s.repo.CreatePayment(ctx, payment, paymentJournal(payment, now))
	if err != nil {
		return domain.Payment{}, err
	}
	s.dropDailyReport(ctx, created.StationID, created.CreatedAt)
	s.logAudit(ctx, created.StationID, "payment_record", "payment", created.ID, "type="+created.PaymentType+",amount="+created.Amount.String())
	return *created, nil
}

func (s *Service) ListPayments(ctx context.Context, stationID string, from time.Time, to time.Time) ([]domain.Payment, error) {
	actor, err := requireRole(ctx)
	if err != nil {
		return nil, err
	}
	if err := scopeStation(actor, stationID); err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = time.Now().UTC().Add(24 * time.Hour)
	}
	return s.repo.ListPayments(ctx, stationID, from, to)
}

// CreateJournalEntry books a manual adjustment. Debits must equal credits and
// each line carries either a debit or a credit, never both.
func (s *Service) CreateJournalEntry(ctx context.Context, req domain.JournalEntryCreateRequest) (domain.JournalEntry, error) {
	actor, err := requireRole(ctx, domain.RoleAdmin, domain.RoleManager)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	if err := s.check(req); err != nil {
		return domain.JournalEntry{}, err
	}
	if err := scopeStation(actor, req.StationID); err != nil {
		return domain.JournalEntry{}, err
	}

	now := time.Now().UTC()
	entryDate := now
	if req.EntryDate != "" {
		parsed, err := time.Parse("2006-01-02", req.EntryDate)
		if err != nil {
			return domain.JournalEntry{}, store.Invalid("entry_date", "must be YYYY-MM-DD")
		}
		entryDate = parsed
	}

	lines := make([]domain.JournalLine, 0, len(req.Lines))
	for _, input := range req.Lines {
		if input.Debit.IsNegative() || input.Credit.IsNegative() {
			return domain.JournalEntry{}, store.Invalid("lines", "debit and credit must not be negative")
		}
		if input.Debit.IsPositive() == input.Credit.IsPositive() {
			return domain.JournalEntry{}, store.Invalid("lines", "each line needs exactly one of debit or credit")
		}
		lines = append(lines, domain.JournalLine{
			AccountCode: input.AccountCode,
			Debit:       input.Debit.Round(2),
			Credit:      input.Credit.Round(2),
			Memo:        input.Memo,
		})
	}

	entry := domain.JournalEntry{
		EntryNumber: entryNumber(now),
		StationID:   req.StationID,
		EntryDate:   entryDate,
		Description: req.Description,
		CreatedAt:   now,
		Lines:       lines,
	}
	if !entry.Balanced() {
		return domain.JournalEntry{}, store.Invalid("lines", "debits must equal credits")
	}

	created, err := s.repo.CreateJournalEntry(ctx, entry)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	s.logAudit(ctx, created.StationID, "journal_create", "journal", created.ID, "entry="+created.EntryNumber)
	return *created, nil
}

func (s *Service) ListJournalEntries(ctx context.Context, stationID string, from time.Time, to time.Time, limit int) ([]domain.JournalEntry, error) {
	actor, err := requireRole(ctx)
	if err != nil {
		return nil, err
	}
	if err := scopeStation(actor, stationID); err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = time.Now().UTC().Add(24 * time.Hour)
	}
	return s.repo.ListJournalEntries(ctx, stationID, from, to, limit)
}

// Reconcile recomputes customer and supplier balances from document history
// and reports per-party drift. With apply set it also rewrites the stored
// balances to the computed values.
func (s *Service) Reconcile(ctx context.Context, stationID string, apply bool) (domain.ReconciliationResult, error) {
	actor, err := requireRole(ctx, domain.RoleAdmin, domain.RoleManager)
	if err != nil {
		return domain.ReconciliationResult{}, err
	}
	if err := scopeStation(actor, stationID); err != nil {
		return domain.ReconciliationResult{}, err
	}

	drifts, err := s.repo.RecomputeBalances(ctx, stationID, apply)
	if err != nil {
		return domain.ReconciliationResult{}, err
	}
	if apply && len(drifts) > 0 {
		s.logAudit(ctx, stationID, "reconcile_apply", "station", stationID, "drifts="+strconv.Itoa(len(drifts)))
	}
	return domain.ReconciliationResult{
		StationID: stationID,
		Applied:   apply,
		CheckedAt: time.Now().UTC().Format(time.RFC3339),
		Drifts:    drifts,
	}, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, stationID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	actor, err := requireRole(ctx, domain.RoleAdmin, domain.RoleManager)
	if err != nil {
		return nil, err
	}
	if err := scopeStation(actor, stationID); err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = time.Now().UTC().Add(24 * time.Hour)
	}
	return s.repo.ListAuditLogs(ctx, stationID, from, to, limit)
}

// paymentJournal moves the settled amount between cash and the matching
// balance-sheet account.
func paymentJournal(payment domain.Payment, now time.Time) *domain.JournalEntry {
	var lines []domain.JournalLine
	description := ""
	if payment.PaymentType == domain.PaymentTypeReceivable {
		description = "receivable payment"
		lines = []domain.JournalLine{
			{AccountCode: accountCash, Debit: payment.Amount, Memo: "customer payment"},
			{AccountCode: accountReceivable, Credit: payment.Amount, Memo: "receivable settled"},
		}
	} else {
		description = "payable payment"
		lines = []domain.JournalLine{
			{AccountCode: accountPayable, Debit: payment.Amount, Memo: "payable settled"},
			{AccountCode: accountCash, Credit: payment.Amount, Memo: "supplier payment"},
		}
	}

	return &domain.JournalEntry{
		EntryNumber: entryNumber(now),
		StationID:   payment.StationID,
		EntryDate:   now,
		Description: description,
		Lines:       lines,
	}
}
